// Tunable gameplay parameters, kept in one place.
package game

const (
	// Default play field extent in world units.
	FieldWidth  = 800.0
	FieldHeight = 600.0

	// PlayerSpeed is world units per second.
	PlayerSpeed  = 400.0
	PlayerWidth  = 40.0
	PlayerHeight = 40.0

	EnemyWidth  = 40.0
	EnemyHeight = 40.0

	StartingHealth = 3

	// SpawnDelay is the enemy spawner cooldown in seconds.
	SpawnDelay = 1.5

	// StartCountdown is the delay between a start request and gameplay,
	// in seconds. Also re-armed after an acknowledged restart.
	StartCountdown = 3.0
)

// DefaultBounds is the play field used when no screen-bounds provider is
// wired in.
var DefaultBounds = Rect{MinX: 0, MinY: 0, MaxX: FieldWidth, MaxY: FieldHeight}

// SpawnAnchor is where players appear: bottom center of the field.
func SpawnAnchor(r Rect) Vec2 {
	return Vec2{X: r.MinX + r.Width()/2, Y: r.MaxY - PlayerHeight}
}
