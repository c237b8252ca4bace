// Package events is the per-session publish/subscribe hub for gameplay
// signals. Each peer runs its own bus; nothing here touches the network.
package events

// Kind identifies one of the gameplay signals.
type Kind int

const (
	// PlayerEliminated carries no payload. Elimination is session-wide
	// news, not addressed to any one player.
	PlayerEliminated Kind = iota
	// EnemyOutOfBounds carries an EnemyData payload.
	EnemyOutOfBounds
	// PlayerHitEnemy carries a HitPayload.
	PlayerHitEnemy
)

func (k Kind) String() string {
	switch k {
	case PlayerEliminated:
		return "player_eliminated"
	case EnemyOutOfBounds:
		return "enemy_out_of_bounds"
	case PlayerHitEnemy:
		return "player_hit_enemy"
	default:
		return "unknown"
	}
}

// EnemyData is the snapshot of an enemy's stats at the moment an event
// fires. Handlers must not assume the enemy still exists.
type EnemyData struct {
	ID     string  `json:"id"`
	Sprite string  `json:"sprite"`
	Speed  float64 `json:"speed"`
	Damage int     `json:"damage"`
	Score  int     `json:"score"`
}

// HitPayload identifies which player ran into which enemy.
type HitPayload struct {
	PlayerIndex int       `json:"playerIndex"`
	Enemy       EnemyData `json:"enemy"`
}

// Handler receives the payload published with the event, or nil for
// payload-free kinds.
type Handler func(payload any)

// Subscription is the handle returned by Subscribe, used to unsubscribe.
type Subscription struct {
	kind Kind
	id   int
}

type entry struct {
	id int
	fn Handler
}

// Bus dispatches events synchronously, in subscription order, on the
// publishing goroutine. Handlers must not publish or wait on the same
// kind they are handling.
type Bus struct {
	nextID   int
	handlers map[Kind][]entry
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[Kind][]entry)}
}

// Subscribe registers h for k. Subscribing the same function twice
// registers two invocations.
func (b *Bus) Subscribe(k Kind, h Handler) Subscription {
	b.nextID++
	b.handlers[k] = append(b.handlers[k], entry{id: b.nextID, fn: h})
	return Subscription{kind: k, id: b.nextID}
}

// Unsubscribe removes the handler behind s. Removing a subscription that
// is not present is a no-op.
func (b *Bus) Unsubscribe(s Subscription) {
	list := b.handlers[s.kind]
	for i, e := range list {
		if e.id == s.id {
			b.handlers[s.kind] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// Publish invokes every handler currently subscribed for k, in
// subscription order. The handler list is snapshotted first so a handler
// may unsubscribe itself (or others) while running.
func (b *Bus) Publish(k Kind, payload any) {
	list := b.handlers[k]
	snapshot := make([]entry, len(list))
	copy(snapshot, list)
	for _, e := range snapshot {
		e.fn(payload)
	}
}
