package game

import (
	"encoding/json"
	"fmt"
	"os"
)

// EnemyType is one immutable entry of the enemy catalog. Damage and
// Score are separate fields: Damage is what a collision costs the
// colliding player, Score is what the enemy is worth to everyone else.
type EnemyType struct {
	Sprite string  `json:"sprite"`
	Speed  float64 `json:"speed"`
	Damage int     `json:"damage"`
	Score  int     `json:"score"`
}

// Catalog is the ordered list of enemy types, indexed by spawn-assigned
// type index. Loaded before the spawner activates, never mutated after.
type Catalog []EnemyType

// DefaultCatalog keeps damage equal to score for each entry, matching
// the tuning the game shipped with.
func DefaultCatalog() Catalog {
	return Catalog{
		{Sprite: "creep", Speed: 150, Damage: 1, Score: 1},
		{Sprite: "bomber", Speed: 220, Damage: 2, Score: 2},
		{Sprite: "streaker", Speed: 320, Damage: 1, Score: 3},
	}
}

// LoadCatalog reads a catalog from a JSON file.
func LoadCatalog(path string) (Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Catalog
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse enemy catalog %s: %w", path, err)
	}
	if len(c) == 0 {
		return nil, fmt.Errorf("enemy catalog %s is empty", path)
	}
	return c, nil
}
