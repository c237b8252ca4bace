package game

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"

	"github.com/skotte/skyfall/skyfall-server/events"
	"github.com/skotte/skyfall/skyfall-server/replication"
)

// Enemy descends in a straight line from the top of the field until it
// either exits the bottom or a player runs into it. Its stats are copied
// out of the catalog at spawn time and replicated from the authority.
type Enemy struct {
	ctx    *replication.Context
	bus    *events.Bus
	disp   *replication.Dispatcher
	bounds Rect

	ID      int
	catalog Catalog

	typeIndex *replication.Var[int]
	sprite    *replication.Var[string]
	speed     *replication.Var[float64]
	damage    *replication.Var[int]
	score     *replication.Var[int]

	Pos       Vec2
	destroyed bool

	// onDestroy detaches the enemy from its world exactly once.
	onDestroy func(*Enemy)
}

func NewEnemy(ctx *replication.Context, bus *events.Bus, disp *replication.Dispatcher, bounds Rect, catalog Catalog, id int) *Enemy {
	return &Enemy{
		ctx:     ctx,
		bus:     bus,
		disp:    disp,
		bounds:  bounds,
		ID:      id,
		catalog: catalog,
	}
}

func (e *Enemy) EntityID() replication.EntityID {
	return replication.EntityID(fmt.Sprintf("enemy:%d", e.ID))
}

func (e *Enemy) TypeIndex() int { return e.typeIndex.Get() }

func (e *Enemy) Sprite() string { return e.sprite.Get() }

func (e *Enemy) Speed() float64 { return e.speed.Get() }

func (e *Enemy) Damage() int { return e.damage.Get() }

func (e *Enemy) Score() int { return e.score.Get() }

func (e *Enemy) Alive() bool { return !e.destroyed }

// Spawn zero-initializes the replicated stats. The entity is placeholder
// state until AssignType runs.
func (e *Enemy) Spawn() {
	e.typeIndex = replication.NewVar(replication.Host, -1)
	e.sprite = replication.NewVar(replication.Host, "")
	e.speed = replication.NewVar(replication.Host, 0.0)
	e.damage = replication.NewVar(replication.Host, 0)
	e.score = replication.NewVar(replication.Host, 0)
}

// InitPlacement puts the enemy at a uniformly random horizontal offset
// along the top edge, fully on-screen.
func (e *Enemy) InitPlacement(rng *rand.Rand) {
	minX := e.bounds.MinX + EnemyWidth/2
	maxX := e.bounds.MaxX - EnemyWidth/2
	e.Pos = Vec2{X: minX + rng.Float64()*(maxX-minX), Y: e.bounds.MinY}
}

// Activate exposes the enemy's remote calls.
func (e *Enemy) Activate() {
	e.disp.Register(e.EntityID(), "assign_type", func(args json.RawMessage) {
		var a AssignTypeArgs
		if err := json.Unmarshal(args, &a); err != nil {
			log.Printf("enemy %d: bad assign_type args: %v", e.ID, err)
			return
		}
		e.assignType(a.TypeIndex)
	})
	e.disp.Register(e.EntityID(), "destroy", func(json.RawMessage) {
		e.Destroy()
	})
}

// AssignTypeArgs is the payload of the assign_type remote call the
// spawner issues right after creating an enemy.
type AssignTypeArgs struct {
	TypeIndex int `json:"typeIndex"`
}

// assignType copies the catalog entry into the replicated stats. It runs
// on every peer, so it writes local copies directly.
func (e *Enemy) assignType(idx int) {
	if idx < 0 || idx >= len(e.catalog) {
		log.Printf("enemy %d: type index %d out of range", e.ID, idx)
		return
	}
	t := e.catalog[idx]
	e.typeIndex.Apply(idx)
	e.sprite.Apply(t.Sprite)
	e.speed.Apply(t.Speed)
	e.damage.Apply(t.Damage)
	e.score.Apply(t.Score)
}

// Tick advances the descent and handles bottom exit. Every peer runs
// this locally; the exit is detected, announced and cleaned up on each
// peer independently.
func (e *Enemy) Tick(dt float64) {
	if e.destroyed {
		return
	}
	e.Pos.Y += e.speed.Get() * dt
	if e.Pos.Y-EnemyHeight/2 > e.bounds.MaxY {
		e.bus.Publish(events.EnemyOutOfBounds, e.Data())
		e.Destroy()
	}
}

// Destroy removes the enemy from the simulation. Idempotent: collision
// resolution on several peers may request it more than once.
func (e *Enemy) Destroy() {
	if e.destroyed {
		return
	}
	e.destroyed = true
	e.disp.Deregister(e.EntityID())
	if e.onDestroy != nil {
		e.onDestroy(e)
	}
}

// Data snapshots the stats for an event payload.
func (e *Enemy) Data() events.EnemyData {
	return events.EnemyData{
		ID:     string(e.EntityID()),
		Sprite: e.sprite.Get(),
		Speed:  e.speed.Get(),
		Damage: e.damage.Get(),
		Score:  e.score.Get(),
	}
}

// applySnapshot overwrites the local mirrors with authoritative state.
func (e *Enemy) applySnapshot(typeIndex int, sprite string, speed float64, damage, score int, pos Vec2) {
	e.typeIndex.Apply(typeIndex)
	e.sprite.Apply(sprite)
	e.speed.Apply(speed)
	e.damage.Apply(damage)
	e.score.Apply(score)
	e.Pos = pos
}
