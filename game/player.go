package game

import (
	"encoding/json"
	"fmt"

	"github.com/skotte/skyfall/skyfall-server/events"
	"github.com/skotte/skyfall/skyfall-server/replication"
)

// Player is a participant's entity. Health, score and color are
// replicated scalars owned by the authority; position is not replicated
// at all — every peer integrates the same inputs each tick, so only
// outcome state needs an owner.
type Player struct {
	ctx    *replication.Context
	bus    *events.Bus
	disp   *replication.Dispatcher
	bounds Rect

	// Peer is the participant controlling this entity.
	Peer replication.PeerID
	// Index is the authority-assigned, stable per-session ordinal.
	Index int

	Pos Vec2

	color  *replication.Var[string]
	health *replication.Var[int]
	score  *replication.Var[int]

	active bool
	subs   []events.Subscription
}

func NewPlayer(ctx *replication.Context, bus *events.Bus, disp *replication.Dispatcher, bounds Rect, peer replication.PeerID, index int) *Player {
	return &Player{
		ctx:    ctx,
		bus:    bus,
		disp:   disp,
		bounds: bounds,
		Peer:   peer,
		Index:  index,
		color:  replication.NewVar(replication.Host, ""),
		health: replication.NewVar(replication.Host, 0),
		score:  replication.NewVar(replication.Host, 0),
	}
}

func (p *Player) EntityID() replication.EntityID {
	return replication.EntityID(fmt.Sprintf("player:%d", p.Index))
}

func (p *Player) Health() int { return p.health.Get() }

func (p *Player) Score() int { return p.score.Get() }

func (p *Player) Color() string { return p.color.Get() }

func (p *Player) Active() bool { return p.active }

// Activate subscribes the scoring/damage handlers and exposes the
// entity's remote calls. Must be paired with Deactivate or destroyed
// players keep receiving events.
func (p *Player) Activate() {
	p.subs = append(p.subs,
		p.bus.Subscribe(events.EnemyOutOfBounds, p.onEnemyOutOfBounds),
		p.bus.Subscribe(events.PlayerHitEnemy, p.onPlayerHitEnemy),
	)
	p.disp.Register(p.EntityID(), "reset", func(json.RawMessage) {
		p.resetState()
	})
}

func (p *Player) Deactivate() {
	for _, s := range p.subs {
		p.bus.Unsubscribe(s)
	}
	p.subs = nil
	p.disp.Deregister(p.EntityID())
}

// Spawn resets the entity to its starting state and makes it collidable.
// Authority only: health, score and color are replicated assignments.
func (p *Player) Spawn(color string) error {
	if err := p.health.Set(p.ctx, StartingHealth); err != nil {
		return err
	}
	if err := p.score.Set(p.ctx, 0); err != nil {
		return err
	}
	if err := p.color.Set(p.ctx, color); err != nil {
		return err
	}
	p.Pos = SpawnAnchor(p.bounds)
	p.active = true
	return nil
}

// IntegrateMovement advances the entity by one tick of input. Runs
// identically on every peer. Input is horizontal only, so any vertical
// component is discarded before integrating; the resulting position is
// clamped so the sprite stays fully inside the play area.
func (p *Player) IntegrateMovement(direction Vec2, dt float64) {
	direction.Y = 0
	p.Pos = p.Pos.Add(direction.Normalized().Scale(PlayerSpeed * dt))
	minX := p.bounds.MinX + PlayerWidth/2
	maxX := p.bounds.MaxX - PlayerWidth/2
	if p.Pos.X < minX {
		p.Pos.X = minX
	}
	if p.Pos.X > maxX {
		p.Pos.X = maxX
	}
}

// OnCollisionWithEnemy resolves a locally detected overlap. The hit is
// published only while the enemy is still alive, but destruction is
// requested unconditionally: a second peer may have destroyed it between
// our detection and now, and the request must still go out to guarantee
// cleanup.
func (p *Player) OnCollisionWithEnemy(e *Enemy) {
	if e.Alive() {
		p.bus.Publish(events.PlayerHitEnemy, events.HitPayload{
			PlayerIndex: p.Index,
			Enemy:       e.Data(),
		})
	}
	p.disp.Invoke(e.EntityID(), "destroy", nil)
}

func (p *Player) onEnemyOutOfBounds(payload any) {
	data, ok := payload.(events.EnemyData)
	if !ok {
		return
	}
	p.addScore(data.Score)
}

// onPlayerHitEnemy penalizes the colliding player and rewards everyone
// else. The asymmetric fan-out is intentional: all players share in
// another player's catch, only the collider pays.
func (p *Player) onPlayerHitEnemy(payload any) {
	hit, ok := payload.(events.HitPayload)
	if !ok {
		return
	}
	if hit.PlayerIndex == p.Index {
		p.ApplyDamage(hit.Enemy.Damage)
		return
	}
	p.addScore(hit.Enemy.Score)
}

func (p *Player) addScore(amount int) {
	if !p.active || !p.ctx.IsAuthority() {
		return
	}
	if err := p.score.Set(p.ctx, p.score.Get()+amount); err != nil {
		return
	}
}

// ApplyDamage subtracts health, or eliminates the player when the
// remainder would not stay above 1. While active, health never leaves
// (1, StartingHealth]; the floor is enforced by elimination, not by
// clamping.
func (p *Player) ApplyDamage(amount int) {
	if !p.active || !p.ctx.IsAuthority() {
		return
	}
	if p.health.Get()-amount > 1 {
		_ = p.health.Set(p.ctx, p.health.Get()-amount)
		return
	}
	p.active = false
	p.bus.Publish(events.PlayerEliminated, nil)
}

// resetState revives an eliminated player. It is a remote call replayed
// on every peer, so it writes local copies directly; calling it twice
// yields the same state as once.
func (p *Player) resetState() {
	p.active = true
	p.health.Apply(StartingHealth)
	p.score.Apply(0)
	p.Pos = SpawnAnchor(p.bounds)
}

// applySnapshot overwrites the local mirrors with authoritative state.
func (p *Player) applySnapshot(color string, health, score int, active bool, pos Vec2) {
	p.color.Apply(color)
	p.health.Apply(health)
	p.score.Apply(score)
	p.active = active
	p.Pos = pos
}
