package game

import (
	"math"
	"math/rand"
	"strconv"
	"strings"

	"github.com/skotte/skyfall/skyfall-server/events"
	"github.com/skotte/skyfall/skyfall-server/protocol"
	"github.com/skotte/skyfall/skyfall-server/replication"
)

// World owns the entities of one session and steps the local simulation
// at a fixed rate. One World per peer; the authority's copy is canonical.
type World struct {
	ctx    *replication.Context
	bus    *events.Bus
	disp   *replication.Dispatcher
	bounds Rect
	rng    *rand.Rand

	Tick    uint64
	elapsed float64

	players map[int]*Player
	enemies map[int]*Enemy
	inputs  map[replication.PeerID]Vec2

	catalog     Catalog
	spawner     *Spawner
	nextEnemyID int
}

// NewWorld reads the screen extent from the provider once; the field is
// static for the session's lifetime.
func NewWorld(ctx *replication.Context, bus *events.Bus, disp *replication.Dispatcher, screen ScreenBounds, catalog Catalog, rng *rand.Rand) *World {
	w := &World{
		ctx:     ctx,
		bus:     bus,
		disp:    disp,
		bounds:  screen.Bounds(),
		rng:     rng,
		players: make(map[int]*Player),
		enemies: make(map[int]*Enemy),
		inputs:  make(map[replication.PeerID]Vec2),
		catalog: catalog,
	}
	w.spawner = NewSpawner(ctx, w, catalog, rng)
	return w
}

func (w *World) Bounds() Rect { return w.bounds }

// SetInput records the latest direction for a peer's player. Inputs are
// sampled once per tick; the newest one wins.
func (w *World) SetInput(peer replication.PeerID, dir Vec2) {
	w.inputs[peer] = dir
}

// AddPlayer creates and activates the entity for a participant.
func (w *World) AddPlayer(peer replication.PeerID, index int) *Player {
	p := NewPlayer(w.ctx, w.bus, w.disp, w.bounds, peer, index)
	p.Activate()
	w.players[index] = p
	return p
}

// RemovePlayer deactivates and drops the entity. Unknown indexes are
// ignored.
func (w *World) RemovePlayer(index int) {
	p, ok := w.players[index]
	if !ok {
		return
	}
	p.Deactivate()
	delete(w.players, index)
	delete(w.inputs, p.Peer)
}

func (w *World) Player(index int) *Player {
	return w.players[index]
}

func (w *World) PlayerByPeer(peer replication.PeerID) *Player {
	for _, p := range w.players {
		if p.Peer == peer {
			return p
		}
	}
	return nil
}

// Players returns the live player set. Callers must not add or remove
// entries.
func (w *World) Players() map[int]*Player {
	return w.players
}

// ActivePlayers counts players that are not eliminated.
func (w *World) ActivePlayers() int {
	n := 0
	for _, p := range w.players {
		if p.Active() {
			n++
		}
	}
	return n
}

func (w *World) EnemyCount() int {
	return len(w.enemies)
}

// SpawnEnemy creates, places and activates one enemy. Authority side;
// observers materialize enemies from snapshots instead.
func (w *World) SpawnEnemy() *Enemy {
	w.nextEnemyID++
	e := NewEnemy(w.ctx, w.bus, w.disp, w.bounds, w.catalog, w.nextEnemyID)
	e.Spawn()
	e.InitPlacement(w.rng)
	e.Activate()
	e.onDestroy = w.dropEnemy
	w.enemies[e.ID] = e
	return e
}

func (w *World) dropEnemy(e *Enemy) {
	delete(w.enemies, e.ID)
}

// Step runs one fixed-rate simulation tick: movement integration, enemy
// descent, collision checks, spawner check. ready gates the spawner.
func (w *World) Step(dt float64, ready bool) {
	w.Tick++
	w.elapsed += dt

	for _, p := range w.players {
		if !p.Active() {
			continue
		}
		p.IntegrateMovement(w.inputs[p.Peer], dt)
	}

	for _, e := range w.snapshotEnemies() {
		e.Tick(dt)
	}

	w.resolveCollisions()
	w.spawner.Tick(w.elapsed, ready)
}

// snapshotEnemies copies the enemy list so ticking (which may destroy
// and therefore delete) does not mutate the map mid-range.
func (w *World) snapshotEnemies() []*Enemy {
	out := make([]*Enemy, 0, len(w.enemies))
	for _, e := range w.enemies {
		out = append(out, e)
	}
	return out
}

func (w *World) resolveCollisions() {
	for _, p := range w.players {
		if !p.Active() {
			continue
		}
		for _, e := range w.snapshotEnemies() {
			// A hit may eliminate the player, which retracts its
			// collision surface for the rest of the tick.
			if !p.Active() {
				break
			}
			if overlaps(p.Pos, PlayerWidth, PlayerHeight, e.Pos, EnemyWidth, EnemyHeight) {
				p.OnCollisionWithEnemy(e)
			}
		}
	}
}

func overlaps(a Vec2, aw, ah float64, b Vec2, bw, bh float64) bool {
	return math.Abs(a.X-b.X) < (aw+bw)/2 && math.Abs(a.Y-b.Y) < (ah+bh)/2
}

// BuildSnapshot serializes the authoritative state for the sync tick.
func (w *World) BuildSnapshot(sessionState string, gameOver bool) protocol.Snapshot {
	snap := protocol.Snapshot{
		Tick:         w.Tick,
		SessionState: sessionState,
		GameOver:     gameOver,
		Players:      make([]protocol.PlayerSnapshot, 0, len(w.players)),
		Enemies:      make([]protocol.EnemySnapshot, 0, len(w.enemies)),
	}
	for _, p := range w.players {
		snap.Players = append(snap.Players, protocol.PlayerSnapshot{
			Index:  p.Index,
			PeerID: int(p.Peer),
			Color:  p.Color(),
			Health: p.Health(),
			Score:  p.Score(),
			Active: p.Active(),
			X:      p.Pos.X,
			Y:      p.Pos.Y,
		})
	}
	for _, e := range w.enemies {
		snap.Enemies = append(snap.Enemies, protocol.EnemySnapshot{
			ID:        string(e.EntityID()),
			TypeIndex: e.TypeIndex(),
			X:         e.Pos.X,
			Y:         e.Pos.Y,
			Speed:     e.Speed(),
			Damage:    e.Damage(),
			Score:     e.Score(),
			Sprite:    e.Sprite(),
		})
	}
	return snap
}

// ApplySnapshot mirrors authoritative state on an observing peer:
// most-recent-wins per entity, missing entities are created, absent ones
// dropped. The authority never applies snapshots.
func (w *World) ApplySnapshot(snap protocol.Snapshot) {
	if w.ctx.IsAuthority() {
		return
	}

	seenPlayers := make(map[int]bool, len(snap.Players))
	for _, ps := range snap.Players {
		seenPlayers[ps.Index] = true
		p, ok := w.players[ps.Index]
		if !ok {
			p = w.AddPlayer(replication.PeerID(ps.PeerID), ps.Index)
		}
		p.applySnapshot(ps.Color, ps.Health, ps.Score, ps.Active, Vec2{X: ps.X, Y: ps.Y})
	}
	for idx := range w.players {
		if !seenPlayers[idx] {
			w.RemovePlayer(idx)
		}
	}

	seenEnemies := make(map[int]bool, len(snap.Enemies))
	for _, es := range snap.Enemies {
		id := enemyIDFromEntityID(es.ID)
		if id == 0 {
			continue
		}
		seenEnemies[id] = true
		e, ok := w.enemies[id]
		if !ok {
			e = NewEnemy(w.ctx, w.bus, w.disp, w.bounds, w.catalog, id)
			e.Spawn()
			e.Activate()
			e.onDestroy = w.dropEnemy
			w.enemies[id] = e
		}
		e.applySnapshot(es.TypeIndex, es.Sprite, es.Speed, es.Damage, es.Score, Vec2{X: es.X, Y: es.Y})
	}
	for _, e := range w.snapshotEnemies() {
		if !seenEnemies[e.ID] {
			e.Destroy()
		}
	}
}

func enemyIDFromEntityID(s string) int {
	rest, ok := strings.CutPrefix(s, "enemy:")
	if !ok {
		return 0
	}
	id, err := strconv.Atoi(rest)
	if err != nil {
		return 0
	}
	return id
}
