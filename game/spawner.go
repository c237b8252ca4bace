package game

import (
	"math/rand"

	"github.com/skotte/skyfall/skyfall-server/replication"
)

// Spawner creates enemies on a cooldown. It runs on every peer but only
// the authority ever spawns: if each peer spawned independently they
// would each produce a divergent set of enemies, so one peer creates the
// canonical entity and replication mirrors it out.
type Spawner struct {
	ctx     *replication.Context
	world   *World
	catalog Catalog
	rng     *rand.Rand

	// nextSpawnAt is the world-clock time at which the next spawn is
	// permitted.
	nextSpawnAt float64
}

func NewSpawner(ctx *replication.Context, world *World, catalog Catalog, rng *rand.Rand) *Spawner {
	return &Spawner{ctx: ctx, world: world, catalog: catalog, rng: rng}
}

// Tick spawns at most one enemy. ready is the session readiness flag:
// while it is down, no spawn occurs and no state changes.
func (s *Spawner) Tick(now float64, ready bool) {
	if !s.ctx.IsAuthority() {
		return
	}
	if !ready || now < s.nextSpawnAt {
		return
	}
	e := s.world.SpawnEnemy()
	idx := s.rng.Intn(len(s.catalog))
	s.world.disp.Invoke(e.EntityID(), "assign_type", AssignTypeArgs{TypeIndex: idx})
	s.nextSpawnAt = now + SpawnDelay
}
