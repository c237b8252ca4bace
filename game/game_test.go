package game

import (
	"math/rand"

	"github.com/skotte/skyfall/skyfall-server/events"
	"github.com/skotte/skyfall/skyfall-server/replication"
)

func newTestWorld(peer replication.PeerID) (*replication.Context, *events.Bus, *replication.Dispatcher, *World) {
	ctx := &replication.Context{Local: peer}
	bus := events.NewBus()
	disp := replication.NewDispatcher(ctx)
	w := NewWorld(ctx, bus, disp, FixedBounds(DefaultBounds), DefaultCatalog(), rand.New(rand.NewSource(1)))
	return ctx, bus, disp, w
}

// spawnTyped creates an enemy and assigns it a catalog type through the
// dispatcher, the way the spawner does.
func spawnTyped(disp *replication.Dispatcher, w *World, typeIndex int) *Enemy {
	e := w.SpawnEnemy()
	disp.Invoke(e.EntityID(), "assign_type", AssignTypeArgs{TypeIndex: typeIndex})
	return e
}
