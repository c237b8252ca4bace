package game

import (
	"testing"

	"github.com/skotte/skyfall/skyfall-server/replication"
)

func TestSpawnerRespectsReadinessAndCooldown(t *testing.T) {
	_, _, _, w := newTestWorld(replication.Host)

	// Not ready: no spawn, no state change.
	w.Step(0.025, false)
	if w.EnemyCount() != 0 {
		t.Fatalf("spawned while not ready: %d", w.EnemyCount())
	}

	// Ready: one spawn, then the cooldown gates the next.
	w.Step(0.025, true)
	if w.EnemyCount() != 1 {
		t.Fatalf("enemy count = %d, want 1", w.EnemyCount())
	}

	steps := int(SpawnDelay/0.025) - 2
	for i := 0; i < steps; i++ {
		w.Step(0.025, true)
	}
	if w.EnemyCount() != 1 {
		t.Fatalf("enemy count = %d before cooldown elapsed, want 1", w.EnemyCount())
	}

	for i := 0; i < 4; i++ {
		w.Step(0.025, true)
	}
	if w.EnemyCount() != 2 {
		t.Fatalf("enemy count = %d after cooldown elapsed, want 2", w.EnemyCount())
	}
}

func TestSpawnerAssignsTypeOnSpawn(t *testing.T) {
	_, _, _, w := newTestWorld(replication.Host)

	w.Step(0.025, true)
	for _, e := range w.snapshotEnemies() {
		if e.TypeIndex() < 0 || e.TypeIndex() >= len(DefaultCatalog()) {
			t.Fatalf("spawned enemy has type index %d", e.TypeIndex())
		}
		if e.Speed() == 0 {
			t.Fatal("spawned enemy still has placeholder stats")
		}
	}
}

func TestSpawnerOnlyRunsOnTheAuthority(t *testing.T) {
	_, _, _, w := newTestWorld(2)

	for i := 0; i < 100; i++ {
		w.Step(0.025, true)
	}
	if w.EnemyCount() != 0 {
		t.Fatalf("observer spawned %d enemies", w.EnemyCount())
	}
}
