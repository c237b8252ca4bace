package session

import (
	"math/rand"
	"testing"

	"github.com/skotte/skyfall/skyfall-server/events"
	"github.com/skotte/skyfall/skyfall-server/game"
	"github.com/skotte/skyfall/skyfall-server/replication"
)

func newTestManager(allowSolo bool) (*Manager, *game.World, *replication.Dispatcher) {
	ctx := &replication.Context{Local: replication.Host}
	bus := events.NewBus()
	disp := replication.NewDispatcher(ctx)
	rng := rand.New(rand.NewSource(1))
	world := game.NewWorld(ctx, bus, disp, game.FixedBounds(game.DefaultBounds), game.DefaultCatalog(), rng)
	m := NewManager(ctx, bus, disp, world, rng, allowSolo)
	m.Begin(ModeHost, "test")
	m.TransportEstablished()
	return m, world, disp
}

func startPlaying(t *testing.T, m *Manager, disp *replication.Dispatcher) {
	t.Helper()
	disp.Invoke(SessionEntity, "start", peerArgs{Peer: replication.Host})
	for i := 0; i < 200 && m.State() != Playing; i++ {
		m.Tick(0.025)
	}
	if m.State() != Playing {
		t.Fatalf("state = %v after countdown, want playing", m.State())
	}
}

func TestQuorumTracksJoinAndLeave(t *testing.T) {
	m, _, _ := newTestManager(false)
	if m.State() != Lobby || m.HasQuorum() {
		t.Fatalf("fresh session: state=%v quorum=%v", m.State(), m.HasQuorum())
	}

	m.HandleJoin(2, "10", "ada")
	if m.HasQuorum() {
		t.Fatal("quorum with a single participant and no solo play")
	}
	if m.State() != Lobby {
		t.Fatalf("state = %v, want lobby", m.State())
	}

	m.HandleJoin(3, "11", "bob")
	if !m.HasQuorum() || m.State() != Ready {
		t.Fatalf("two participants: quorum=%v state=%v", m.HasQuorum(), m.State())
	}

	m.HandleLeave(3)
	if m.HasQuorum() || m.State() != Lobby {
		t.Fatalf("after leave: quorum=%v state=%v", m.HasQuorum(), m.State())
	}
}

func TestSoloPlayPermitsQuorumAlone(t *testing.T) {
	m, _, _ := newTestManager(true)
	m.HandleJoin(2, "10", "ada")
	if !m.HasQuorum() || m.State() != Ready {
		t.Fatalf("solo join: quorum=%v state=%v", m.HasQuorum(), m.State())
	}
}

func TestStartCountdownFlipsSpawningFlag(t *testing.T) {
	m, _, disp := newTestManager(false)
	m.HandleJoin(2, "10", "ada")
	m.HandleJoin(3, "11", "bob")

	disp.Invoke(SessionEntity, "start", peerArgs{Peer: replication.Host})
	if m.Spawning() {
		t.Fatal("spawning before the countdown expired")
	}

	elapsed := 0.0
	for m.State() != Playing {
		m.Tick(0.025)
		elapsed += 0.025
		if elapsed > game.StartCountdown+1 {
			t.Fatal("countdown never expired")
		}
	}
	if !m.Spawning() {
		t.Fatal("spawning flag down while playing")
	}
	if elapsed < game.StartCountdown-0.05 {
		t.Fatalf("countdown expired after %f, want about %f", elapsed, game.StartCountdown)
	}
}

func TestStartIgnoredWithoutQuorum(t *testing.T) {
	m, _, disp := newTestManager(false)
	m.HandleJoin(2, "10", "ada")

	disp.Invoke(SessionEntity, "start", peerArgs{Peer: replication.Host})
	for i := 0; i < 200; i++ {
		m.Tick(0.025)
	}
	if m.State() != Lobby || m.Spawning() {
		t.Fatalf("start without quorum: state=%v spawning=%v", m.State(), m.Spawning())
	}
}

func TestStartIgnoredFromNonAuthority(t *testing.T) {
	m, _, disp := newTestManager(false)
	m.HandleJoin(2, "10", "ada")
	m.HandleJoin(3, "11", "bob")

	disp.Invoke(SessionEntity, "start", peerArgs{Peer: 2})
	for i := 0; i < 200; i++ {
		m.Tick(0.025)
	}
	if m.State() != Ready {
		t.Fatalf("state = %v, want ready (request not from the authority)", m.State())
	}
}

func TestEliminationToGameOver(t *testing.T) {
	m, world, disp := newTestManager(false)
	m.HandleJoin(2, "10", "ada")
	m.HandleJoin(3, "11", "bob")
	startPlaying(t, m, disp)

	world.Player(0).ApplyDamage(game.StartingHealth)

	if m.State() != GameOver || !m.IsGameOver() {
		t.Fatalf("state = %v gameOver = %v, want game over", m.State(), m.IsGameOver())
	}
	if m.Spawning() {
		t.Fatal("spawning still enabled after game over")
	}
}

func TestLeaveAloneNeverTriggersGameOver(t *testing.T) {
	m, _, disp := newTestManager(true)
	m.HandleJoin(2, "10", "ada")
	m.HandleJoin(3, "11", "bob")
	startPlaying(t, m, disp)

	// Dropping to one active participant without an elimination event
	// does not end the game.
	m.HandleLeave(3)
	if m.State() != Playing {
		t.Fatalf("state = %v, want playing", m.State())
	}
}

func TestRestartWaitsForEveryAcknowledgement(t *testing.T) {
	m, world, disp := newTestManager(false)
	m.HandleJoin(2, "10", "ada")
	m.HandleJoin(3, "11", "bob")
	m.HandleJoin(4, "12", "eve")
	startPlaying(t, m, disp)

	world.Player(0).ApplyDamage(game.StartingHealth)
	world.Player(1).ApplyDamage(game.StartingHealth)
	if m.State() != GameOver {
		t.Fatalf("state = %v, want game over", m.State())
	}

	disp.Invoke(SessionEntity, "restart_ack", peerArgs{Peer: 2})
	disp.Invoke(SessionEntity, "restart_ack", peerArgs{Peer: 3})
	// Acknowledging twice must not count twice.
	disp.Invoke(SessionEntity, "restart_ack", peerArgs{Peer: 3})
	if m.State() != GameOver {
		t.Fatalf("restarted with 2 of 3 acknowledgements, state = %v", m.State())
	}

	disp.Invoke(SessionEntity, "restart_ack", peerArgs{Peer: 4})
	if m.IsGameOver() || m.State() != Ready {
		t.Fatalf("after full tally: gameOver=%v state=%v", m.IsGameOver(), m.State())
	}
	for idx := 0; idx < 3; idx++ {
		p := world.Player(idx)
		if !p.Active() || p.Health() != game.StartingHealth || p.Score() != 0 {
			t.Fatalf("player %d not reset: active=%v health=%d score=%d",
				idx, p.Active(), p.Health(), p.Score())
		}
	}
	if m.CountdownRemaining() <= 0 {
		t.Fatal("restart did not re-arm the start countdown")
	}
}

func TestLeaverCannotWedgeRestartTally(t *testing.T) {
	m, world, disp := newTestManager(false)
	m.HandleJoin(2, "10", "ada")
	m.HandleJoin(3, "11", "bob")
	m.HandleJoin(4, "12", "eve")
	startPlaying(t, m, disp)

	world.Player(0).ApplyDamage(game.StartingHealth)
	world.Player(1).ApplyDamage(game.StartingHealth)

	disp.Invoke(SessionEntity, "restart_ack", peerArgs{Peer: 2})
	disp.Invoke(SessionEntity, "restart_ack", peerArgs{Peer: 3})

	// The only peer yet to acknowledge disconnects; the tally is now
	// complete for everyone still here.
	m.HandleLeave(4)
	if m.IsGameOver() {
		t.Fatal("restart still pending after the holdout left")
	}
}

func TestJoinClearsGameOverWhenQuorumReturns(t *testing.T) {
	m, world, disp := newTestManager(false)
	m.HandleJoin(2, "10", "ada")
	m.HandleJoin(3, "11", "bob")
	startPlaying(t, m, disp)

	world.Player(0).ApplyDamage(game.StartingHealth)
	m.HandleLeave(2)
	if m.State() != GameOver {
		t.Fatalf("state = %v, want game over", m.State())
	}

	m.HandleJoin(5, "13", "kim")
	if m.IsGameOver() || m.State() != Ready {
		t.Fatalf("after quorum returned: gameOver=%v state=%v", m.IsGameOver(), m.State())
	}
}
