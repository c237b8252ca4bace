package session

import (
	"errors"
	"testing"
	"time"

	"github.com/skotte/skyfall/skyfall-server/game"
	"github.com/skotte/skyfall/skyfall-server/protocol"
	"github.com/skotte/skyfall/skyfall-server/replication"
)

type fakeConn struct {
	sent   chan []byte
	closed chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{sent: make(chan []byte, 256), closed: make(chan struct{})}
}

func (c *fakeConn) Send(b []byte) error {
	select {
	case c.sent <- b:
		return nil
	default:
		return errors.New("fake conn buffer full")
	}
}

func (c *fakeConn) Close() error {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}
	return nil
}

func newTestSession() *Session {
	return New(Config{Name: "test", AllowSolo: false, Seed: 1})
}

func joinPeer(t *testing.T, s *Session, conn *fakeConn, userID, username string) JoinResult {
	t.Helper()
	reply := make(chan JoinResult, 1)
	s.Inbox <- Join{Conn: conn, UserID: userID, Username: username, Reply: reply}
	select {
	case res := <-reply:
		return res
	case <-time.After(2 * time.Second):
		t.Fatalf("no join reply for %s", username)
		return JoinResult{}
	}
}

// waitForState drains a connection's outbox until a state broadcast
// satisfies the predicate.
func waitForState(t *testing.T, conn *fakeConn, want func(protocol.Snapshot) bool) protocol.Snapshot {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case b := <-conn.sent:
			env, err := protocol.DecodeEnvelope(b)
			if err != nil {
				t.Fatalf("decode envelope: %v", err)
			}
			if env.T != protocol.MsgState {
				continue
			}
			snap, err := protocol.DecodePayload[protocol.Snapshot](env)
			if err != nil {
				t.Fatalf("decode snapshot: %v", err)
			}
			if want(snap) {
				return snap
			}
		case <-deadline:
			t.Fatal("no matching state broadcast")
		}
	}
}

// nextEnvelope pops one frame off a connection's outbox.
func nextEnvelope(t *testing.T, conn *fakeConn) protocol.Envelope {
	t.Helper()
	select {
	case b := <-conn.sent:
		env, err := protocol.DecodeEnvelope(b)
		if err != nil {
			t.Fatalf("decode envelope: %v", err)
		}
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("no frame on connection")
		return protocol.Envelope{}
	}
}

func TestJoinAssignsPeersAndWelcomes(t *testing.T) {
	s := newTestSession()
	go s.Run()
	defer s.Stop()

	c1, c2 := newFakeConn(), newFakeConn()
	r1 := joinPeer(t, s, c1, "10", "ada")
	r2 := joinPeer(t, s, c2, "11", "bob")

	if r1.Peer == replication.Host || r2.Peer == replication.Host {
		t.Fatalf("a joined peer got the host id: %d, %d", r1.Peer, r2.Peer)
	}
	if r1.Peer == r2.Peer {
		t.Fatalf("both peers got id %d", r1.Peer)
	}

	env := nextEnvelope(t, c1)
	if env.T != protocol.MsgWelcome {
		t.Fatalf("first frame type = %q, want %q", env.T, protocol.MsgWelcome)
	}
	w, err := protocol.DecodePayload[protocol.Welcome](env)
	if err != nil {
		t.Fatalf("decode welcome payload: %v", err)
	}
	if w.PeerID != r1.Peer {
		t.Fatalf("welcome peer id = %d, want %d", w.PeerID, r1.Peer)
	}
}

func TestWelcomeArrivesBeforeOwnJoinBroadcast(t *testing.T) {
	s := newTestSession()
	go s.Run()
	defer s.Stop()

	c1 := newFakeConn()
	r1 := joinPeer(t, s, c1, "10", "ada")

	first := nextEnvelope(t, c1)
	if first.T != protocol.MsgWelcome {
		t.Fatalf("first frame type = %q, want %q", first.T, protocol.MsgWelcome)
	}
	second := nextEnvelope(t, c1)
	if second.T != protocol.MsgPeerJoined {
		t.Fatalf("second frame type = %q, want %q", second.T, protocol.MsgPeerJoined)
	}
	pj, err := protocol.DecodePayload[protocol.PeerJoined](second)
	if err != nil {
		t.Fatalf("decode peer_joined: %v", err)
	}
	if pj.PeerID != r1.Peer {
		t.Fatalf("peer_joined about %d, want %d", pj.PeerID, r1.Peer)
	}
}

func TestStateBroadcastCarriesJoinedPlayers(t *testing.T) {
	s := newTestSession()
	go s.Run()
	defer s.Stop()

	c1, c2 := newFakeConn(), newFakeConn()
	joinPeer(t, s, c1, "10", "ada")
	joinPeer(t, s, c2, "11", "bob")

	snap := waitForState(t, c2, func(snap protocol.Snapshot) bool {
		return len(snap.Players) == 2
	})
	if snap.SessionState != Ready.String() {
		t.Fatalf("session state = %q, want %q", snap.SessionState, Ready.String())
	}
	for _, p := range snap.Players {
		if p.Health != game.StartingHealth || !p.Active {
			t.Fatalf("player %d: health=%d active=%v", p.Index, p.Health, p.Active)
		}
	}
}

func TestLeaderStartReachesPlaying(t *testing.T) {
	s := newTestSession()
	go s.Run()
	defer s.Stop()

	c1, c2 := newFakeConn(), newFakeConn()
	r1 := joinPeer(t, s, c1, "10", "ada")
	joinPeer(t, s, c2, "11", "bob")

	s.Inbox <- StartCmd{Peer: r1.Peer}

	waitForState(t, c1, func(snap protocol.Snapshot) bool {
		return snap.SessionState == Playing.String()
	})
}

func TestStartFromFollowerIsIgnored(t *testing.T) {
	s := newTestSession()
	go s.Run()
	defer s.Stop()

	c1, c2 := newFakeConn(), newFakeConn()
	joinPeer(t, s, c1, "10", "ada")
	r2 := joinPeer(t, s, c2, "11", "bob")

	s.Inbox <- StartCmd{Peer: r2.Peer}

	// Well past the countdown; the session must still be in the lobby
	// phase because only the leader may start it.
	time.Sleep(time.Duration((game.StartCountdown + 0.5) * float64(time.Second)))
	snap := waitForState(t, c1, func(protocol.Snapshot) bool { return true })
	if snap.SessionState != Ready.String() {
		t.Fatalf("session state = %q, want %q", snap.SessionState, Ready.String())
	}
}

func TestInputMovesPlayerInSnapshots(t *testing.T) {
	s := newTestSession()
	go s.Run()
	defer s.Stop()

	c1, c2 := newFakeConn(), newFakeConn()
	r1 := joinPeer(t, s, c1, "10", "ada")
	joinPeer(t, s, c2, "11", "bob")

	s.Inbox <- StartCmd{Peer: r1.Peer}
	waitForState(t, c1, func(snap protocol.Snapshot) bool {
		return snap.SessionState == Playing.String()
	})

	before := waitForState(t, c1, func(snap protocol.Snapshot) bool {
		return len(snap.Players) == 2
	})
	var startX float64
	for _, p := range before.Players {
		if p.PeerID == int(r1.Peer) {
			startX = p.X
		}
	}

	s.Inbox <- InputCmd{Peer: r1.Peer, Dir: game.Vec2{X: 1}}

	waitForState(t, c1, func(snap protocol.Snapshot) bool {
		for _, p := range snap.Players {
			if p.PeerID == int(r1.Peer) && p.X > startX {
				return true
			}
		}
		return false
	})
}

func TestFailedConnIsRemovedFromTheSession(t *testing.T) {
	s := newTestSession()
	go s.Run()
	defer s.Stop()

	c1, c2 := newFakeConn(), newFakeConn()
	joinPeer(t, s, c1, "10", "ada")
	joinPeer(t, s, c2, "11", "bob")

	// Stop draining c2 and fill its buffer so the next broadcast fails.
	for i := 0; i < cap(c2.sent); i++ {
		select {
		case c2.sent <- nil:
		default:
		}
	}

	waitForState(t, c1, func(snap protocol.Snapshot) bool {
		return len(snap.Players) == 1
	})
	select {
	case <-c2.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("dropped connection never closed")
	}
}
