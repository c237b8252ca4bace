// Package session runs one game session: the lifecycle state machine,
// the actor loop that owns the world, and the fan-out of authoritative
// state to joined peers.
package session

import (
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/skotte/skyfall/skyfall-server/events"
	"github.com/skotte/skyfall/skyfall-server/game"
	"github.com/skotte/skyfall/skyfall-server/models"
	"github.com/skotte/skyfall/skyfall-server/protocol"
	"github.com/skotte/skyfall/skyfall-server/replication"
)

// MatchSaver persists a finished match. Nil disables persistence.
type MatchSaver interface {
	SaveMatch(rec models.MatchRecord) error
}

// Session is the hosting peer's actor: a single goroutine owning the
// world, the manager and the connection set. Everything reaches it
// through Inbox, so the core packages need no locks.
type Session struct {
	Inbox chan any

	ctx     *replication.Context
	bus     *events.Bus
	disp    *replication.Dispatcher
	world   *game.World
	manager *Manager

	conns    map[replication.PeerID]Conn
	nextPeer replication.PeerID

	broadcastEvery uint64
	quit           chan struct{}

	recorder *Recorder
	saver    MatchSaver

	matchID      string
	matchStarted time.Time
}

// Config carries what the session needs from the outside.
type Config struct {
	Name      string
	AllowSolo bool
	Catalog   game.Catalog
	Bounds    game.Rect
	Seed      int64
	Saver     MatchSaver
}

func New(cfg Config) *Session {
	if cfg.Catalog == nil {
		cfg.Catalog = game.DefaultCatalog()
	}
	if cfg.Bounds == (game.Rect{}) {
		cfg.Bounds = game.DefaultBounds
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	ctx := &replication.Context{Local: replication.Host}
	bus := events.NewBus()
	disp := replication.NewDispatcher(ctx)
	world := game.NewWorld(ctx, bus, disp, game.FixedBounds(cfg.Bounds), cfg.Catalog, rng)

	broadcastEvery := uint64(protocol.SimTickHz / protocol.BroadcastHz)
	if broadcastEvery == 0 {
		broadcastEvery = 1
	}

	s := &Session{
		Inbox:          make(chan any, 256),
		ctx:            ctx,
		bus:            bus,
		disp:           disp,
		world:          world,
		conns:          make(map[replication.PeerID]Conn),
		nextPeer:       replication.Host,
		broadcastEvery: broadcastEvery,
		quit:           make(chan struct{}),
		saver:          cfg.Saver,
	}
	s.recorder = NewRecorder(bus)
	s.manager = NewManager(ctx, bus, disp, world, rng, cfg.AllowSolo)
	s.manager.OnPlaying = s.beginMatch
	s.manager.OnGameOver = s.finishMatch
	disp.SetTransport(&hubTransport{session: s})

	s.manager.Begin(ModeHost, cfg.Name)
	s.manager.TransportEstablished()
	return s
}

// Manager exposes the state machine for the HTTP layer and tests.
func (s *Session) Manager() *Manager { return s.manager }

func (s *Session) World() *game.World { return s.world }

func (s *Session) Stop() {
	close(s.quit)
}

// Run is the session loop: fixed-rate simulation ticks interleaved with
// inbox commands, snapshots broadcast at a slower cadence.
func (s *Session) Run() {
	ticker := time.NewTicker(time.Second / protocol.SimTickHz)
	defer ticker.Stop()
	dt := 1.0 / float64(protocol.SimTickHz)

	for {
		select {
		case <-s.quit:
			return
		case cmd := <-s.Inbox:
			s.handleCommand(cmd)
		case <-ticker.C:
			s.manager.Tick(dt)
			s.world.Step(dt, s.manager.Spawning())
			if s.world.Tick%s.broadcastEvery == 0 {
				s.broadcastSnapshot()
			}
		}
	}
}

func (s *Session) handleCommand(cmd any) {
	switch c := cmd.(type) {
	case Join:
		s.handleJoin(c)
	case Leave:
		s.handleLeave(c.Peer)
	case InputCmd:
		s.world.SetInput(c.Peer, c.Dir)
	case CallCmd:
		s.disp.Apply(c.Call)
		s.relayCall(c.Call)
	case StartCmd:
		// Only the session leader's start request is honored; the
		// authority issues the actual call so every peer replays it.
		if c.Peer != s.leader() {
			return
		}
		s.disp.Invoke(SessionEntity, "start", peerArgs{Peer: replication.Host})
	case RestartAckCmd:
		s.disp.Invoke(SessionEntity, "restart_ack", peerArgs{Peer: c.Peer})
	default:
		log.Printf("session: unknown command %T", cmd)
	}
}

func (s *Session) handleJoin(c Join) {
	s.nextPeer++
	peer := s.nextPeer
	s.conns[peer] = c.Conn

	part := s.manager.HandleJoin(peer, c.UserID, c.Username)

	// The welcome goes out on the connection itself, ahead of any
	// broadcast, so the peer learns its own id before it can see a
	// peer_joined about itself.
	welcome, err := protocol.Encode(protocol.MsgWelcome, protocol.Welcome{
		PeerID:   peer,
		Snapshot: s.world.BuildSnapshot(s.manager.State().String(), s.manager.IsGameOver()),
	})
	if err != nil {
		log.Printf("session: encode welcome: %v", err)
	} else if err := c.Conn.Send(welcome); err != nil {
		log.Printf("session: peer %d: welcome: %v", peer, err)
	}
	c.Reply <- JoinResult{Peer: peer}

	if b, err := protocol.Encode(protocol.MsgPeerJoined, protocol.PeerJoined{
		PeerID:   peer,
		Username: part.Username,
	}); err == nil {
		s.broadcastRaw(b)
	}
	log.Printf("session: peer %d (%s) joined, %d participants", peer, part.Username, s.manager.ParticipantCount())
}

func (s *Session) handleLeave(peer replication.PeerID) {
	conn, ok := s.conns[peer]
	if !ok {
		return
	}
	delete(s.conns, peer)
	_ = conn.Close()
	s.manager.HandleLeave(peer)
	if b, err := protocol.Encode(protocol.MsgPeerLeft, protocol.PeerLeft{PeerID: peer}); err == nil {
		s.broadcastRaw(b)
	}
	log.Printf("session: peer %d left, %d participants", peer, s.manager.ParticipantCount())
}

// leader is the longest-connected peer. Its start requests count as the
// authoritative ones.
func (s *Session) leader() replication.PeerID {
	var min replication.PeerID
	for peer := range s.conns {
		if min == 0 || peer < min {
			min = peer
		}
	}
	return min
}

func (s *Session) broadcastSnapshot() {
	snap := s.world.BuildSnapshot(s.manager.State().String(), s.manager.IsGameOver())
	b, err := protocol.Encode(protocol.MsgState, snap)
	if err != nil {
		return
	}
	s.broadcastRaw(b)
}

func (s *Session) broadcastRaw(b []byte) {
	var failed []replication.PeerID
	for peer, conn := range s.conns {
		if err := conn.Send(b); err != nil {
			failed = append(failed, peer)
		}
	}
	for _, peer := range failed {
		s.handleLeave(peer)
	}
}

func (s *Session) relayCall(c replication.Call) {
	b, err := protocol.Encode(protocol.MsgCall, c)
	if err != nil {
		return
	}
	s.broadcastRaw(b)
}

func (s *Session) beginMatch() {
	s.matchID = uuid.New().String()
	s.matchStarted = time.Now()
	s.recorder.Drain()
	log.Printf("session: match %s started with %d players", s.matchID, s.manager.ParticipantCount())
}

// finishMatch hands the match record to persistence. The insert runs off
// the actor goroutine so a slow database cannot stall the tick loop.
func (s *Session) finishMatch() {
	if s.saver == nil || s.matchID == "" {
		return
	}
	rec := models.MatchRecord{
		ID:         s.matchID,
		StartedAt:  s.matchStarted,
		FinishedAt: time.Now(),
		Events:     s.recorder.Drain(),
	}
	for _, part := range s.manager.Participants() {
		rec.UserIDs = append(rec.UserIDs, part.UserID)
	}
	s.matchID = ""
	go func() {
		if err := s.saver.SaveMatch(rec); err != nil {
			log.Printf("session: save match %s: %v", rec.ID, err)
		}
	}()
}

// hubTransport delivers remote calls host-side: apply locally, then
// relay to every joined peer. Receivers drop duplicates by sender
// sequence, so relaying back to the originator is harmless.
type hubTransport struct {
	session *Session
}

func (t *hubTransport) Broadcast(c replication.Call) {
	t.session.disp.Apply(c)
	t.session.relayCall(c)
}
