package session

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"

	"github.com/skotte/skyfall/skyfall-server/events"
	"github.com/skotte/skyfall/skyfall-server/game"
	"github.com/skotte/skyfall/skyfall-server/replication"
)

// State is the session lifecycle position.
type State int

const (
	Idle State = iota
	Hosting
	Joining
	Lobby
	Ready
	Playing
	GameOver
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Hosting:
		return "hosting"
	case Joining:
		return "joining"
	case Lobby:
		return "lobby"
	case Ready:
		return "ready"
	case Playing:
		return "playing"
	case GameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// Mode names how a session is entered from Idle.
type Mode int

const (
	ModeHost Mode = iota
	ModeJoin
)

// Participant is one joined peer.
type Participant struct {
	Peer     replication.PeerID
	UserID   string
	Username string
	Index    int
}

// SessionEntity addresses the manager's own remote calls.
const SessionEntity = replication.EntityID("session")

type peerArgs struct {
	Peer replication.PeerID `json:"peer"`
}

// Manager is the session lifecycle state machine. Only the authoritative
// peer decides transitions; observers mirror the state from snapshots.
// Every invalid request degrades to a no-op so no peer's machine can
// diverge on an error path.
type Manager struct {
	ctx   *replication.Context
	bus   *events.Bus
	disp  *replication.Dispatcher
	world *game.World
	rng   *rand.Rand

	allowSolo   bool
	sessionName string

	state     State
	quorum    bool
	spawning  bool
	gameOver  bool
	countdown float64

	participants map[replication.PeerID]*Participant
	nextIndex    int
	restartAcks  map[replication.PeerID]bool

	// OnGameOver runs on the authority right after the session enters
	// GameOver.
	OnGameOver func()
	// OnPlaying runs on the authority when the countdown expires and
	// gameplay begins.
	OnPlaying func()
}

func NewManager(ctx *replication.Context, bus *events.Bus, disp *replication.Dispatcher, world *game.World, rng *rand.Rand, allowSolo bool) *Manager {
	m := &Manager{
		ctx:          ctx,
		bus:          bus,
		disp:         disp,
		world:        world,
		rng:          rng,
		allowSolo:    allowSolo,
		state:        Idle,
		participants: make(map[replication.PeerID]*Participant),
		restartAcks:  make(map[replication.PeerID]bool),
	}
	bus.Subscribe(events.PlayerEliminated, m.onPlayerEliminated)
	disp.Register(SessionEntity, "start", func(args json.RawMessage) {
		var a peerArgs
		if err := json.Unmarshal(args, &a); err != nil {
			return
		}
		m.requestStart(a.Peer)
	})
	disp.Register(SessionEntity, "restart_ack", func(args json.RawMessage) {
		var a peerArgs
		if err := json.Unmarshal(args, &a); err != nil {
			return
		}
		m.acknowledgeRestart(a.Peer)
	})
	return m
}

func (m *Manager) State() State { return m.state }

// HasQuorum reports whether enough participants are present for play:
// solo play permitted, or more than one participant.
func (m *Manager) HasQuorum() bool { return m.quorum }

// Spawning is the session readiness flag the enemy spawner consumes.
func (m *Manager) Spawning() bool { return m.spawning }

func (m *Manager) IsGameOver() bool { return m.gameOver }

func (m *Manager) CountdownRemaining() float64 { return m.countdown }

func (m *Manager) ParticipantCount() int { return len(m.participants) }

func (m *Manager) Participants() map[replication.PeerID]*Participant {
	return m.participants
}

// Begin leaves Idle for transport negotiation. Requests in any other
// state are ignored.
func (m *Manager) Begin(mode Mode, sessionName string) {
	if m.state != Idle {
		return
	}
	m.sessionName = sessionName
	if mode == ModeHost {
		m.state = Hosting
	} else {
		m.state = Joining
	}
}

// TransportEstablished marks the session networked and enters the lobby.
func (m *Manager) TransportEstablished() {
	if m.state != Hosting && m.state != Joining {
		return
	}
	m.state = Lobby
}

// HandleJoin admits a participant. On the authority this also creates
// and spawns the participant's player entity. Join and leave arrive
// serialized from the transport, one at a time.
func (m *Manager) HandleJoin(peer replication.PeerID, userID, username string) *Participant {
	if _, ok := m.participants[peer]; ok {
		return m.participants[peer]
	}
	part := &Participant{Peer: peer, UserID: userID, Username: username, Index: m.nextIndex}
	m.nextIndex++
	m.participants[peer] = part

	if m.ctx.IsAuthority() {
		p := m.world.AddPlayer(peer, part.Index)
		if err := p.Spawn(randomColor(m.rng)); err != nil {
			log.Printf("session: spawn player %d: %v", part.Index, err)
		}
	}
	m.refreshQuorum()
	return part
}

// HandleLeave removes a participant and its entity, then re-evaluates
// quorum and the restart tally (the leaver's missing acknowledgement
// must not wedge a pending restart).
func (m *Manager) HandleLeave(peer replication.PeerID) {
	part, ok := m.participants[peer]
	if !ok {
		return
	}
	delete(m.participants, peer)
	delete(m.restartAcks, peer)
	if m.ctx.IsAuthority() {
		m.world.RemovePlayer(part.Index)
	}
	m.refreshQuorum()
	m.maybeRestart()
}

// refreshQuorum recomputes the player-count condition after every join
// and leave. Quorum newly becoming true while in GameOver clears the
// game-over flag.
func (m *Manager) refreshQuorum() {
	was := m.quorum
	m.quorum = m.allowSolo || len(m.participants) > 1
	if m.quorum && !was && m.gameOver {
		m.gameOver = false
	}
	m.syncLobbyState()
}

// syncLobbyState keeps the Lobby/Ready split in step with quorum while
// the session is not playing.
func (m *Manager) syncLobbyState() {
	switch m.state {
	case Lobby, Ready:
	case GameOver:
		if m.gameOver {
			return
		}
	default:
		return
	}
	if m.quorum {
		m.state = Ready
	} else {
		m.state = Lobby
	}
}

// requestStart begins the start countdown. Authoritative peer only;
// anything else is a readiness violation and silently ignored.
func (m *Manager) requestStart(from replication.PeerID) {
	if !m.ctx.IsAuthority() || from != replication.Host {
		return
	}
	if m.state != Ready {
		return
	}
	if m.countdown > 0 {
		return
	}
	m.countdown = game.StartCountdown
}

// Tick advances the start countdown. Expiry flips the readiness flag the
// spawner consumes.
func (m *Manager) Tick(dt float64) {
	if m.countdown <= 0 {
		return
	}
	m.countdown -= dt
	if m.countdown > 0 {
		return
	}
	m.countdown = 0
	if m.state != Ready || !m.quorum {
		return
	}
	m.spawning = true
	m.state = Playing
	if m.ctx.IsAuthority() && m.OnPlaying != nil {
		m.OnPlaying()
	}
}

// onPlayerEliminated recomputes the active-player count on the authority
// after every elimination. One or zero survivors ends the game.
func (m *Manager) onPlayerEliminated(any) {
	if !m.ctx.IsAuthority() {
		return
	}
	if m.world.ActivePlayers() > 1 {
		return
	}
	m.spawning = false
	m.gameOver = true
	m.state = GameOver
	m.restartAcks = make(map[replication.PeerID]bool)
	if m.OnGameOver != nil {
		m.OnGameOver()
	}
}

// acknowledgeRestart records one participant's restart vote. The session
// restarts only once every currently joined participant has
// acknowledged; acknowledgements are a set, so duplicates are harmless.
func (m *Manager) acknowledgeRestart(peer replication.PeerID) {
	if !m.ctx.IsAuthority() || !m.gameOver {
		return
	}
	if _, ok := m.participants[peer]; !ok {
		return
	}
	m.restartAcks[peer] = true
	m.maybeRestart()
}

func (m *Manager) maybeRestart() {
	if !m.gameOver || len(m.participants) == 0 {
		return
	}
	acked := 0
	for peer := range m.participants {
		if m.restartAcks[peer] {
			acked++
		}
	}
	if acked < len(m.participants) {
		return
	}
	m.restartAcks = make(map[replication.PeerID]bool)
	for _, p := range m.world.Players() {
		m.disp.Invoke(p.EntityID(), "reset", nil)
	}
	m.gameOver = false
	m.spawning = false
	m.syncLobbyState()
	if m.ctx.IsAuthority() {
		m.countdown = game.StartCountdown
	}
}

func randomColor(rng *rand.Rand) string {
	return fmt.Sprintf("#%06x", rng.Intn(0xFFFFFF))
}
