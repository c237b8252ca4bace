// Package protocol defines the wire format between the hosting peer and
// joined peers. Everything travels as a JSON envelope with a type tag and
// a raw payload.
package protocol

import (
	"encoding/json"

	"github.com/skotte/skyfall/skyfall-server/replication"
)

const (
	MsgWelcome    = "welcome"
	MsgInput      = "input"
	MsgCall       = "call"
	MsgState      = "state"
	MsgPeerJoined = "peer_joined"
	MsgPeerLeft   = "peer_left"
	MsgStart      = "start"
	MsgRestartAck = "restart_ack"
)

const (
	// SimTickHz is the fixed simulation rate every peer runs locally.
	SimTickHz = 40
	// BroadcastHz is the authoritative snapshot fan-out rate. Rendering
	// is uncapped and reads the latest applied state.
	BroadcastHz = 20
)

type Envelope struct {
	T string          `json:"t"`
	P json.RawMessage `json:"p"`
}

// Welcome is the first message a joining peer receives: its assigned peer
// id and the current authoritative snapshot.
type Welcome struct {
	PeerID   replication.PeerID `json:"peerId"`
	Snapshot Snapshot           `json:"snapshot"`
}

// Input is the per-tick directional input of the sending peer's player.
// Components are -1, 0 or 1.
type Input struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PeerJoined announces a new participant to everyone already connected.
type PeerJoined struct {
	PeerID   replication.PeerID `json:"peerId"`
	Username string             `json:"username"`
}

type PeerLeft struct {
	PeerID replication.PeerID `json:"peerId"`
}

// PlayerSnapshot mirrors the authority's replicated player state.
type PlayerSnapshot struct {
	Index  int     `json:"index"`
	PeerID int     `json:"peerId"`
	Color  string  `json:"color"`
	Health int     `json:"health"`
	Score  int     `json:"score"`
	Active bool    `json:"active"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// EnemySnapshot mirrors the authority's replicated enemy state.
type EnemySnapshot struct {
	ID        string  `json:"id"`
	TypeIndex int     `json:"typeIndex"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Speed     float64 `json:"speed"`
	Damage    int     `json:"damage"`
	Score     int     `json:"score"`
	Sprite    string  `json:"sprite"`
}

// Snapshot is the authoritative world + session state broadcast every
// sync tick. Observers apply it most-recent-wins.
type Snapshot struct {
	Tick         uint64           `json:"tick"`
	SessionState string           `json:"sessionState"`
	GameOver     bool             `json:"gameOver"`
	Players      []PlayerSnapshot `json:"players"`
	Enemies      []EnemySnapshot  `json:"enemies"`
}
