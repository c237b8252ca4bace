package session

import (
	"github.com/skotte/skyfall/skyfall-server/game"
	"github.com/skotte/skyfall/skyfall-server/replication"
)

// Conn is one peer's outbound half, as seen by the session actor.
type Conn interface {
	Send(b []byte) error
	Close() error
}

// Join admits a connection to the session. The welcome message is
// queued on the connection before the reply is sent; Reply only carries
// the assigned peer id.
type Join struct {
	Conn     Conn
	UserID   string
	Username string
	Reply    chan JoinResult
}

type JoinResult struct {
	Peer replication.PeerID
}

// Leave removes a peer; issued by the read pump when a connection dies.
type Leave struct {
	Peer replication.PeerID
}

// InputCmd is the latest direction sampled from a peer's input source.
type InputCmd struct {
	Peer replication.PeerID
	Dir  game.Vec2
}

// CallCmd delivers a remote call originated by a joined peer. The host
// applies it and relays it to every peer.
type CallCmd struct {
	Call replication.Call
}

// StartCmd asks the session to run the start countdown.
type StartCmd struct {
	Peer replication.PeerID
}

// RestartAckCmd is one peer's restart acknowledgement after game over.
type RestartAckCmd struct {
	Peer replication.PeerID
}
