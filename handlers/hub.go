package handlers

import (
	"fmt"
	"log"

	"github.com/gorilla/websocket"

	"github.com/skotte/skyfall/skyfall-server/game"
	"github.com/skotte/skyfall/skyfall-server/protocol"
	"github.com/skotte/skyfall/skyfall-server/replication"
	"github.com/skotte/skyfall/skyfall-server/session"
)

// Connection is one peer's WebSocket, bridged to the session actor. The
// write pump drains send; the read pump decodes envelopes into session
// commands. It implements session.Conn.
type Connection struct {
	ws       *websocket.Conn
	send     chan []byte
	peer     replication.PeerID
	userID   string
	username string
}

func newConnection(ws *websocket.Conn, userID, username string) *Connection {
	return &Connection{ws: ws, send: make(chan []byte, 256), userID: userID, username: username}
}

// Send queues b without blocking the session actor. A peer that cannot
// keep up overflows its buffer and is dropped.
func (c *Connection) Send(b []byte) error {
	select {
	case c.send <- b:
		return nil
	default:
		return fmt.Errorf("peer %d send buffer full", c.peer)
	}
}

func (c *Connection) Close() error {
	close(c.send)
	return nil
}

func (c *Connection) writePump() {
	defer c.ws.Close()
	for message := range c.send {
		if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("peer %d: write: %v", c.peer, err)
			return
		}
	}
}

// readPump turns inbound envelopes into session commands. It owns the
// connection's membership: when the read side dies, the peer leaves.
func (c *Connection) readPump(sess *session.Session) {
	defer func() {
		sess.Inbox <- session.Leave{Peer: c.peer}
		c.ws.Close()
		log.Printf("peer %d (%s) disconnected", c.peer, c.username)
	}()

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		env, err := protocol.DecodeEnvelope(message)
		if err != nil {
			log.Printf("peer %d: bad envelope: %v", c.peer, err)
			continue
		}
		c.dispatch(sess, env)
	}
}

func (c *Connection) dispatch(sess *session.Session, env protocol.Envelope) {
	switch env.T {
	case protocol.MsgInput:
		in, err := protocol.DecodePayload[protocol.Input](env)
		if err != nil {
			return
		}
		// Player input is left/right only; anything a client puts in
		// the vertical component is dropped at the edge.
		sess.Inbox <- session.InputCmd{Peer: c.peer, Dir: game.Vec2{X: in.X}}
	case protocol.MsgCall:
		call, err := protocol.DecodePayload[replication.Call](env)
		if err != nil {
			return
		}
		// A peer may only speak for itself.
		if call.Sender != c.peer {
			return
		}
		sess.Inbox <- session.CallCmd{Call: call}
	case protocol.MsgStart:
		sess.Inbox <- session.StartCmd{Peer: c.peer}
	case protocol.MsgRestartAck:
		sess.Inbox <- session.RestartAckCmd{Peer: c.peer}
	default:
		log.Printf("peer %d: unhandled message type %q", c.peer, env.T)
	}
}
