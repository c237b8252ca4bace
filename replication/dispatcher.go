package replication

import (
	"encoding/json"
	"log"
)

// EntityID addresses the receiver of a remote call, e.g. "player:2",
// "enemy:17" or "session".
type EntityID string

// Call is a fire-and-forget remote invocation. It executes exactly once
// on every peer, including the sender. Seq increases monotonically per
// sender so receivers can drop duplicates; there is no ordering guarantee
// across different senders.
type Call struct {
	Sender PeerID          `json:"sender"`
	Seq    uint64          `json:"seq"`
	Target EntityID        `json:"target"`
	Method string          `json:"method"`
	Args   json.RawMessage `json:"args,omitempty"`
}

// HandlerFunc executes one method of one entity. Args may be empty.
type HandlerFunc func(args json.RawMessage)

// Transport delivers a call to every peer, the local one included. The
// session hub provides the networked implementation; Loopback serves
// solo play and tests.
type Transport interface {
	Broadcast(c Call)
}

// Dispatcher routes remote calls to registered entities. Calls whose
// target is unknown (never registered, or already destroyed) are dropped
// silently: a late destroy request racing a despawn is normal, not an
// error.
type Dispatcher struct {
	ctx       *Context
	transport Transport
	nextSeq   uint64
	lastSeen  map[PeerID]uint64
	targets   map[EntityID]map[string]HandlerFunc
}

func NewDispatcher(ctx *Context) *Dispatcher {
	d := &Dispatcher{
		ctx:      ctx,
		lastSeen: make(map[PeerID]uint64),
		targets:  make(map[EntityID]map[string]HandlerFunc),
	}
	d.transport = &Loopback{Dispatcher: d}
	return d
}

// SetTransport swaps the delivery mechanism. Must be called before any
// Invoke.
func (d *Dispatcher) SetTransport(t Transport) {
	d.transport = t
}

// Register exposes method on target. Registering the same method twice
// replaces the handler.
func (d *Dispatcher) Register(target EntityID, method string, fn HandlerFunc) {
	m, ok := d.targets[target]
	if !ok {
		m = make(map[string]HandlerFunc)
		d.targets[target] = m
	}
	m[method] = fn
}

// Deregister removes every method of target. Subsequent calls addressed
// to it are dropped.
func (d *Dispatcher) Deregister(target EntityID) {
	delete(d.targets, target)
}

// Invoke issues a remote call from the local peer. args is marshalled to
// JSON; nil means no arguments. The caller must not assume the call has
// taken effect before the next tick.
func (d *Dispatcher) Invoke(target EntityID, method string, args any) {
	var raw json.RawMessage
	if args != nil {
		b, err := json.Marshal(args)
		if err != nil {
			log.Printf("replication: marshal args for %s.%s: %v", target, method, err)
			return
		}
		raw = b
	}
	d.nextSeq++
	d.transport.Broadcast(Call{
		Sender: d.ctx.Local,
		Seq:    d.nextSeq,
		Target: target,
		Method: method,
		Args:   raw,
	})
}

// Apply executes a delivered call on the local peer. Duplicates (a
// sequence number at or below the last one seen from that sender) are
// dropped, so redelivery by a weaker transport cannot corrupt state.
func (d *Dispatcher) Apply(c Call) {
	if c.Seq <= d.lastSeen[c.Sender] {
		return
	}
	d.lastSeen[c.Sender] = c.Seq
	m, ok := d.targets[c.Target]
	if !ok {
		return
	}
	fn, ok := m[c.Method]
	if !ok {
		return
	}
	fn(c.Args)
}

// Loopback applies calls to the local dispatcher only. It is the
// transport of a session with no remote peers.
type Loopback struct {
	Dispatcher *Dispatcher
}

func (l *Loopback) Broadcast(c Call) {
	l.Dispatcher.Apply(c)
}
