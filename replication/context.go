// Package replication implements the ownership and remote-call rules for
// state shared between peers: owner-checked replicated values and
// fire-and-forget calls that replay once on every peer.
package replication

import "errors"

// PeerID identifies a participant in the session. The hosting peer is
// always peer 1 and is the authority for all session state.
type PeerID int

// Host is the authoritative peer.
const Host PeerID = 1

// ErrNotOwner is returned when a peer assigns a value it does not own.
var ErrNotOwner = errors.New("replication: peer does not own this value")

// Context carries the local peer's identity. Entities consult it before
// every replicated assignment.
type Context struct {
	Local PeerID
}

// IsAuthority reports whether the local peer is the session authority.
func (c *Context) IsAuthority() bool {
	return c.Local == Host
}
