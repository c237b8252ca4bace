package replication

// Var is a replicated scalar: a single value owned by exactly one peer.
// Only the owner assigns it; every peer reads it. The owner's copy is
// fanned out in state snapshots and applied on observers with
// most-recent-wins semantics, so intermediate values may never be seen.
type Var[T any] struct {
	owner PeerID
	value T
}

func NewVar[T any](owner PeerID, initial T) *Var[T] {
	return &Var[T]{owner: owner, value: initial}
}

// Get returns the current local copy of the value.
func (v *Var[T]) Get() T {
	return v.value
}

// Owner returns the peer allowed to assign this value.
func (v *Var[T]) Owner() PeerID {
	return v.owner
}

// Set assigns a new value. It fails with ErrNotOwner unless ctx is the
// owning peer; callers are expected to check authority before calling
// rather than relying on the error.
func (v *Var[T]) Set(ctx *Context, value T) error {
	if ctx.Local != v.owner {
		return ErrNotOwner
	}
	v.value = value
	return nil
}

// Apply overwrites the local copy without an ownership check. It is for
// the replication layer only: applying an authoritative snapshot, or a
// remote call that every peer replays identically.
func (v *Var[T]) Apply(value T) {
	v.value = value
}
