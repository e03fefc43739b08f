// Package registry provides the process-wide mapping from authenticated
// user identifier to that user's live session. It is the only state shared
// by concurrent connections; every mutation goes through an atomic
// operation, and no operation holds a lock across caller code.
package registry

import "sync"

// Registry is a concurrent map from user id to session, safe for use by
// multiple goroutines. S is the concrete session type; it must be comparable
// (a pointer type in practice) so that eviction and removal can be checked
// against the exact session that registered.
//
// Registry must not be copied after first use. At most one session is mapped
// per user id at a time; a second Register for the same id atomically
// displaces the first.
type Registry[S comparable] struct {
	m sync.Map
}

// New returns an empty Registry ready for use.
//
// Returns:
//   - A pointer to a new Registry[S]
func New[S comparable]() *Registry[S] {
	return &Registry[S]{}
}

// Register maps userID to s, displacing any prior mapping. The swap is
// atomic: concurrent lookups observe either the prior session or s, never
// neither.
//
// Parameters:
//   - userID: The authenticated user identifier
//   - s: The session to register
//
// Returns:
//   - The session previously mapped to userID, or the zero value of S
//   - true if a different session was displaced, false otherwise
func (r *Registry[S]) Register(userID int64, s S) (S, bool) {
	prev, loaded := r.m.Swap(userID, s)
	if !loaded {
		var zero S
		return zero, false
	}

	prior := prev.(S)
	return prior, prior != s
}

// Deregister removes the mapping for userID if present. Deregistering an
// absent id is a no-op.
//
// Parameters:
//   - userID: The user identifier to remove
func (r *Registry[S]) Deregister(userID int64) {
	r.m.Delete(userID)
}

// DeregisterSession removes the mapping for userID only if it still points
// at s. A session that was displaced by a newer login therefore cannot
// remove its evictor's entry while tearing itself down.
//
// Parameters:
//   - userID: The user identifier to remove
//   - s: The session the entry must still point at
//
// Returns:
//   - true if the entry was present, pointed at s, and was removed
func (r *Registry[S]) DeregisterSession(userID int64, s S) bool {
	return r.m.CompareAndDelete(userID, s)
}

// Lookup returns the session registered for userID, if any.
//
// Parameters:
//   - userID: The user identifier to look up
//
// Returns:
//   - The registered session, or the zero value of S if none
//   - true if a session was registered, false otherwise
func (r *Registry[S]) Lookup(userID int64) (S, bool) {
	v, ok := r.m.Load(userID)
	if !ok {
		var zero S
		return zero, false
	}

	return v.(S), true
}

// IsOnline reports whether a session is registered for userID.
func (r *Registry[S]) IsOnline(userID int64) bool {
	_, ok := r.m.Load(userID)
	return ok
}

// Count returns the number of registered sessions. It iterates over all
// entries to compute the count.
func (r *Registry[S]) Count() int {
	n := 0
	r.m.Range(func(_, _ any) bool {
		n++
		return true
	})

	return n
}

// Range calls f for each registered user id and session until f returns
// false. Registrations and removals that race with the iteration may or may
// not be observed.
//
// Parameters:
//   - f: Function called per entry; return false to stop iteration
func (r *Registry[S]) Range(f func(userID int64, s S) bool) {
	r.m.Range(func(k, v any) bool {
		return f(k.(int64), v.(S))
	})
}
