package eventstore

// Aggregate is the bookkeeping base embedded by event-sourced aggregate
// roots. It tracks the stream version and the events raised since load.
//
// The owning aggregate routes every event through a single apply method and
// calls Advance there, so a replayed event and a freshly raised one move the
// version identically. Version therefore always equals the number of events
// applied; after N committed events a reloaded aggregate reports version N.
type Aggregate[E any] struct {
	version     int
	uncommitted []E
}

// Version is the number of events applied so far, committed or staged.
func (a *Aggregate[E]) Version() int { return a.version }

// BaseVersion is the stream head this instance was loaded at: the expected
// version for an optimistic append.
func (a *Aggregate[E]) BaseVersion() int { return a.version - len(a.uncommitted) }

// Advance increments the version by exactly one. Called from the aggregate's
// apply method, never anywhere else.
func (a *Aggregate[E]) Advance() { a.version++ }

// Stage buffers a freshly raised event for the next save.
func (a *Aggregate[E]) Stage(ev E) { a.uncommitted = append(a.uncommitted, ev) }

// Uncommitted returns the staged events in raise order.
func (a *Aggregate[E]) Uncommitted() []E { return a.uncommitted }

// MarkCommitted clears the staged buffer after a successful save.
func (a *Aggregate[E]) MarkCommitted() { a.uncommitted = nil }
