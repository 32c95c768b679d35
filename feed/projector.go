// Package feed shapes listing query results into render models for the
// public home feed and an owner's private dashboard.
package feed

import (
	"context"
	"sync"

	"kejani/identity"
	"kejani/listing"
)

// State is the render state of a feed. Exactly one state holds at any
// instant.
type State string

const (
	StateLoading State = "loading"
	StateError   State = "error"
	StateEmpty   State = "empty"
	StateLoaded  State = "loaded"
)

// Snapshot is an immutable render model of a feed at one instant.
type Snapshot struct {
	State    State
	Message  string
	Listings []listing.Listing
}

func project(listings []listing.Listing, err error) Snapshot {
	switch {
	case err != nil:
		return Snapshot{State: StateError, Message: err.Error()}
	case len(listings) == 0:
		return Snapshot{State: StateEmpty}
	default:
		return Snapshot{State: StateLoaded, Listings: listings}
	}
}

// Projector drives the public feed render model. It starts in Loading
// and reaches a terminal state on every Load, including provider
// rejections, so the render model never hangs in Loading after a
// failure.
type Projector struct {
	query    func(ctx context.Context) ([]listing.Listing, error)
	onChange func(Snapshot)

	mu     sync.Mutex
	snap   Snapshot
	closed bool
}

// NewProjector builds a public-feed projector over the given query.
// onChange, if non-nil, is invoked on every snapshot transition.
func NewProjector(query func(ctx context.Context) ([]listing.Listing, error), onChange func(Snapshot)) *Projector {
	return &Projector{
		query:    query,
		onChange: onChange,
		snap:     Snapshot{State: StateLoading},
	}
}

// Load runs the query and settles the snapshot. It returns the snapshot
// it produced even if the projector was closed mid-flight, in which
// case the stored snapshot is left alone.
func (p *Projector) Load(ctx context.Context) Snapshot {
	p.apply(Snapshot{State: StateLoading})
	listings, err := p.query(ctx)
	next := project(listings, err)
	p.apply(next)
	return next
}

// Snapshot returns the current render model.
func (p *Projector) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

// Close stops the projector from updating its snapshot. In-flight
// queries run to completion; their results are discarded.
func (p *Projector) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

func (p *Projector) apply(s Snapshot) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.snap = s
	fn := p.onChange
	p.mu.Unlock()

	if fn != nil {
		fn(s)
	}
}

// OwnerProjector drives the owner dashboard render model. It subscribes
// to the session hub and only issues its query once the session has
// resolved to a live identity; while the session is pending it stays in
// Loading regardless of any previous result. A session that resolves
// signed-out projects Empty — the route guard redirects before that
// state is ever rendered.
type OwnerProjector struct {
	query    func(ctx context.Context, ownerID string) ([]listing.Listing, error)
	onChange func(Snapshot)
	ctx      context.Context

	mu          sync.Mutex
	snap        Snapshot
	gen         int
	closed      bool
	unsubscribe func()
}

// NewOwnerProjector builds the owner-feed projector and attaches it to
// the session hub. Queries run on goroutines using ctx; closing the
// projector does not cancel them, it only stops their results from
// being applied.
func NewOwnerProjector(
	ctx context.Context,
	sessions *identity.Sessions,
	query func(ctx context.Context, ownerID string) ([]listing.Listing, error),
	onChange func(Snapshot),
) *OwnerProjector {
	p := &OwnerProjector{
		query:    query,
		onChange: onChange,
		ctx:      ctx,
		snap:     Snapshot{State: StateLoading},
	}
	p.unsubscribe = sessions.Subscribe(p.onSession)
	return p
}

// Snapshot returns the current render model.
func (p *OwnerProjector) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

// Close detaches from the session hub and freezes the snapshot.
func (p *OwnerProjector) Close() {
	p.mu.Lock()
	p.closed = true
	unsub := p.unsubscribe
	p.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// onSession runs on every session transition. Each transition bumps the
// generation; a query started for an older session value can never
// overwrite the snapshot of a newer one, which makes re-renders on
// sign-in/sign-out flips idempotent.
func (p *OwnerProjector) onSession(s identity.Session) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.gen++
	gen := p.gen

	switch {
	case s.Status != identity.SessionResolved:
		p.setLocked(Snapshot{State: StateLoading})
		p.mu.Unlock()
		return
	case s.Identity == nil:
		p.setLocked(Snapshot{State: StateEmpty})
		p.mu.Unlock()
		return
	}

	ownerID := s.Identity.ID
	p.setLocked(Snapshot{State: StateLoading})
	p.mu.Unlock()

	go func() {
		listings, err := p.query(p.ctx, ownerID)
		next := project(listings, err)

		p.mu.Lock()
		if p.closed || gen != p.gen {
			p.mu.Unlock()
			return
		}
		p.setLocked(next)
		p.mu.Unlock()
	}()
}

// setLocked stores the snapshot and fires onChange. Callers hold the
// lock; onChange therefore must not call back into the projector.
func (p *OwnerProjector) setLocked(s Snapshot) {
	p.snap = s
	if p.onChange != nil {
		p.onChange(s)
	}
}
