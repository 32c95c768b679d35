package identity

import "sync"

// ProviderStream is the identity provider surface the session hub
// consumes: a callback stream of the current identity. The returned
// stop func detaches the underlying listener.
type ProviderStream interface {
	CurrentIdentity(fn func(*Identity)) (stop func())
}

// Sessions is the process-wide observable session. It holds exactly one
// underlying provider listener and fans provider transitions out to any
// number of subscribers. The session starts Pending and becomes
// Resolved on the first provider signal; after that it only flips
// between resolved values (sign-in, sign-out), never back to Pending.
type Sessions struct {
	mu      sync.Mutex
	current Session
	subs    map[int]func(Session)
	nextSub int
	stop    func()
	closed  bool
}

// NewSessions attaches to the provider stream and returns the hub.
// Callers must Close it during teardown to release the listener.
func NewSessions(provider ProviderStream) *Sessions {
	h := &Sessions{
		current: Session{Status: SessionPending},
		subs:    make(map[int]func(Session)),
	}
	h.stop = provider.CurrentIdentity(h.onChange)
	return h
}

// Subscribe registers fn and immediately invokes it with the latest
// known session, then once per change. The returned unsubscribe func is
// idempotent and safe to call during teardown. Callbacks run under the
// hub lock and must not call back into the hub.
func (h *Sessions) Subscribe(fn func(Session)) (unsubscribe func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextSub
	h.nextSub++
	if !h.closed {
		h.subs[id] = fn
	}
	fn(h.current)

	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

// Current returns the latest session snapshot.
func (h *Sessions) Current() Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Close detaches the provider listener and drops all subscribers. The
// last session value remains readable via Current.
func (h *Sessions) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	h.subs = make(map[int]func(Session))
	stop := h.stop
	h.mu.Unlock()

	if stop != nil {
		stop()
	}
}

// onChange is the single provider callback. Broadcasting under the lock
// guarantees no subscriber ever observes an older resolved value after
// a newer one.
func (h *Sessions) onChange(ident *Identity) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.current = Session{Identity: ident, Status: SessionResolved}
	for _, fn := range h.subs {
		fn(h.current)
	}
}
