package identity

import "time"

// Identity is the domain representation of an authenticated principal.
// It mirrors the identities table and should not include JSON annotations
// so it can be reused by different presentation layers.
type Identity struct {
	ID          string
	Email       string
	DisplayName string
	Phone       *string
	Verified    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SessionStatus reports whether the process-wide session has been
// resolved by the identity provider yet.
type SessionStatus string

const (
	// SessionPending means no provider signal has arrived; nothing about
	// the session can be trusted yet.
	SessionPending SessionStatus = "pending"
	// SessionResolved means the provider has reported the current
	// identity (possibly none).
	SessionResolved SessionStatus = "resolved"
)

// Session is a snapshot of the process-wide authentication state.
// A nil Identity with SessionResolved means signed out; provider
// failures surface the same way, there is no separate error channel.
type Session struct {
	Identity *Identity
	Status   SessionStatus
}

// SignedIn reports whether the session has resolved to a live identity.
func (s Session) SignedIn() bool {
	return s.Status == SessionResolved && s.Identity != nil
}

// CreateIdentityParams contains registration data supplied by callers.
type CreateIdentityParams struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone,omitempty"`
}

// SignInResult bundles the token and identity returned after a
// successful sign-in.
type SignInResult struct {
	Token    string
	Identity Identity
}
