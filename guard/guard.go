// Package guard derives access decisions for owner-only views from a
// session snapshot.
package guard

import "kejani/identity"

// Verdict enumerates the possible outcomes of an evaluation.
type Verdict string

const (
	// VerdictAllow grants access.
	VerdictAllow Verdict = "allow"
	// VerdictDeny blocks access; callers should redirect to sign-in.
	VerdictDeny Verdict = "deny"
	// VerdictPending means the session has not resolved yet; callers
	// must render a waiting state and must not redirect.
	VerdictPending Verdict = "pending"
)

// Decision is the outcome of evaluating a session against an
// owner-only view.
type Decision struct {
	Verdict Verdict
	Reason  string
}

// Allowed reports whether access was granted.
func (d Decision) Allowed() bool { return d.Verdict == VerdictAllow }

// Evaluate is a pure function of the session snapshot: the same
// snapshot always yields the same decision, so stale cached state can
// never grant access. While the session is unresolved the decision is
// Pending; once resolved, a live identity allows and anything else
// denies.
func Evaluate(s identity.Session) Decision {
	if s.Status != identity.SessionResolved {
		return Decision{Verdict: VerdictPending}
	}
	if s.Identity == nil {
		return Decision{Verdict: VerdictDeny, Reason: "unauthenticated"}
	}
	return Decision{Verdict: VerdictAllow}
}
