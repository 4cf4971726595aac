// Package guard decides whether a page may render. The check is purely
// local — an invalid-but-present token is only discovered when a backend
// call returns 401, at which point the credential is purged downstream.
package guard

import "github.com/atlasops/atlas/internal/session"

// State is the guard's position in its lifecycle for one page load.
type State int

const (
	// Unchecked means routing information is not trustworthy yet.
	Unchecked State = iota
	// Checking is the transient state while the credential is resolved.
	Checking
	// Authorized renders the requested page.
	Authorized
	// Redirecting navigates to the sign-in page, replacing history.
	Redirecting
)

func (s State) String() string {
	switch s {
	case Unchecked:
		return "unchecked"
	case Checking:
		return "checking"
	case Authorized:
		return "authorized"
	case Redirecting:
		return "redirecting"
	}
	return "unknown"
}

// Decision is the guard's verdict for a page load.
type Decision struct {
	State State
	// Token is the resolved credential, empty when redirecting.
	Token string
}

// Guard gates protected routes on local credential presence.
type Guard struct {
	keyring *session.Keyring
	public  map[string]bool
}

// New builds a guard over the shared keyring. The listed routes are public:
// they always render, though a navigation token supplied on one is still
// persisted so a sign-in deep link can pre-seed the session.
func New(keyring *session.Keyring, publicRoutes ...string) *Guard {
	pub := make(map[string]bool, len(publicRoutes))
	for _, r := range publicRoutes {
		pub[r] = true
	}
	return &Guard{keyring: keyring, public: pub}
}

// Check resolves the credential for a page load. navToken is the
// navigation-supplied token, empty when the load carried none.
func (g *Guard) Check(route, navToken string) Decision {
	token := g.keyring.Resolve(navToken)
	if g.public[route] {
		return Decision{State: Authorized, Token: token}
	}
	if token == "" {
		return Decision{State: Redirecting}
	}
	return Decision{State: Authorized, Token: token}
}

// Public reports whether route renders without a credential.
func (g *Guard) Public(route string) bool {
	return g.public[route]
}
