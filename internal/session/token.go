package session

import "strings"

const scheme = "Bearer "

// Normalize canonicalizes a bearer credential: trimmed, prefixed with the
// authorization scheme marker exactly once. Blank input (including a bare
// marker with nothing after it) normalizes to the empty string. Idempotent.
func Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	rest := trimmed
	if len(trimmed) >= len(scheme) && strings.EqualFold(trimmed[:len(scheme)], scheme) {
		rest = strings.TrimSpace(trimmed[len(scheme):])
	} else if strings.EqualFold(trimmed, strings.TrimSpace(scheme)) {
		rest = ""
	}
	if rest == "" {
		return ""
	}
	return scheme + rest
}

// Keyring is the session context shared by every page: one short-lived store
// and one longer-lived store, always holding the same normalized credential.
type Keyring struct {
	short Store
	long  Store
}

// NewKeyring wires the two persistence stores together.
func NewKeyring(short, long Store) *Keyring {
	return &Keyring{short: short, long: long}
}

// Persist writes the normalized token into both stores. Empty tokens are a
// no-op so a failed normalize can never blank an existing session.
func (k *Keyring) Persist(token string) {
	norm := Normalize(token)
	if norm == "" {
		return
	}
	k.short.Set(TokenKey, norm) //nolint:errcheck // best-effort, long store is authoritative
	k.long.Set(TokenKey, norm)  //nolint:errcheck
}

// Read returns the stored credential, preferring the short-lived store.
func (k *Keyring) Read() string {
	if v, err := k.short.Get(TokenKey); err == nil && v != "" {
		return Normalize(v)
	}
	if v, err := k.long.Get(TokenKey); err == nil && v != "" {
		return Normalize(v)
	}
	return ""
}

// Resolve picks the effective credential for a page load. A navigation-
// supplied token always wins over stored state so a deep link can
// re-authenticate the session; otherwise the stored value is re-persisted in
// normalized form. Returns "" when no credential exists anywhere.
func (k *Keyring) Resolve(navToken string) string {
	if norm := Normalize(navToken); norm != "" {
		k.Persist(norm)
		return norm
	}
	stored := k.Read()
	if stored != "" {
		k.Persist(stored)
	}
	return stored
}

// Purge clears both stores. Called on a 401 from the backend.
func (k *Keyring) Purge() {
	k.short.Clear(TokenKey) //nolint:errcheck
	k.long.Clear(TokenKey)  //nolint:errcheck
}

// Source adapts the keyring into the token callback the API client expects.
func (k *Keyring) Source() func() string {
	return k.Read
}
