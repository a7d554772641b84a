// Package session persists browser authentication state between process
// invocations. Establishing a portal session means a full federated login
// handshake, so the cookie jar is worth keeping around.
package session

import "time"

// Cookie is one persisted browser cookie. Expires is unix seconds;
// values <= 0 mean a session-only cookie with no fixed expiry.
type Cookie struct {
	Name    string  `json:"name"`
	Value   string  `json:"value"`
	Domain  string  `json:"domain"`
	Path    string  `json:"path"`
	Expires float64 `json:"expires"`
}

// Store is the persistence port for the cookie jar. Save overwrites any
// previous jar. Load returns the saved cookies and true only when the jar
// exists and still contains a usable auth cookie; every failure mode
// (missing file, bad JSON, expired cookie) degrades to (nil, false).
type Store interface {
	Save(cookies []Cookie) error
	Load() ([]Cookie, bool)
}

// hasLiveAuthCookie reports whether the designated auth cookie is present
// and, when it carries an expiry, still in the future. Session-only
// cookies (Expires <= 0) count as live.
func hasLiveAuthCookie(cookies []Cookie, name string) bool {
	for _, c := range cookies {
		if c.Name != name {
			continue
		}
		if c.Expires > 0 && time.Unix(int64(c.Expires), 0).Before(time.Now()) {
			return false
		}
		return true
	}
	return false
}
