package browser

import (
	"strings"
	"testing"
	"time"

	"juradoc/internal/session"
)

type jarStub struct {
	saved   []session.Cookie
	loaded  []session.Cookie
	loadOK  bool
	saveErr error
}

func (j *jarStub) Save(cookies []session.Cookie) error {
	j.saved = cookies
	return j.saveErr
}

func (j *jarStub) Load() ([]session.Cookie, bool) { return j.loaded, j.loadOK }

func newTestEngine() *Engine {
	return NewEngine(Options{
		Origin:      "https://beck-online.beck.de",
		LoginPath:   "/auth/login",
		LandingPath: "/Home",
		AuthCookie:  "bo_sessionid",
	}, Credentials{Username: "u", Password: "p"}, &jarStub{}, nil)
}

func TestEngineStartsUninitialized(t *testing.T) {
	t.Parallel()
	e := newTestEngine()
	if e.State() != StateUninitialized {
		t.Fatalf("State() = %v, want %v", e.State(), StateUninitialized)
	}
	if e.CurrentURL() != "" {
		t.Fatalf("CurrentURL() = %q, want empty before initialization", e.CurrentURL())
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	t.Parallel()
	e := newTestEngine()
	e.Close()
	e.Close()
	if e.State() != StateUninitialized {
		t.Fatalf("State() after Close = %v", e.State())
	}
}

func TestAbsoluteURL(t *testing.T) {
	t.Parallel()
	e := newTestEngine()
	tests := []struct {
		in   string
		want string
	}{
		{"/Dokument?vpath=x", "https://beck-online.beck.de/Dokument?vpath=x"},
		{"https://beck-online.beck.de/Home", "https://beck-online.beck.de/Home"},
		{"https://example.org/other", "https://example.org/other"},
	}
	for _, tt := range tests {
		if got := e.absoluteURL(tt.in); got != tt.want {
			t.Fatalf("absoluteURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOnOrigin(t *testing.T) {
	t.Parallel()
	e := newTestEngine()
	tests := []struct {
		in   string
		want bool
	}{
		{"https://beck-online.beck.de/Home", true},
		{"https://BECK-ONLINE.BECK.DE/Dokument", true},
		{"https://login.idp.example.org/oidc/authorize?state=x", false},
		{"::bad::", false},
	}
	for _, tt := range tests {
		if got := e.onOrigin(tt.in); got != tt.want {
			t.Fatalf("onOrigin(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDefaultsApplied(t *testing.T) {
	t.Parallel()
	e := newTestEngine()
	if e.opts.UserAgent == "" || strings.Contains(strings.ToLower(e.opts.UserAgent), "headless") {
		t.Fatalf("UserAgent = %q, want a realistic browser identity", e.opts.UserAgent)
	}
	if e.opts.NavTimeout <= 0 || e.opts.LoginTimeout <= 0 {
		t.Fatalf("timeouts not defaulted: %v / %v", e.opts.NavTimeout, e.opts.LoginTimeout)
	}
	if e.opts.NavTimeout < time.Second {
		t.Fatalf("NavTimeout suspiciously small: %v", e.opts.NavTimeout)
	}
}

func TestAuthErrorMessage(t *testing.T) {
	t.Parallel()
	err := &AuthError{StuckURL: "https://login.idp.example.org/error", Snippet: "Anmeldung fehlgeschlagen"}
	msg := err.Error()
	if !strings.Contains(msg, "https://login.idp.example.org/error") || !strings.Contains(msg, "Anmeldung fehlgeschlagen") {
		t.Fatalf("Error() = %q", msg)
	}
}

func TestStateString(t *testing.T) {
	t.Parallel()
	states := map[State]string{
		StateUninitialized:   "uninitialized",
		StateInitialized:     "initialized",
		StateSessionRestored: "session-restored",
		StateAuthenticated:   "authenticated",
		StateStale:           "stale",
		State(99):            "unknown",
	}
	for s, want := range states {
		if s.String() != want {
			t.Fatalf("State(%d).String() = %q, want %q", int(s), s.String(), want)
		}
	}
}
