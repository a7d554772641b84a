package browser

// State tracks the engine's authentication lifecycle explicitly. Staleness
// is only ever discovered reactively on a login-path entry, never assumed
// by a timer.
type State int

const (
	StateUninitialized State = iota
	StateInitialized
	StateSessionRestored
	StateAuthenticated
	StateStale
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateSessionRestored:
		return "session-restored"
	case StateAuthenticated:
		return "authenticated"
	case StateStale:
		return "stale"
	default:
		return "unknown"
	}
}
