// Package cooldown enforces the minimum interval between successful
// submissions per user.
package cooldown

import (
	"time"
)

// DefaultWindow is the minimum gap between two successful submissions.
const DefaultWindow = 30 * time.Second

// Guard is a pure timestamp comparator: no side effects, no timers. It must
// be consulted before the submission client is invoked, never after.
type Guard struct {
	window time.Duration
}

// New creates a Guard with the given window; a non-positive window falls
// back to DefaultWindow.
func New(window time.Duration) Guard {
	if window <= 0 {
		window = DefaultWindow
	}
	return Guard{window: window}
}

// CanSubmit reports whether a submission at now is allowed given the user's
// last successful submission. Failed attempts never update that timestamp,
// so retries of failures pass through unaffected.
func (g Guard) CanSubmit(lastSuccess, now time.Time) bool {
	if lastSuccess.IsZero() {
		return true
	}
	return now.Sub(lastSuccess) >= g.window
}

// Window returns the configured cooldown window.
func (g Guard) Window() time.Duration {
	return g.window
}
