package cache

import (
	"context"
	"time"
)

// AttemptStore tracks failed login attempts per email within a rolling
// window. It backs the login throttle: the counter resets on successful
// login and expires on its own after the window elapses.
//
// Implementations must be safe for concurrent use. A lost or stale count is
// acceptable (the throttle is best-effort, not a security boundary).
type AttemptStore interface {
	// Incr records one failed attempt and returns the count currently on
	// record, including this one.
	Incr(ctx context.Context, email string, window time.Duration) (int64, error)
	// Count returns the attempts currently on record without mutating.
	Count(ctx context.Context, email string) (int64, error)
	// Reset clears the counter, e.g. after a successful login.
	Reset(ctx context.Context, email string) error
}
