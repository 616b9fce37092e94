// Package lock provides best-effort mutual exclusion for a whole pipeline
// run. The lock is a single named object whose value is the acquire
// timestamp; a holder older than the TTL is considered abandoned and may be
// reclaimed by any acquirer. Mutual exclusion is therefore best-effort in
// the TTL tail; the interface isolates this so a lease-based backend can be
// substituted later without touching the workflow runner.
package lock

import "context"

// Lock guards a whole pipeline invocation across processes.
type Lock interface {
	// Acquire attempts to take the lock. It returns whether the lock was
	// taken and a short human-readable reason ("acquired", "busy (42s)",
	// "no-lock").
	Acquire(ctx context.Context) (bool, string, error)
	// Release drops the lock. Best effort: a failed release just leaves a
	// lock that expires via TTL on the next run.
	Release(ctx context.Context) error
}

// Nop is the degraded mode used when no backing store is configured: every
// acquire succeeds.
type Nop struct{}

// Acquire always succeeds with reason "no-lock".
func (Nop) Acquire(ctx context.Context) (bool, string, error) {
	return true, "no-lock", nil
}

// Release does nothing.
func (Nop) Release(ctx context.Context) error {
	return nil
}
