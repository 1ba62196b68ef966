package core

import (
	"errors"
	"fmt"
)

// Sentinel errors forming the funnelmesh error taxonomy. Everything except
// ErrMalformedContext is recovered inside the subsystem and converted into a
// normal user-visible result; only malformed snapshots reach the caller.
var (
	// ErrTransientProvider marks provider failures worth trying the next
	// provider for (timeout, rate limit, 5xx-equivalent).
	ErrTransientProvider = errors.New("transient provider error")
	// ErrPermanentProvider marks failures retrying elsewhere cannot fix
	// (bad request, auth failure).
	ErrPermanentProvider = errors.New("permanent provider error")
	// ErrProvidersExhausted is returned when every configured provider
	// failed transiently or was in cooldown.
	ErrProvidersExhausted = errors.New("all providers exhausted")
	// ErrCacheUnavailable marks a cache store failure; always downgraded to
	// a miss, never surfaced to callers.
	ErrCacheUnavailable = errors.New("cache unavailable")
	// ErrHandoffLoopExceeded fires when the per-turn handoff cap is hit.
	ErrHandoffLoopExceeded = errors.New("handoff loop exceeded")
	// ErrPolicyViolation marks a reply blocked by the safety guard.
	ErrPolicyViolation = errors.New("policy violation")
	// ErrMalformedContext marks an invalid caller-supplied snapshot.
	ErrMalformedContext = errors.New("malformed agent context")
	// ErrSlotConflict is reported by slot services when a booking races.
	ErrSlotConflict = errors.New("slot no longer available")
)

// WrapOp adds operation context to an error. Returns nil for nil err so it
// can wrap return values directly.
func WrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Transient wraps err as a transient provider error.
func Transient(err error) error {
	return fmt.Errorf("%w: %w", ErrTransientProvider, err)
}

// Permanent wraps err as a permanent provider error.
func Permanent(err error) error {
	return fmt.Errorf("%w: %w", ErrPermanentProvider, err)
}

// IsTransient reports whether err may succeed on another provider.
func IsTransient(err error) bool { return errors.Is(err, ErrTransientProvider) }

// IsPermanent reports whether failing over is pointless for err.
func IsPermanent(err error) bool { return errors.Is(err, ErrPermanentProvider) }
