package router

import (
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// HealthTracker keeps per-provider availability state: healthy or
// cooling-down until a timestamp. It is created at process start with every
// provider healthy and is mutated only by the Router through the Allow
// callback; cooldown expiry is handled by the underlying circuit breaker
// transitioning to half-open. Safe for concurrent use.
type HealthTracker struct {
	cooldown time.Duration
	trip     uint32

	mu       sync.Mutex
	breakers map[string]*gobreaker.TwoStepCircuitBreaker[struct{}]
}

// HealthOptions configure a HealthTracker.
type HealthOptions struct {
	// Cooldown is how long a provider is skipped after tripping.
	Cooldown time.Duration
	// TripAfter is the number of consecutive transient failures that put a
	// provider into cooldown. The default of 1 matches the router contract:
	// one transient error marks the provider cooling-down.
	TripAfter uint32
}

// NewHealthTracker constructs a tracker with all named providers healthy.
func NewHealthTracker(providers []string, optFns ...func(o *HealthOptions)) *HealthTracker {
	opts := HealthOptions{Cooldown: 30 * time.Second, TripAfter: 1}
	for _, fn := range optFns {
		fn(&opts)
	}
	h := &HealthTracker{
		cooldown: opts.Cooldown,
		trip:     opts.TripAfter,
		breakers: make(map[string]*gobreaker.TwoStepCircuitBreaker[struct{}]),
	}
	for _, name := range providers {
		h.breakers[name] = h.newBreaker(name)
	}
	return h
}

func (h *HealthTracker) newBreaker(name string) *gobreaker.TwoStepCircuitBreaker[struct{}] {
	trip := h.trip
	return gobreaker.NewTwoStepCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "provider:" + name,
		MaxRequests: 1, // one probe while half-open
		Timeout:     h.cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= trip
		},
	})
}

func (h *HealthTracker) breaker(name string) *gobreaker.TwoStepCircuitBreaker[struct{}] {
	h.mu.Lock()
	defer h.mu.Unlock()
	cb, ok := h.breakers[name]
	if !ok {
		cb = h.newBreaker(name)
		h.breakers[name] = cb
	}
	return cb
}

// Allow reports whether the named provider may be attempted. When allowed it
// returns a done callback the Router must invoke with the attempt outcome;
// a false outcome counts toward tripping the provider into cooldown. When
// the provider is cooling down, Allow returns a non-nil error.
func (h *HealthTracker) Allow(name string) (func(success bool), error) {
	return h.breaker(name).Allow()
}

// Healthy reports whether the named provider is currently attemptable.
func (h *HealthTracker) Healthy(name string) bool {
	return h.breaker(name).State() != gobreaker.StateOpen
}
