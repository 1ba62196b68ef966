// Package router selects and calls one of several interchangeable LLM
// providers with ordered failover. Providers are attempted in configuration
// order; a transient failure (timeout, rate limit, 5xx-equivalent) puts the
// provider into cooldown and moves on to the next, a permanent failure (bad
// request, auth) surfaces immediately since retrying elsewhere cannot help.
// Exactly one provider is invoked per attempt level; there is no parallel
// racing.
package router

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/funnelmesh/funnelmesh/core"
	"github.com/funnelmesh/funnelmesh/logging"
	"github.com/funnelmesh/funnelmesh/model"
)

// Options configure a Router.
type Options struct {
	// AttemptTimeout bounds each individual provider call.
	AttemptTimeout time.Duration
	// Health overrides the tracker; by default a fresh one is built with
	// every configured provider healthy.
	Health *HealthTracker
	// RequestsPerSecond enables a per-provider rate limiter when > 0.
	RequestsPerSecond float64
	Logger            logging.Logger
}

// Router attempts providers in order, consulting the health tracker before
// each call. It never panics or leaks provider errors as exceptions: the
// result is either a response or a typed error.
type Router struct {
	providers []model.Provider
	health    *HealthTracker
	limiters  map[string]*rate.Limiter
	timeout   time.Duration
	logger    logging.Logger
}

// New constructs a Router over an ordered provider list (primary first).
func New(providers []model.Provider, optFns ...func(o *Options)) *Router {
	opts := Options{
		AttemptTimeout: 10 * time.Second,
		Logger:         logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.Info().Name
	}
	health := opts.Health
	if health == nil {
		health = NewHealthTracker(names)
	}

	var limiters map[string]*rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiters = make(map[string]*rate.Limiter, len(names))
		for _, name := range names {
			limiters[name] = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
		}
	}

	return &Router{
		providers: providers,
		health:    health,
		limiters:  limiters,
		timeout:   opts.AttemptTimeout,
		logger:    opts.Logger,
	}
}

// Complete tries each provider in order until one succeeds. The returned
// response always names the provider that actually served it, with
// FallbackUsed set when that was not the configured primary.
func (r *Router) Complete(ctx context.Context, req model.Request) (*model.Response, error) {
	if len(r.providers) == 0 {
		return nil, core.WrapOp("router.complete: no providers configured", core.ErrProvidersExhausted)
	}

	var failures []string
	for i, p := range r.ordered(req.ProviderOrder) {
		name := p.Info().Name

		done, allowErr := r.health.Allow(name)
		if allowErr != nil {
			r.logger.Debug("provider in cooldown, skipping", "provider", name)
			failures = append(failures, fmt.Sprintf("%s: cooling down", name))
			continue
		}

		resp, err := r.attempt(ctx, p, name, req)
		if err == nil {
			done(true)
			resp.Provider = name
			resp.FallbackUsed = i > 0
			r.logger.Debug("provider call succeeded",
				"provider", name, "fallback_used", resp.FallbackUsed, "latency", resp.Latency)
			return resp, nil
		}

		if core.IsPermanent(err) {
			// Not a health signal: the request itself is at fault and no
			// other provider can do better.
			done(true)
			r.logger.Error("permanent provider error", "provider", name, "error", err)
			return nil, err
		}

		done(false)
		r.logger.Warn("transient provider error, failing over", "provider", name, "error", err)
		failures = append(failures, fmt.Sprintf("%s: %v", name, err))

		if ctx.Err() != nil {
			// Upstream cancelled the turn; stop burning providers.
			break
		}
	}

	return nil, fmt.Errorf("%w: [%s]", core.ErrProvidersExhausted, strings.Join(failures, "; "))
}

// ordered applies a per-request provider preference: providers named in the
// preference come first, in that order, and the remaining configured
// providers keep construction order behind them as fallbacks. Names that
// match no configured provider are ignored.
func (r *Router) ordered(preferred []string) []model.Provider {
	if len(preferred) == 0 {
		return r.providers
	}
	byName := make(map[string]model.Provider, len(r.providers))
	for _, p := range r.providers {
		byName[p.Info().Name] = p
	}
	out := make([]model.Provider, 0, len(r.providers))
	taken := make(map[string]bool, len(preferred))
	for _, name := range preferred {
		if p, ok := byName[name]; ok && !taken[name] {
			out = append(out, p)
			taken[name] = true
		}
	}
	for _, p := range r.providers {
		if !taken[p.Info().Name] {
			out = append(out, p)
		}
	}
	return out
}

// attempt runs a single bounded provider call.
func (r *Router) attempt(ctx context.Context, p model.Provider, name string, req model.Request) (*model.Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if lim, ok := r.limiters[name]; ok {
		if err := lim.Wait(attemptCtx); err != nil {
			return nil, core.Transient(fmt.Errorf("rate limit wait: %w", err))
		}
	}

	start := time.Now()
	resp, err := p.Complete(attemptCtx, req)
	if err != nil {
		if attemptCtx.Err() != nil && !core.IsPermanent(err) {
			err = core.Transient(fmt.Errorf("provider %s timed out: %w", name, err))
		}
		return nil, err
	}
	resp.Latency = time.Since(start)
	return resp, nil
}

// Health exposes the tracker for observability; callers must not mutate it.
func (r *Router) Health() *HealthTracker { return r.health }
