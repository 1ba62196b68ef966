// Package funnelmesh provides a high-level façade over the supervisor,
// provider router, cache tiers and safety guard, enabling construction of a
// complete lead-qualification pipeline in a few lines. Most applications
// interact with this package by:
//  1. Creating a Mesh via New() with their provider list and slot service
//  2. Checking EnabledFor() before routing a tenant into the pipeline
//  3. Calling Route() once per inbound turn
//
// All defaults are safe for local development and testing; production
// deployments supply real provider adapters (model/openai, model/anthropic),
// a tenant config source and a structured logger.
package funnelmesh

import (
	"context"

	"github.com/funnelmesh/funnelmesh/agent"
	"github.com/funnelmesh/funnelmesh/cache"
	"github.com/funnelmesh/funnelmesh/config"
	"github.com/funnelmesh/funnelmesh/core"
	"github.com/funnelmesh/funnelmesh/guard"
	"github.com/funnelmesh/funnelmesh/logging"
	"github.com/funnelmesh/funnelmesh/model"
	"github.com/funnelmesh/funnelmesh/router"
	"github.com/funnelmesh/funnelmesh/supervisor"
)

// Options configure the Mesh.
type Options struct {
	// Providers is the ordered LLM backend list, primary first. Required.
	Providers []model.Provider
	// Slots is the external appointment collaborator. Required for the
	// scheduler to book; a nil value disables booking.
	Slots core.SlotService
	// Config resolves per-tenant settings; defaults to an empty static
	// source where every tenant is enabled with default settings.
	Config config.Source
	// Store backs the semantic tier; defaults to an in-process ristretto
	// store. Semantic caching is disabled if construction fails.
	Store cache.Store
	// RouterOptions tune failover behavior.
	RouterOptions []func(o *router.Options)
	// Logger defaults to NoOp.
	Logger logging.Logger
}

// Mesh is the assembled pipeline.
type Mesh struct {
	supervisor *supervisor.Supervisor
	router     *router.Router
	cfg        config.Source
	logger     logging.Logger
}

// New wires the pipeline. Any unset service is initialized with an
// in-memory implementation.
func New(optFns ...func(o *Options)) (*Mesh, error) {
	opts := Options{
		Config: config.NewStaticSource(),
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	routerOpts := append([]func(o *router.Options){func(o *router.Options) {
		o.Logger = opts.Logger
	}}, opts.RouterOptions...)
	rt := router.New(opts.Providers, routerOpts...)

	store := opts.Store
	if store == nil {
		rs, err := cache.NewRistrettoStore()
		if err != nil {
			return nil, err
		}
		store = rs
	}

	deps := agent.Deps{
		Completer: rt,
		Prompts:   cache.NewPromptCache(),
		Replies: cache.NewSemanticCache(store, func(o *cache.SemanticOptions) {
			o.Logger = opts.Logger
		}),
		Guard:  guard.New(),
		Config: opts.Config,
		Logger: opts.Logger,
	}

	agents := []core.Agent{
		agent.NewQualifier(deps),
		agent.NewFollowUp(deps),
	}
	if opts.Slots != nil {
		agents = append(agents, agent.NewScheduler(deps, opts.Slots))
	}

	sup := supervisor.New(agents, func(o *supervisor.Options) {
		o.Logger = opts.Logger
	})

	return &Mesh{supervisor: sup, router: rt, cfg: opts.Config, logger: opts.Logger}, nil
}

// Route processes one inbound turn. See supervisor.Supervisor.Route for the
// full contract.
func (m *Mesh) Route(ctx context.Context, snapshot *core.AgentContext, message string) (*core.AgentResult, error) {
	return m.supervisor.Route(ctx, snapshot, message)
}

// EnabledFor reports the tenant's feature toggle. Callers check it before
// routing into this subsystem versus an older path; toggling it does not
// change Route's contract.
func (m *Mesh) EnabledFor(ctx context.Context, tenantID string) bool {
	cfg, err := m.cfg.Tenant(ctx, tenantID)
	if err != nil {
		m.logger.Warn("tenant config lookup failed, treating as disabled",
			"tenant_id", tenantID, "error", err)
		return false
	}
	return cfg.Enabled
}

// Router exposes the underlying provider router for health inspection.
func (m *Mesh) Router() *router.Router { return m.router }
