// Package supervisor implements the stateless turn router: given a context
// snapshot and an inbound message it picks the owning specialist agent, runs
// it, applies any handoff (bounded), and returns the final result. A single
// specialist's failure never crashes the orchestration of other leads — all
// agent errors and panics are converted into a neutral fallback reply.
package supervisor

import (
	"context"
	"fmt"
	"time"

	"github.com/funnelmesh/funnelmesh/core"
	"github.com/funnelmesh/funnelmesh/internal/util"
	"github.com/funnelmesh/funnelmesh/logging"
)

// MaxHandoffs caps handoffs per inbound message. The guard fires exactly at
// the fourth attempted handoff.
const MaxHandoffs = 3

// FallbackReply is the neutral reply returned when an agent fails, providers
// are exhausted, or the handoff guard trips. Users never see error codes or
// stack traces.
const FallbackReply = "Disculpa, tuvimos un inconveniente al procesar tu mensaje. " +
	"¿Podrías intentarlo de nuevo en unos minutos?"

// Options configure a Supervisor.
type Options struct {
	Logger logging.Logger
}

// Supervisor routes turns across the registered specialist agents.
type Supervisor struct {
	agents map[core.AgentKind]core.Agent
	lanes  *laneLocks
	logger logging.Logger
}

// New builds a Supervisor over the given agents. Registering two agents with
// the same kind is a configuration bug and the later one wins.
func New(agents []core.Agent, optFns ...func(o *Options)) *Supervisor {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	byKind := make(map[core.AgentKind]core.Agent, len(agents))
	for _, a := range agents {
		byKind[a.Kind()] = a
	}
	return &Supervisor{agents: byKind, lanes: newLaneLocks(), logger: opts.Logger}
}

// Route processes one inbound turn. It is deterministic given identical
// (stage, agent continuity): the initial agent is the stage owner, with
// FollowUp > Scheduler > Qualifier precedence encoded in the stage mapping
// (an agent owning a later stage always wins, reflecting forward-only
// progress). Only a malformed snapshot is surfaced as an error; every other
// failure becomes a fallback result.
func (s *Supervisor) Route(ctx context.Context, snapshot *core.AgentContext, message string) (*core.AgentResult, error) {
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}

	release := s.lanes.acquire(snapshot.LeadID)
	defer release()

	current := snapshot.Clone()
	if current.SessionID == "" {
		current.SessionID = util.NewID()
	}
	current.Handoffs = 0 // the counter restarts on every inbound message

	start := time.Now()
	kind := current.Stage.Owner()
	var applied core.ContextDelta
	var calls []core.FunctionCall

	for {
		ag, ok := s.agents[kind]
		if !ok {
			s.logger.Error("no agent registered for kind", "kind", kind,
				"tenant_id", current.TenantID, "lead_id", current.LeadID)
			return s.fallback(applied, calls), nil
		}

		result, err := s.invoke(ctx, ag, current, message)
		if err != nil {
			s.logger.Error("agent failed, returning fallback",
				"agent", kind, "tenant_id", current.TenantID,
				"lead_id", current.LeadID, "error", err)
			return s.fallback(applied, calls), nil
		}

		handoff := result.Handoff
		if handoff == nil || handoff.Target == core.AgentNone {
			// Target None makes the result terminal immediately.
			result.Handoff = nil
			result.Terminal = true
			result.Delta = mergeDelta(applied, result.Delta)
			result.Calls = append(calls, result.Calls...)
			s.logger.Info("turn completed", "agent", kind,
				"tenant_id", current.TenantID, "lead_id", current.LeadID,
				"handoffs", current.Handoffs, "duration", time.Since(start))
			return result, nil
		}

		if current.Handoffs >= MaxHandoffs {
			// Never expose the partially-handed-off reply: it could be
			// inconsistent with the aborted transfer. Its function calls are
			// still reported — the side effects behind them already ran.
			s.logger.Error("handoff cap exceeded, returning fallback",
				"tenant_id", current.TenantID, "lead_id", current.LeadID,
				"from", handoff.From, "target", handoff.Target,
				"error", core.ErrHandoffLoopExceeded)
			return s.fallback(applied, append(calls, result.Calls...)), nil
		}

		current = handoff.Delta.Apply(current)
		current.Handoffs++
		applied = mergeDelta(applied, handoff.Delta)
		calls = append(calls, result.Calls...)
		s.logger.Info("agent handoff",
			"from", handoff.From, "target", handoff.Target,
			"reason", handoff.Reason, "handoff_count", current.Handoffs,
			"tenant_id", current.TenantID, "lead_id", current.LeadID)
		kind = handoff.Target
	}
}

// invoke runs a single agent with panic isolation.
func (s *Supervisor) invoke(ctx context.Context, ag core.Agent, current *core.AgentContext, message string) (result *core.AgentResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("agent %s panicked: %v", ag.Kind(), r)
		}
	}()
	result, err = ag.Handle(ctx, current, message)
	if err == nil && result == nil {
		err = fmt.Errorf("agent %s returned no result", ag.Kind())
	}
	return result, err
}

// fallback builds the neutral degraded result. Deltas and function calls
// from earlier successful agents are still reported so the caller can
// persist them and execute or audit the side effects.
func (s *Supervisor) fallback(applied core.ContextDelta, calls []core.FunctionCall) *core.AgentResult {
	return &core.AgentResult{
		Reply:    FallbackReply,
		Calls:    calls,
		Terminal: true,
		Delta:    applied,
	}
}

// mergeDelta folds b over a without mutating either.
func mergeDelta(a, b core.ContextDelta) core.ContextDelta {
	out := core.ContextDelta{Stage: a.Stage}
	if b.Stage != nil {
		out.Stage = b.Stage
	}
	if len(a.Profile)+len(b.Profile) > 0 {
		out.Profile = make(map[string]string, len(a.Profile)+len(b.Profile))
		for k, v := range a.Profile {
			out.Profile[k] = v
		}
		for k, v := range b.Profile {
			out.Profile[k] = v
		}
	}
	return out
}
