package agent

import (
	"context"

	"github.com/funnelmesh/funnelmesh/core"
	"github.com/funnelmesh/funnelmesh/guard"
)

// QualifierAgent owns the entry and profiling stages. It collects the
// tenant's required profile fields one at a time; once everything is present
// it either hands off to the scheduler (clean credit) or declines before any
// financing-related reply can reach the lead (adverse credit). The decline
// branch is deterministic and does not involve a provider call at all — the
// safety guard remains a second, independent line of defense behind it.
type QualifierAgent struct {
	baseAgent
}

// NewQualifier constructs the qualifier.
func NewQualifier(deps Deps) *QualifierAgent {
	return &QualifierAgent{baseAgent: newBaseAgent(core.AgentQualifier, deps)}
}

// Handle implements core.Agent.
func (a *QualifierAgent) Handle(ctx context.Context, snapshot *core.AgentContext, message string) (*core.AgentResult, error) {
	// The adverse-credit branch wins over everything else, including field
	// collection: the moment we know the credit history is adverse, the
	// only valid outcome is a decline with no handoff.
	if snapshot.HasAdverseCredit() {
		a.deps.Logger.Info("adverse credit, declining",
			"tenant_id", snapshot.TenantID, "lead_id", snapshot.LeadID)
		return &core.AgentResult{
			Reply:    guard.DeclineReply,
			Terminal: true,
		}, nil
	}

	cfg, err := a.deps.Config.Tenant(ctx, snapshot.TenantID)
	if err != nil {
		return nil, core.WrapOp("qualifier.config", err)
	}

	missing := ""
	for _, field := range cfg.RequiredFields {
		if snapshot.Profile[field] == "" {
			missing = field
			break
		}
	}

	if missing == "" {
		// Profile complete with clean credit: advance the funnel. The
		// scheduler produces the user-visible reply for this turn.
		return &core.AgentResult{
			Handoff: &core.HandoffSignal{
				From:   core.AgentQualifier,
				Target: core.AgentScheduler,
				Delta:  core.StageDelta(core.StageFinancialQual),
				Reason: "profile complete, credit status clean",
			},
		}, nil
	}

	instruction, err := qualifierInstruction(missing)
	if err != nil {
		return nil, core.WrapOp("qualifier.instruction", err)
	}
	comp, err := a.complete(ctx, snapshot, message, instruction)
	if err != nil {
		return nil, err
	}

	result := &core.AgentResult{
		Reply:    comp.resp.Text,
		Terminal: true,
	}
	if snapshot.Stage == core.StageEntry {
		// First contact moves the lead into profiling.
		result.Delta = core.StageDelta(core.StageProfiling)
	}
	return result, nil
}
