package agent

import (
	"context"

	"github.com/funnelmesh/funnelmesh/core"
)

// FollowUpAgent owns the post-appointment stages: follow-up conversation and
// referral collection. The funnel is forward-only, so it never hands off and
// its results are always terminal.
type FollowUpAgent struct {
	baseAgent
}

// NewFollowUp constructs the follow-up agent.
func NewFollowUp(deps Deps) *FollowUpAgent {
	return &FollowUpAgent{baseAgent: newBaseAgent(core.AgentFollowUp, deps)}
}

// Handle implements core.Agent.
func (a *FollowUpAgent) Handle(ctx context.Context, snapshot *core.AgentContext, message string) (*core.AgentResult, error) {
	instruction, err := followUpInstruction(snapshot.Stage)
	if err != nil {
		return nil, core.WrapOp("followup.instruction", err)
	}
	comp, err := a.complete(ctx, snapshot, message, instruction)
	if err != nil {
		return nil, err
	}
	return &core.AgentResult{
		Reply:    comp.resp.Text,
		Terminal: true,
	}, nil
}
