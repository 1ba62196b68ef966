package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseContext() *AgentContext {
	return &AgentContext{
		TenantID:  "t1",
		LeadID:    "l1",
		SessionID: "s1",
		Stage:     StageProfiling,
		History: []Message{
			{Role: RoleUser, Text: "hola"},
			{Role: RoleAssistant, Text: "¿tu nombre?"},
		},
		Profile: map[string]string{ProfileName: "Ana"},
	}
}

func TestDeltaApplyIsPureMerge(t *testing.T) {
	prior := baseContext()
	stage := StageFinancialQual
	delta := ContextDelta{Stage: &stage}

	next := delta.Apply(prior)

	// Only the named field changed.
	assert.Equal(t, StageFinancialQual, next.Stage)
	assert.Equal(t, prior.TenantID, next.TenantID)
	assert.Equal(t, prior.LeadID, next.LeadID)
	assert.Equal(t, prior.SessionID, next.SessionID)
	assert.Equal(t, prior.History, next.History)
	assert.Equal(t, prior.Profile, next.Profile)
	assert.Equal(t, prior.Handoffs, next.Handoffs)

	// The prior snapshot is untouched.
	assert.Equal(t, StageProfiling, prior.Stage)
}

func TestDeltaApplyMergesProfileByKey(t *testing.T) {
	prior := baseContext()
	delta := ContextDelta{Profile: map[string]string{ProfileBudget: "2M"}}

	next := delta.Apply(prior)

	assert.Equal(t, "Ana", next.Profile[ProfileName])
	assert.Equal(t, "2M", next.Profile[ProfileBudget])
	_, existed := prior.Profile[ProfileBudget]
	assert.False(t, existed, "prior profile must not gain keys")
}

func TestCloneIsIndependent(t *testing.T) {
	prior := baseContext()
	cp := prior.Clone()
	cp.Profile[ProfileName] = "Luis"
	cp.History[0].Text = "changed"

	assert.Equal(t, "Ana", prior.Profile[ProfileName])
	assert.Equal(t, "hola", prior.History[0].Text)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *AgentContext)
		wantErr bool
	}{
		{"valid", func(c *AgentContext) {}, false},
		{"missing tenant", func(c *AgentContext) { c.TenantID = "" }, true},
		{"missing lead", func(c *AgentContext) { c.LeadID = "" }, true},
		{"unknown stage", func(c *AgentContext) { c.Stage = "limbo" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := baseContext()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformedContext)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestRecentHistoryBoundsWindow(t *testing.T) {
	c := baseContext()
	for i := 0; i < 50; i++ {
		c.History = append(c.History, Message{Role: RoleUser, Text: "m"})
	}
	assert.Len(t, c.RecentHistory(10), 10)
	assert.Len(t, c.RecentHistory(0), len(c.History))
}

func TestStageOwnership(t *testing.T) {
	assert.Equal(t, AgentQualifier, StageEntry.Owner())
	assert.Equal(t, AgentQualifier, StageProfiling.Owner())
	assert.Equal(t, AgentScheduler, StageFinancialQual.Owner())
	assert.Equal(t, AgentFollowUp, StagePostAppointment.Owner())
	assert.Equal(t, AgentFollowUp, StageReferral.Owner())
	assert.Equal(t, AgentNone, Stage("limbo").Owner())
}

func TestErrorClassifiers(t *testing.T) {
	terr := Transient(assert.AnError)
	perr := Permanent(assert.AnError)
	assert.True(t, IsTransient(terr))
	assert.False(t, IsPermanent(terr))
	assert.True(t, IsPermanent(perr))
	assert.False(t, IsTransient(perr))
}
