package core

// Role constants for conversation messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Profile keys collected during qualification. Tenants may extend the
// required set via configuration; these are the canonical defaults.
const (
	ProfileName         = "name"
	ProfileContact      = "contact"
	ProfileLocation     = "location"
	ProfileBudget       = "budget"
	ProfileCreditStatus = "credit_status"
)

// Credit status values stored under ProfileCreditStatus.
const (
	CreditClean   = "clean"
	CreditAdverse = "adverse"
)

// Message is a single prior turn in the conversation history.
type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// AgentContext is the immutable per-turn snapshot of a lead's conversation.
// The caller supplies it with each inbound message; agents never mutate it in
// place. Updates flow through ContextDelta.Apply, which returns a new copy.
type AgentContext struct {
	TenantID  string            `json:"tenant_id"`
	LeadID    string            `json:"lead_id"`
	SessionID string            `json:"session_id"`
	Stage     Stage             `json:"stage"`
	History   []Message         `json:"history"`
	Profile   map[string]string `json:"profile"`
	// Handoffs counts handoffs applied during the current inbound message.
	// It starts at zero on every turn and is incremented by the supervisor.
	Handoffs int `json:"handoffs"`
}

// Clone returns a deep copy so callers can hold the original untouched.
func (c *AgentContext) Clone() *AgentContext {
	cp := *c
	cp.History = make([]Message, len(c.History))
	copy(cp.History, c.History)
	cp.Profile = make(map[string]string, len(c.Profile))
	for k, v := range c.Profile {
		cp.Profile[k] = v
	}
	return &cp
}

// RecentHistory returns the last n messages. Agents read a bounded window
// rather than the full (potentially unbounded) sequence.
func (c *AgentContext) RecentHistory(n int) []Message {
	if n <= 0 || len(c.History) <= n {
		return c.History
	}
	return c.History[len(c.History)-n:]
}

// CreditStatus returns the recorded credit status, empty if not yet known.
func (c *AgentContext) CreditStatus() string { return c.Profile[ProfileCreditStatus] }

// HasAdverseCredit reports whether the lead has adverse credit history.
func (c *AgentContext) HasAdverseCredit() bool { return c.CreditStatus() == CreditAdverse }

// Validate checks the snapshot for the minimum fields the supervisor needs.
// A failure here is the caller's bug and is surfaced as ErrMalformedContext.
func (c *AgentContext) Validate() error {
	switch {
	case c == nil:
		return WrapOp("context.validate", ErrMalformedContext)
	case c.TenantID == "":
		return WrapOp("context.validate: missing tenant id", ErrMalformedContext)
	case c.LeadID == "":
		return WrapOp("context.validate: missing lead id", ErrMalformedContext)
	case !c.Stage.Valid():
		return WrapOp("context.validate: unknown stage "+string(c.Stage), ErrMalformedContext)
	}
	return nil
}

// ContextDelta is a partial overwrite of an AgentContext produced by an
// agent as part of a handoff. Nil / absent fields leave the prior value
// untouched; Profile entries merge key-by-key.
type ContextDelta struct {
	Stage   *Stage            `json:"stage,omitempty"`
	Profile map[string]string `json:"profile,omitempty"`
}

// IsZero reports whether the delta changes nothing.
func (d ContextDelta) IsZero() bool { return d.Stage == nil && len(d.Profile) == 0 }

// Apply merges the delta into a copy of prior and returns the copy. The merge
// is pure: fields the delta does not name are identical to the prior
// snapshot, and prior itself is never modified.
func (d ContextDelta) Apply(prior *AgentContext) *AgentContext {
	next := prior.Clone()
	if d.Stage != nil {
		next.Stage = *d.Stage
	}
	for k, v := range d.Profile {
		next.Profile[k] = v
	}
	return next
}

// StageDelta is a convenience constructor for a delta that only advances the
// funnel stage.
func StageDelta(s Stage) ContextDelta { return ContextDelta{Stage: &s} }
