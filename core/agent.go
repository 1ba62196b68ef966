package core

import "context"

// AgentKind tags the specialist agents. It is the only identity the
// supervisor inspects; callers never branch on concrete types.
type AgentKind string

const (
	// AgentNone marks the absence of a handoff target; a signal carrying it
	// makes the current result terminal.
	AgentNone AgentKind = ""
	// AgentQualifier owns the entry and profiling stages.
	AgentQualifier AgentKind = "qualifier"
	// AgentScheduler owns the financial qualification stage.
	AgentScheduler AgentKind = "scheduler"
	// AgentFollowUp owns the post-appointment stages.
	AgentFollowUp AgentKind = "followup"
)

// FunctionCall is a structured side effect for the caller to execute after
// the turn completes (e.g. "book_appointment"). The core never executes
// side effects itself.
type FunctionCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// HandoffSignal requests transfer of turn ownership to another specialist.
// It is created by an agent as part of its result, consumed exactly once by
// the supervisor and never persisted beyond the turn.
type HandoffSignal struct {
	From   AgentKind    `json:"from"`
	Target AgentKind    `json:"target"`
	Delta  ContextDelta `json:"delta"`
	// Reason is a human-readable explanation kept for audit logging.
	Reason string `json:"reason"`
}

// AgentResult is the outcome of one agent invocation. Delta carries the last
// applied context changes back to the caller, which owns persistence.
type AgentResult struct {
	Reply    string         `json:"reply"`
	Calls    []FunctionCall `json:"calls,omitempty"`
	Handoff  *HandoffSignal `json:"handoff,omitempty"`
	Terminal bool           `json:"terminal"`
	Delta    ContextDelta   `json:"delta"`
}

// Agent is the single capability every specialist implements. Handle reads
// the snapshot, produces a reply and optionally a handoff; it must never
// mutate the snapshot.
type Agent interface {
	Kind() AgentKind
	Handle(ctx context.Context, snapshot *AgentContext, message string) (*AgentResult, error)
}
