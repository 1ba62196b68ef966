package core

// Stage names a phase of the sales qualification funnel a lead is in.
// Progression is forward-only: entry -> profiling -> financial_qualification
// -> post_appointment -> referral.
type Stage string

const (
	// StageEntry is the first contact stage; nothing is known about the lead.
	StageEntry Stage = "entry"
	// StageProfiling is the data-collection stage (name, contact, budget...).
	StageProfiling Stage = "profiling"
	// StageFinancialQual is the financial qualification / scheduling stage.
	StageFinancialQual Stage = "financial_qualification"
	// StagePostAppointment follows a confirmed appointment.
	StagePostAppointment Stage = "post_appointment"
	// StageReferral is the referral-collection tail of the funnel.
	StageReferral Stage = "referral"
)

// Valid reports whether s is one of the known funnel stages.
func (s Stage) Valid() bool {
	switch s {
	case StageEntry, StageProfiling, StageFinancialQual, StagePostAppointment, StageReferral:
		return true
	}
	return false
}

// Owner returns the agent kind that owns the stage. The mapping reflects
// forward-only funnel progress: Qualifier owns the early stages, Scheduler
// the financial qualification stage, FollowUp everything after the
// appointment.
func (s Stage) Owner() AgentKind {
	switch s {
	case StageEntry, StageProfiling:
		return AgentQualifier
	case StageFinancialQual:
		return AgentScheduler
	case StagePostAppointment, StageReferral:
		return AgentFollowUp
	}
	return AgentNone
}
