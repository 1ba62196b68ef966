package agent

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/funnelmesh/funnelmesh/core"
)

// Profile keys the scheduler uses to carry slot state between turns. The
// caller persists them like any other profile fact.
const (
	profilePendingSlot      = "pending_slot"
	profileProposedSlots    = "proposed_slots"
	profileAppointmentCode  = "appointment_code"
	defaultAvailabilitySpan = 7 * 24 * time.Hour
)

// SchedulerAgent owns the financial qualification stage. It proposes
// appointment slots from the external slot service and, once the lead
// confirms, books the slot, emits a book_appointment function call for the
// caller to execute, and hands the lead off to follow-up.
type SchedulerAgent struct {
	baseAgent
	slots core.SlotService
}

// NewScheduler constructs the scheduler around the external slot service.
func NewScheduler(deps Deps, slots core.SlotService) *SchedulerAgent {
	return &SchedulerAgent{baseAgent: newBaseAgent(core.AgentScheduler, deps), slots: slots}
}

// Handle implements core.Agent.
func (a *SchedulerAgent) Handle(ctx context.Context, snapshot *core.AgentContext, message string) (*core.AgentResult, error) {
	if pending := snapshot.Profile[profilePendingSlot]; pending != "" {
		// An ordinal in the reply picks among the proposed slots ("el
		// segundo"); a plain confirmation takes the first one proposed.
		if ord := slotOrdinal(message); ord > 0 {
			if id := proposedAt(snapshot.Profile[profileProposedSlots], ord); id != "" {
				return a.confirm(ctx, snapshot, id)
			}
		}
		if isAffirmative(message) {
			return a.confirm(ctx, snapshot, pending)
		}
	}
	return a.propose(ctx, snapshot, message)
}

var ordinalWords = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bprimer[oa]?\b`),
	regexp.MustCompile(`(?i)\bsegund[oa]\b`),
	regexp.MustCompile(`(?i)\btercer[oa]?\b`),
}

// slotOrdinal extracts a 1-based slot choice from the lead's reply: a bare
// digit message ("2") or a Spanish ordinal word. Digits embedded in longer
// text are ignored — they are more likely dates or amounts than choices.
func slotOrdinal(message string) int {
	switch strings.Trim(strings.ToLower(strings.TrimSpace(message)), ".,;:!¡ ") {
	case "1":
		return 1
	case "2":
		return 2
	case "3":
		return 3
	}
	for i, p := range ordinalWords {
		if p.MatchString(message) {
			return i + 1
		}
	}
	return 0
}

// proposedAt returns the ord-th proposed slot id, empty when out of range.
func proposedAt(joined string, ord int) string {
	if joined == "" {
		return ""
	}
	ids := strings.Split(joined, ",")
	if ord > len(ids) {
		return ""
	}
	return ids[ord-1]
}

// confirm books the pending slot and hands off to follow-up.
func (a *SchedulerAgent) confirm(ctx context.Context, snapshot *core.AgentContext, slotID string) (*core.AgentResult, error) {
	conf, err := a.slots.Book(ctx, snapshot.TenantID, snapshot.LeadID, slotID)
	if errors.Is(err, core.ErrSlotConflict) {
		a.deps.Logger.Warn("slot conflict, re-proposing",
			"tenant_id", snapshot.TenantID, "lead_id", snapshot.LeadID, "slot_id", slotID)
		retry := snapshot.Clone()
		retry.Profile[profilePendingSlot] = ""
		retry.Profile[profileProposedSlots] = ""
		return a.propose(ctx, retry, "el horario ya no está disponible")
	}
	if err != nil {
		return nil, core.WrapOp("scheduler.book", err)
	}

	stage := core.StagePostAppointment
	delta := core.ContextDelta{
		Stage: &stage,
		Profile: map[string]string{
			profilePendingSlot:     "",
			profileProposedSlots:   "",
			profileAppointmentCode: conf.Code,
		},
	}
	return &core.AgentResult{
		Reply: fmt.Sprintf("¡Listo! Tu cita quedó confirmada (código %s). Te esperamos.", conf.Code),
		Calls: []core.FunctionCall{{
			Name: "book_appointment",
			Arguments: map[string]any{
				"slot_id":           conf.SlotID,
				"confirmation_code": conf.Code,
				"lead_id":           snapshot.LeadID,
			},
		}},
		Handoff: &core.HandoffSignal{
			From:   core.AgentScheduler,
			Target: core.AgentFollowUp,
			Delta:  delta,
			Reason: "appointment confirmed",
		},
		Delta: delta,
	}, nil
}

// propose lists available slots and asks the lead to pick one.
func (a *SchedulerAgent) propose(ctx context.Context, snapshot *core.AgentContext, message string) (*core.AgentResult, error) {
	available, err := a.slots.ListAvailable(ctx, snapshot.TenantID, defaultAvailabilitySpan)
	if err != nil {
		return nil, core.WrapOp("scheduler.list", err)
	}
	if len(available) == 0 {
		return &core.AgentResult{
			Reply:    "Por ahora no tenemos horarios disponibles; te contactamos en cuanto se abra una cita.",
			Terminal: true,
		}, nil
	}

	if len(available) > 3 {
		available = available[:3]
	}
	instruction, err := schedulerInstruction(available)
	if err != nil {
		return nil, core.WrapOp("scheduler.instruction", err)
	}
	comp, err := a.complete(ctx, snapshot, message, instruction)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(available))
	for i, s := range available {
		ids[i] = s.ID
	}
	return &core.AgentResult{
		Reply:    comp.resp.Text,
		Terminal: true,
		Delta: core.ContextDelta{
			Profile: map[string]string{
				profilePendingSlot:   available[0].ID,
				profileProposedSlots: strings.Join(ids, ","),
			},
		},
	}, nil
}
