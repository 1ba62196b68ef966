package core

import (
	"context"
	"time"
)

// Slot is an appointment slot offered by an external calendar system.
type Slot struct {
	ID       string    `json:"id"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Location string    `json:"location,omitempty"`
}

// Confirmation acknowledges a successful booking.
type Confirmation struct {
	SlotID string `json:"slot_id"`
	Code   string `json:"code"`
}

// SlotService is the external appointment collaborator consumed by the
// scheduler agent. Implementations live outside this module; Book returns
// ErrSlotConflict when the slot was taken between listing and booking.
type SlotService interface {
	ListAvailable(ctx context.Context, tenantID string, window time.Duration) ([]Slot, error)
	Book(ctx context.Context, tenantID, leadID, slotID string) (*Confirmation, error)
}
