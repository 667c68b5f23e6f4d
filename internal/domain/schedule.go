package domain

import (
	"time"

	"github.com/google/uuid"
)

// SlotsPerDay is the fixed number of daily posting positions.
const SlotsPerDay = 6

// DiversityCap is the maximum number of same-platform slots within one day.
const DiversityCap = 2

// DateFormat is the canonical schedule date representation.
const DateFormat = "2006-01-02"

// SlotStatus represents the state of a schedule slot.
type SlotStatus string

const (
	SlotStatusEmpty   SlotStatus = "empty"
	SlotStatusPending SlotStatus = "pending"
	SlotStatusPosting SlotStatus = "posting"
	SlotStatusPosted  SlotStatus = "posted"
	SlotStatusFailed  SlotStatus = "failed"
)

// ScheduleSlot is one of the fixed daily posting positions.
// (date, slot_index) is unique; a content id appears in at most one
// non-terminal slot across the store.
type ScheduleSlot struct {
	ID            uuid.UUID  `db:"id"             json:"id"`
	Date          string     `db:"date"           json:"date"`
	SlotIndex     int        `db:"slot_index"     json:"slot_index"`
	ContentID     *uuid.UUID `db:"content_id"     json:"content_id,omitempty"`
	Platform      *Platform  `db:"platform"       json:"platform,omitempty"`
	Status        SlotStatus `db:"status"         json:"status"`
	ScheduledTime time.Time  `db:"scheduled_time" json:"scheduled_time"`
	CreatedAt     time.Time  `db:"created_at"     json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"     json:"updated_at"`
}

// Occupied reports whether the slot holds a live assignment that a
// schedule run must not touch.
func (s *ScheduleSlot) Occupied() bool {
	return s.Status == SlotStatusPosted || s.Status == SlotStatusPosting
}

// Assigned reports whether the slot has a valid pending binding.
func (s *ScheduleSlot) Assigned() bool {
	return s.Status == SlotStatusPending && s.ContentID != nil
}

// ScheduleMode selects how a schedule-generation run treats existing slots.
type ScheduleMode string

const (
	// ScheduleModeFull rebuilds every slot that is not posted/posting.
	ScheduleModeFull ScheduleMode = "full"
	// ScheduleModeRefill only fills slots lacking a valid assignment.
	ScheduleModeRefill ScheduleMode = "refill-missing"
)

// Valid reports whether m is a recognized schedule mode.
func (m ScheduleMode) Valid() bool {
	return m == ScheduleModeFull || m == ScheduleModeRefill
}

// SlotAction describes what a schedule run did to one slot. This
// vocabulary is a required output contract for operator tooling.
type SlotAction string

const (
	SlotActionCreated SlotAction = "created"
	SlotActionKept    SlotAction = "kept"
	SlotActionUpdated SlotAction = "updated"
	SlotActionSkipped SlotAction = "skipped"
)

// ReasonNoCandidates is reported on slots left unfilled.
const ReasonNoCandidates = "no_candidates_available"

// SlotReport describes the outcome for a single slot in a schedule run.
type SlotReport struct {
	SlotIndex int        `json:"slot_index"`
	Action    SlotAction `json:"action"`
	ContentID *uuid.UUID `json:"content_id,omitempty"`
	Platform  *Platform  `json:"platform,omitempty"`
	Reason    string     `json:"reason,omitempty"`
}

// ScheduleResult reports the outcome of one single-day schedule run.
type ScheduleResult struct {
	Date   string       `json:"date"`
	Mode   ScheduleMode `json:"mode"`
	Filled int          `json:"filled"`
	Slots  []SlotReport `json:"slots"`
	Errors []string     `json:"errors,omitempty"`
}

// BatchSummary aggregates multi-day schedule runs.
type BatchSummary struct {
	TotalScheduled int      `json:"total_scheduled"`
	Errors         []string `json:"errors,omitempty"`
}

// TwoDayResult is the output of a today+tomorrow refill.
type TwoDayResult struct {
	Today    *ScheduleResult `json:"today"`
	Tomorrow *ScheduleResult `json:"tomorrow"`
	Summary  BatchSummary    `json:"summary"`
}
