package model

import (
	"time"

	"github.com/google/uuid"
)

type RescheduleStatus string

const (
	RescheduleStatusPending   RescheduleStatus = "pending"
	RescheduleStatusApproved  RescheduleStatus = "approved"
	RescheduleStatusRejected  RescheduleStatus = "rejected"
	RescheduleStatusWithdrawn RescheduleStatus = "withdrawn"
)

// RescheduleRequest - предложение перенести бронь на другую дату и слоты.
type RescheduleRequest struct {
	ID             uuid.UUID        `json:"id"`
	BookingID      uuid.UUID        `json:"booking_id"`
	UserID         int64            `json:"user_id"`
	RequestedDate  time.Time        `json:"requested_date"`
	RequestedSlots []Slot           `json:"requested_slots"`
	Status         RescheduleStatus `json:"status"`
	RequestedBy    ActorRole        `json:"requested_by"`
	ProposerID     int64            `json:"proposer_id"`
	ReviewerID     *int64           `json:"reviewer_id,omitempty"`
	ReviewedAt     *time.Time       `json:"reviewed_at,omitempty"`
	Notes          *string          `json:"notes,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

func (r *RescheduleRequest) IsPending() bool {
	return r.Status == RescheduleStatusPending
}

// RequestedStartAt - запрошенная дата вместе с самым ранним запрошенным слотом.
func (r *RescheduleRequest) RequestedStartAt(loc *time.Location) time.Time {
	start, ok := EarliestStart(r.RequestedSlots)
	if !ok {
		return CalendarDate(r.RequestedDate, loc)
	}
	return At(r.RequestedDate, start, loc)
}

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

func (d Decision) Valid() bool {
	return d == DecisionApprove || d == DecisionReject
}
