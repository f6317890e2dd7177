package model

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"   // ждёт решения оператора
	BookingStatusApproved  BookingStatus = "approved"  // одобрена, когда начало уже прошло
	BookingStatusConfirmed BookingStatus = "confirmed" // подтверждена внешним процессом
	BookingStatusUpcoming  BookingStatus = "upcoming"  // одобрена и ещё впереди
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusRejected  BookingStatus = "rejected"
)

// IsTerminal сообщает, что дальнейшие переходы невозможны.
func (s BookingStatus) IsTerminal() bool {
	switch s {
	case BookingStatusCompleted, BookingStatusCancelled, BookingStatusRejected:
		return true
	}
	return false
}

// ReschedulableStatuses - статусы, из которых бронь можно перенести.
func ReschedulableStatuses() []BookingStatus {
	return []BookingStatus{BookingStatusApproved, BookingStatusUpcoming, BookingStatusConfirmed}
}

func (s BookingStatus) IsReschedulable() bool {
	for _, r := range ReschedulableStatuses() {
		if s == r {
			return true
		}
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

type Booking struct {
	ID               uuid.UUID      `json:"id"`
	UserID           int64          `json:"user_id"`
	BookingType      string         `json:"booking_type"`
	Date             time.Time      `json:"date"`
	Slots            []Slot         `json:"slots"`
	Status           BookingStatus  `json:"status"`
	PaymentStatus    PaymentStatus  `json:"payment_status"`
	Amount           int64          `json:"amount"`                      // в минимальных единицах
	PaymentReference *string        `json:"payment_reference,omitempty"` // только для разовых оплат
	RejectionReason  *string        `json:"rejection_reason,omitempty"`
	MeetingLink      *string        `json:"meeting_link,omitempty"`
	IsRescheduled    bool           `json:"is_rescheduled"`
	Details          map[string]any `json:"details,omitempty"`
	ReminderSentAt   *time.Time     `json:"reminder_sent_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// StartAt - дата брони вместе с началом самого раннего слота.
func (b *Booking) StartAt(loc *time.Location) time.Time {
	start, ok := EarliestStart(b.Slots)
	if !ok {
		return CalendarDate(b.Date, loc)
	}
	return At(b.Date, start, loc)
}

// EndAt - дата брони вместе с концом самого позднего слота.
func (b *Booking) EndAt(loc *time.Location) time.Time {
	end, ok := LatestEnd(b.Slots)
	if !ok {
		return CalendarDate(b.Date, loc)
	}
	return At(b.Date, end, loc)
}

// IsOneOffCharge сообщает, оплачена ли бронь отдельно от подписки.
func (b *Booking) IsOneOffCharge() bool {
	return b.PaymentReference != nil && *b.PaymentReference != "" && b.Amount > 0
}

// Charge описывает оплату брони вне подписки.
type Charge struct {
	Reference string
	Amount    int64
}
