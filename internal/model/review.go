package model

import (
	"time"

	"github.com/google/uuid"
)

type Review struct {
	ID        int64     `json:"id"`
	BookingID uuid.UUID `json:"booking_id"`
	UserID    int64     `json:"user_id"`
	Rating    int       `json:"rating"` // 1..5
	Text      *string   `json:"text,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
