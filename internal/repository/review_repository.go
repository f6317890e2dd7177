package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/consult_scheduler/internal/model"
	"github.com/Freeeeeet/consult_scheduler/internal/repository/base"
	"github.com/google/uuid"
)

type ReviewRepository struct {
	*base.Repository
}

func NewReviewRepository(pool base.Pool) *ReviewRepository {
	return &ReviewRepository{Repository: base.NewRepository(pool)}
}

func (r *ReviewRepository) Create(ctx context.Context, review *model.Review) error {
	query := `
		INSERT INTO booking_reviews (booking_id, user_id, rating, text)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.QueryRow(ctx, query, review.BookingID, review.UserID, review.Rating, review.Text).
		Scan(&review.ID, &review.CreatedAt)
	if err != nil {
		if base.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

func (r *ReviewRepository) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*model.Review, error) {
	query := `
		SELECT id, booking_id, user_id, rating, text, created_at
		FROM booking_reviews
		WHERE booking_id = $1
	`
	var review model.Review
	err := r.QueryRow(ctx, query, bookingID).Scan(
		&review.ID,
		&review.BookingID,
		&review.UserID,
		&review.Rating,
		&review.Text,
		&review.CreatedAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return &review, nil
}
