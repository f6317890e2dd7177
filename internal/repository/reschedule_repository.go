package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Freeeeeet/consult_scheduler/internal/model"
	"github.com/Freeeeeet/consult_scheduler/internal/repository/base"
	"github.com/google/uuid"
)

const rescheduleColumns = `id, booking_id, user_id, requested_date, requested_slots, status, requested_by,
	proposer_id, reviewer_id, reviewed_at, notes, created_at, updated_at`

type RescheduleRepository struct {
	*base.Repository
}

func NewRescheduleRepository(pool base.Pool) *RescheduleRepository {
	return &RescheduleRepository{Repository: base.NewRepository(pool)}
}

func scanReschedule(row rowScanner) (*model.RescheduleRequest, error) {
	var (
		req   model.RescheduleRequest
		slots []byte
	)
	err := row.Scan(
		&req.ID,
		&req.BookingID,
		&req.UserID,
		&req.RequestedDate,
		&slots,
		&req.Status,
		&req.RequestedBy,
		&req.ProposerID,
		&req.ReviewerID,
		&req.ReviewedAt,
		&req.Notes,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(slots, &req.RequestedSlots); err != nil {
		return nil, fmt.Errorf("decode requested slots: %w", err)
	}
	return &req, nil
}

func (r *RescheduleRepository) Create(ctx context.Context, req *model.RescheduleRequest) error {
	slots, err := json.Marshal(req.RequestedSlots)
	if err != nil {
		return fmt.Errorf("encode requested slots: %w", err)
	}

	query := `
		INSERT INTO reschedule_requests (id, booking_id, user_id, requested_date, requested_slots, status,
			requested_by, proposer_id, notes)
		VALUES ($1, $2, $3, $4::date, $5::jsonb, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`
	err = r.QueryRow(
		ctx, query,
		req.ID,
		req.BookingID,
		req.UserID,
		model.DateKey(req.RequestedDate),
		string(slots),
		req.Status,
		req.RequestedBy,
		req.ProposerID,
		req.Notes,
	).Scan(&req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if base.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create reschedule request: %w", err)
	}
	return nil
}

func (r *RescheduleRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.RescheduleRequest, error) {
	query := `SELECT ` + rescheduleColumns + ` FROM reschedule_requests WHERE id = $1`

	req, err := scanReschedule(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reschedule request: %w", err)
	}
	return req, nil
}

func (r *RescheduleRepository) GetPendingByBookingID(ctx context.Context, bookingID uuid.UUID) (*model.RescheduleRequest, error) {
	query := `SELECT ` + rescheduleColumns + ` FROM reschedule_requests WHERE booking_id = $1 AND status = $2`

	req, err := scanReschedule(r.QueryRow(ctx, query, bookingID, model.RescheduleStatusPending))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get pending reschedule request: %w", err)
	}
	return req, nil
}

func (r *RescheduleRepository) ListByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*model.RescheduleRequest, error) {
	query := `
		SELECT ` + rescheduleColumns + `
		FROM reschedule_requests
		WHERE booking_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.Query(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("list reschedule requests: %w", err)
	}
	defer rows.Close()

	var requests []*model.RescheduleRequest
	for rows.Next() {
		req, err := scanReschedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reschedule request: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reschedule requests: %w", err)
	}
	return requests, nil
}

// Resolve закрывает ожидающий запрос. Возвращает false, если он уже закрыт.
func (r *RescheduleRepository) Resolve(ctx context.Context, id uuid.UUID, status model.RescheduleStatus, reviewerID *int64, notes *string, at time.Time) (bool, error) {
	query := `
		UPDATE reschedule_requests
		SET status = $2, reviewer_id = $3, notes = COALESCE($4, notes), reviewed_at = $5, updated_at = NOW()
		WHERE id = $1 AND status = $6
	`
	affected, err := r.ExecAffected(ctx, query, id, status, reviewerID, notes, at, model.RescheduleStatusPending)
	if err != nil {
		return false, fmt.Errorf("resolve reschedule request: %w", err)
	}
	return affected > 0, nil
}
