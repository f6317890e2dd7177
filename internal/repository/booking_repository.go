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

const bookingColumns = `id, user_id, booking_type, booking_date, slots, status, payment_status, amount,
	payment_reference, rejection_reason, meeting_link, is_rescheduled, details, reminder_sent_at,
	created_at, updated_at`

type BookingRepository struct {
	*base.Repository
}

func NewBookingRepository(pool base.Pool) *BookingRepository {
	return &BookingRepository{Repository: base.NewRepository(pool)}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*model.Booking, error) {
	var (
		b       model.Booking
		slots   []byte
		details []byte
	)
	err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.BookingType,
		&b.Date,
		&slots,
		&b.Status,
		&b.PaymentStatus,
		&b.Amount,
		&b.PaymentReference,
		&b.RejectionReason,
		&b.MeetingLink,
		&b.IsRescheduled,
		&details,
		&b.ReminderSentAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(slots, &b.Slots); err != nil {
		return nil, fmt.Errorf("decode slots: %w", err)
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &b.Details); err != nil {
			return nil, fmt.Errorf("decode details: %w", err)
		}
	}
	return &b, nil
}

func (r *BookingRepository) scanAll(ctx context.Context, op, query string, args ...any) ([]*model.Booking, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var bookings []*model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}
	return bookings, nil
}

// Create сохраняет бронь и занимает по строке на каждый слот.
func (r *BookingRepository) Create(ctx context.Context, b *model.Booking) error {
	slots, err := json.Marshal(b.Slots)
	if err != nil {
		return fmt.Errorf("encode slots: %w", err)
	}
	details := []byte("{}")
	if b.Details != nil {
		if details, err = json.Marshal(b.Details); err != nil {
			return fmt.Errorf("encode details: %w", err)
		}
	}

	return r.InTx(ctx, func(ctx context.Context) error {
		query := `
			INSERT INTO bookings (id, user_id, booking_type, booking_date, slots, status, payment_status,
				amount, payment_reference, details)
			VALUES ($1, $2, $3, $4::date, $5::jsonb, $6, $7, $8, $9, $10::jsonb)
			RETURNING created_at, updated_at
		`
		err := r.QueryRow(
			ctx, query,
			b.ID,
			b.UserID,
			b.BookingType,
			model.DateKey(b.Date),
			string(slots),
			b.Status,
			b.PaymentStatus,
			b.Amount,
			b.PaymentReference,
			string(details),
		).Scan(&b.CreatedAt, &b.UpdatedAt)
		if err != nil {
			return fmt.Errorf("create booking: %w", err)
		}

		return r.holdSlots(ctx, b.ID, b.BookingType, b.Date, b.Slots)
	})
}

func (r *BookingRepository) holdSlots(ctx context.Context, id uuid.UUID, bookingType string, date time.Time, slots []model.Slot) error {
	query := `
		INSERT INTO booking_slots (booking_id, booking_type, booking_date, start_time, end_time)
		VALUES ($1, $2, $3::date, $4, $5)
	`
	for _, s := range slots {
		if _, err := r.ExecAffected(ctx, query, id, bookingType, model.DateKey(date), s.StartTime, s.EndTime); err != nil {
			if base.IsUniqueViolation(err) {
				return ErrSlotTaken
			}
			return fmt.Errorf("hold slot %s: %w", s.Key(), err)
		}
	}
	return nil
}

func (r *BookingRepository) releaseSlots(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE booking_slots SET released = TRUE WHERE booking_id = $1 AND NOT released`
	if _, err := r.ExecAffected(ctx, query, id); err != nil {
		return fmt.Errorf("release slots: %w", err)
	}
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	b, err := scanBooking(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by id: %w", err)
	}
	return b, nil
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID int64) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1
		ORDER BY booking_date DESC, created_at DESC
	`
	return r.scanAll(ctx, "list bookings by user", query, userID)
}

// ListActiveByTypeAndDate возвращает неотменённые брони типа на дату.
func (r *BookingRepository) ListActiveByTypeAndDate(ctx context.Context, bookingType string, date time.Time) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE booking_type = $1 AND booking_date = $2::date AND status <> $3
		ORDER BY created_at
	`
	return r.scanAll(ctx, "list active bookings", query, bookingType, model.DateKey(date), model.BookingStatusCancelled)
}

// CountActiveByUserBetween считает неотменённые брони с датой в [from, to].
func (r *BookingRepository) CountActiveByUserBetween(ctx context.Context, userID int64, from, to time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM bookings
		WHERE user_id = $1
		  AND booking_date BETWEEN $2::date AND $3::date
		  AND status <> $4
	`
	var count int
	err := r.QueryRow(ctx, query, userID, model.DateKey(from), model.DateKey(to), model.BookingStatusCancelled).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active bookings: %w", err)
	}
	return count, nil
}

func (r *BookingRepository) ListByStatusesBetween(ctx context.Context, types []string, statuses []model.BookingStatus, from, to time.Time) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE booking_type = ANY($1)
		  AND status = ANY($2)
		  AND booking_date BETWEEN $3::date AND $4::date
		ORDER BY booking_date
	`
	return r.scanAll(ctx, "list bookings by status", query, types, statusStrings(statuses), model.DateKey(from), model.DateKey(to))
}

func (r *BookingRepository) ListByStatusesUntil(ctx context.Context, types []string, statuses []model.BookingStatus, to time.Time) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE booking_type = ANY($1)
		  AND status = ANY($2)
		  AND booking_date <= $3::date
		ORDER BY booking_date
	`
	return r.scanAll(ctx, "list bookings by status", query, types, statusStrings(statuses), model.DateKey(to))
}

// TransitionStatus - compare-and-set по статусу. Отмена также освобождает слоты.
func (r *BookingRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from []model.BookingStatus, to model.BookingStatus, rejectionReason *string) (bool, error) {
	var changed bool
	err := r.InTx(ctx, func(ctx context.Context) error {
		query := `
			UPDATE bookings
			SET status = $2, rejection_reason = COALESCE($3, rejection_reason), updated_at = NOW()
			WHERE id = $1 AND status = ANY($4)
		`
		affected, err := r.ExecAffected(ctx, query, id, to, rejectionReason, statusStrings(from))
		if err != nil {
			return fmt.Errorf("update booking status: %w", err)
		}
		changed = affected > 0

		if changed && to == model.BookingStatusCancelled {
			return r.releaseSlots(ctx, id)
		}
		return nil
	})
	return changed, err
}

func (r *BookingRepository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status model.PaymentStatus) error {
	query := `UPDATE bookings SET payment_status = $2, updated_at = NOW() WHERE id = $1`

	affected, err := r.ExecAffected(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("booking %s not found", id)
	}
	return nil
}

func (r *BookingRepository) SetMeetingLink(ctx context.Context, id uuid.UUID, link string) error {
	query := `UPDATE bookings SET meeting_link = $2, updated_at = NOW() WHERE id = $1`

	if _, err := r.ExecAffected(ctx, query, id, link); err != nil {
		return fmt.Errorf("set meeting link: %w", err)
	}
	return nil
}

// Reschedule переносит бронь и её слоты, если статус всё ещё один из from.
// Иначе ничего не меняет и возвращает false.
func (r *BookingRepository) Reschedule(ctx context.Context, id uuid.UUID, date time.Time, slots []model.Slot, from []model.BookingStatus, status model.BookingStatus) (bool, error) {
	encoded, err := json.Marshal(slots)
	if err != nil {
		return false, fmt.Errorf("encode slots: %w", err)
	}

	var moved bool
	err = r.InTx(ctx, func(ctx context.Context) error {
		var bookingType string
		query := `
			UPDATE bookings
			SET booking_date = $2::date, slots = $3::jsonb, status = $4, is_rescheduled = TRUE,
				reminder_sent_at = NULL, updated_at = NOW()
			WHERE id = $1 AND status = ANY($5)
			RETURNING booking_type
		`
		err := r.QueryRow(ctx, query, id, model.DateKey(date), string(encoded), status, statusStrings(from)).Scan(&bookingType)
		if err != nil {
			if base.IsNotFound(err) {
				return nil
			}
			return fmt.Errorf("reschedule booking: %w", err)
		}
		moved = true

		if err := r.releaseSlots(ctx, id); err != nil {
			return err
		}
		return r.holdSlots(ctx, id, bookingType, date, slots)
	})
	if err != nil {
		return false, err
	}
	return moved, nil
}

// MarkReminderSent ставит отметку о напоминании один раз. Возвращает false, если она уже стоит.
func (r *BookingRepository) MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE bookings
		SET reminder_sent_at = $2, updated_at = NOW()
		WHERE id = $1 AND reminder_sent_at IS NULL
	`
	affected, err := r.ExecAffected(ctx, query, id, at)
	if err != nil {
		return false, fmt.Errorf("mark reminder sent: %w", err)
	}
	return affected > 0, nil
}

func statusStrings(statuses []model.BookingStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
