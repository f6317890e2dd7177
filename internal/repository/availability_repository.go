package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/consult_scheduler/internal/model"
	"github.com/Freeeeeet/consult_scheduler/internal/repository/base"
	"go.uber.org/zap"
)

// AvailabilityRepository хранит недельный шаблон доступности.
type AvailabilityRepository struct {
	*base.Repository
	logger *zap.Logger
}

func NewAvailabilityRepository(pool base.Pool, logger *zap.Logger) *AvailabilityRepository {
	return &AvailabilityRepository{
		Repository: base.NewRepository(pool),
		logger:     logger,
	}
}

// GetDay возвращает запись шаблона для типа и дня недели или nil,
// если день не настроен.
func (r *AvailabilityRepository) GetDay(ctx context.Context, bookingType string, weekday time.Weekday) (*model.DayAvailability, error) {
	day := &model.DayAvailability{BookingType: bookingType, Weekday: weekday}

	query := `SELECT enabled FROM availability_days WHERE booking_type = $1 AND weekday = $2`
	err := r.QueryRow(ctx, query, bookingType, int(weekday)).Scan(&day.Enabled)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get availability day: %w", err)
	}

	windows, err := r.listWindows(ctx, bookingType, weekday)
	if err != nil {
		return nil, err
	}
	day.Windows = windows
	return day, nil
}

// GetTemplate возвращает все настроенные дни недели типа брони.
func (r *AvailabilityRepository) GetTemplate(ctx context.Context, bookingType string) (*model.AvailabilityTemplate, error) {
	query := `SELECT weekday, enabled FROM availability_days WHERE booking_type = $1 ORDER BY weekday`

	rows, err := r.Query(ctx, query, bookingType)
	if err != nil {
		return nil, fmt.Errorf("get availability template: %w", err)
	}

	tpl := &model.AvailabilityTemplate{
		BookingType: bookingType,
		Days:        make(map[time.Weekday]*model.DayAvailability),
	}
	for rows.Next() {
		var (
			weekday int
			enabled bool
		)
		if err := rows.Scan(&weekday, &enabled); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan availability day: %w", err)
		}
		tpl.Days[time.Weekday(weekday)] = &model.DayAvailability{
			BookingType: bookingType,
			Weekday:     time.Weekday(weekday),
			Enabled:     enabled,
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate availability days: %w", err)
	}

	for weekday, day := range tpl.Days {
		windows, err := r.listWindows(ctx, bookingType, weekday)
		if err != nil {
			return nil, err
		}
		day.Windows = windows
	}
	return tpl, nil
}

func (r *AvailabilityRepository) listWindows(ctx context.Context, bookingType string, weekday time.Weekday) ([]model.TemplateWindow, error) {
	query := `
		SELECT start_time, end_time, enabled
		FROM availability_windows
		WHERE booking_type = $1 AND weekday = $2
		ORDER BY position, start_time
	`

	rows, err := r.Query(ctx, query, bookingType, int(weekday))
	if err != nil {
		return nil, fmt.Errorf("list availability windows: %w", err)
	}
	defer rows.Close()

	var windows []model.TemplateWindow
	for rows.Next() {
		var w model.TemplateWindow
		if err := rows.Scan(&w.StartTime, &w.EndTime, &w.Enabled); err != nil {
			return nil, fmt.Errorf("scan availability window: %w", err)
		}
		windows = append(windows, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate availability windows: %w", err)
	}
	return windows, nil
}

// SaveDay заменяет запись шаблона для типа и дня недели.
func (r *AvailabilityRepository) SaveDay(ctx context.Context, day *model.DayAvailability) error {
	return r.InTx(ctx, func(ctx context.Context) error {
		query := `
			INSERT INTO availability_days (booking_type, weekday, enabled)
			VALUES ($1, $2, $3)
			ON CONFLICT (booking_type, weekday) DO UPDATE SET enabled = EXCLUDED.enabled
		`
		if _, err := r.ExecAffected(ctx, query, day.BookingType, int(day.Weekday), day.Enabled); err != nil {
			return fmt.Errorf("save availability day: %w", err)
		}

		query = `DELETE FROM availability_windows WHERE booking_type = $1 AND weekday = $2`
		if _, err := r.ExecAffected(ctx, query, day.BookingType, int(day.Weekday)); err != nil {
			return fmt.Errorf("clear availability windows: %w", err)
		}

		query = `
			INSERT INTO availability_windows (booking_type, weekday, position, start_time, end_time, enabled)
			VALUES ($1, $2, $3, $4, $5, $6)
		`
		for i, w := range day.Windows {
			if _, err := r.ExecAffected(ctx, query, day.BookingType, int(day.Weekday), i, w.StartTime, w.EndTime, w.Enabled); err != nil {
				return fmt.Errorf("save availability window: %w", err)
			}
		}

		r.logger.Info("Availability day saved",
			zap.String("booking_type", day.BookingType),
			zap.String("weekday", day.Weekday.String()),
			zap.Int("windows", len(day.Windows)),
		)
		return nil
	})
}
