package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Freeeeeet/consult_scheduler/internal/clock"
	"github.com/Freeeeeet/consult_scheduler/internal/model"
	"go.uber.org/zap"
)

// ReconciliationService выполняет проходы по времени над бронями с видеовстречей.
type ReconciliationService struct {
	bookings     BookingStore
	notifier     Notifier
	types        model.BookingTypes
	clock        clock.Clock
	reminderLead time.Duration
	logger       *zap.Logger
}

func NewReconciliationService(
	bookings BookingStore,
	notifier Notifier,
	types model.BookingTypes,
	clk clock.Clock,
	reminderLead time.Duration,
	logger *zap.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		bookings:     bookings,
		notifier:     notifier,
		types:        types,
		clock:        clk,
		reminderLead: reminderLead,
		logger:       logger,
	}
}

// Tick запускает оба прохода параллельно. Ошибок не возвращает и
// перехватывает панику в любом из них.
func (s *ReconciliationService) Tick(ctx context.Context) {
	var wg sync.WaitGroup
	passes := map[string]func(context.Context) (int, error){
		"imminent": s.RunImminentPass,
		"elapsed":  s.RunElapsedPass,
	}

	for name, pass := range passes {
		wg.Add(1)
		go func(name string, pass func(context.Context) (int, error)) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("Reconciliation pass panicked",
						zap.String("pass", name),
						zap.Any("panic", r),
					)
				}
			}()

			n, err := pass(ctx)
			if err != nil {
				s.logger.Error("Reconciliation pass failed", zap.String("pass", name), zap.Error(err))
				return
			}
			if n > 0 {
				s.logger.Info("Reconciliation pass finished", zap.String("pass", name), zap.Int("processed", n))
			}
		}(name, pass)
	}

	wg.Wait()
}

// RunImminentPass напоминает клиентам о встречах, которые начнутся в пределах
// reminderLead. По каждой брони напоминание уходит не больше одного раза на расписание.
func (s *ReconciliationService) RunImminentPass(ctx context.Context) (int, error) {
	codes := s.types.LiveMeetingCodes()
	if len(codes) == 0 {
		return 0, nil
	}

	loc := s.clock.Location()
	now := s.clock.Now()
	horizon := now.Add(s.reminderLead)

	bookings, err := s.bookings.ListByStatusesBetween(ctx, codes,
		[]model.BookingStatus{model.BookingStatusUpcoming},
		now.In(loc), horizon.In(loc))
	if err != nil {
		return 0, fmt.Errorf("list upcoming bookings: %w", err)
	}

	sent := 0
	for _, b := range bookings {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		if b.Status != model.BookingStatusUpcoming || b.ReminderSentAt != nil {
			continue
		}
		start := b.StartAt(loc)
		if start.Before(now) || start.After(horizon) {
			continue
		}

		claimed, err := s.bookings.MarkReminderSent(ctx, b.ID, now)
		if err != nil {
			s.logger.Error("Failed to mark reminder",
				zap.String("booking_id", b.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if !claimed {
			continue
		}

		send(ctx, s.notifier, reminderMessage(b, start), s.logger)
		sent++
	}
	return sent, nil
}

// RunElapsedPass завершает confirmed и upcoming встречи, у которых закончился
// последний слот.
func (s *ReconciliationService) RunElapsedPass(ctx context.Context) (int, error) {
	codes := s.types.LiveMeetingCodes()
	if len(codes) == 0 {
		return 0, nil
	}

	loc := s.clock.Location()
	now := s.clock.Now()
	from := []model.BookingStatus{model.BookingStatusConfirmed, model.BookingStatusUpcoming}

	bookings, err := s.bookings.ListByStatusesUntil(ctx, codes, from, now.In(loc))
	if err != nil {
		return 0, fmt.Errorf("list elapsed bookings: %w", err)
	}

	completed := 0
	for _, b := range bookings {
		if ctx.Err() != nil {
			return completed, ctx.Err()
		}
		if !containsStatus(from, b.Status) || !b.EndAt(loc).Before(now) {
			continue
		}

		changed, err := s.bookings.TransitionStatus(ctx, b.ID, from, model.BookingStatusCompleted, nil)
		if err != nil {
			s.logger.Error("Failed to complete elapsed booking",
				zap.String("booking_id", b.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if changed {
			s.logger.Info("Elapsed booking completed", zap.String("booking_id", b.ID.String()))
			completed++
		}
	}
	return completed, nil
}
