package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/consult_scheduler/internal/clock"
	"github.com/Freeeeeet/consult_scheduler/internal/model"
	"go.uber.org/zap"
)

// AvailabilityService считает свободные слоты: окна шаблона минус занятые.
// Ничего не пишет.
type AvailabilityService struct {
	templates TemplateStore
	bookings  BookingStore
	clock     clock.Clock
	logger    *zap.Logger
}

func NewAvailabilityService(
	templates TemplateStore,
	bookings BookingStore,
	clk clock.Clock,
	logger *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		templates: templates,
		bookings:  bookings,
		clock:     clk,
		logger:    logger,
	}
}

// ResolveString разбирает дату YYYY-MM-DD в зоне провайдера и вызывает Resolve.
func (s *AvailabilityService) ResolveString(ctx context.Context, bookingType, date string) ([]model.Slot, error) {
	d, err := model.ParseDate(date, s.clock.Location())
	if err != nil {
		return nil, newError(KindInvalidInput, "%s", err.Error())
	}
	return s.Resolve(ctx, bookingType, d)
}

// Resolve возвращает включённые окна дня недели, не занятые неотменёнными
// бронями того же типа на эту дату. Пустой результат - день занят или закрыт.
func (s *AvailabilityService) Resolve(ctx context.Context, bookingType string, date time.Time) ([]model.Slot, error) {
	if bookingType == "" {
		return nil, newError(KindInvalidInput, "booking type is required")
	}
	day := model.CalendarDate(date, s.clock.Location())

	tpl, err := s.templates.GetDay(ctx, bookingType, day.Weekday())
	if err != nil {
		s.logger.Error("Failed to load availability template",
			zap.String("booking_type", bookingType),
			zap.String("date", model.DateKey(day)),
			zap.Error(err),
		)
		return nil, internal("load availability template", err)
	}

	windows := tpl.EnabledSlots()
	if len(windows) == 0 {
		return []model.Slot{}, nil
	}

	held, err := s.bookings.ListActiveByTypeAndDate(ctx, bookingType, day)
	if err != nil {
		s.logger.Error("Failed to load bookings for availability",
			zap.String("booking_type", bookingType),
			zap.String("date", model.DateKey(day)),
			zap.Error(err),
		)
		return nil, internal("list active bookings", err)
	}

	occupied := make(map[string]struct{})
	for _, b := range held {
		if b.Status == model.BookingStatusCancelled {
			continue
		}
		for _, slot := range b.Slots {
			occupied[slot.Key()] = struct{}{}
		}
	}

	free := make([]model.Slot, 0, len(windows))
	for _, w := range windows {
		if _, taken := occupied[w.Key()]; taken {
			continue
		}
		free = append(free, w)
	}
	return free, nil
}

// requireFree проверяет, что все запрошенные слоты сейчас свободны.
func (s *AvailabilityService) requireFree(ctx context.Context, bookingType string, date time.Time, slots []model.Slot) error {
	free, err := s.Resolve(ctx, bookingType, date)
	if err != nil {
		return err
	}

	set := make(map[string]struct{}, len(free))
	for _, f := range free {
		set[f.Key()] = struct{}{}
	}
	for _, slot := range slots {
		if _, ok := set[slot.Key()]; !ok {
			return newError(KindSlotUnavailable, "slot %s on %s is no longer available", slot.Key(), model.DateKey(date))
		}
	}
	return nil
}
