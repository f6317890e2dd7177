package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/consult_scheduler/internal/model"
	"github.com/google/uuid"
)

// BookingStore хранит брони. Get-методы возвращают nil, nil, если ничего не найдено.
type BookingStore interface {
	// Create сохраняет бронь и занимает её слоты. Если слот занят другой
	// неотменённой бронью, возвращает repository.ErrSlotTaken.
	Create(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	ListByUser(ctx context.Context, userID int64) ([]*model.Booking, error)
	ListActiveByTypeAndDate(ctx context.Context, bookingType string, date time.Time) ([]*model.Booking, error)
	CountActiveByUserBetween(ctx context.Context, userID int64, from, to time.Time) (int, error)
	// ListByStatusesBetween возвращает брони заданных типов и статусов
	// с датой в [from, to].
	ListByStatusesBetween(ctx context.Context, types []string, statuses []model.BookingStatus, from, to time.Time) ([]*model.Booking, error)
	// ListByStatusesUntil - то же без нижней границы даты.
	ListByStatusesUntil(ctx context.Context, types []string, statuses []model.BookingStatus, to time.Time) ([]*model.Booking, error)
	// TransitionStatus переводит бронь в `to`, только если сейчас она в одном из
	// `from`. Возвращает, изменилась ли строка. Отмена освобождает слоты.
	TransitionStatus(ctx context.Context, id uuid.UUID, from []model.BookingStatus, to model.BookingStatus, rejectionReason *string) (bool, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status model.PaymentStatus) error
	SetMeetingLink(ctx context.Context, id uuid.UUID, link string) error
	// Reschedule меняет дату и слоты, если статус один из from, помечает бронь
	// перенесённой и сбрасывает отметку о напоминании. Возвращает false, если
	// статус уже другой. Конфликт слотов - repository.ErrSlotTaken.
	Reschedule(ctx context.Context, id uuid.UUID, date time.Time, slots []model.Slot, from []model.BookingStatus, status model.BookingStatus) (bool, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
}

type RescheduleStore interface {
	// Create возвращает repository.ErrDuplicate, если у брони уже есть ожидающий запрос.
	Create(ctx context.Context, r *model.RescheduleRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.RescheduleRequest, error)
	GetPendingByBookingID(ctx context.Context, bookingID uuid.UUID) (*model.RescheduleRequest, error)
	ListByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*model.RescheduleRequest, error)
	// Resolve закрывает ожидающий запрос. Возвращает false, если он уже не ожидает.
	Resolve(ctx context.Context, id uuid.UUID, status model.RescheduleStatus, reviewerID *int64, notes *string, at time.Time) (bool, error)
}

type TemplateStore interface {
	GetDay(ctx context.Context, bookingType string, weekday time.Weekday) (*model.DayAvailability, error)
}

type SubscriptionStore interface {
	FindActiveSubscription(ctx context.Context, userID int64) (*model.Subscription, error)
	FindPlan(ctx context.Context, planID int64) (*model.Plan, error)
}

type ReviewStore interface {
	// Create возвращает repository.ErrDuplicate, если у брони уже есть отзыв.
	Create(ctx context.Context, r *model.Review) error
	GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*model.Review, error)
}

// SlotLocker упорядочивает запись по одному типу и дате. fn выполняется
// в транзакции из переданного ей контекста.
type SlotLocker interface {
	WithSlotLock(ctx context.Context, bookingType string, date time.Time, fn func(ctx context.Context) error) error
}

type Notifier interface {
	Notify(ctx context.Context, n model.Notification) error
}

type MeetingProvider interface {
	CreateMeeting(ctx context.Context, bookingID uuid.UUID, start time.Time, durationMinutes int) (string, error)
}

type Refunder interface {
	Refund(ctx context.Context, paymentReference string, amount int64) error
}
