package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Freeeeeet/consult_scheduler/internal/clock"
	"github.com/Freeeeeet/consult_scheduler/internal/model"
	"github.com/Freeeeeet/consult_scheduler/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Нефинальные статусы. Оператор может отменить бронь из любого.
var activeStatuses = []model.BookingStatus{
	model.BookingStatusPending,
	model.BookingStatusApproved,
	model.BookingStatusConfirmed,
	model.BookingStatusUpcoming,
}

type BookingService struct {
	bookings     BookingStore
	reviews      ReviewStore
	locker       SlotLocker
	availability *AvailabilityService
	quota        *QuotaService
	meetings     MeetingProvider
	refunds      Refunder
	notifier     Notifier
	types        model.BookingTypes
	clock        clock.Clock
	logger       *zap.Logger
}

func NewBookingService(
	bookings BookingStore,
	reviews ReviewStore,
	locker SlotLocker,
	availability *AvailabilityService,
	quota *QuotaService,
	meetings MeetingProvider,
	refunds Refunder,
	notifier Notifier,
	types model.BookingTypes,
	clk clock.Clock,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		bookings:     bookings,
		reviews:      reviews,
		locker:       locker,
		availability: availability,
		quota:        quota,
		meetings:     meetings,
		refunds:      refunds,
		notifier:     notifier,
		types:        types,
		clock:        clk,
		logger:       logger,
	}
}

type CreateBookingParams struct {
	UserID      int64
	BookingType string
	Date        string // YYYY-MM-DD в зоне провайдера
	Slots       []model.Slot
	Details     map[string]any
	Charge      *model.Charge // если сессия оплачена вне подписки
}

// Create резервирует слоты для пользователя как бронь в статусе pending.
func (s *BookingService) Create(ctx context.Context, p CreateBookingParams) (*model.Booking, error) {
	if p.UserID <= 0 {
		return nil, newError(KindInvalidInput, "user is required")
	}
	bt, err := lookupType(s.types, p.BookingType)
	if err != nil {
		return nil, err
	}
	loc := s.clock.Location()
	date, slots, err := parseSchedule(bt, p.Date, p.Slots, loc)
	if err != nil {
		return nil, err
	}
	if p.Charge != nil && (strings.TrimSpace(p.Charge.Reference) == "" || p.Charge.Amount <= 0) {
		return nil, newError(KindInvalidInput, "charge needs a payment reference and a positive amount")
	}

	booking := &model.Booking{
		ID:            uuid.New(),
		UserID:        p.UserID,
		BookingType:   bt.Code,
		Date:          date,
		Slots:         slots,
		Status:        model.BookingStatusPending,
		PaymentStatus: model.PaymentStatusPaid,
		Details:       p.Details,
	}
	if p.Charge != nil {
		ref := p.Charge.Reference
		booking.PaymentReference = &ref
		booking.Amount = p.Charge.Amount
	}

	if !booking.StartAt(loc).After(s.clock.Now()) {
		return nil, newError(KindBadRequest, "cannot book a time in the past")
	}

	err = s.locker.WithSlotLock(ctx, bt.Code, date, func(ctx context.Context) error {
		if err := s.availability.requireFree(ctx, bt.Code, date, slots); err != nil {
			return err
		}
		if err := s.quota.Ensure(ctx, p.UserID); err != nil {
			return err
		}

		if err := s.bookings.Create(ctx, booking); err != nil {
			if errors.Is(err, repository.ErrSlotTaken) {
				return newError(KindSlotUnavailable, "slot no longer available")
			}
			return internal("create booking", err)
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("Failed to create booking", err,
			zap.Int64("user_id", p.UserID),
			zap.String("booking_type", bt.Code),
			zap.String("date", model.DateKey(date)),
		)
	}

	s.logger.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.Int64("user_id", booking.UserID),
		zap.String("booking_type", booking.BookingType),
		zap.String("date", model.DateKey(booking.Date)),
		zap.Int("slots", len(booking.Slots)),
	)

	if bt.RequiresLiveMeeting {
		provisionMeeting(ctx, s.meetings, s.bookings, booking, loc, s.logger)
	}
	send(ctx, s.notifier, newBookingMessage(booking), s.logger)

	return booking, nil
}

// ApproveOrReject фиксирует решение оператора по брони в pending.
func (s *BookingService) ApproveOrReject(ctx context.Context, id uuid.UUID, actor model.Actor, decision model.Decision, reason string) (*model.Booking, error) {
	if !actor.IsOperator() {
		return nil, newError(KindForbidden, "only the operator can approve or reject bookings")
	}
	if !decision.Valid() {
		return nil, newError(KindInvalidInput, "unknown decision %q", decision)
	}
	reason = strings.TrimSpace(reason)
	if decision == model.DecisionReject && reason == "" {
		return nil, newError(KindInvalidInput, "a reason is required to reject a booking")
	}

	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.Status != model.BookingStatusPending {
		return nil, newError(KindBadRequest, "booking is %s, only pending bookings can be approved or rejected", booking.Status)
	}

	var (
		target        model.BookingStatus
		rejectionNote *string
	)
	if decision == model.DecisionApprove {
		target = model.DeriveStatusOnScheduleChange(model.BookingStatusApproved, booking.StartAt(s.clock.Location()), s.clock.Now())
	} else {
		target = model.BookingStatusRejected
		rejectionNote = &reason
	}

	changed, err := s.bookings.TransitionStatus(ctx, id, []model.BookingStatus{model.BookingStatusPending}, target, rejectionNote)
	if err != nil {
		return nil, s.fail("Failed to update booking status", internal("transition booking", err),
			zap.String("booking_id", id.String()))
	}
	if !changed {
		return nil, newError(KindConflict, "booking was changed by someone else, reload and try again")
	}

	booking.Status = target
	if rejectionNote != nil {
		booking.RejectionReason = rejectionNote
	}

	s.logger.Info("Booking decided",
		zap.String("booking_id", id.String()),
		zap.String("decision", string(decision)),
		zap.String("status", string(target)),
	)
	send(ctx, s.notifier, decisionMessage(booking), s.logger)

	return booking, nil
}

// Cancel отменяет бронь. Клиент отменяет только свои брони в pending,
// оператор - любую нефинальную. Разовая оплата возвращается полностью.
func (s *BookingService) Cancel(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Booking, error) {
	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	from := activeStatuses
	if !actor.IsOperator() {
		if booking.UserID != actor.UserID {
			return nil, newError(KindForbidden, "you can only cancel your own bookings")
		}
		from = []model.BookingStatus{model.BookingStatusPending}
	}
	if !containsStatus(from, booking.Status) {
		return nil, newError(KindBadRequest, "a %s booking cannot be cancelled", booking.Status)
	}

	changed, err := s.bookings.TransitionStatus(ctx, id, from, model.BookingStatusCancelled, nil)
	if err != nil {
		return nil, s.fail("Failed to cancel booking", internal("cancel booking", err),
			zap.String("booking_id", id.String()))
	}
	if !changed {
		return nil, newError(KindConflict, "booking was changed by someone else, reload and try again")
	}
	booking.Status = model.BookingStatusCancelled

	s.logger.Info("Booking cancelled",
		zap.String("booking_id", id.String()),
		zap.String("by", string(actor.Role)),
	)

	if booking.IsOneOffCharge() && booking.PaymentStatus == model.PaymentStatusPaid {
		s.refund(ctx, booking)
	}

	notifyTo := model.Operator(0)
	if actor.IsOperator() {
		notifyTo = model.UserActor(booking.UserID)
	}
	send(ctx, s.notifier, cancelledMessage(booking, notifyTo), s.logger)

	return booking, nil
}

func (s *BookingService) refund(ctx context.Context, booking *model.Booking) {
	if s.refunds == nil {
		s.logger.Error("Refund provider not configured, refund left for manual processing",
			zap.String("booking_id", booking.ID.String()),
			zap.Int64("amount", booking.Amount),
		)
		return
	}

	if err := s.refunds.Refund(ctx, *booking.PaymentReference, booking.Amount); err != nil {
		s.logger.Error("Refund failed, left for manual processing",
			zap.String("booking_id", booking.ID.String()),
			zap.String("payment_reference", *booking.PaymentReference),
			zap.Int64("amount", booking.Amount),
			zap.Error(err),
		)
		return
	}

	booking.PaymentStatus = model.PaymentStatusRefunded
	if err := s.bookings.UpdatePaymentStatus(ctx, booking.ID, model.PaymentStatusRefunded); err != nil {
		s.logger.Error("Refund issued but payment status not saved",
			zap.String("booking_id", booking.ID.String()),
			zap.Error(err),
		)
	}
}

// MarkCompleted завершает состоявшуюся бронь.
func (s *BookingService) MarkCompleted(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	switch booking.Status {
	case model.BookingStatusCompleted:
		return nil, newError(KindConflict, "booking is already completed")
	case model.BookingStatusCancelled, model.BookingStatusRejected:
		return nil, newError(KindBadRequest, "a %s booking cannot be completed", booking.Status)
	}

	changed, err := s.bookings.TransitionStatus(ctx, id, activeStatuses, model.BookingStatusCompleted, nil)
	if err != nil {
		return nil, s.fail("Failed to complete booking", internal("complete booking", err),
			zap.String("booking_id", id.String()))
	}
	if !changed {
		return nil, newError(KindConflict, "booking was changed by someone else, reload and try again")
	}
	booking.Status = model.BookingStatusCompleted

	s.logger.Info("Booking completed", zap.String("booking_id", id.String()))
	return booking, nil
}

// RateAndReview сохраняет единственный отзыв клиента о завершённой брони.
func (s *BookingService) RateAndReview(ctx context.Context, id uuid.UUID, userID int64, rating int, text *string) (*model.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, newError(KindInvalidInput, "rating must be between 1 and 5")
	}

	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, newError(KindForbidden, "you can only review your own bookings")
	}
	if booking.Status != model.BookingStatusCompleted {
		return nil, newError(KindBadRequest, "only completed bookings can be reviewed")
	}

	if text != nil {
		trimmed := strings.TrimSpace(*text)
		if trimmed == "" {
			text = nil
		} else {
			text = &trimmed
		}
	}

	review := &model.Review{
		BookingID: id,
		UserID:    userID,
		Rating:    rating,
		Text:      text,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newError(KindConflict, "this booking has already been reviewed")
		}
		return nil, s.fail("Failed to save review", internal("create review", err),
			zap.String("booking_id", id.String()))
	}

	s.logger.Info("Booking reviewed",
		zap.String("booking_id", id.String()),
		zap.Int("rating", rating),
	)
	return review, nil
}

// Get возвращает бронь, если actor может её видеть.
func (s *BookingService) Get(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Booking, error) {
	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsOperator() && booking.UserID != actor.UserID {
		return nil, newError(KindForbidden, "you can only view your own bookings")
	}
	return booking, nil
}

func (s *BookingService) ListForUser(ctx context.Context, userID int64) ([]*model.Booking, error) {
	bookings, err := s.bookings.ListByUser(ctx, userID)
	if err != nil {
		return nil, s.fail("Failed to list bookings", internal("list bookings", err),
			zap.Int64("user_id", userID))
	}
	return bookings, nil
}

func (s *BookingService) load(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	return loadBooking(ctx, s.bookings, id, s.logger)
}

// fail логирует внутренние ошибки, бизнес-ошибки возвращает как есть.
func (s *BookingService) fail(msg string, err error, fields ...zap.Field) error {
	return logFailure(s.logger, msg, err, fields...)
}

func loadBooking(ctx context.Context, bookings BookingStore, id uuid.UUID, logger *zap.Logger) (*model.Booking, error) {
	booking, err := bookings.GetByID(ctx, id)
	if err != nil {
		logger.Error("Failed to load booking", zap.String("booking_id", id.String()), zap.Error(err))
		return nil, internal("get booking", err)
	}
	if booking == nil {
		return nil, newError(KindNotFound, "booking not found")
	}
	return booking, nil
}

func logFailure(logger *zap.Logger, msg string, err error, fields ...zap.Field) error {
	var svcErr *Error
	if !errors.As(err, &svcErr) {
		svcErr = internal("unexpected", err)
	}
	if svcErr.Kind == KindInternalFailure {
		logger.Error(msg, append(fields, zap.Error(svcErr.Unwrap()))...)
	}
	return svcErr
}

func containsStatus(list []model.BookingStatus, status model.BookingStatus) bool {
	for _, s := range list {
		if s == status {
			return true
		}
	}
	return false
}
