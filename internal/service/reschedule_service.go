package service

import (
	"context"
	"errors"
	"time"

	"github.com/Freeeeeet/consult_scheduler/internal/clock"
	"github.com/Freeeeeet/consult_scheduler/internal/model"
	"github.com/Freeeeeet/consult_scheduler/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RescheduleService согласует перенос брони между клиентом и оператором.
type RescheduleService struct {
	bookings     BookingStore
	requests     RescheduleStore
	locker       SlotLocker
	availability *AvailabilityService
	meetings     MeetingProvider
	notifier     Notifier
	types        model.BookingTypes
	clock        clock.Clock
	notice       time.Duration
	logger       *zap.Logger
}

func NewRescheduleService(
	bookings BookingStore,
	requests RescheduleStore,
	locker SlotLocker,
	availability *AvailabilityService,
	meetings MeetingProvider,
	notifier Notifier,
	types model.BookingTypes,
	clk clock.Clock,
	notice time.Duration,
	logger *zap.Logger,
) *RescheduleService {
	return &RescheduleService{
		bookings:     bookings,
		requests:     requests,
		locker:       locker,
		availability: availability,
		meetings:     meetings,
		notifier:     notifier,
		types:        types,
		clock:        clk,
		notice:       notice,
		logger:       logger,
	}
}

// Propose открывает запрос на перенос. Клиент должен уложиться в notice до
// текущего начала, для оператора ограничения нет.
func (s *RescheduleService) Propose(ctx context.Context, bookingID uuid.UUID, actor model.Actor, newDate string, newSlots []model.Slot) (*model.RescheduleRequest, error) {
	if !actor.Role.Valid() {
		return nil, newError(KindInvalidInput, "unknown actor role %q", actor.Role)
	}

	booking, err := loadBooking(ctx, s.bookings, bookingID, s.logger)
	if err != nil {
		return nil, err
	}
	if !actor.IsOperator() && booking.UserID != actor.UserID {
		return nil, newError(KindForbidden, "you can only reschedule your own bookings")
	}
	if !booking.Status.IsReschedulable() {
		return nil, newError(KindBadRequest, "a %s booking cannot be rescheduled", booking.Status)
	}

	bt, err := lookupType(s.types, booking.BookingType)
	if err != nil {
		return nil, err
	}
	loc := s.clock.Location()
	date, slots, err := parseSchedule(bt, newDate, newSlots, loc)
	if err != nil {
		return nil, err
	}

	pending, err := s.requests.GetPendingByBookingID(ctx, bookingID)
	if err != nil {
		return nil, s.fail("Failed to load pending reschedule", internal("get pending request", err),
			zap.String("booking_id", bookingID.String()))
	}
	if pending != nil {
		return nil, newError(KindConflict, "a reschedule request is already pending for this booking")
	}

	now := s.clock.Now()
	if !actor.IsOperator() && booking.StartAt(loc).Sub(now) < s.notice {
		return nil, noticeError(s.notice)
	}
	if earliest, _ := model.EarliestStart(slots); !model.At(date, earliest, loc).After(now) {
		return nil, newError(KindBadRequest, "requested time is in the past")
	}

	if err := s.availability.requireFree(ctx, booking.BookingType, date, slots); err != nil {
		return nil, s.fail("Failed to check availability", err, zap.String("booking_id", bookingID.String()))
	}

	req := &model.RescheduleRequest{
		ID:             uuid.New(),
		BookingID:      bookingID,
		UserID:         booking.UserID,
		RequestedDate:  date,
		RequestedSlots: slots,
		Status:         model.RescheduleStatusPending,
		RequestedBy:    actor.Role,
		ProposerID:     actor.UserID,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newError(KindConflict, "a reschedule request is already pending for this booking")
		}
		return nil, s.fail("Failed to save reschedule request", internal("create request", err),
			zap.String("booking_id", bookingID.String()))
	}

	s.logger.Info("Reschedule proposed",
		zap.String("request_id", req.ID.String()),
		zap.String("booking_id", bookingID.String()),
		zap.String("requested_by", string(req.RequestedBy)),
		zap.String("date", model.DateKey(date)),
	)
	send(ctx, s.notifier, proposalMessage(req, booking), s.logger)

	return req, nil
}

// Respond - ответ второй стороны на ожидающий запрос.
func (s *RescheduleService) Respond(ctx context.Context, requestID uuid.UUID, responder model.Actor, decision model.Decision, notes *string) (*model.RescheduleRequest, error) {
	if !decision.Valid() {
		return nil, newError(KindInvalidInput, "unknown decision %q", decision)
	}

	req, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if responder.Role != req.RequestedBy.Counterparty() ||
		(responder.Role == model.ActorUser && responder.UserID != req.UserID) {
		return nil, newError(KindForbidden, "only the other party can respond to this request")
	}
	if !req.IsPending() {
		return nil, newError(KindBadRequest, "reschedule request is already %s", req.Status)
	}

	reviewer := responder.UserID
	now := s.clock.Now()

	if decision == model.DecisionReject {
		ok, err := s.requests.Resolve(ctx, requestID, model.RescheduleStatusRejected, &reviewer, notes, now)
		if err != nil {
			return nil, s.fail("Failed to reject reschedule", internal("resolve request", err),
				zap.String("request_id", requestID.String()))
		}
		if !ok {
			return nil, newError(KindBadRequest, "reschedule request is no longer pending")
		}
		s.closed(req, model.RescheduleStatusRejected, reviewer, notes, now)

		s.logger.Info("Reschedule rejected", zap.String("request_id", requestID.String()))
		send(ctx, s.notifier, answerMessage(req), s.logger)
		return req, nil
	}

	booking, err := loadBooking(ctx, s.bookings, req.BookingID, s.logger)
	if err != nil {
		return nil, err
	}
	if !booking.Status.IsReschedulable() {
		return nil, newError(KindBadRequest, "a %s booking cannot be rescheduled", booking.Status)
	}

	loc := s.clock.Location()
	err = s.locker.WithSlotLock(ctx, booking.BookingType, req.RequestedDate, func(ctx context.Context) error {
		if err := s.availability.requireFree(ctx, booking.BookingType, req.RequestedDate, req.RequestedSlots); err != nil {
			return err
		}

		status := model.DeriveStatusOnScheduleChange(booking.Status, req.RequestedStartAt(loc), now)
		moved, err := s.bookings.Reschedule(ctx, booking.ID, req.RequestedDate, req.RequestedSlots,
			model.ReschedulableStatuses(), status)
		if err != nil {
			if errors.Is(err, repository.ErrSlotTaken) {
				return newError(KindSlotUnavailable, "slot no longer available")
			}
			return internal("reschedule booking", err)
		}
		if !moved {
			return newError(KindBadRequest, "booking can no longer be rescheduled")
		}

		ok, err := s.requests.Resolve(ctx, requestID, model.RescheduleStatusApproved, &reviewer, notes, now)
		if err != nil {
			return internal("resolve request", err)
		}
		if !ok {
			return newError(KindBadRequest, "reschedule request is no longer pending")
		}

		booking.Date = req.RequestedDate
		booking.Slots = req.RequestedSlots
		booking.Status = status
		booking.IsRescheduled = true
		booking.ReminderSentAt = nil
		return nil
	})
	if err != nil {
		return nil, s.fail("Failed to approve reschedule", err, zap.String("request_id", requestID.String()))
	}
	s.closed(req, model.RescheduleStatusApproved, reviewer, notes, now)

	s.logger.Info("Reschedule approved",
		zap.String("request_id", requestID.String()),
		zap.String("booking_id", booking.ID.String()),
		zap.String("date", model.DateKey(booking.Date)),
		zap.String("status", string(booking.Status)),
	)

	if bt, ok := s.types.Lookup(booking.BookingType); ok && bt.RequiresLiveMeeting {
		provisionMeeting(ctx, s.meetings, s.bookings, booking, loc, s.logger)
	}
	send(ctx, s.notifier, answerMessage(req), s.logger)

	return req, nil
}

// Withdraw отзывает ожидающий запрос автором не позже чем за notice
// до запрошенного начала.
func (s *RescheduleService) Withdraw(ctx context.Context, requestID uuid.UUID, actor model.Actor) (*model.RescheduleRequest, error) {
	req, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if actor.Role != req.RequestedBy ||
		(actor.Role == model.ActorUser && actor.UserID != req.UserID) {
		return nil, newError(KindForbidden, "only the originator can withdraw this request")
	}
	if !req.IsPending() {
		return nil, newError(KindBadRequest, "reschedule request is already %s", req.Status)
	}

	now := s.clock.Now()
	if req.RequestedStartAt(s.clock.Location()).Sub(now) < s.notice {
		return nil, noticeError(s.notice)
	}

	ok, err := s.requests.Resolve(ctx, requestID, model.RescheduleStatusWithdrawn, nil, nil, now)
	if err != nil {
		return nil, s.fail("Failed to withdraw reschedule", internal("resolve request", err),
			zap.String("request_id", requestID.String()))
	}
	if !ok {
		return nil, newError(KindBadRequest, "reschedule request is no longer pending")
	}
	req.Status = model.RescheduleStatusWithdrawn
	req.UpdatedAt = now

	s.logger.Info("Reschedule withdrawn", zap.String("request_id", requestID.String()))
	send(ctx, s.notifier, withdrawnMessage(req), s.logger)

	return req, nil
}

// ListForBooking возвращает все запросы брони, новые первыми.
func (s *RescheduleService) ListForBooking(ctx context.Context, bookingID uuid.UUID, actor model.Actor) ([]*model.RescheduleRequest, error) {
	booking, err := loadBooking(ctx, s.bookings, bookingID, s.logger)
	if err != nil {
		return nil, err
	}
	if !actor.IsOperator() && booking.UserID != actor.UserID {
		return nil, newError(KindForbidden, "you can only view your own bookings")
	}

	requests, err := s.requests.ListByBookingID(ctx, bookingID)
	if err != nil {
		return nil, s.fail("Failed to list reschedule requests", internal("list requests", err),
			zap.String("booking_id", bookingID.String()))
	}
	return requests, nil
}

func (s *RescheduleService) load(ctx context.Context, id uuid.UUID) (*model.RescheduleRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, s.fail("Failed to load reschedule request", internal("get request", err),
			zap.String("request_id", id.String()))
	}
	if req == nil {
		return nil, newError(KindNotFound, "reschedule request not found")
	}
	return req, nil
}

func (s *RescheduleService) closed(req *model.RescheduleRequest, status model.RescheduleStatus, reviewer int64, notes *string, at time.Time) {
	req.Status = status
	req.ReviewerID = &reviewer
	req.ReviewedAt = &at
	req.UpdatedAt = at
	if notes != nil {
		req.Notes = notes
	}
}

func (s *RescheduleService) fail(msg string, err error, fields ...zap.Field) error {
	return logFailure(s.logger, msg, err, fields...)
}
