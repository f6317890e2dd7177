package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/consult_scheduler/internal/clock"
	"github.com/Freeeeeet/consult_scheduler/internal/model"
	"go.uber.org/zap"
)

// QuotaService считает использованные сессии по броням. Явно ничего не
// списывается и не возвращается: отменённые брони просто не считаются.
type QuotaService struct {
	bookings      BookingStore
	subscriptions SubscriptionStore
	clock         clock.Clock
	logger        *zap.Logger
}

func NewQuotaService(
	bookings BookingStore,
	subscriptions SubscriptionStore,
	clk clock.Clock,
	logger *zap.Logger,
) *QuotaService {
	return &QuotaService{
		bookings:      bookings,
		subscriptions: subscriptions,
		clock:         clk,
		logger:        logger,
	}
}

// CountUsed считает неотменённые брони пользователя с датой в
// [periodStart, periodEnd] включительно, в зоне провайдера.
func (s *QuotaService) CountUsed(ctx context.Context, userID int64, periodStart, periodEnd time.Time) (int, error) {
	loc := s.clock.Location()
	count, err := s.bookings.CountActiveByUserBetween(ctx, userID, periodStart.In(loc), periodEnd.In(loc))
	if err != nil {
		return 0, internal("count used sessions", err)
	}
	return count, nil
}

// HasCapacity сообщает, помещается ли ещё одна бронь в тариф за период.
// Нулевой лимит - без ограничений.
func (s *QuotaService) HasCapacity(ctx context.Context, userID int64, plan *model.Plan, periodStart, periodEnd time.Time) (bool, error) {
	if plan.Unlimited() {
		return true, nil
	}
	used, err := s.CountUsed(ctx, userID, periodStart, periodEnd)
	if err != nil {
		return false, err
	}
	return used < plan.SessionAllowance, nil
}

// CheckSubscription возвращает активную неистёкшую подписку пользователя и тариф.
func (s *QuotaService) CheckSubscription(ctx context.Context, userID int64) (*model.Subscription, *model.Plan, error) {
	sub, err := s.subscriptions.FindActiveSubscription(ctx, userID)
	if err != nil {
		return nil, nil, internal("find subscription", err)
	}
	if sub == nil || !sub.IsActiveAt(s.clock.Now()) {
		return nil, nil, newError(KindBadRequest, "an active subscription is required to book a session")
	}

	plan, err := s.subscriptions.FindPlan(ctx, sub.PlanID)
	if err != nil {
		return nil, nil, internal("find plan", err)
	}
	if plan == nil {
		s.logger.Error("Subscription references unknown plan",
			zap.Int64("user_id", userID),
			zap.Int64("plan_id", sub.PlanID),
		)
		return nil, nil, newError(KindBadRequest, "subscription plan is not available")
	}
	return sub, plan, nil
}

// Ensure проверяет подписку и остаток лимита в текущем периоде.
func (s *QuotaService) Ensure(ctx context.Context, userID int64) error {
	sub, plan, err := s.CheckSubscription(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := s.HasCapacity(ctx, userID, plan, sub.CurrentPeriodStart, sub.CurrentPeriodEnd)
	if err != nil {
		return err
	}
	if !ok {
		s.logger.Info("Session quota exhausted",
			zap.Int64("user_id", userID),
			zap.Int("allowance", plan.SessionAllowance),
		)
		return newError(KindQuotaExceeded, "you have used all %d sessions of your plan for this period", plan.SessionAllowance)
	}
	return nil
}
