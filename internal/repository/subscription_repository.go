package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/consult_scheduler/internal/model"
	"github.com/Freeeeeet/consult_scheduler/internal/repository/base"
)

// SubscriptionRepository читает состояние подписок. Пишет их биллинг.
type SubscriptionRepository struct {
	*base.Repository
}

func NewSubscriptionRepository(pool base.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{Repository: base.NewRepository(pool)}
}

// FindActiveSubscription возвращает последнюю активную подписку пользователя.
func (r *SubscriptionRepository) FindActiveSubscription(ctx context.Context, userID int64) (*model.Subscription, error) {
	query := `
		SELECT id, user_id, plan_id, status, current_period_start, current_period_end
		FROM subscriptions
		WHERE user_id = $1 AND status = $2
		ORDER BY current_period_end DESC
		LIMIT 1
	`
	var sub model.Subscription
	err := r.QueryRow(ctx, query, userID, model.SubscriptionStatusActive).Scan(
		&sub.ID,
		&sub.UserID,
		&sub.PlanID,
		&sub.Status,
		&sub.CurrentPeriodStart,
		&sub.CurrentPeriodEnd,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active subscription: %w", err)
	}
	return &sub, nil
}

func (r *SubscriptionRepository) FindPlan(ctx context.Context, planID int64) (*model.Plan, error) {
	query := `SELECT id, name, session_allowance FROM plans WHERE id = $1`

	var plan model.Plan
	err := r.QueryRow(ctx, query, planID).Scan(&plan.ID, &plan.Name, &plan.SessionAllowance)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find plan: %w", err)
	}
	return &plan, nil
}
