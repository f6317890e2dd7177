package model

import "time"

const SubscriptionStatusActive = "active"

// Subscription - состояние подписки клиента, им владеет биллинг.
type Subscription struct {
	ID                 int64     `json:"id"`
	UserID             int64     `json:"user_id"`
	PlanID             int64     `json:"plan_id"`
	Status             string    `json:"status"`
	CurrentPeriodStart time.Time `json:"current_period_start"`
	CurrentPeriodEnd   time.Time `json:"current_period_end"`
}

// IsActiveAt сообщает, активна ли подписка и не закончился ли период.
func (s *Subscription) IsActiveAt(now time.Time) bool {
	return s.Status == SubscriptionStatusActive && s.CurrentPeriodEnd.After(now)
}

type Plan struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	SessionAllowance int    `json:"session_allowance"` // 0 - без ограничений
}

func (p *Plan) Unlimited() bool {
	return p.SessionAllowance == 0
}
