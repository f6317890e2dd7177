package payment

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/refund"
	"go.uber.org/zap"
)

// StripeRefunder возвращает разовые оплаты через Stripe.
type StripeRefunder struct {
	create func(params *stripe.RefundParams) (*stripe.Refund, error)
	logger *zap.Logger
}

func NewStripeRefunder(key string, logger *zap.Logger) *StripeRefunder {
	stripe.Key = key
	return &StripeRefunder{create: refund.New, logger: logger}
}

// Refund возвращает amount (в минимальных единицах) по payment intent.
// Повторные вызовы для одного платежа идут с одним ключом идемпотентности.
func (r *StripeRefunder) Refund(ctx context.Context, paymentReference string, amount int64) error {
	if paymentReference == "" || amount <= 0 {
		return fmt.Errorf("refund needs a payment reference and a positive amount")
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentReference),
		Amount:        stripe.Int64(amount),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	params.Context = ctx
	params.SetIdempotencyKey("booking-refund-" + paymentReference)

	rf, err := r.create(params)
	if err != nil {
		return fmt.Errorf("create stripe refund: %w", err)
	}
	if rf.Status == stripe.RefundStatusFailed || rf.Status == stripe.RefundStatusCanceled {
		return fmt.Errorf("stripe refund %s ended as %s", rf.ID, rf.Status)
	}

	r.logger.Info("Refund issued",
		zap.String("refund_id", rf.ID),
		zap.String("payment_intent", paymentReference),
		zap.Int64("amount", amount),
		zap.String("status", string(rf.Status)),
	)
	return nil
}
