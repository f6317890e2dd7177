package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"
)

func TestStripeRefunder(t *testing.T) {
	ctx := context.Background()

	t.Run("refunds payment intent", func(t *testing.T) {
		var got *stripe.RefundParams
		r := &StripeRefunder{
			create: func(p *stripe.RefundParams) (*stripe.Refund, error) {
				got = p
				return &stripe.Refund{ID: "re_1", Status: stripe.RefundStatusSucceeded}, nil
			},
			logger: zap.NewNop(),
		}

		require.NoError(t, r.Refund(ctx, "pi_123", 4500))
		assert.Equal(t, "pi_123", *got.PaymentIntent)
		assert.Equal(t, int64(4500), *got.Amount)
		assert.Equal(t, "booking-refund-pi_123", *got.IdempotencyKey)
	})

	t.Run("failed refund is an error", func(t *testing.T) {
		r := &StripeRefunder{
			create: func(*stripe.RefundParams) (*stripe.Refund, error) {
				return &stripe.Refund{ID: "re_2", Status: stripe.RefundStatusFailed}, nil
			},
			logger: zap.NewNop(),
		}
		assert.Error(t, r.Refund(ctx, "pi_123", 4500))
	})

	t.Run("api error is wrapped", func(t *testing.T) {
		r := &StripeRefunder{
			create: func(*stripe.RefundParams) (*stripe.Refund, error) {
				return nil, errors.New("charge_already_refunded")
			},
			logger: zap.NewNop(),
		}
		assert.ErrorContains(t, r.Refund(ctx, "pi_123", 4500), "charge_already_refunded")
	})

	t.Run("bad input never reaches stripe", func(t *testing.T) {
		called := false
		r := &StripeRefunder{
			create: func(*stripe.RefundParams) (*stripe.Refund, error) {
				called = true
				return nil, nil
			},
			logger: zap.NewNop(),
		}
		assert.Error(t, r.Refund(ctx, "", 4500))
		assert.Error(t, r.Refund(ctx, "pi_1", 0))
		assert.False(t, called)
	})
}
