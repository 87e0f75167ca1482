package payment

import (
	"context"

	"github.com/google/uuid"

	"course-purchase-platform/internal/domain/ports/adapter"
)

var _ adapter.OrderGateway = (*NoopGateway)(nil)

// NoopGateway issues synthetic orders without contacting any provider.
// Used in local development together with the mock verifier.
type NoopGateway struct{}

func NewNoopGateway() *NoopGateway { return &NoopGateway{} }

func (NoopGateway) Name() string { return "noop" }

func (NoopGateway) CreateOrder(_ context.Context, amountPaise int64, currency, receipt string) (*adapter.PaymentOrder, error) {
	if currency == "" {
		currency = "INR"
	}
	return &adapter.PaymentOrder{
		ID:          "order_noop_" + uuid.NewString()[:8],
		AmountPaise: amountPaise,
		Currency:    currency,
		Receipt:     receipt,
	}, nil
}
