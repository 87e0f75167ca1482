package adapter

import "context"

// PaymentOrder is the opaque order descriptor returned by the gateway.
type PaymentOrder struct {
	ID          string
	AmountPaise int64
	Currency    string
	Receipt     string
}

// OrderGateway is the hex port for the external payment processor's order
// API. CreateOrder must respect the context deadline; a timed-out or
// rejected call surfaces as domain.ErrGatewayUnavailable from the caller's
// point of view.
type OrderGateway interface {
	Name() string
	// CreateOrder registers an intent to pay with the gateway. The receipt
	// is an opaque string the gateway caps at 40 characters.
	CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (*PaymentOrder, error)
}
