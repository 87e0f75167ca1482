package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		purchasesTotal,
		gatewayOrdersTotal,
	)
}

var (
	purchasesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "purchases_total",
			Help: "Purchase records reaching a state, by state and item kind.",
		},
		[]string{"state", "kind"},
	)

	gatewayOrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_order_requests_total",
			Help: "Order-creation calls to the payment gateway by outcome.",
		},
		[]string{"outcome"},
	)
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncPurchase(state, kind string) {
	purchasesTotal.WithLabelValues(norm(state), norm(kind)).Inc()
}

func IncGatewayOrder(outcome string) {
	gatewayOrdersTotal.WithLabelValues(norm(outcome)).Inc()
}
