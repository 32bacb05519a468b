package handlers

import "github.com/prometheus/client_golang/prometheus"

// Outcome labels besides the application error kinds.
const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid"
)

// AuthRequests counts auth endpoint calls by operation and outcome. The
// outcome is "ok", "invalid" (payload rejected at binding) or an error kind.
// Use RegisterMetrics to expose it.
var AuthRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "rbac_auth_requests_total",
		Help: "Auth endpoint requests by operation and outcome",
	},
	[]string{"operation", "outcome"},
)

// RegisterMetrics registers the handler metrics with reg. Panics if a
// collector is already registered there.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(AuthRequests)
}

func record(op, outcome string) {
	AuthRequests.WithLabelValues(op, outcome).Inc()
}
