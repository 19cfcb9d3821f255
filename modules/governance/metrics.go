package governance

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics counts the decisions the module hands out. Outcomes are labeled so
// a dashboard can separate policy denials from degraded allows.
type metrics struct {
	quotaDecisions  *prometheus.CounterVec
	ratelimitChecks *prometheus.CounterVec
	webhookEvents   *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &metrics{
		quotaDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "quotakit_quota_decisions_total",
			Help: "Quota reservation decisions by outcome.",
		}, []string{"outcome"}),
		ratelimitChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "quotakit_ratelimit_checks_total",
			Help: "Rate limit checks by limiter and outcome.",
		}, []string{"limiter", "outcome"}),
		webhookEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "quotakit_billing_webhooks_total",
			Help: "Billing webhook deliveries by outcome.",
		}, []string{"outcome"}),
	}
}

func outcomeLabel(allowed bool) string {
	if allowed {
		return "allowed"
	}
	return "denied"
}
