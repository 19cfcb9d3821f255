package governance

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/quotakit/pkg/billing"
	"github.com/dmitrymomot/quotakit/pkg/logger"
	"github.com/dmitrymomot/quotakit/pkg/quota"
	"github.com/dmitrymomot/quotakit/pkg/ratelimit"
	"github.com/dmitrymomot/quotakit/pkg/subscription"
)

// Deps are the services the module routes to. Quota, Limits and Subs are
// required; Reconciler and Scanner are optional and their routes are only
// mounted when provided.
type Deps struct {
	Quota      *quota.Service
	Limits     *ratelimit.Registry
	Subs       subscription.Store
	Reconciler *billing.Reconciler
	Scanner    *subscription.TrialScanner

	Log        *slog.Logger
	Registerer prometheus.Registerer
}

// Module is the HTTP surface over the governance services.
type Module struct {
	quota      *quota.Service
	limits     *ratelimit.Registry
	subs       subscription.Store
	reconciler *billing.Reconciler
	scanner    *subscription.TrialScanner

	log     *slog.Logger
	metrics *metrics
	now     func() time.Time
}

// New wires the module. Panics on missing required dependencies to fail fast
// during initialization.
func New(deps Deps) *Module {
	if deps.Quota == nil {
		panic("governance: quota.Service is required")
	}
	if deps.Limits == nil {
		panic("governance: ratelimit.Registry is required")
	}
	if deps.Subs == nil {
		panic("governance: subscription.Store is required")
	}

	log := deps.Log
	if log == nil {
		log = logger.Noop()
	}

	return &Module{
		quota:      deps.Quota,
		limits:     deps.Limits,
		subs:       deps.Subs,
		reconciler: deps.Reconciler,
		scanner:    deps.Scanner,
		log:        log,
		metrics:    newMetrics(deps.Registerer),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Router returns the module's routes, ready to be mounted:
//
//	r := chi.NewRouter()
//	r.Mount("/v1", governance.New(deps).Router())
func (m *Module) Router() chi.Router {
	r := chi.NewRouter()

	r.Post("/quota/check", m.handleQuotaCheck)
	r.Post("/ratelimit/check", m.handleRateLimitCheck)

	if m.reconciler != nil {
		r.Post("/billing/webhook", m.handleBillingWebhook)
	}

	r.Route("/jobs", func(jobs chi.Router) {
		if m.scanner != nil {
			jobs.Post("/trial-scan", m.handleTrialScan)
		}
		jobs.Post("/usage-reset", m.handleUsageReset)
	})

	return r
}
