package governance

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/quotakit/pkg/billing"
	"github.com/dmitrymomot/quotakit/pkg/logger"
	"github.com/dmitrymomot/quotakit/pkg/quota"
	"github.com/dmitrymomot/quotakit/pkg/ratelimit"
	"github.com/dmitrymomot/quotakit/pkg/subscription"
)

// limiterSend selects the send limiter for the caller's tier instead of a
// fixed named limiter.
const limiterSend = "send"

type quotaCheckRequest struct {
	UserID         uuid.UUID `json:"user_id"`
	Cost           int64     `json:"cost"`
	Kind           string    `json:"kind"`
	IdempotencyKey string    `json:"idempotency_key,omitempty"`
}

type quotaCheckResponse struct {
	OK        bool   `json:"ok"`
	Reason    string `json:"reason,omitempty"`
	Remaining int64  `json:"remaining,omitempty"`
}

func (m *Module) handleQuotaCheck(w http.ResponseWriter, r *http.Request) {
	var req quotaCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	decision, err := m.quota.Request(r.Context(), quota.Request{
		UserID:         req.UserID,
		Cost:           req.Cost,
		Kind:           req.Kind,
		IdempotencyKey: req.IdempotencyKey,
	})
	switch {
	case errors.Is(err, quota.ErrInvalidCost):
		writeError(w, http.StatusBadRequest, "cost must be positive")
		return
	case err != nil:
		// Transient failure: the caller may retry the whole request.
		m.metrics.quotaDecisions.WithLabelValues("error").Inc()
		m.log.ErrorContext(r.Context(), "quota check failed",
			logger.UserID(req.UserID), logger.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, quotaCheckResponse{
			OK:     false,
			Reason: string(quota.ReasonReservationFailed),
		})
		return
	}

	m.metrics.quotaDecisions.WithLabelValues(outcomeLabel(decision.Allowed)).Inc()
	writeJSON(w, http.StatusOK, quotaCheckResponse{
		OK:        decision.Allowed,
		Reason:    string(decision.Reason),
		Remaining: decision.Remaining,
	})
}

type rateLimitCheckRequest struct {
	Identifier string `json:"identifier"`
	Limiter    string `json:"limiter"`
}

type rateLimitCheckResponse struct {
	Success   bool      `json:"success"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
	Message   string    `json:"message,omitempty"`
}

func (m *Module) handleRateLimitCheck(w http.ResponseWriter, r *http.Request) {
	var req rateLimitCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Identifier == "" {
		writeError(w, http.StatusBadRequest, "identifier is required")
		return
	}

	limiter, err := m.resolveLimiter(r, req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown limiter: "+req.Limiter)
		return
	}

	result, err := limiter.Check(r.Context(), req.Identifier)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	m.metrics.ratelimitChecks.WithLabelValues(limiter.Name(), outcomeLabel(result.Allowed)).Inc()

	resp := rateLimitCheckResponse{
		Success:   result.Allowed,
		Limit:     result.Limit,
		Remaining: result.Remaining,
		ResetAt:   result.ResetAt,
	}
	if !result.Allowed {
		resp.Message = result.DeniedMessage()
		w.Header().Set("Retry-After", strconv.Itoa(int(result.RetryAfter().Seconds())))
		writeJSON(w, http.StatusTooManyRequests, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// resolveLimiter maps the request to a limiter. The "send" purpose is
// tier-aware: the caller's subscription decides between the trial and paid
// budgets before any counter is touched. Everyone without a resolvable paid,
// non-trialing subscription gets the trial budget.
func (m *Module) resolveLimiter(r *http.Request, req rateLimitCheckRequest) (*ratelimit.Limiter, error) {
	if req.Limiter != limiterSend {
		return m.limits.Get(req.Limiter)
	}

	plan := subscription.PlanFree
	inTrial := false
	if userID, err := uuid.Parse(req.Identifier); err == nil {
		if sub, err := m.subs.Get(r.Context(), userID); err == nil {
			plan = sub.Plan
			inTrial = sub.InTrialAt(m.now())
		}
	}

	return m.limits.ForSend(plan, inTrial), nil
}

type webhookResponse struct {
	Received bool `json:"received"`
}

func (m *Module) handleBillingWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		m.metrics.webhookEvents.WithLabelValues("read_error").Inc()
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	err = m.reconciler.HandleWebhook(r.Context(), payload, r.Header.Get("Paddle-Signature"))
	switch {
	case errors.Is(err, billing.ErrInvalidSignature):
		m.metrics.webhookEvents.WithLabelValues("invalid_signature").Inc()
		writeError(w, http.StatusBadRequest, "invalid signature")
		return
	case errors.Is(err, billing.ErrMalformedEvent):
		m.metrics.webhookEvents.WithLabelValues("malformed").Inc()
		writeError(w, http.StatusBadRequest, "malformed event")
		return
	case err != nil:
		// Storage hiccup: a non-2xx makes the provider redeliver, which is
		// safe because reconciliation is idempotent.
		m.metrics.webhookEvents.WithLabelValues("error").Inc()
		m.log.ErrorContext(r.Context(), "webhook reconciliation failed", logger.Error(err))
		writeError(w, http.StatusServiceUnavailable, "reconciliation failed")
		return
	}

	m.metrics.webhookEvents.WithLabelValues("applied").Inc()
	writeJSON(w, http.StatusOK, webhookResponse{Received: true})
}

type trialScanResponse struct {
	Scheduled int `json:"scheduled"`
}

func (m *Module) handleTrialScan(w http.ResponseWriter, r *http.Request) {
	processed, err := m.scanner.Scan(r.Context())
	if err != nil {
		m.log.ErrorContext(r.Context(), "trial scan failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "trial scan failed")
		return
	}
	writeJSON(w, http.StatusOK, trialScanResponse{Scheduled: processed})
}

type usageResetResponse struct {
	Reset int64 `json:"reset"`
}

func (m *Module) handleUsageReset(w http.ResponseWriter, r *http.Request) {
	n, err := m.subs.ResetUsage(r.Context())
	if err != nil {
		m.log.ErrorContext(r.Context(), "usage reset failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "usage reset failed")
		return
	}
	m.log.InfoContext(r.Context(), "monthly usage reset", logger.Component("governance"),
		slog.Int64("subscriptions", n))
	writeJSON(w, http.StatusOK, usageResetResponse{Reset: n})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
