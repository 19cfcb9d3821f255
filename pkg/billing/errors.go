package billing

import "errors"

var (
	// ErrInvalidSignature means the webhook body failed verification against
	// the shared secret. Permanently rejected, never retried by this side.
	ErrInvalidSignature = errors.New("webhook signature verification failed")

	// ErrMalformedEvent means a recognized event type was missing the fields
	// needed to reconcile it.
	ErrMalformedEvent = errors.New("malformed billing event")

	// ErrMissingWebhookSecret is returned when constructing a verifier
	// without a secret.
	ErrMissingWebhookSecret = errors.New("webhook secret is required")
)
