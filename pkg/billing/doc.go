// Package billing reconciles locally cached subscription state against the
// payment provider's webhook event stream.
//
// Events arrive as a raw signed body. The signature is verified locally and
// synchronously against the shared webhook secret before anything else
// happens; a bad signature rejects the event with no state change, and the
// provider's own delivery-retry policy is relied upon for redelivery.
//
// All reconciliation writes are absolute upserts keyed by user id, never
// increments, so redelivering the identical event any number of times
// converges to the same subscription state. This is structurally simpler
// than the usage ledger's idempotency mechanism, which has to guard a
// counter increment.
package billing
