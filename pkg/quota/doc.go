// Package quota enforces per-user monthly usage allowances.
//
// The Service composes the subscription store with an append-only usage
// ledger into a single allow/deny decision. The correctness-critical piece is
// the reserve step: inserting the usage event and bumping the running counter
// happens as one conditional update at the storage layer, guarded by
// used_this_month + cost <= limit. Two concurrent reservations for the same
// user therefore cannot race past the check and overcommit the quota, and an
// aborted caller can never observe a partial increment.
//
// Retried requests are deduplicated through caller-supplied idempotency keys:
// a key that already exists in the ledger short-circuits to Allowed without
// re-applying the increment.
package quota
