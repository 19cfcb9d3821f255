// Package subscription holds the per-user subscription state that every
// governance decision in this module is based on: the plan tier, the monthly
// quota allotment, the running usage counter, and the trial window.
//
// Each user has at most one subscription row, keyed by user id. Rows are
// created by the billing reconciler on the first successful checkout and
// updated by subsequent billing events or quota reservations; they are never
// deleted. The payment provider's customer id is carried inside the metadata
// map under MetaCustomerID so billing events can be mapped back to the owning
// user without a separate mapping table.
//
// The package also contains the TrialScanner, a periodic idempotent scan that
// stamps subscriptions whose trial is about to expire so an external notifier
// can pick them up.
package subscription
