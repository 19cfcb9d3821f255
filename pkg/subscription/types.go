package subscription

// Plan identifies a subscription tier.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanStarter Plan = "starter"
)

// Valid reports whether the plan is one of the known tiers.
func (p Plan) Valid() bool {
	switch p {
	case PlanFree, PlanStarter:
		return true
	}
	return false
}

// Paid reports whether the plan is a paying tier.
func (p Plan) Paid() bool {
	return p.Valid() && p != PlanFree
}

// Metadata keys used by this module. Metadata is an opaque string map from
// the store's perspective; these constants are the only keys the governance
// subsystem reads or writes.
const (
	// MetaCustomerID maps the subscription to the payment provider's
	// customer id, enabling reverse lookup during webhook reconciliation.
	MetaCustomerID = "customer_id"

	// MetaTrialReminderAt records when the trial expiry scanner last flagged
	// this subscription for a near-expiry reminder.
	MetaTrialReminderAt = "trial_reminder_scheduled_at"
)
