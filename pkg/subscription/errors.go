package subscription

import "errors"

var (
	ErrNotFound            = errors.New("subscription not found")
	ErrInvalidPlan         = errors.New("invalid subscription plan")
	ErrMissingUserID       = errors.New("subscription user ID is required")
	ErrFailedToLoadCatalog = errors.New("failed to load tier catalog")
)
