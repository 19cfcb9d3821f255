package ratelimit

import "errors"

var (
	ErrUnknownLimiter = errors.New("unknown rate limiter")
	ErrInvalidLimit   = errors.New("invalid limit")
	ErrInvalidWindow  = errors.New("invalid window")
	ErrKeyRequired    = errors.New("identifier is required")
)
