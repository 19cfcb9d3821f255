// Package ratelimit provides a small set of named sliding-window rate
// limiters backed by a shared counter store.
//
// Each limiter is configured with a window length and a maximum request
// count. Windows are keyed per (limiter name, identifier) and expire on their
// own through the store's TTL; there is no cross-limiter coordination.
//
// The limiter fails open by design: when the counter store is not configured
// or unreachable, checks succeed rather than blocking all traffic. That
// trades strict limiting for availability while the dependency is absent.
//
// For send-type operations the limiter instance is selected from the
// caller's resolved subscription tier before the check runs (trial vs paid
// budgets differ); see Registry.ForSend.
package ratelimit
