// Package redis establishes the Redis connection used by the rate limiter's
// shared counter store.
//
// Redis is an optional dependency: when REDIS_URL is unset the rate limiter
// runs without a shared store and fails open. Connect therefore only returns
// an error when a URL was configured but the server could not be reached.
package redis
