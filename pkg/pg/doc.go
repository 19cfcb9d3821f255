// Package pg manages the PostgreSQL connection pool used by the subscription
// and usage stores.
//
// It provides environment-driven configuration, connection establishment with
// bounded retries, goose-based schema migrations, and a healthcheck closure
// compatible with readiness probes. All stores in this module share a single
// *pgxpool.Pool created here.
package pg
