// Package httpserver is a thin wrapper around net/http adding graceful
// shutdown, configurable timeouts, and a healthcheck handler.
//
// Run blocks until the context is cancelled or an interrupt/TERM signal is
// received, then shuts down with a configurable deadline. Listen errors are
// wrapped with ErrStart and shutdown errors with ErrShutdown so callers can
// discriminate with errors.Is.
package httpserver
