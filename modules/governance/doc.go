// Package governance exposes the quota, rate limit, billing and maintenance
// surfaces over HTTP.
//
// The module is transport only: every handler decodes its input, delegates to
// the owning service and encodes the decision. Policy lives in pkg/quota,
// pkg/ratelimit, pkg/billing and pkg/subscription; nothing here makes an
// allow/deny call on its own.
package governance
