// Package probe issues single GET requests against drill targets.
//
// The client is deliberately thin: it performs one request with a
// caller-supplied cookie jar and reports the status code, headers, and
// the jar's cookies after the response, or a transport error, in a
// result struct. It never follows redirects (the engine needs to observe
// 3xx responses) and never applies its own timeout; liveness is enforced
// by the engine's sweep via context cancellation.
package probe
