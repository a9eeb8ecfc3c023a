// Package engine drives the continuous poll loop for every site.
//
// Each site gets one loop goroutine that owns up to two in-flight
// requests: the session-less one and, when enabled, the session-affine
// one. A completed request is recorded into the site's stats tracker and
// immediately reissued; there is no separate tick for scheduling the
// next poll. A periodic sweep, armed at the timeout interval, cancels
// requests that have exceeded the timeout, records them as stalls, and
// reissues the stalled mode.
//
// Completion and sweep cancellation are mutually exclusive for a given
// request: the loop keys each in-flight request by a generation ID, and
// a completion whose ID no longer matches (a straggler from a request
// the sweep already resolved) is dropped rather than double-counted.
//
// All tracker mutation for a site happens on its loop goroutine.
package engine
