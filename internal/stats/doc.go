// Package stats accumulates per-site polling statistics.
//
// Tracker records one entry per completed, failed, or timed-out poll:
// response counts, exact running latency averages, the maximum latency
// together with the issue timestamp of the request that produced it, and
// the last observed redirect target. Cookie observations are delegated to
// CookieTracker, which keeps append-only per-name, per-value histograms
// split by session-less and session-affine origin.
//
// A Tracker is owned by a single engine loop; mutation happens on that
// loop only. Readers (render, final report) go through the same mutex, so
// summaries are always internally consistent.
package stats
