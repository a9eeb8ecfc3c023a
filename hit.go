package cookieprof

import "time"

// Outcome classifies one recorded hit.
//
// Outcome is a string type that can hold one of four predefined values:
// [OutcomeOK], [OutcomeMiss], [OutcomeStall], or [OutcomeRedirect].
// Using a string type keeps logging human-readable while maintaining
// type safety through the defined constants.
type Outcome string

const (
	// OutcomeOK is a completed, non-redirect response.
	OutcomeOK Outcome = "ok"

	// OutcomeMiss is a transport failure (DNS, connect, TLS). It counts
	// as a hit for latency purposes, with no cookie data, and is
	// retried immediately.
	OutcomeMiss Outcome = "miss"

	// OutcomeStall is a poll that exceeded the timeout and was
	// force-cancelled by the sweep. It counts as a hit with latency
	// equal to the elapsed time at cancellation and is retried
	// immediately.
	OutcomeStall Outcome = "stall"

	// OutcomeRedirect is a 300..307 response. It suppresses cookie
	// accounting for the hit and makes the site's summary a sticky
	// alert line.
	OutcomeRedirect Outcome = "redirect"
)

// String returns the string representation of the outcome.
// This implements the fmt.Stringer interface.
func (o Outcome) String() string {
	return string(o)
}

// HitEvent describes one recorded poll outcome, delivered to callbacks
// registered with [WithHitCallback] after the site's statistics have
// been updated.
//
// HitEvent is immutable after creation. The Summary field carries the
// site's current compact statistics block, rendered immediately after
// this hit, so render targets can refresh without reaching back into
// the engine.
type HitEvent struct {
	// SiteName is the display name of the polled site.
	SiteName string

	// URL is the target URL that was polled.
	URL string

	// Sessioned marks hits from the session-affine path.
	Sessioned bool

	// Outcome classifies the hit.
	Outcome Outcome

	// StatusCode is the HTTP status code; zero for misses and stalls.
	StatusCode int

	// Latency is the elapsed time from issue to resolution.
	Latency time.Duration

	// IssuedAt is when the underlying request was dispatched.
	IssuedAt time.Time

	// Err is the transport failure for misses, nil otherwise.
	Err error

	// Summary is the site's current compact summary after this hit.
	Summary string
}

// Report pairs a site with its final full-mode summary.
//
// Reports are the shutdown log-sink payload: external code writes them
// to a file, one block per site, separated by a blank line.
type Report struct {
	// SiteName is the site's display name.
	SiteName string

	// URL is the site's target URL.
	URL string

	// Summary is the full-mode statistics block (every observed cookie
	// value listed), or the sticky redirect alert.
	Summary string
}
