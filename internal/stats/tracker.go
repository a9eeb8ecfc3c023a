package stats

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// compactValueLimit is how many values per cookie name the compact
// summary shows; remaining values collapse into a "+N more" line.
const compactValueLimit = 3

// redirectAlert is the sticky single-line summary shown once a redirect
// has been observed.
const redirectAlert = "!! Redirection to "

// Hit describes one recorded poll outcome fed into a [Tracker].
//
// A miss (transport failure or stall) carries only IssuedAt: no cookies,
// no redirect. A redirect carries the Location target and suppresses
// cookie accounting for that hit.
type Hit struct {
	// IssuedAt is the time the request was dispatched. Latency is
	// measured from this point to the time of recording.
	IssuedAt time.Time

	// Cookies are the cookies present in the request's jar after the
	// response, or nil for misses and suppressed hits.
	Cookies []*http.Cookie

	// Sessioned marks the hit as coming from the session-affine path.
	Sessioned bool

	// Redirect marks a 3xx response.
	Redirect bool

	// Location is the redirect target, set when Redirect is true.
	Location string
}

// Tracker accumulates latency and outcome statistics for one site.
//
// Every recorded hit increments the response count and updates the
// latency aggregates, including hits derived from transport failures and
// timeouts (their latency is the elapsed time at failure or
// cancellation). Cookie data is delegated to an owned [CookieTracker].
//
// Once a redirect has been observed, [Tracker.Summary] and
// [Tracker.FullSummary] return a single alert line instead of the
// statistics block, permanently: a redirecting load balancer during a
// failover drill is a misconfiguration worth flagging for the rest of
// the run. There is no reset.
type Tracker struct {
	mu sync.Mutex

	// now is the clock; replaceable in tests.
	now func() time.Time

	// cookieName, when non-empty, restricts summaries to one cookie.
	cookieName string

	responses    int
	latencies    []float64
	totalLatency float64
	maxLatency   float64
	maxIssuedAt  time.Time

	redirected bool
	redirectTo string

	cookies *CookieTracker
}

// NewTracker creates an empty [Tracker]. If cookieName is non-empty,
// summaries report only that cookie; all cookies are still recorded.
func NewTracker(cookieName string) *Tracker {
	return &Tracker{
		now:        time.Now,
		cookieName: cookieName,
		cookies:    NewCookieTracker(),
	}
}

// Hit records one poll outcome.
//
// Latency is now minus h.IssuedAt in seconds, floored at zero so clock
// skew can never produce a negative sample. Redirect hits record the
// Location target and skip cookie accounting; all other hits delegate
// their cookies (possibly none) to the cookie tracker.
func (t *Tracker) Hit(h Hit) {
	t.mu.Lock()
	defer t.mu.Unlock()

	at := t.now()
	latency := at.Sub(h.IssuedAt).Seconds()
	if latency < 0 {
		latency = 0
	}

	t.responses++
	t.latencies = append(t.latencies, latency)
	t.totalLatency += latency

	// strictly greater: ties keep the first-seen maximum
	if latency > t.maxLatency || t.responses == 1 {
		t.maxLatency = latency
		t.maxIssuedAt = h.IssuedAt
	}

	if h.Redirect {
		t.redirected = true
		t.redirectTo = h.Location
		return
	}

	t.cookies.Hit(h.Cookies, h.Sessioned, at)
}

// Responses returns the number of recorded hits.
func (t *Tracker) Responses() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.responses
}

// AvgLatency returns the arithmetic mean of all recorded latencies in
// seconds, or zero when nothing has been recorded.
func (t *Tracker) AvgLatency() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.responses == 0 {
		return 0
	}
	return t.totalLatency / float64(t.responses)
}

// MaxLatency returns the largest recorded latency in seconds and the
// issue timestamp of the request that produced it.
func (t *Tracker) MaxLatency() (float64, time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.maxLatency, t.maxIssuedAt
}

// RedirectTarget returns the last observed redirect target and whether
// any redirect has been observed.
func (t *Tracker) RedirectTarget() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.redirectTo, t.redirected
}

// Cookies exposes the owned cookie tracker for inspection. Callers must
// treat it as read-only; mutation goes through [Tracker.Hit].
func (t *Tracker) Cookies() *CookieTracker {
	return t.cookies
}

// Summary returns the compact multi-line statistics block, showing the
// three most recently active values per cookie name.
func (t *Tracker) Summary() string {
	return t.render(false)
}

// FullSummary returns the statistics block with every observed cookie
// value listed. Used for the final report written at shutdown.
func (t *Tracker) FullSummary() string {
	return t.render(true)
}

func (t *Tracker) render(full bool) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.redirected {
		return redirectAlert + t.redirectTo
	}

	if t.responses == 0 {
		return "no responses yet"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "responses:   %d\n", t.responses)
	fmt.Fprintf(&b, "avg latency: %.3fs\n", t.totalLatency/float64(t.responses))
	fmt.Fprintf(&b, "max latency: %.3fs issued at %s",
		t.maxLatency, t.maxIssuedAt.Format("2006-01-02 15:04:05"))

	t.renderScope(&b, "cookies (no session)", false, full)
	t.renderScope(&b, "cookies (session)", true, full)

	return b.String()
}

func (t *Tracker) renderScope(b *strings.Builder, heading string, sessioned, full bool) {
	names := t.cookies.Names(sessioned)
	if t.cookieName != "" {
		filtered := names[:0]
		for _, n := range names {
			if n == t.cookieName {
				filtered = append(filtered, n)
			}
		}
		names = filtered
	}
	if len(names) == 0 {
		return
	}

	fmt.Fprintf(b, "\n%s:", heading)
	for _, name := range names {
		fmt.Fprintf(b, "\n  %s", name)

		values := t.cookies.Values(sessioned, name)
		hidden := 0
		if !full {
			values = mostRecent(values)
			if len(values) > compactValueLimit {
				hidden = len(values) - compactValueLimit
				values = values[:compactValueLimit]
			}
		}

		for _, v := range values {
			fmt.Fprintf(b, "\n    %s: %d (%.1f%%) last %s",
				v.Value, v.Count, v.Share, v.LastSeen.Format("15:04:05"))
		}
		if hidden > 0 {
			fmt.Fprintf(b, "\n    (+%d more values)", hidden)
		}
	}
}
