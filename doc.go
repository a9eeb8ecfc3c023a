// Package cookieprof continuously polls HTTP endpoints behind a load
// balancer and profiles how session-affinity cookies are distributed
// and changed across polls, to detect load-balancer misbehavior during
// a failover drill.
//
// Every site is polled session-less (a fresh cookie jar per request, so
// no affinity is carried between polls) and, optionally, session-affine
// (one persistent jar exercises the load balancer's stickiness). Each
// completed, failed, or timed-out poll is recorded as a hit (response
// count, exact running latency average, maximum latency with the issue
// timestamp of the request that produced it, and append-only per-cookie
// value histograms) and the next poll for that site is issued
// immediately. A periodic sweep cancels and retries polls that exceed
// the timeout, so a hung backend can never stall a site's loop.
//
// # Quick Start
//
// Create sites and start the profiler with graceful shutdown:
//
//	site, _ := cookieprof.NewSite("primary", "https://www.example.com",
//	    cookieprof.WithSessionTracking(),
//	)
//	p, _ := cookieprof.New(cookieprof.WithSite(site))
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	p.Start(ctx) // blocks until context is cancelled
//
//	for _, r := range p.Reports() {
//	    fmt.Printf("%s\n%s\n\n", r.SiteName, r.Summary)
//	}
//
// # Configuration
//
// cookieprof uses the functional options pattern for configuration:
//
//	p, err := cookieprof.New(
//	    cookieprof.WithSites(sites...),
//	    cookieprof.WithTimeout(10 * time.Second),
//	    cookieprof.WithCookieName("lb"),
//	    cookieprof.WithDisplay(os.Stdout, true),
//	)
//
// Sites can also be configured with options:
//
//	site, err := cookieprof.NewSite("primary", "https://www.example.com",
//	    cookieprof.WithSessionTracking(),
//	    cookieprof.WithHook("lb:node1"),
//	)
//
// # Session Hooks
//
// A hook ("name:value") gates when session-affine cookie accounting
// begins: until a response's jar contains the hook cookie, session polls
// count for latency only and the session jar is replaced on every poll,
// so a stale, non-matching session never sticks. Once satisfied the gate
// stays open for the process lifetime.
//
// # Redirects
//
// A 300..307 response is a distinguished outcome: it suppresses cookie
// accounting for that hit and permanently turns the site's summary into
// a single alert line naming the redirect target. During a failover
// drill a redirecting load balancer is a misconfiguration worth flagging
// for the rest of the run; there is no reset.
//
// # Architecture
//
// cookieprof consists of several internal packages (under internal/):
//
//   - internal/probe: single-GET requestor with caller-supplied cookie jars
//   - internal/engine: per-site poll loops, timeout sweep, hook gating
//   - internal/stats: latency and cookie-histogram accumulation
//   - internal/store: in-memory storage with pub/sub for live updates
//   - internal/display: terminal render target
//
// The internal packages are not part of the public API and may change
// without notice.
package cookieprof
