package engine

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jhalloran/cookieprof/internal/probe"
	"github.com/jhalloran/cookieprof/internal/stats"
)

// DefaultTimeout is the stall deadline and sweep interval used when the
// caller does not configure one.
const DefaultTimeout = 10 * time.Second

// Outcome classifies one recorded hit.
type Outcome string

const (
	// OutcomeOK is a completed, non-redirect response.
	OutcomeOK Outcome = "ok"

	// OutcomeMiss is a transport failure (DNS, connect, TLS). Counted
	// like a response for latency purposes, with no cookie data.
	OutcomeMiss Outcome = "miss"

	// OutcomeStall is a request cancelled by the sweep after exceeding
	// the timeout. Counted with latency equal to the elapsed time at
	// cancellation and no cookie data.
	OutcomeStall Outcome = "stall"

	// OutcomeRedirect is a 300..307 response. Cookie accounting is
	// suppressed and the site's summary becomes a sticky alert.
	OutcomeRedirect Outcome = "redirect"
)

// SiteInfo is the engine-internal description of one drill target,
// decoupled from the public Site type to avoid a dependency cycle.
type SiteInfo struct {
	// Name is the display name of the site.
	Name string

	// URL is the target URL to poll.
	URL string

	// Session enables the session-affine polling path alongside the
	// session-less one.
	Session bool

	// HookName and HookValue define the cookie that must be observed
	// before session-affine cookie accounting begins. An empty HookName
	// means no hook: the gate starts satisfied.
	HookName  string
	HookValue string
}

// Hit is the engine's report of one recorded poll outcome, emitted on
// the results channel after the site's tracker has been updated.
type Hit struct {
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

	// Latency is the elapsed time from issue to resolution; for stalls
	// it is the elapsed time at cancellation, bounded below by the
	// timeout.
	Latency time.Duration

	// IssuedAt is when the underlying request was dispatched.
	IssuedAt time.Time

	// Err is the transport failure for misses.
	Err error

	// Summary is the site's current compact summary, rendered after
	// this hit was recorded. Render targets refresh from this.
	Summary string
}

// Report pairs a site with its final full-mode summary, for the log
// sink written at shutdown.
type Report struct {
	SiteName string
	URL      string
	Summary  string
}

// Engine owns the poll loops for all configured sites.
//
// Start spawns one loop goroutine per site; hits are emitted on the
// Results channel. The channel is closed when all loops have exited.
// Start and Stop are safe for concurrent use and idempotent.
type Engine struct {
	sites      []SiteInfo
	timeout    time.Duration
	cookieName string
	client     *probe.Client
	results    chan Hit
	logger     *slog.Logger
	trackers   map[string]*stats.Tracker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	started   bool
	stopped   bool
	closeOnce sync.Once
}

// New creates an [Engine] for the given sites.
//
// timeout is both the stall deadline and the sweep interval; zero or
// negative falls back to [DefaultTimeout]. cookieName, when non-empty,
// restricts summaries to that cookie.
func New(sites []SiteInfo, timeout time.Duration, cookieName string, logger *slog.Logger) *Engine {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	trackers := make(map[string]*stats.Tracker, len(sites))
	for _, s := range sites {
		trackers[s.Name] = stats.NewTracker(cookieName)
	}

	return &Engine{
		sites:      sites,
		timeout:    timeout,
		cookieName: cookieName,
		client:     probe.NewClient(),
		results:    make(chan Hit, 2*len(sites)),
		logger:     logger,
		trackers:   trackers,
	}
}

// Results returns the channel of recorded hits. The channel is closed
// once every site loop has exited.
func (e *Engine) Results() <-chan Hit {
	return e.results
}

// Start launches one poll loop per site in background goroutines.
//
// If ctx is nil, context.Background() is used. Start is idempotent, and
// a no-op after Stop.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.started || e.stopped {
		e.mu.Unlock()
		return
	}
	e.started = true

	if ctx == nil {
		ctx = context.Background()
	}
	e.ctx, e.cancel = context.WithCancel(ctx)
	loopCtx := e.ctx // capture under lock to avoid race

	e.wg.Add(len(e.sites))
	e.mu.Unlock()

	for _, site := range e.sites {
		loop := newSiteLoop(e, site, e.trackers[site.Name])
		go func() {
			defer e.wg.Done()
			loop.run(loopCtx)
		}()
	}

	// close the results channel once every loop has exited, so callers
	// ranging over Results() unblock even if Stop is never called
	go func() {
		e.wg.Wait()
		e.closeOnce.Do(func() { close(e.results) })
	}()
}

// Stop cancels all loops and blocks until they have exited and the
// results channel is closed. Idempotent; safe before Start.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.stopped {
		e.stopped = true
		if e.cancel != nil {
			e.cancel()
		}
	}
	e.mu.Unlock()

	e.wg.Wait()

	e.client.Close()

	// ensure the channel is closed even if Start was never called
	e.closeOnce.Do(func() { close(e.results) })
}

// Reports returns each site's final full-mode summary, in configuration
// order. Intended for the shutdown log sink after Stop has returned.
func (e *Engine) Reports() []Report {
	reports := make([]Report, 0, len(e.sites))
	for _, s := range e.sites {
		reports = append(reports, Report{
			SiteName: s.Name,
			URL:      s.URL,
			Summary:  e.trackers[s.Name].FullSummary(),
		})
	}
	return reports
}

// Summary returns the named site's current compact summary, or the
// empty string for an unknown site.
func (e *Engine) Summary(siteName string) string {
	t, ok := e.trackers[siteName]
	if !ok {
		return ""
	}
	return t.Summary()
}

// requestContext represents one in-flight poll: its generation ID, the
// jar used for this attempt, the issue timestamp, and the cancellation
// handle. The ID is what makes completion and sweep cancellation
// mutually exclusive: the first to resolve removes the entry, and the
// loser's ID no longer matches.
type requestContext struct {
	id        uuid.UUID
	sessioned bool
	jar       http.CookieJar
	issuedAt  time.Time
	cancel    context.CancelFunc
}

// completion carries a finished request back to its site loop.
type completion struct {
	rc  *requestContext
	res probe.Result
}

// siteLoop is the per-site state machine. It runs on a single goroutine;
// all fields are owned by that goroutine.
type siteLoop struct {
	engine  *Engine
	site    SiteInfo
	tracker *stats.Tracker

	completions chan completion

	// inflight holds at most one request per mode, keyed by sessioned.
	inflight map[bool]*requestContext

	// hookSatisfied starts true when no hook is configured and flips
	// permanently once a response's jar contains the hook cookie.
	hookSatisfied bool

	// sessionJar is the persistent jar for the session-affine path.
	// While the hook is unsatisfied it stays nil and every session poll
	// gets a fresh jar, so a stale non-matching session never sticks.
	sessionJar http.CookieJar
}

func newSiteLoop(e *Engine, site SiteInfo, tracker *stats.Tracker) *siteLoop {
	l := &siteLoop{
		engine:        e,
		site:          site,
		tracker:       tracker,
		completions:   make(chan completion, 2),
		inflight:      make(map[bool]*requestContext, 2),
		hookSatisfied: site.HookName == "",
	}
	if site.Session && l.hookSatisfied {
		l.sessionJar = probe.NewJar()
	}
	return l
}

func (l *siteLoop) run(ctx context.Context) {
	l.dispatch(ctx, false)
	if l.site.Session {
		l.dispatch(ctx, true)
	}

	// the sweep interval equals the stall deadline: coarse liveness,
	// re-armed unconditionally forever
	ticker := time.NewTicker(l.engine.timeout)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.cancelInflight()
			return
		case c := <-l.completions:
			l.handleCompletion(ctx, c)
		case <-ticker.C:
			l.sweep(ctx)
		}
	}
}

// dispatch issues the next poll for a mode and registers it in-flight.
func (l *siteLoop) dispatch(ctx context.Context, sessioned bool) {
	if ctx.Err() != nil {
		return
	}

	var jar http.CookieJar
	switch {
	case !sessioned:
		jar = probe.NewJar()
	case l.hookSatisfied && l.sessionJar != nil:
		jar = l.sessionJar
	default:
		jar = probe.NewJar()
	}

	reqCtx, cancel := context.WithCancel(ctx)
	rc := &requestContext{
		id:        uuid.New(),
		sessioned: sessioned,
		jar:       jar,
		issuedAt:  time.Now(),
		cancel:    cancel,
	}
	l.inflight[sessioned] = rc

	go func() {
		res := l.engine.client.Get(reqCtx, l.site.URL, jar)
		select {
		case l.completions <- completion{rc: rc, res: res}:
		case <-ctx.Done():
		}
	}()
}

// handleCompletion resolves a finished request: record the hit, then
// immediately reissue the same mode. This is the system's entire
// driving loop.
func (l *siteLoop) handleCompletion(ctx context.Context, c completion) {
	cur := l.inflight[c.rc.sessioned]
	if cur == nil || cur.id != c.rc.id {
		// straggler: the sweep already resolved this request
		l.engine.logger.Debug("dropping stale completion",
			"site", l.site.Name,
			"sessioned", c.rc.sessioned,
		)
		return
	}
	delete(l.inflight, c.rc.sessioned)
	c.rc.cancel()

	hit := stats.Hit{IssuedAt: c.rc.issuedAt, Sessioned: c.rc.sessioned}
	event := Hit{
		SiteName:  l.site.Name,
		URL:       l.site.URL,
		Sessioned: c.rc.sessioned,
		IssuedAt:  c.rc.issuedAt,
		Latency:   time.Since(c.rc.issuedAt),
	}

	switch {
	case c.res.Err != nil:
		event.Outcome = OutcomeMiss
		event.Err = c.res.Err
		l.engine.logger.Warn("poll failed",
			"site", l.site.Name,
			"sessioned", c.rc.sessioned,
			"error", c.res.Err.Error(),
		)

	case isRedirect(c.res.StatusCode):
		hit.Redirect = true
		hit.Location = c.res.Header.Get("Location")
		event.Outcome = OutcomeRedirect
		event.StatusCode = c.res.StatusCode
		l.engine.logger.Warn("poll redirected",
			"site", l.site.Name,
			"status", c.res.StatusCode,
			"location", hit.Location,
		)

	default:
		event.Outcome = OutcomeOK
		event.StatusCode = c.res.StatusCode

		cookies := c.res.Cookies
		if c.rc.sessioned && !l.hookSatisfied {
			if hookMatched(c.res.Cookies, l.site.HookName, l.site.HookValue) {
				l.hookSatisfied = true
				l.sessionJar = c.rc.jar
				l.engine.logger.Info("session hook satisfied",
					"site", l.site.Name,
					"cookie", l.site.HookName,
				)
			}
			// gate was unsatisfied when this poll was issued: latency
			// counts, cookie accounting does not
			cookies = nil
		}
		hit.Cookies = cookies
	}

	l.tracker.Hit(hit)
	event.Summary = l.tracker.Summary()
	l.emit(ctx, event)

	l.dispatch(ctx, c.rc.sessioned)
}

// sweep force-resolves every in-flight request older than the timeout:
// cancel, record a stall, reissue the stalled mode.
func (l *siteLoop) sweep(ctx context.Context) {
	now := time.Now()
	for _, sessioned := range []bool{false, true} {
		rc, ok := l.inflight[sessioned]
		if !ok || now.Sub(rc.issuedAt) < l.engine.timeout {
			continue
		}

		rc.cancel()
		delete(l.inflight, sessioned)

		l.engine.logger.Warn("poll stalled",
			"site", l.site.Name,
			"sessioned", sessioned,
			"elapsed", now.Sub(rc.issuedAt).String(),
		)

		l.tracker.Hit(stats.Hit{IssuedAt: rc.issuedAt, Sessioned: sessioned})
		l.emit(ctx, Hit{
			SiteName:  l.site.Name,
			URL:       l.site.URL,
			Sessioned: sessioned,
			Outcome:   OutcomeStall,
			Latency:   now.Sub(rc.issuedAt),
			IssuedAt:  rc.issuedAt,
			Summary:   l.tracker.Summary(),
		})

		l.dispatch(ctx, sessioned)
	}
}

func (l *siteLoop) cancelInflight() {
	for _, rc := range l.inflight {
		rc.cancel()
	}
}

func (l *siteLoop) emit(ctx context.Context, h Hit) {
	select {
	case l.engine.results <- h:
	case <-ctx.Done():
	}
}

// isRedirect reports whether code is in the 300..307 redirect range.
func isRedirect(code int) bool {
	return code >= 300 && code <= 307
}

// hookMatched reports whether the configured hook cookie is present
// with the required value.
func hookMatched(cookies []*http.Cookie, name, value string) bool {
	for _, ck := range cookies {
		if ck.Name == name && ck.Value == value {
			return true
		}
	}
	return false
}
