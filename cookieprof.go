package cookieprof

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jhalloran/cookieprof/internal/display"
	"github.com/jhalloran/cookieprof/internal/engine"
	"github.com/jhalloran/cookieprof/internal/store"
)

const defaultTimeout = 10 * time.Second

// Profiler is the main orchestrator for load-balancer cookie profiling.
//
// Profiler coordinates the continuous polling of sites, routes every
// recorded hit into the status store and registered callbacks, and
// exposes the final per-site reports for the shutdown log sink. It is
// created using [New] with functional options and started with
// [Profiler.Start].
//
// The typical lifecycle is:
//
//	p, err := cookieprof.New(cookieprof.WithSite(site))
//	if err != nil {
//	    slog.Error("failed to create profiler", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	p.Start(ctx) // blocks until context cancelled
//
//	for _, r := range p.Reports() {
//	    // write r.Summary to the log file
//	}
//
// The caller controls the lifecycle via the context. Cancel the context
// to stop polling; in-flight requests are cancelled best-effort and the
// final summaries remain readable via [Profiler.Reports].
type Profiler struct {
	sites        []Site
	timeout      time.Duration
	cookieName   string
	logger       *slog.Logger
	hitCallbacks []func(HitEvent)
	displayOut   io.Writer
	displayANSI  bool

	mu  sync.Mutex
	eng *engine.Engine
}

// New creates a new [Profiler] instance with the given options.
//
// At least one site must be configured via [WithSite] or [WithSites].
// Other options have defaults:
//   - Timeout (stall deadline and sweep interval): 10 seconds
//   - Logger: slog.Default()
//
// Returns an error if no sites are configured, site names collide, or
// any option is invalid. This is startup validation: nothing that
// passes New aborts the poll loops later.
//
// Example:
//
//	p, err := cookieprof.New(
//	    cookieprof.WithSites(sites...),
//	    cookieprof.WithTimeout(10 * time.Second),
//	    cookieprof.WithCookieName("lb"),
//	)
func New(opts ...Option) (*Profiler, error) {
	cfg := &profConfig{
		sites:   []Site{},
		timeout: defaultTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if len(cfg.sites) == 0 {
		return nil, errors.New("at least one site is required")
	}

	// validate site name uniqueness (names key trackers and reports)
	seen := make(map[string]bool, len(cfg.sites))
	for _, s := range cfg.sites {
		if seen[s.name] {
			return nil, fmt.Errorf("duplicate site name: %q", s.name)
		}
		seen[s.name] = true
	}

	// default to slog.Default() if no logger provided
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Profiler{
		sites:        cfg.sites,
		timeout:      cfg.timeout,
		cookieName:   cfg.cookieName,
		logger:       logger,
		hitCallbacks: cfg.hitCallbacks,
		displayOut:   cfg.displayOut,
		displayANSI:  cfg.displayANSI,
	}, nil
}

// Start begins polling all configured sites.
//
// Start is a blocking call that runs until the provided context is
// cancelled. During execution:
//
//   - Every site is polled continuously: each completed, failed, or
//     timed-out poll is recorded and the next one is issued immediately
//   - A periodic sweep cancels and retries polls older than the timeout
//   - Each hit updates the status store, fires registered callbacks,
//     and refreshes the display (when configured)
//
// Returns nil on graceful shutdown. After Start returns, the final
// full-mode summaries are available via [Profiler.Reports].
func (p *Profiler) Start(ctx context.Context) error {
	p.logger.Info("cookieprof starting",
		"site_count", len(p.sites),
		"timeout", p.timeout.String(),
	)

	// check if context already cancelled
	if ctx.Err() != nil {
		return nil
	}

	eng := engine.New(p.toEngineSites(), p.timeout, p.cookieName, p.logger)
	p.mu.Lock()
	p.eng = eng
	p.mu.Unlock()

	statusStore := store.NewMemoryStore()

	// optional terminal view, redrawn on every store update
	var displayWG sync.WaitGroup
	if p.displayOut != nil {
		view := display.New(statusStore, p.displayOut, p.siteNames(), p.displayANSI, p.logger)
		displayWG.Add(1)
		go func() {
			defer displayWG.Done()
			view.Run(ctx)
		}()
	}

	eng.Start(ctx)

	// track the hit consumer goroutine to ensure clean shutdown
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for hit := range eng.Results() {
			// store update first (callbacks fire after data is persisted)
			statusStore.Update(hitToStatus(hit))

			if len(p.hitCallbacks) > 0 {
				event := hitToEvent(hit)
				for _, cb := range p.hitCallbacks {
					invokeCallbackSafe(cb, event, p.logger)
				}
			}

			// log hits (DEBUG level for successes to reduce noise)
			logAttrs := []any{
				"site", hit.SiteName,
				"outcome", string(hit.Outcome),
				"sessioned", hit.Sessioned,
				"latency_ms", hit.Latency.Milliseconds(),
			}
			if hit.Err != nil {
				p.logger.Warn("hit recorded with error", append(logAttrs, "error", hit.Err.Error())...)
			} else {
				p.logger.Debug("hit recorded", logAttrs...)
			}
		}
	}()

	<-ctx.Done()

	eng.Stop() // cancels in-flight polls, closes the results channel
	wg.Wait()  // wait for all hits to be processed
	displayWG.Wait()

	p.logger.Info("cookieprof stopped")
	return nil
}

// Reports returns each site's final full-mode summary in configuration
// order, for the shutdown log sink. Returns nil if Start was never
// called.
func (p *Profiler) Reports() []Report {
	p.mu.Lock()
	eng := p.eng
	p.mu.Unlock()
	if eng == nil {
		return nil
	}

	engReports := eng.Reports()
	reports := make([]Report, len(engReports))
	for i, r := range engReports {
		reports[i] = Report{SiteName: r.SiteName, URL: r.URL, Summary: r.Summary}
	}
	return reports
}

// Sites returns a copy of the configured sites.
//
// The returned slice is a copy; modifying it does not affect the
// Profiler. Each [Site] in the slice is immutable.
func (p *Profiler) Sites() []Site {
	cp := make([]Site, len(p.sites))
	copy(cp, p.sites)
	return cp
}

// Timeout returns the configured stall deadline / sweep interval.
func (p *Profiler) Timeout() time.Duration {
	return p.timeout
}

// CookieName returns the configured summary cookie filter, or the empty
// string when summaries report all cookies.
func (p *Profiler) CookieName() string {
	return p.cookieName
}

// toEngineSites converts the Site slice to engine.SiteInfo slice.
func (p *Profiler) toEngineSites() []engine.SiteInfo {
	result := make([]engine.SiteInfo, len(p.sites))
	for i, s := range p.sites {
		info := engine.SiteInfo{
			Name:    s.name,
			URL:     s.url,
			Session: s.session,
		}
		if s.hook != nil {
			info.HookName = s.hook.Name
			info.HookValue = s.hook.Value
		}
		result[i] = info
	}
	return result
}

// siteNames returns site names in configuration order, for the display.
func (p *Profiler) siteNames() []string {
	names := make([]string, len(p.sites))
	for i, s := range p.sites {
		names[i] = s.name
	}
	return names
}

// hitToStatus converts an engine hit to the store representation.
func hitToStatus(h engine.Hit) store.SiteStatus {
	var errStr *string
	if h.Err != nil {
		s := h.Err.Error()
		errStr = &s
	}

	return store.SiteStatus{
		Name:      h.SiteName,
		URL:       h.URL,
		Outcome:   string(h.Outcome),
		Sessioned: h.Sessioned,
		LatencyMs: h.Latency.Milliseconds(),
		HitAt:     time.Now(),
		Summary:   h.Summary,
		Error:     errStr,
	}
}

// hitToEvent converts an engine hit to the public callback type.
func hitToEvent(h engine.Hit) HitEvent {
	return HitEvent{
		SiteName:   h.SiteName,
		URL:        h.URL,
		Sessioned:  h.Sessioned,
		Outcome:    Outcome(h.Outcome),
		StatusCode: h.StatusCode,
		Latency:    h.Latency,
		IssuedAt:   h.IssuedAt,
		Err:        h.Err,
		Summary:    h.Summary,
	}
}

// invokeCallbackSafe calls a hit callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb func(HitEvent), event HitEvent, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			logger.Error("hit callback panicked",
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"site", event.SiteName,
			)
		}
	}()
	cb(event)
}
