package cookieprof

import (
	"errors"
	"io"
	"log/slog"
	"time"
)

// profConfig holds mutable state during Profiler construction.
type profConfig struct {
	sites        []Site
	timeout      time.Duration
	cookieName   string
	logger       *slog.Logger
	hitCallbacks []func(HitEvent)
	displayOut   io.Writer
	displayANSI  bool
}

// Option is a function that configures a [Profiler] instance during
// construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
//
// Built-in options: [WithSite], [WithSites], [WithTimeout],
// [WithCookieName], [WithLogger], [WithHitCallback], [WithDisplay].
type Option func(*profConfig) error

// WithSite adds a single [Site] to the polling list.
//
// Can be called multiple times to add multiple sites. At least one site
// must be configured for [New] to succeed.
//
// Example:
//
//	p, err := cookieprof.New(
//	    cookieprof.WithSite(a),
//	    cookieprof.WithSite(b),
//	)
func WithSite(s Site) Option {
	return func(cfg *profConfig) error {
		cfg.sites = append(cfg.sites, s)
		return nil
	}
}

// WithSites adds multiple [Site] values to the polling list.
//
// This is a convenience function for adding several sites at once.
// Equivalent to calling [WithSite] multiple times.
func WithSites(sites ...Site) Option {
	return func(cfg *profConfig) error {
		cfg.sites = append(cfg.sites, sites...)
		return nil
	}
}

// WithTimeout sets the stall deadline, which is also the sweep interval.
//
// An in-flight poll older than this is force-cancelled by the periodic
// sweep, recorded as a stall (latency = elapsed time at cancellation,
// no cookie data), and reissued immediately. Defaults to 10 seconds.
//
// Returns an error if the duration is zero or negative.
func WithTimeout(d time.Duration) Option {
	return func(cfg *profConfig) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		cfg.timeout = d
		return nil
	}
}

// WithCookieName restricts summaries to a single cookie name.
//
// All cookies are still recorded; only the rendered summaries filter to
// the given name. Useful when the load balancer's affinity cookie is
// known and the rest are noise.
//
// Returns an error if name is empty.
func WithCookieName(name string) Option {
	return func(cfg *profConfig) error {
		if name == "" {
			return errors.New("cookie name cannot be empty")
		}
		cfg.cookieName = name
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the Profiler instance.
//
// This allows SDK consumers to control where logs are written and in
// what format. If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *profConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithHitCallback registers a function to be called on every recorded
// hit, after the site's statistics have been updated.
//
// Multiple callbacks may be registered by calling WithHitCallback
// multiple times; they execute in registration order.
//
// IMPORTANT: Callbacks must be non-blocking. Long-running operations
// should dispatch work to a separate goroutine. Blocking callbacks will
// delay subsequent hit processing.
//
// Callbacks are invoked synchronously from a single goroutine. Panics
// within callbacks are recovered and logged; they do not crash the
// engine.
//
// Example:
//
//	p, err := cookieprof.New(
//	    cookieprof.WithSite(site),
//	    cookieprof.WithHitCallback(func(ev cookieprof.HitEvent) {
//	        if ev.Outcome == cookieprof.OutcomeRedirect {
//	            log.Printf("ALERT: %s is redirecting", ev.SiteName)
//	        }
//	    }),
//	)
//
// Nil callbacks are silently ignored.
func WithHitCallback(cb func(HitEvent)) Option {
	return func(cfg *profConfig) error {
		if cb == nil {
			return nil // no-op for nil callback (safe to call)
		}
		cfg.hitCallbacks = append(cfg.hitCallbacks, cb)
		return nil
	}
}

// WithDisplay enables the live terminal view on the given writer.
//
// One plain-text block per site is redrawn after every hit. When ansi
// is true the view clears the screen between redraws; leave it false
// when out is a pipe or file.
//
// Returns an error if out is nil.
func WithDisplay(out io.Writer, ansi bool) Option {
	return func(cfg *profConfig) error {
		if out == nil {
			return errors.New("display writer cannot be nil")
		}
		cfg.displayOut = out
		cfg.displayANSI = ansi
		return nil
	}
}
