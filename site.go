package cookieprof

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Hook is a cookie name/value pair that must be observed in a response
// before session-affine cookie accounting begins for a site.
//
// Until the hook is satisfied, session polls are measured for latency
// but contribute no cookie observations, and the session jar is replaced
// with a fresh one on every poll so a stale, non-matching session never
// sticks. Once satisfied, the gate stays open for the process lifetime.
type Hook struct {
	// Name is the cookie name to watch for.
	Name string

	// Value is the exact cookie value required.
	Value string
}

// ParseHook parses the "name:value" hook syntax used on the command
// line and in config files.
//
// Returns an error if the string has no colon or an empty name; this is
// startup configuration, so it fails fast before any polling begins.
func ParseHook(s string) (Hook, error) {
	idx := strings.Index(s, ":")
	if idx == -1 {
		return Hook{}, fmt.Errorf("hook %q must be of the form name:value", s)
	}
	name := s[:idx]
	if name == "" {
		return Hook{}, fmt.Errorf("hook %q has an empty cookie name", s)
	}
	return Hook{Name: name, Value: s[idx+1:]}, nil
}

// String returns the hook in its "name:value" form.
func (h Hook) String() string {
	return h.Name + ":" + h.Value
}

// Site represents one target URL behind the load balancer under test.
//
// Site is immutable after creation via [NewSite]. Every site is polled
// continuously in session-less mode (a fresh cookie jar per request, so
// no affinity is carried); sites with session tracking enabled are
// additionally polled in session-affine mode with a persistent jar that
// exercises the load balancer's stickiness.
//
// Sites are configured using the functional options pattern with
// [SiteOption] functions such as [WithSessionTracking] and [WithHook].
type Site struct {
	name    string
	url     string
	session bool
	hook    *Hook
}

// Name returns the site's display name.
// The name is used for identification in the display and the report file.
func (s Site) Name() string {
	return s.name
}

// URL returns the site's target URL as a string.
func (s Site) URL() string {
	return s.url
}

// SessionTracking reports whether the session-affine polling path is
// enabled for this site.
func (s Site) SessionTracking() bool {
	return s.session
}

// Hook returns the configured session hook and whether one is set.
func (s Site) Hook() (Hook, bool) {
	if s.hook == nil {
		return Hook{}, false
	}
	return *s.hook, true
}

// NewSite creates a [Site] with the given name, URL, and options.
//
// The name parameter is a human-readable identifier shown in the display
// and the final report. The rawURL parameter must be a valid URL with an
// http:// or https:// scheme.
//
// Options are applied in order using the functional options pattern.
// See [WithSessionTracking] and [WithHook].
//
// Returns an error if the name is empty or the URL is invalid. This is
// the fail-fast boundary for malformed configuration: nothing that
// passes NewSite can abort the poll loop later.
//
// Example:
//
//	site, err := cookieprof.NewSite("primary", "https://www.example.com",
//	    cookieprof.WithSessionTracking(),
//	    cookieprof.WithHook("lb:node1"),
//	)
func NewSite(name, rawURL string, opts ...SiteOption) (Site, error) {
	if name == "" {
		return Site{}, errors.New("site name cannot be empty")
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return Site{}, errors.New("invalid URL: " + err.Error())
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return Site{}, errors.New("URL must have an http:// or https:// scheme")
	}

	cfg := &siteConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return Site{}, err
		}
	}

	return Site{
		name:    name,
		url:     rawURL,
		session: cfg.session,
		hook:    cfg.hook,
	}, nil
}
