package cookieprof

// siteConfig holds mutable state during site construction.
type siteConfig struct {
	session bool
	hook    *Hook
}

// SiteOption is a function that configures a [Site] during construction.
//
// SiteOption implements the functional options pattern, allowing
// optional configuration to be passed to [NewSite] in a type-safe,
// extensible way. Options return an error if validation fails.
//
// Built-in options: [WithSessionTracking], [WithHook].
type SiteOption func(*siteConfig) error

// WithSessionTracking enables the session-affine polling path for a site.
//
// A session-tracked site is polled twice in parallel: once session-less
// (fresh jar per request) and once with a persistent cookie jar, so the
// load balancer's stickiness can be observed across polls.
//
// Example:
//
//	site, err := cookieprof.NewSite("primary", url,
//	    cookieprof.WithSessionTracking(),
//	)
func WithSessionTracking() SiteOption {
	return func(cfg *siteConfig) error {
		cfg.session = true
		return nil
	}
}

// WithHook gates session-affine cookie accounting behind a cookie
// observation.
//
// spec is "name:value": session cookie accounting for this site starts
// only after a response's jar contains a cookie with that exact name and
// value. Until then, session polls count for latency only and the
// session jar is replaced on every poll. The gate never closes again
// once open.
//
// WithHook implies [WithSessionTracking]: a hook is meaningless without
// the session-affine path, so it is enabled automatically.
//
// Example:
//
//	site, err := cookieprof.NewSite("primary", url,
//	    cookieprof.WithHook("lb:node1"),
//	)
//
// Returns an error if spec is not of the form "name:value".
func WithHook(spec string) SiteOption {
	return func(cfg *siteConfig) error {
		hook, err := ParseHook(spec)
		if err != nil {
			return err
		}
		cfg.hook = &hook
		cfg.session = true
		return nil
	}
}
