package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"
)

// userAgent identifies the tool to the probed load balancer.
const userAgent = "cookieprof"

// maxResponseBodySize bounds how much of a response body is drained.
// Bodies are discarded; the bound only protects against hostile sizes
// while still allowing connection reuse.
const maxResponseBodySize = 1 << 20 // 1MB

// connection pooling limits to prevent resource exhaustion when probing
// many sites for hours
const (
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultMaxConnsPerHost     = 10
	defaultIdleConnTimeout     = 60 * time.Second // conservative: matches common ALB defaults
)

// Result holds the outcome of one GET issued by [Client.Get].
//
// Errors are captured in the Err field rather than returned separately;
// a request fails only through its result, never synchronously. When Err
// is set, the remaining fields are zero.
type Result struct {
	// StatusCode is the HTTP status code (e.g. 200, 302, 503).
	StatusCode int

	// Header contains the response headers.
	Header http.Header

	// Cookies are the cookies held by the request's jar for the target
	// URL after the response, including any the server just set.
	Cookies []*http.Cookie

	// Err is the transport failure (DNS, connect, TLS, cancellation),
	// if any.
	Err error
}

// Client issues GET requests against sites with caller-supplied cookie
// jars. All requests share one pooled transport; the jar determines
// whether affinity is carried between polls.
//
// The client applies no timeout of its own. Cancellation comes from the
// request context; cancelling after completion is a no-op.
type Client struct {
	transport *http.Transport
}

// NewClient creates a probing [Client] with the shared pooled transport.
func NewClient() *Client {
	return &Client{
		transport: &http.Transport{
			MaxIdleConns:        defaultMaxIdleConns,
			MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
			MaxConnsPerHost:     defaultMaxConnsPerHost,
			IdleConnTimeout:     defaultIdleConnTimeout,
			DisableKeepAlives:   false, // explicitly enable connection reuse
		},
	}
}

// NewJar returns a fresh, empty cookie jar. Session-less polls get one
// of these per request so no affinity is carried between polls.
func NewJar() http.CookieJar {
	// cookiejar.New only fails for invalid options; nil options cannot fail
	jar, err := cookiejar.New(nil)
	if err != nil {
		panic(fmt.Sprintf("cookiejar.New with nil options: %v", err))
	}
	return jar
}

// Get performs one GET against rawURL using jar for cookie storage.
//
// Redirects are not followed: a 3xx response is returned as-is so the
// caller can inspect the status and Location header. The response body
// is drained (bounded) and discarded to keep the connection reusable.
func (c *Client) Get(ctx context.Context, rawURL string, jar http.CookieJar) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Result{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", userAgent)

	// per-request client: the jar differs per call, the transport is shared
	httpClient := &http.Client{
		Transport: c.transport,
		Jar:       jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return Result{Err: fmt.Errorf("request failed: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	// drain (bounded) so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBodySize))

	return Result{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Cookies:    jarCookies(jar, req.URL),
	}
}

// jarCookies lists the jar's cookies for u. A nil jar yields nil.
func jarCookies(jar http.CookieJar, u *url.URL) []*http.Cookie {
	if jar == nil || u == nil {
		return nil
	}
	return jar.Cookies(u)
}

// Close closes all idle connections in the shared transport. Safe to
// call multiple times; the client remains usable afterwards.
func (c *Client) Close() {
	if c == nil || c.transport == nil {
		return
	}
	c.transport.CloseIdleConnections()
}
