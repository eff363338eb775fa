// Package browser is the boundary to the rendering engine. The pipeline only
// ever talks to the Engine and Session interfaces; RodEngine is the
// production implementation on top of a single shared Chromium process.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/use-agent/pagefetch/models"
	"github.com/ysmood/gson"
)

// WaitStrategy names the readiness condition that ends a navigation.
type WaitStrategy string

const (
	// WaitCommit returns as soon as the main document response is committed.
	WaitCommit WaitStrategy = "commit"

	// WaitDOMContentLoaded waits for the DOMContentLoaded lifecycle event.
	WaitDOMContentLoaded WaitStrategy = "domcontentloaded"

	// WaitLoad waits for the load event (all subresources).
	WaitLoad WaitStrategy = "load"
)

// ParseWaitStrategy validates a configured strategy name.
func ParseWaitStrategy(s string) (WaitStrategy, error) {
	switch ws := WaitStrategy(strings.ToLower(strings.TrimSpace(s))); ws {
	case WaitCommit, WaitDOMContentLoaded, WaitLoad:
		return ws, nil
	default:
		return "", fmt.Errorf("browser: unknown wait strategy %q", s)
	}
}

// Viewport is the emulated screen size.
type Viewport struct {
	Width  int
	Height int
}

// IdentityProfile is what the page sees of its visitor.
type IdentityProfile struct {
	UserAgent      string
	AcceptLanguage string
	Platform       string
	Viewport       Viewport
	Locale         string
	Timezone       string
	Headers        map[string]string
}

// InterceptRules decide per request whether it is aborted or continued.
type InterceptRules struct {
	// DenyDomains aborts requests whose host or any parent domain is listed.
	DenyDomains []string

	// BlockedResourceTypes aborts whole resource classes ("Image", "Font", ...).
	BlockedResourceTypes []string
}

// Empty reports whether the rules would never abort anything.
func (r *InterceptRules) Empty() bool {
	return r == nil || (len(r.DenyDomains) == 0 && len(r.BlockedResourceTypes) == 0)
}

// RecordOptions turns on event capture for a session.
type RecordOptions struct {
	// MaxEntries bounds the in-memory log; later events are dropped.
	MaxEntries int

	// IncludeBody captures request post data and response bodies.
	IncludeBody bool
}

// SessionOptions configure a new isolated session.
type SessionOptions struct {
	Identity IdentityProfile

	// Intercept is nil when every request should go through.
	Intercept *InterceptRules

	// InitScript runs in every document before any page script.
	InitScript string

	// Record is nil unless console/network events should be captured.
	Record *RecordOptions
}

// Response describes a committed navigation.
type Response struct {
	// Status is the main document HTTP status, 0 when unknown.
	Status   int
	FinalURL string
}

// Engine hands out isolated sessions. It is safe for concurrent use; its
// process lifetime belongs to whoever constructed it.
type Engine interface {
	NewSession(ctx context.Context, opts SessionOptions) (Session, error)
}

// Session is one isolated browsing context plus one page. A Session is owned
// by a single request and is not safe for concurrent use, except Close which
// may be called from any state, any number of times.
type Session interface {
	// Navigate loads url and returns once strategy is satisfied. A strategy
	// that does not finish within timeout yields a *NavigationTimeoutError.
	// Network failures yield a *NetError.
	Navigate(ctx context.Context, url string, strategy WaitStrategy, timeout time.Duration) (*Response, error)

	// WaitForSelector waits until at least one element matches selector.
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error

	// WaitIdle waits until the page stops changing.
	WaitIdle(ctx context.Context, timeout time.Duration) error

	// Evaluate runs a JS function expression in page context and returns
	// its (awaited) JSON value.
	Evaluate(ctx context.Context, script string, args ...any) (gson.JSON, error)

	// SerializeDOM returns the live DOM as HTML.
	SerializeDOM(ctx context.Context) (string, error)

	Close() error
}

// Recorder is implemented by sessions opened with SessionOptions.Record.
type Recorder interface {
	// Logs returns the captured events in arrival order and whether any
	// were dropped because the log was full.
	Logs(ctx context.Context) ([]models.NetworkLog, bool)
}

// ErrNavigationTimeout matches every *NavigationTimeoutError.
var ErrNavigationTimeout = errors.New("browser: navigation timed out")

// NavigationTimeoutError reports a strategy that did not complete in time.
type NavigationTimeoutError struct {
	Strategy WaitStrategy
	Err      error
}

func (e *NavigationTimeoutError) Error() string {
	return fmt.Sprintf("browser: navigation timed out waiting for %s", e.Strategy)
}

func (e *NavigationTimeoutError) Unwrap() error { return e.Err }

func (e *NavigationTimeoutError) Is(target error) bool { return target == ErrNavigationTimeout }

// hardReasons are Chrome net error codes that no retry can fix.
var hardReasons = []string{
	"net::ERR_NAME_NOT_RESOLVED",
	"net::ERR_NAME_RESOLUTION_FAILED",
	"net::ERR_CONNECTION_REFUSED",
	"net::ERR_ADDRESS_INVALID",
	"net::ERR_ADDRESS_UNREACHABLE",
}

// NetError is a network-level navigation failure reported by the browser.
type NetError struct {
	Reason string
}

func (e *NetError) Error() string {
	return "browser: navigation failed: " + e.Reason
}

// Hard reports whether the failure is a target-side fault (DNS failure,
// connection refused) rather than a transient one.
func (e *NetError) Hard() bool {
	for _, r := range hardReasons {
		if strings.Contains(e.Reason, r) {
			return true
		}
	}
	return false
}

// IsHardNetError reports whether err carries a hard *NetError.
func IsHardNetError(err error) bool {
	var ne *NetError
	return errors.As(err, &ne) && ne.Hard()
}
