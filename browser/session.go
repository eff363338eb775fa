package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/pagefetch/models"
	"github.com/ysmood/gson"
)

// closeTimeout bounds the teardown CDP calls. Close must work even after the
// request context has expired, so it never uses a caller context.
const closeTimeout = 5 * time.Second

// statusPollTimeout bounds how long Navigate looks for the navigation entry.
const statusPollTimeout = 2 * time.Second

// callTimeout bounds Evaluate and SerializeDOM when the caller's ctx
// carries no earlier deadline.
const callTimeout = 30 * time.Second

// rodSession is an incognito browser context plus one page.
type rodSession struct {
	incognito *rod.Browser
	page      *rod.Page
	engine    *RodEngine
	router    *rod.HijackRouter
	recorder  *recorder

	closeOnce sync.Once
	closeErr  error
}

var (
	_ Session  = (*rodSession)(nil)
	_ Recorder = (*rodSession)(nil)
)

// Navigate loads url under strategy.
//
// The lifecycle waiter MUST be registered before Navigate: registering it
// afterwards could miss an event that already fired and hang until timeout.
func (s *rodSession) Navigate(ctx context.Context, url string, strategy WaitStrategy, timeout time.Duration) (*Response, error) {
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	p := s.page.Context(navCtx)

	var wait func()
	switch strategy {
	case WaitCommit:
	case WaitDOMContentLoaded:
		wait = p.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	case WaitLoad:
		wait = p.WaitNavigation(proto.PageLifecycleEventNameLoad)
	default:
		return nil, fmt.Errorf("browser: unknown wait strategy %q", strategy)
	}

	if err := p.Navigate(url); err != nil {
		return nil, s.navigateFailure(ctx, navCtx, strategy, err)
	}
	if wait != nil {
		wait()
		if navCtx.Err() != nil {
			return nil, s.navigateFailure(ctx, navCtx, strategy, navCtx.Err())
		}
	}

	return &Response{
		Status:   s.responseStatus(ctx),
		FinalURL: s.evalString(ctx, `() => window.location.href`),
	}, nil
}

// navigateFailure separates a strategy timeout (retryable) from the
// caller's own context ending (not retryable) and from network failures.
func (s *rodSession) navigateFailure(parent, navCtx context.Context, strategy WaitStrategy, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(navCtx.Err(), context.DeadlineExceeded) {
		return &NavigationTimeoutError{Strategy: strategy, Err: err}
	}
	return navigationError(err)
}

// responseStatus reads the main document status from the Navigation Timing
// entry. Network events would be more direct, but enabling them alongside
// HijackRequests triggers ERR_BLOCKED_BY_CLIENT on recent Chromium builds.
func (s *rodSession) responseStatus(ctx context.Context) int {
	pollCtx, cancel := context.WithTimeout(ctx, statusPollTimeout)
	defer cancel()
	p := s.page.Context(pollCtx)

	for {
		res, err := p.Eval(`() => {
			try {
				const entries = performance.getEntriesByType("navigation");
				if (entries.length > 0) return entries[0].responseStatus || 0;
			} catch (e) {}
			return 0;
		}`)
		if err == nil && res.Value.Int() > 0 {
			return res.Value.Int()
		}
		select {
		case <-pollCtx.Done():
			return 0
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func (s *rodSession) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	c, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.page.Context(c).WaitElementsMoreThan(selector, 0)
}

// WaitIdle waits for the DOM to stop changing. WaitRequestIdle would be the
// literal network-idle check, but it uses the Fetch domain which conflicts
// with HijackRequests on Chromium 145+.
func (s *rodSession) WaitIdle(ctx context.Context, timeout time.Duration) error {
	c, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.page.Context(c).WaitDOMStable(300*time.Millisecond, 0.1)
}

func (s *rodSession) Evaluate(ctx context.Context, script string, args ...any) (gson.JSON, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	res, err := s.page.Context(ctx).Eval(script, args...)
	if err != nil {
		return gson.JSON{}, err
	}
	return res.Value, nil
}

func (s *rodSession) SerializeDOM(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	return s.page.Context(ctx).HTML()
}

// evalString evaluates a JS expression and returns the string result,
// swallowing any errors (useful for optional metadata extraction).
func (s *rodSession) evalString(ctx context.Context, js string) string {
	v, err := s.Evaluate(ctx, js)
	if err != nil {
		return ""
	}
	return v.Str()
}

// Logs returns the recorded events, or nil when recording is off.
func (s *rodSession) Logs(ctx context.Context) ([]models.NetworkLog, bool) {
	if s.recorder == nil {
		return nil, false
	}
	return s.recorder.snapshot(ctx)
}

// Close tears down the recorder, the hijack router, the page and the
// incognito context, in that order. Only the first call does any work.
func (s *rodSession) Close() error {
	s.closeOnce.Do(func() {
		defer s.engine.sessions.Add(-1)

		if s.recorder != nil {
			s.recorder.stop()
		}
		var errs []error
		if s.router != nil {
			if err := s.router.Stop(); err != nil {
				errs = append(errs, fmt.Errorf("stop hijack router: %w", err))
			}
		}
		if err := s.page.Timeout(closeTimeout).Close(); err != nil {
			errs = append(errs, fmt.Errorf("close page: %w", err))
		}
		if err := s.incognito.Timeout(closeTimeout).Close(); err != nil {
			errs = append(errs, fmt.Errorf("close context: %w", err))
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}
