package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/use-agent/pagefetch/browser"
	"github.com/use-agent/pagefetch/models"
)

// rescueTimeout bounds the DOM read of a partial-content rescue.
const rescueTimeout = 5 * time.Second

// OutcomeKind tags a NavigationOutcome.
type OutcomeKind int

const (
	// Committed: the strategy returned a response (or a rescued partial DOM).
	Committed OutcomeKind = iota

	// TimedOut: the strategy did not finish in time. Retryable.
	TimedOut

	// TransientError: a soft network failure (reset, aborted). Retryable.
	TransientError

	// HardNetworkError: DNS failure, connection refused. Never retried.
	HardNetworkError
)

func (k OutcomeKind) String() string {
	switch k {
	case Committed:
		return "committed"
	case TimedOut:
		return "timeout"
	case TransientError:
		return "error"
	case HardNetworkError:
		return "hard_error"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// NavigationOutcome is the result of one strategy of one attempt.
type NavigationOutcome struct {
	Kind     OutcomeKind
	Strategy browser.WaitStrategy

	// Committed only.
	Status   int
	FinalURL string
	Rescued  bool

	// Failures only.
	Err error
}

// navigate runs the retry/backoff state machine:
//
//	NotStarted → Attempting(strategy) → Committed | Failed
//
// Each attempt walks the strategy list on the lease's current session; the
// first committed strategy wins. A timed-out strategy first tries a
// partial-content rescue. When no strategy lands, the attempt counter grows,
// the controller sleeps BackoffBase × 2^attempt, renews the session and
// starts over. A hard network error ends the loop at once.
//
// Every navigate call gets navTimeout of its own. It returns the committed
// outcome and the number of attempts used.
func (f *Fetcher) navigate(ctx context.Context, l *lease, target string, navTimeout time.Duration, maxRetries int) (NavigationOutcome, int, error) {
	if maxRetries < 0 {
		maxRetries = 0
	}
	total := maxRetries + 1

	var last NavigationOutcome
	for attempt := 0; attempt < total; attempt++ {
		if attempt > 0 {
			delay := f.backoff(attempt)
			slog.Info("navigation attempt failed, backing off",
				"url", target, "attempt", attempt, "delay", delay, "error", last.Err)
			if err := f.sleep(ctx, delay); err != nil {
				return last, attempt, categorizeError(err, "request ended during navigation backoff")
			}
			if err := l.Renew(ctx); err != nil {
				return last, attempt, sessionError(ctx, err)
			}
		}

		for i, strategy := range f.strategies {
			if i > 0 && f.fetchCfg.StrategyPause > 0 {
				if err := f.sleep(ctx, f.fetchCfg.StrategyPause); err != nil {
					return last, attempt + 1, categorizeError(err, "request ended during navigation")
				}
			}

			out := f.tryStrategy(ctx, l.Session(), target, strategy, navTimeout)
			f.metrics.ObserveNavigation(string(strategy), navigationResult(out))

			switch out.Kind {
			case Committed:
				slog.Debug("navigation committed", "url", target, "strategy", strategy,
					"attempt", attempt+1, "status", out.Status, "rescued", out.Rescued)
				return out, attempt + 1, nil
			case HardNetworkError:
				return out, attempt + 1, models.UpstreamBadGateway(
					fmt.Sprintf("target %s is unreachable", target), out.Err)
			}

			if ctx.Err() != nil {
				return out, attempt + 1, categorizeError(ctx.Err(), "request ended during navigation")
			}
			slog.Warn("navigation strategy failed", "url", target, "strategy", strategy,
				"attempt", attempt+1, "outcome", out.Kind.String(), "error", out.Err)
			last = out
		}
	}

	return last, total, models.RequestTimeout(
		fmt.Sprintf("failed to load %s after %d attempts", target, total), last.Err)
}

// tryStrategy performs one navigation and folds every result into a
// NavigationOutcome.
func (f *Fetcher) tryStrategy(ctx context.Context, s browser.Session, target string, strategy browser.WaitStrategy, timeout time.Duration) NavigationOutcome {
	resp, err := s.Navigate(ctx, target, strategy, timeout)
	if err == nil {
		if strategy == browser.WaitCommit {
			f.settleAfterCommit(ctx, s)
		}
		return NavigationOutcome{
			Kind:     Committed,
			Strategy: strategy,
			Status:   resp.Status,
			FinalURL: resp.FinalURL,
		}
	}

	switch {
	case browser.IsHardNetError(err):
		return NavigationOutcome{Kind: HardNetworkError, Strategy: strategy, Err: err}
	case errors.Is(err, browser.ErrNavigationTimeout):
		if out, ok := f.rescue(ctx, s, strategy); ok {
			return out
		}
		return NavigationOutcome{Kind: TimedOut, Strategy: strategy, Err: err}
	default:
		return NavigationOutcome{Kind: TransientError, Strategy: strategy, Err: err}
	}
}

// settleAfterCommit gives a committed-only navigation a chance to parse the
// document. Best effort.
func (f *Fetcher) settleAfterCommit(ctx context.Context, s browser.Session) {
	if f.fetchCfg.CommitSettle <= 0 {
		return
	}
	if err := s.WaitForSelector(ctx, "body", f.fetchCfg.CommitSettle); err != nil {
		slog.Debug("body did not appear after commit, continuing", "error", err)
	}
}

// rescue accepts whatever DOM materialized before a timeout, provided it
// has a body and is not trivially small.
func (f *Fetcher) rescue(ctx context.Context, s browser.Session, strategy browser.WaitStrategy) (NavigationOutcome, bool) {
	if ctx.Err() != nil {
		return NavigationOutcome{}, false
	}
	rctx, cancel := context.WithTimeout(ctx, rescueTimeout)
	defer cancel()

	html, err := s.SerializeDOM(rctx)
	if err != nil {
		slog.Debug("partial content rescue failed", "strategy", strategy, "error", err)
		return NavigationOutcome{}, false
	}
	if !strings.Contains(strings.ToLower(html), "<body") || len(strings.TrimSpace(html)) < f.extractCfg.MinDocumentLength {
		return NavigationOutcome{}, false
	}

	finalURL := ""
	if v, err := s.Evaluate(rctx, locationScript); err == nil {
		finalURL = v.Str()
	}
	slog.Info("navigation timed out, rescued partial content", "strategy", strategy, "length", len(html))
	return NavigationOutcome{
		Kind:     Committed,
		Strategy: strategy,
		FinalURL: finalURL,
		Rescued:  true,
	}, true
}

// backoff returns BackoffBase × 2^attempt.
func (f *Fetcher) backoff(attempt int) time.Duration {
	return f.fetchCfg.BackoffBase * time.Duration(1<<uint(attempt))
}

func navigationResult(out NavigationOutcome) string {
	if out.Kind == Committed && out.Rescued {
		return "rescued"
	}
	return out.Kind.String()
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
