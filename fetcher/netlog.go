package fetcher

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/use-agent/pagefetch/browser"
	"github.com/use-agent/pagefetch/models"
)

// debugIdleTimeout bounds the post-load idle wait of a debug capture.
const debugIdleTimeout = 15 * time.Second

// CollectNetworkLogs loads target in a dedicated, unfiltered session and
// returns every console message, request and response it saw. wait keeps
// the page open after load so late XHRs are captured.
func (f *Fetcher) CollectNetworkLogs(ctx context.Context, target string, wait time.Duration, includeBody bool) (*models.DebugResponse, error) {
	target, err := validateURL(target)
	if err != nil {
		return nil, models.Internal(models.SubKindNavigation, err.Error(), err)
	}
	if f.debugCfg.MaxWait > 0 && wait > f.debugCfg.MaxWait {
		wait = f.debugCfg.MaxWait
	}

	ctx, cancel := context.WithTimeout(ctx, f.fetchCfg.NavigationTimeout+debugIdleTimeout+wait)
	defer cancel()

	s, err := f.engine.NewSession(ctx, browser.SessionOptions{
		Identity:   f.preparer.identity(target),
		InitScript: f.preparer.initScript,
		Record: &browser.RecordOptions{
			MaxEntries:  f.debugCfg.MaxLogEntries,
			IncludeBody: includeBody,
		},
	})
	if err != nil {
		return nil, sessionError(ctx, err)
	}
	defer func() {
		if err := s.Close(); err != nil {
			slog.Warn("debug session close failed", "url", target, "error", err)
		}
	}()

	rec, ok := s.(browser.Recorder)
	if !ok {
		return nil, models.Internal(models.SubKindBrowser, "browser session cannot record events", nil)
	}

	resp, err := s.Navigate(ctx, target, browser.WaitDOMContentLoaded, f.fetchCfg.NavigationTimeout)
	switch {
	case err == nil:
	case browser.IsHardNetError(err):
		return nil, models.UpstreamBadGateway("target "+target+" is unreachable", err)
	case errors.Is(err, browser.ErrNavigationTimeout):
		// Logs of a slow page are still what the caller is after.
		slog.Info("debug navigation timed out, returning partial logs", "url", target)
	default:
		if ctx.Err() != nil {
			return nil, categorizeError(ctx.Err(), "request ended during debug capture")
		}
		return nil, models.Internal(models.SubKindNavigation, "debug navigation failed", err)
	}

	if err := s.WaitIdle(ctx, debugIdleTimeout); err != nil {
		slog.Debug("debug page did not go idle", "url", target, "error", err)
	}
	if err := f.sleep(ctx, wait); err != nil {
		return nil, categorizeError(err, "request ended during debug capture")
	}

	out := &models.DebugResponse{FinalURL: target}
	if resp != nil && resp.FinalURL != "" {
		out.FinalURL = resp.FinalURL
	}
	if v, err := s.Evaluate(ctx, titleScript); err == nil {
		out.PageTitle = v.Str()
	}
	if v, err := s.Evaluate(ctx, locationScript); err == nil && v.Str() != "" {
		out.FinalURL = v.Str()
	}

	logs, truncated := rec.Logs(ctx)
	if logs == nil {
		logs = []models.NetworkLog{}
	}
	out.Logs = logs
	out.TotalLogs = len(logs)
	out.Truncated = truncated

	slog.Info("network logs collected", "url", target, "total", out.TotalLogs, "truncated", truncated)
	return out, nil
}
