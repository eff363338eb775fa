package fetcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/use-agent/pagefetch/browser"
)

const (
	// textPollInterval separates two visible-text length probes.
	textPollInterval = 500 * time.Millisecond

	scrollStep   = 400
	scrollPause  = 100
	scrollMinPx  = 2000
	scrollSettle = 500 * time.Millisecond
)

// RenderState is advisory: extraction runs whether or not content was
// detected.
type RenderState struct {
	ContentFound    bool
	MatchedSelector string
}

// awaitReadiness waits, within ReadinessBudget, for signs that client-side
// rendering produced content: network idle, then the first content selector
// to appear, then enough visible text. It never fails.
func (f *Fetcher) awaitReadiness(ctx context.Context, s browser.Session) RenderState {
	budget := f.fetchCfg.ReadinessBudget
	if budget <= 0 {
		return RenderState{}
	}
	rctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	if err := s.WaitIdle(rctx, f.fetchCfg.IdleTimeout); err != nil {
		slog.Debug("readiness: network did not go idle", "error", err)
	}

	for _, sel := range f.heuristics.ContentSelectors {
		if rctx.Err() != nil {
			break
		}
		if err := s.WaitForSelector(rctx, sel, f.fetchCfg.SelectorTimeout); err == nil {
			slog.Debug("readiness: content selector matched", "selector", sel)
			return RenderState{ContentFound: true, MatchedSelector: sel}
		}
	}

	for rctx.Err() == nil {
		v, err := s.Evaluate(rctx, textLengthScript)
		if err == nil && v.Int() > f.extractCfg.MinRenderedText {
			slog.Debug("readiness: visible text threshold reached", "length", v.Int())
			return RenderState{ContentFound: true}
		}
		if f.sleep(rctx, textPollInterval) != nil {
			break
		}
	}

	slog.Warn("readiness: no content detected, extracting anyway", "budget", budget)
	return RenderState{}
}

// triggerLazyLoad scrolls through the page so viewport-triggered sections
// mount, then lets them settle. Failures are swallowed.
func (f *Fetcher) triggerLazyLoad(ctx context.Context, s browser.Session) {
	if f.fetchCfg.ScrollMaxSteps <= 0 {
		return
	}
	if _, err := s.Evaluate(ctx, scrollScript, scrollStep, scrollPause, f.fetchCfg.ScrollMaxSteps, scrollMinPx); err != nil {
		slog.Debug("lazy load scroll failed", "error", err)
		return
	}
	_ = f.sleep(ctx, scrollSettle)
}
