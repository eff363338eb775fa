package fetcher

import (
	"context"
	"log/slog"
	"strings"

	"github.com/use-agent/pagefetch/browser"
	"github.com/use-agent/pagefetch/cleaner"
	"github.com/use-agent/pagefetch/models"
)

// Source names the extraction stage that produced the content.
type Source string

const (
	SourceStructural Source = "structural-selector"
	SourcePrimary    Source = "primary-engine"
	SourceGeneric    Source = "generic-fallback"
)

// ExtractionResult is the accepted output of one stage.
type ExtractionResult struct {
	Content string
	Source  Source
	Length  int
}

// extract runs the stage chain over the serialized document. The first stage
// whose output passes acceptance wins.
func (f *Fetcher) extract(ctx context.Context, s browser.Session, html string, kind models.OutputKind, baseURL string) (*ExtractionResult, error) {
	if len(strings.TrimSpace(html)) < f.extractCfg.MinDocumentLength {
		return nil, models.NoContentExtracted("page returned empty content")
	}

	// ── 1. Structural pre-extraction ────────────────────────────────
	var structural string
	err := f.pool.Do(ctx, func(ctx context.Context) error {
		m, err := cleaner.MatchStructural(html, f.heuristics.StructuralSelectors, f.extractCfg.MinStructuralText)
		if err != nil || m == nil {
			return err
		}
		slog.Debug("structural selector matched", "selector", m.Selector, "length", len(m.Text))
		if kind == models.OutputText {
			structural = m.Text
			return nil
		}
		structural, err = cleaner.Render(m.HTML, kind, baseURL)
		return err
	})
	if err := f.stageError(ctx, err, "structural"); err != nil {
		return nil, err
	}
	if res, ok := f.accept(structural, kind, SourceStructural); ok {
		return res, nil
	}

	// ── 2. Primary engine ───────────────────────────────────────────
	var primary string
	err = f.pool.Do(ctx, func(ctx context.Context) error {
		var err error
		primary, err = f.extractor.Extract(ctx, html, kind, cleaner.Options{
			BaseURL:         baseURL,
			IncludeTables:   true,
			Deduplicate:     true,
			ExcludeComments: true,
		})
		return err
	})
	if err := f.stageError(ctx, err, "primary"); err != nil {
		return nil, err
	}
	if res, ok := f.accept(primary, kind, SourcePrimary); ok {
		return res, nil
	}

	// ── 3. Generic DOM fallback ─────────────────────────────────────
	if res, ok := f.accept(f.genericFallback(ctx, s, kind, baseURL), kind, SourceGeneric); ok {
		return res, nil
	}
	if ctx.Err() != nil {
		return nil, categorizeError(ctx.Err(), "request ended during extraction")
	}
	return nil, models.NoContentExtracted("no extraction stage produced enough content")
}

// stageError turns a failed stage into a terminal error only when the
// request itself ended. Any other stage failure falls through to the next
// stage.
func (f *Fetcher) stageError(ctx context.Context, err error, stage string) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return categorizeError(ctx.Err(), "request ended during extraction")
	}
	slog.Warn("extraction stage failed", "stage", stage, "error", err)
	return nil
}

// accept applies text cleanup and the minimum length rule.
func (f *Fetcher) accept(content string, kind models.OutputKind, src Source) (*ExtractionResult, bool) {
	if kind == models.OutputText {
		content = cleaner.CleanText(content, f.extractCfg.RepeatThreshold)
	}
	content = strings.TrimSpace(content)
	if content == "" || len(content) < f.extractCfg.MinContentLength {
		return nil, false
	}
	return &ExtractionResult{Content: content, Source: src, Length: len(content)}, true
}

// genericFallback reads the best matching container straight from the live
// DOM with noise removed.
func (f *Fetcher) genericFallback(ctx context.Context, s browser.Session, kind models.OutputKind, baseURL string) string {
	h := f.heuristics
	v, err := s.Evaluate(ctx, genericContentScript, h.FallbackSelectors, h.NoiseSelectors, lowerAll(h.NoisePatterns))
	if err != nil {
		slog.Warn("generic fallback failed", "error", err)
		return ""
	}
	out, err := cleaner.Render(v.Str(), kind, baseURL)
	if err != nil {
		slog.Warn("generic fallback render failed", "error", err)
		return ""
	}
	return out
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
