// Package fetcher is the resilient fetch-and-extract pipeline:
//
//	prepare → navigate (retry) → classify → readiness → lazy load → extract
//
// Every request owns exactly one browser session at a time and releases it
// on every exit path.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/use-agent/pagefetch/browser"
	"github.com/use-agent/pagefetch/cleaner"
	"github.com/use-agent/pagefetch/config"
	"github.com/use-agent/pagefetch/metrics"
	"github.com/use-agent/pagefetch/models"
	"github.com/use-agent/pagefetch/worker"
)

// TextExtractor is the primary extraction engine. An empty string with a nil
// error means it found nothing it is confident about.
type TextExtractor interface {
	Extract(ctx context.Context, html string, kind models.OutputKind, opts cleaner.Options) (string, error)
}

// Deps are the collaborators of a Fetcher. Engine and Extractor are
// required. A nil Pool makes the Fetcher own one sized by
// Extraction.Workers; a nil Metrics disables instrumentation.
type Deps struct {
	Engine    browser.Engine
	Extractor TextExtractor
	Pool      *worker.Pool
	Metrics   *metrics.Metrics

	// InitScript overrides browser.EvasionScript.
	InitScript string
}

// Fetcher runs the pipeline. It is safe for concurrent use.
type Fetcher struct {
	engine     browser.Engine
	preparer   *Preparer
	extractor  TextExtractor
	pool       *worker.Pool
	ownsPool   bool
	metrics    *metrics.Metrics
	classifier Classifier
	heuristics *config.Heuristics

	fetchCfg   config.FetchConfig
	extractCfg config.ExtractionConfig
	debugCfg   config.DebugConfig
	strategies []browser.WaitStrategy

	// sleep is replaced in tests to skip backoff and settle delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// Result is a successful fetch.
type Result struct {
	Content   string
	Source    Source
	Status    int
	SoftError bool
	FinalURL  string
	Strategy  browser.WaitStrategy
	Rescued   bool
	Attempts  int
	Render    RenderState
	Metadata  models.Metadata
	Tokens    models.TokenInfo

	NavigationTime time.Duration
	ExtractionTime time.Duration
	Total          time.Duration
}

// New builds a Fetcher from cfg.
func New(cfg *config.Config, deps Deps) (*Fetcher, error) {
	if deps.Engine == nil {
		return nil, errors.New("fetcher: engine is required")
	}
	if deps.Extractor == nil {
		return nil, errors.New("fetcher: extractor is required")
	}

	strategies := make([]browser.WaitStrategy, 0, len(cfg.Fetch.Strategies))
	for _, s := range cfg.Fetch.Strategies {
		ws, err := browser.ParseWaitStrategy(s)
		if err != nil {
			return nil, err
		}
		strategies = append(strategies, ws)
	}
	if len(strategies) == 0 {
		return nil, errors.New("fetcher: at least one wait strategy is required")
	}

	h := cfg.Heuristics
	if h == nil {
		h = config.DefaultHeuristics()
	}
	if len(h.UserAgents) == 0 {
		return nil, errors.New("fetcher: user agent pool is empty")
	}

	initScript := deps.InitScript
	if initScript == "" {
		initScript = browser.EvasionScript
	}

	f := &Fetcher{
		engine:    deps.Engine,
		preparer:  NewPreparer(deps.Engine, h, cfg.Fetch, initScript),
		extractor: deps.Extractor,
		pool:      deps.Pool,
		metrics:   deps.Metrics,
		classifier: Classifier{
			ShortText:       cfg.Extraction.SoftErrorTextThreshold,
			NotFoundPhrases: h.NotFoundPhrases,
			PositiveTerms:   h.PositiveTerms,
		},
		heuristics: h,
		fetchCfg:   cfg.Fetch,
		extractCfg: cfg.Extraction,
		debugCfg:   cfg.Debug,
		strategies: strategies,
		sleep:      sleepCtx,
	}
	if f.pool == nil {
		f.pool = worker.New(cfg.Extraction.Workers)
		f.ownsPool = true
	}
	return f, nil
}

// Close releases the extraction pool when the Fetcher created it.
func (f *Fetcher) Close() {
	if f.ownsPool {
		f.pool.Close()
	}
}

// FetchContent fetches req.URL in a fresh browser session and returns its
// main content. Errors are always *models.FetchError.
func (f *Fetcher) FetchContent(ctx context.Context, req models.FetchRequest) (*Result, error) {
	start := time.Now()
	res, err := f.fetch(ctx, req)
	elapsed := time.Since(start)

	if err != nil {
		fe := models.AsFetchError(err)
		f.metrics.ObserveFetch(string(fe.Kind), "", elapsed)
		if fe.Kind == models.ErrInternal {
			slog.Error("fetch failed", "url", req.URL, "kind", fe.Kind, "subKind", fe.SubKind, "error", fe.Err)
		} else {
			slog.Info("fetch failed", "url", req.URL, "kind", fe.Kind, "message", fe.Message)
		}
		return nil, fe
	}

	res.Total = elapsed
	f.metrics.ObserveFetch("success", string(res.Source), elapsed)
	slog.Info("fetch completed",
		"url", req.URL,
		"finalURL", res.FinalURL,
		"status", res.Status,
		"softError", res.SoftError,
		"source", res.Source,
		"strategy", res.Strategy,
		"attempts", res.Attempts,
		"length", len(res.Content),
		"durationMs", elapsed.Milliseconds(),
	)
	return res, nil
}

func (f *Fetcher) fetch(ctx context.Context, req models.FetchRequest) (*Result, error) {
	target, err := validateURL(req.URL)
	if err != nil {
		return nil, models.Internal(models.SubKindNavigation, err.Error(), err)
	}
	kind := req.Output
	if kind == "" {
		kind = models.OutputText
	}

	// ── 1. Session ──────────────────────────────────────────────────
	l, err := f.preparer.acquire(ctx, target)
	if err != nil {
		return nil, sessionError(ctx, err)
	}
	defer l.Release()

	// ── 2. Navigation ───────────────────────────────────────────────
	navStart := time.Now()
	out, attempts, err := f.navigate(ctx, l, target, f.navTimeout(req.Timeout), req.MaxRetries)
	f.metrics.ObserveStage("navigate", time.Since(navStart))
	if err != nil {
		return nil, err
	}
	s := l.Session()

	status := out.Status
	if status == 0 {
		status = 200
	}
	finalURL := out.FinalURL
	if finalURL == "" {
		finalURL = target
	}

	// ── 3. Classification ───────────────────────────────────────────
	verdict, err := f.classify(ctx, s, status, target)
	if err != nil {
		return nil, err
	}

	// ── 4. Readiness + lazy load ────────────────────────────────────
	readyStart := time.Now()
	state := f.awaitReadiness(ctx, s)
	f.triggerLazyLoad(ctx, s)
	f.metrics.ObserveStage("readiness", time.Since(readyStart))
	navTime := time.Since(navStart)

	// ── 5. Extraction ───────────────────────────────────────────────
	extStart := time.Now()
	html, err := s.SerializeDOM(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, categorizeError(ctx.Err(), "request ended before the page could be read")
		}
		return nil, models.Internal(models.SubKindExtraction, "failed to serialize page", err)
	}

	ext, err := f.extract(ctx, s, html, kind, finalURL)
	f.metrics.ObserveStage("extract", time.Since(extStart))
	if err != nil {
		return nil, err
	}

	meta := cleaner.ExtractMetadata(html, finalURL)
	if meta.Title == "" {
		if v, err := s.Evaluate(ctx, titleScript); err == nil {
			meta.Title = v.Str()
		}
	}

	return &Result{
		Content:        ext.Content,
		Source:         ext.Source,
		Status:         status,
		SoftError:      verdict == VerdictSoftError,
		FinalURL:       finalURL,
		Strategy:       out.Strategy,
		Rescued:        out.Rescued,
		Attempts:       attempts,
		Render:         state,
		Metadata:       meta,
		Tokens:         cleaner.TokenSavings(html, ext.Content),
		NavigationTime: navTime,
		ExtractionTime: time.Since(extStart),
	}, nil
}

// classify reads the rendered text of an error-status page and decides
// whether extraction should go on. The page gets a short settle first
// because SPA shells often render their content after the status lands.
func (f *Fetcher) classify(ctx context.Context, s browser.Session, status int, target string) (Verdict, error) {
	if status < 400 {
		return VerdictOK, nil
	}

	if err := s.WaitIdle(ctx, f.fetchCfg.SelectorTimeout); err != nil {
		slog.Debug("error page did not settle", "url", target, "error", err)
	}
	v, err := s.Evaluate(ctx, bodyTextScript)
	if err != nil {
		if ctx.Err() != nil {
			return VerdictHardError, categorizeError(ctx.Err(), "request ended while classifying the page")
		}
		slog.Warn("could not read error page text, treating as hard error", "url", target, "status", status, "error", err)
		return VerdictHardError, hardStatusError(status, target)
	}

	verdict := f.classifier.Classify(status, v.Str())
	switch verdict {
	case VerdictHardError:
		return verdict, hardStatusError(status, target)
	case VerdictSoftError:
		f.metrics.SoftError()
		slog.Warn("error status with usable content, continuing", "url", target, "status", status)
	}
	return verdict, nil
}

// navTimeout resolves the timeout of one navigate call. The request itself
// has no deadline beyond the caller's ctx; the retry loop is bounded by
// attempts.
func (f *Fetcher) navTimeout(requested time.Duration) time.Duration {
	if requested <= 0 {
		requested = f.fetchCfg.NavigationTimeout
	}
	if f.fetchCfg.MaxTimeout > 0 && requested > f.fetchCfg.MaxTimeout {
		requested = f.fetchCfg.MaxTimeout
	}
	return requested
}

func validateURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid target URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid target URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid target URL %q: missing host", raw)
	}
	return u.String(), nil
}

// categorizeError maps a context error to the taxonomy.
func categorizeError(err error, msg string) *models.FetchError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.RequestTimeout(msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewFetchError(models.ErrRequestTimeout, models.SubKindCanceled, "request canceled", err)
	default:
		return models.Internal(models.SubKindNavigation, msg, err)
	}
}
