package fetcher

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/pagefetch/browser"
	"github.com/use-agent/pagefetch/cleaner"
	"github.com/use-agent/pagefetch/config"
	"github.com/use-agent/pagefetch/models"
	"github.com/ysmood/gson"
)

var longText = strings.TrimSpace(strings.Repeat("The team builds resilient systems for rendering pages. ", 6))

// navResult scripts the answer of one wait strategy.
type navResult struct {
	status int
	err    error
}

func committed(status int) navResult { return navResult{status: status} }

func timedOut(s browser.WaitStrategy) navResult {
	return navResult{err: &browser.NavigationTimeoutError{Strategy: s, Err: context.DeadlineExceeded}}
}

// stubPage scripts what one session shows. Strategies missing from nav
// time out at once; strategies in slow block until their navigation
// timeout fires, like a real page that never reaches the lifecycle event.
type stubPage struct {
	nav       map[browser.WaitStrategy]navResult
	slow      map[browser.WaitStrategy]bool
	idleErr   error
	html      string // serialized DOM after a committed navigation
	partial   string // serialized DOM while navigation is still pending
	bodyText  string
	generic   string
	title     string
	location  string
	selectors map[string]bool
	logs      []models.NetworkLog
}

func articlePage() stubPage {
	return stubPage{
		nav:       map[browser.WaitStrategy]navResult{browser.WaitCommit: committed(200)},
		html:      "<html><head><title>Role</title></head><body><article><p>" + longText + "</p></article></body></html>",
		bodyText:  longText,
		title:     "Role",
		location:  "https://example.com/jobs/1",
		selectors: map[string]bool{"body": true, "article": true},
	}
}

type stubSession struct {
	page stubPage
	opts browser.SessionOptions

	mu          sync.Mutex
	navCalls    []browser.WaitStrategy
	navTimeouts []time.Duration
	committed   bool
	closes      int
}

func (s *stubSession) Navigate(ctx context.Context, url string, strategy browser.WaitStrategy, timeout time.Duration) (*browser.Response, error) {
	if s.page.slow[strategy] {
		navCtx, cancel := context.WithTimeout(ctx, timeout)
		<-navCtx.Done()
		cancel()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.navCalls = append(s.navCalls, strategy)
	s.navTimeouts = append(s.navTimeouts, timeout)
	// The caller's own ctx wins over the strategy timeout.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.page.slow[strategy] {
		return nil, &browser.NavigationTimeoutError{Strategy: strategy, Err: context.DeadlineExceeded}
	}
	r, ok := s.page.nav[strategy]
	if !ok {
		r = timedOut(strategy)
	}
	if r.err != nil {
		return nil, r.err
	}
	s.committed = true
	final := s.page.location
	if final == "" {
		final = url
	}
	return &browser.Response{Status: r.status, FinalURL: final}, nil
}

func (s *stubSession) WaitForSelector(ctx context.Context, selector string, _ time.Duration) error {
	if s.page.selectors[selector] {
		return nil
	}
	return errors.New("selector not found")
}

func (s *stubSession) WaitIdle(ctx context.Context, _ time.Duration) error { return s.page.idleErr }

func (s *stubSession) Evaluate(ctx context.Context, script string, args ...any) (gson.JSON, error) {
	switch script {
	case bodyTextScript:
		return gson.New(s.page.bodyText), nil
	case textLengthScript:
		return gson.New(len(s.page.bodyText)), nil
	case titleScript:
		return gson.New(s.page.title), nil
	case locationScript:
		return gson.New(s.page.location), nil
	case scrollScript:
		return gson.New(3), nil
	case genericContentScript:
		return gson.New(s.page.generic), nil
	}
	return gson.JSON{}, errors.New("unexpected script")
}

func (s *stubSession) SerializeDOM(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.committed {
		return s.page.partial, nil
	}
	return s.page.html, nil
}

func (s *stubSession) Logs(ctx context.Context) ([]models.NetworkLog, bool) {
	return s.page.logs, false
}

func (s *stubSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

func (s *stubSession) calls() []browser.WaitStrategy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]browser.WaitStrategy(nil), s.navCalls...)
}

func (s *stubSession) timeouts() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.navTimeouts...)
}

// stubEngine hands out sessions showing pages[i], repeating the last page.
type stubEngine struct {
	pages     []stubPage
	createErr error

	mu       sync.Mutex
	sessions []*stubSession
}

func newStubEngine(pages ...stubPage) *stubEngine {
	return &stubEngine{pages: pages}
}

func (e *stubEngine) NewSession(ctx context.Context, opts browser.SessionOptions) (browser.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.createErr != nil {
		return nil, e.createErr
	}
	i := len(e.sessions)
	if i >= len(e.pages) {
		i = len(e.pages) - 1
	}
	s := &stubSession{page: e.pages[i], opts: opts}
	e.sessions = append(e.sessions, s)
	return s, nil
}

func (e *stubEngine) all() []*stubSession {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*stubSession(nil), e.sessions...)
}

// assertClosedOnce checks the one-session-one-close invariant.
func assertClosedOnce(t *testing.T, e *stubEngine) {
	t.Helper()
	for i, s := range e.all() {
		s.mu.Lock()
		assert.Equal(t, 1, s.closes, "session %d close count", i)
		s.mu.Unlock()
	}
}

type stubExtractor struct {
	content string
	err     error

	mu    sync.Mutex
	calls int
	kind  models.OutputKind
	opts  cleaner.Options
}

func (x *stubExtractor) Extract(ctx context.Context, html string, kind models.OutputKind, opts cleaner.Options) (string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.calls++
	x.kind = kind
	x.opts = opts
	return x.content, x.err
}

func (x *stubExtractor) callCount() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.calls
}

// sleepLog records every pause and yields for a millisecond instead of
// sleeping, so polling loops stay bounded by their real budgets.
type sleepLog struct {
	mu     sync.Mutex
	pauses []time.Duration
}

func (l *sleepLog) sleep(ctx context.Context, d time.Duration) error {
	l.mu.Lock()
	l.pauses = append(l.pauses, d)
	l.mu.Unlock()
	select {
	case <-ctx.Done():
	case <-time.After(time.Millisecond):
	}
	return ctx.Err()
}

func (l *sleepLog) all() []time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]time.Duration(nil), l.pauses...)
}

func testConfig() *config.Config {
	return &config.Config{
		Fetch: config.FetchConfig{
			NavigationTimeout: time.Second,
			MaxTimeout:        10 * time.Second,
			CommitSettle:      10 * time.Millisecond,
			StrategyPause:     time.Second,
			DefaultMaxRetries: 2,
			BackoffBase:       time.Second,
			Strategies:        []string{"commit", "domcontentloaded", "load"},
			ReadinessBudget:   200 * time.Millisecond,
			IdleTimeout:       10 * time.Millisecond,
			SelectorTimeout:   10 * time.Millisecond,
			ScrollMaxSteps:    30,
			BlockTrackers:     true,
		},
		Extraction: config.ExtractionConfig{
			Workers:                2,
			MinContentLength:       50,
			MinStructuralText:      200,
			MinDocumentLength:      100,
			SoftErrorTextThreshold: 300,
			MinRenderedText:        300,
			RepeatThreshold:        2,
		},
		Debug: config.DebugConfig{
			Enabled:       true,
			MaxLogEntries: 100,
			MaxWait:       5 * time.Second,
		},
		Heuristics: config.DefaultHeuristics(),
	}
}

func newTestFetcher(t *testing.T, eng *stubEngine, ext *stubExtractor) (*Fetcher, *sleepLog) {
	t.Helper()
	f, err := New(testConfig(), Deps{Engine: eng, Extractor: ext, InitScript: "/* evasion */"})
	require.NoError(t, err)
	t.Cleanup(f.Close)

	sl := &sleepLog{}
	f.sleep = sl.sleep
	return f, sl
}

func fetchReq(maxRetries int) models.FetchRequest {
	return models.FetchRequest{
		URL:        "https://example.com/jobs/1",
		Output:     models.OutputText,
		MaxRetries: maxRetries,
	}
}
