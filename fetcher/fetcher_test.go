package fetcher

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/pagefetch/browser"
	"github.com/use-agent/pagefetch/config"
	"github.com/use-agent/pagefetch/metrics"
	"github.com/use-agent/pagefetch/models"
)

func primaryText() *stubExtractor {
	return &stubExtractor{content: "Senior engineer role. " + longText}
}

func TestFetchContent_FastPath(t *testing.T) {
	eng := newStubEngine(articlePage())
	ext := primaryText()
	f, sl := newTestFetcher(t, eng, ext)

	res, err := f.FetchContent(context.Background(), fetchReq(2))
	require.NoError(t, err)

	assert.Equal(t, SourcePrimary, res.Source)
	assert.Equal(t, 200, res.Status)
	assert.False(t, res.SoftError)
	assert.Equal(t, browser.WaitCommit, res.Strategy)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, "https://example.com/jobs/1", res.FinalURL)
	assert.Equal(t, "Role", res.Metadata.Title)
	assert.True(t, res.Render.ContentFound)
	assert.Equal(t, "article", res.Render.MatchedSelector)
	assert.True(t, strings.HasPrefix(res.Content, "Senior engineer role."))

	assert.Equal(t, models.OutputText, ext.kind)
	assert.True(t, ext.opts.IncludeTables)
	assert.True(t, ext.opts.Deduplicate)
	assert.True(t, ext.opts.ExcludeComments)

	sessions := eng.all()
	require.Len(t, sessions, 1)
	assert.Equal(t, []browser.WaitStrategy{browser.WaitCommit}, sessions[0].calls())
	assert.Equal(t, "/* evasion */", sessions[0].opts.InitScript)
	assert.Equal(t, []time.Duration{scrollSettle}, sl.all())
	assertClosedOnce(t, eng)
}

func TestFetchContent_Hard404(t *testing.T) {
	p := articlePage()
	p.nav[browser.WaitCommit] = committed(404)
	p.bodyText = "404 Page Not Found"
	eng := newStubEngine(p)
	ext := primaryText()
	f, _ := newTestFetcher(t, eng, ext)

	_, err := f.FetchContent(context.Background(), fetchReq(2))
	require.Error(t, err)
	assert.Equal(t, models.ErrNotFound, models.KindOf(err))
	assert.Zero(t, ext.callCount())
	assertClosedOnce(t, eng)
}

func TestFetchContent_HardServerError(t *testing.T) {
	p := articlePage()
	p.nav[browser.WaitCommit] = committed(500)
	p.bodyText = strings.Repeat("Service failure on upstream host. ", 12)
	eng := newStubEngine(p)
	f, _ := newTestFetcher(t, eng, primaryText())

	_, err := f.FetchContent(context.Background(), fetchReq(2))
	assert.Equal(t, models.ErrUpstreamBadGateway, models.KindOf(err))
	assertClosedOnce(t, eng)
}

func TestFetchContent_Soft404(t *testing.T) {
	p := articlePage()
	p.nav[browser.WaitCommit] = committed(404)
	p.bodyText = "Job Description\nResponsibilities: ship features.\n" + longText + "\nApply now"
	eng := newStubEngine(p)
	f, _ := newTestFetcher(t, eng, primaryText())

	res, err := f.FetchContent(context.Background(), fetchReq(2))
	require.NoError(t, err)
	assert.True(t, res.SoftError)
	assert.Equal(t, 404, res.Status)
	assert.NotEmpty(t, res.Content)
	assertClosedOnce(t, eng)
}

func TestFetchContent_ThirdStrategyCommits(t *testing.T) {
	p := articlePage()
	p.nav = map[browser.WaitStrategy]navResult{
		browser.WaitCommit:           timedOut(browser.WaitCommit),
		browser.WaitDOMContentLoaded: timedOut(browser.WaitDOMContentLoaded),
		browser.WaitLoad:             committed(200),
	}
	eng := newStubEngine(p)
	f, sl := newTestFetcher(t, eng, primaryText())

	res, err := f.FetchContent(context.Background(), fetchReq(2))
	require.NoError(t, err)

	assert.Equal(t, browser.WaitLoad, res.Strategy)
	assert.Equal(t, 1, res.Attempts)
	assert.False(t, res.Rescued)

	sessions := eng.all()
	require.Len(t, sessions, 1)
	assert.Equal(t, []browser.WaitStrategy{browser.WaitCommit, browser.WaitDOMContentLoaded, browser.WaitLoad}, sessions[0].calls())
	// Two strategy pauses, no backoff.
	assert.Equal(t, []time.Duration{time.Second, time.Second, scrollSettle}, sl.all())
	assertClosedOnce(t, eng)
}

func TestFetchContent_RetriesExhausted(t *testing.T) {
	p := articlePage()
	p.nav = map[browser.WaitStrategy]navResult{}
	eng := newStubEngine(p)
	f, sl := newTestFetcher(t, eng, primaryText())

	_, err := f.FetchContent(context.Background(), fetchReq(2))
	require.Error(t, err)
	assert.Equal(t, models.ErrRequestTimeout, models.KindOf(err))
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Contains(t, err.Error(), "https://example.com/jobs/1")

	sessions := eng.all()
	require.Len(t, sessions, 3)
	for _, s := range sessions {
		assert.Len(t, s.calls(), 3)
	}
	assert.Equal(t, []time.Duration{
		time.Second, time.Second, 2 * time.Second,
		time.Second, time.Second, 4 * time.Second,
		time.Second, time.Second,
	}, sl.all())
	assertClosedOnce(t, eng)
}

func TestFetchContent_RetrySucceedsOnFreshSession(t *testing.T) {
	failing := articlePage()
	failing.nav = map[browser.WaitStrategy]navResult{}
	eng := newStubEngine(failing, articlePage())
	f, _ := newTestFetcher(t, eng, primaryText())

	res, err := f.FetchContent(context.Background(), fetchReq(1))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, browser.WaitCommit, res.Strategy)
	assert.Len(t, eng.all(), 2)
	assertClosedOnce(t, eng)
}

func TestFetchContent_ZeroRetries(t *testing.T) {
	p := articlePage()
	p.nav = map[browser.WaitStrategy]navResult{}
	eng := newStubEngine(p)
	f, _ := newTestFetcher(t, eng, primaryText())

	_, err := f.FetchContent(context.Background(), fetchReq(0))
	assert.Equal(t, models.ErrRequestTimeout, models.KindOf(err))
	assert.Contains(t, err.Error(), "after 1 attempts")
	assert.Len(t, eng.all(), 1)
	assertClosedOnce(t, eng)
}

func TestFetchContent_HardNetworkErrorAborts(t *testing.T) {
	p := articlePage()
	p.nav = map[browser.WaitStrategy]navResult{
		browser.WaitCommit: {err: &browser.NetError{Reason: "net::ERR_NAME_NOT_RESOLVED"}},
	}
	eng := newStubEngine(p)
	f, _ := newTestFetcher(t, eng, primaryText())

	_, err := f.FetchContent(context.Background(), fetchReq(2))
	assert.Equal(t, models.ErrUpstreamBadGateway, models.KindOf(err))

	sessions := eng.all()
	require.Len(t, sessions, 1)
	assert.Equal(t, []browser.WaitStrategy{browser.WaitCommit}, sessions[0].calls())
	assertClosedOnce(t, eng)
}

func TestFetchContent_TransientErrorIsRetried(t *testing.T) {
	p := articlePage()
	p.nav = map[browser.WaitStrategy]navResult{
		browser.WaitCommit:           {err: &browser.NetError{Reason: "net::ERR_CONNECTION_RESET"}},
		browser.WaitDOMContentLoaded: committed(200),
	}
	eng := newStubEngine(p)
	f, _ := newTestFetcher(t, eng, primaryText())

	res, err := f.FetchContent(context.Background(), fetchReq(2))
	require.NoError(t, err)
	assert.Equal(t, browser.WaitDOMContentLoaded, res.Strategy)
	assertClosedOnce(t, eng)
}

func TestFetchContent_RescuesPartialContent(t *testing.T) {
	p := articlePage()
	p.nav = map[browser.WaitStrategy]navResult{}
	p.partial = "<html><body><article><p>" + longText + "</p></article></body></html>"
	eng := newStubEngine(p)
	f, _ := newTestFetcher(t, eng, primaryText())

	res, err := f.FetchContent(context.Background(), fetchReq(2))
	require.NoError(t, err)
	assert.True(t, res.Rescued)
	assert.Equal(t, browser.WaitCommit, res.Strategy)
	assert.Equal(t, 200, res.Status)
	assert.Equal(t, "https://example.com/jobs/1", res.FinalURL)
	assertClosedOnce(t, eng)
}

func TestFetchContent_TinyPartialIsNotRescued(t *testing.T) {
	p := articlePage()
	p.nav = map[browser.WaitStrategy]navResult{}
	p.partial = "<html><body></body></html>"
	eng := newStubEngine(p)
	f, _ := newTestFetcher(t, eng, primaryText())

	_, err := f.FetchContent(context.Background(), fetchReq(0))
	assert.Equal(t, models.ErrRequestTimeout, models.KindOf(err))
	assertClosedOnce(t, eng)
}

func TestFetchContent_SlowStrategiesFallThrough(t *testing.T) {
	p := articlePage()
	p.slow = map[browser.WaitStrategy]bool{browser.WaitCommit: true, browser.WaitDOMContentLoaded: true}
	p.nav = map[browser.WaitStrategy]navResult{browser.WaitLoad: committed(200)}
	eng := newStubEngine(p)
	f, _ := newTestFetcher(t, eng, primaryText())

	req := fetchReq(2)
	req.Timeout = 50 * time.Millisecond
	start := time.Now()
	res, err := f.FetchContent(context.Background(), req)
	require.NoError(t, err)

	// Two real navigation timeouts elapsed; the request timeout is not a
	// deadline for the whole fetch.
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, browser.WaitLoad, res.Strategy)
	assert.Equal(t, 1, res.Attempts)
	assert.False(t, res.Rescued)

	sessions := eng.all()
	require.Len(t, sessions, 1)
	assert.Equal(t, []browser.WaitStrategy{browser.WaitCommit, browser.WaitDOMContentLoaded, browser.WaitLoad}, sessions[0].calls())
	assert.Equal(t, []time.Duration{req.Timeout, req.Timeout, req.Timeout}, sessions[0].timeouts())
	assertClosedOnce(t, eng)
}

func TestFetchContent_SlowCommitIsRescued(t *testing.T) {
	p := articlePage()
	p.slow = map[browser.WaitStrategy]bool{browser.WaitCommit: true}
	p.partial = "<html><body><article><p>" + longText + "</p></article></body></html>"
	eng := newStubEngine(p)
	f, _ := newTestFetcher(t, eng, primaryText())

	req := fetchReq(2)
	req.Timeout = 50 * time.Millisecond
	res, err := f.FetchContent(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, res.Rescued)
	assert.Equal(t, browser.WaitCommit, res.Strategy)
	assert.Equal(t, 200, res.Status)
	assert.Equal(t, []browser.WaitStrategy{browser.WaitCommit}, eng.all()[0].calls())
	assertClosedOnce(t, eng)
}

func TestFetchContent_SlowAttemptIsRetried(t *testing.T) {
	slow := articlePage()
	slow.slow = map[browser.WaitStrategy]bool{
		browser.WaitCommit:           true,
		browser.WaitDOMContentLoaded: true,
		browser.WaitLoad:             true,
	}
	eng := newStubEngine(slow, articlePage())
	f, _ := newTestFetcher(t, eng, primaryText())

	req := fetchReq(1)
	req.Timeout = 30 * time.Millisecond
	res, err := f.FetchContent(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, browser.WaitCommit, res.Strategy)
	require.Len(t, eng.all(), 2)
	assertClosedOnce(t, eng)
}

func TestFetchContent_CallerDeadlineEndsSlowNavigation(t *testing.T) {
	p := articlePage()
	p.slow = map[browser.WaitStrategy]bool{browser.WaitCommit: true}
	eng := newStubEngine(p)
	f, _ := newTestFetcher(t, eng, primaryText())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	req := fetchReq(2)
	req.Timeout = 5 * time.Second
	_, err := f.FetchContent(ctx, req)

	assert.Equal(t, models.ErrRequestTimeout, models.KindOf(err))
	require.Len(t, eng.all(), 1)
	assert.Equal(t, []browser.WaitStrategy{browser.WaitCommit}, eng.all()[0].calls())
	assertClosedOnce(t, eng)
}

func TestFetchContent_ReadinessFallsBackToVisibleText(t *testing.T) {
	p := articlePage()
	p.selectors = map[string]bool{"body": true}
	eng := newStubEngine(p)
	f, sl := newTestFetcher(t, eng, primaryText())

	res, err := f.FetchContent(context.Background(), fetchReq(2))
	require.NoError(t, err)

	assert.Equal(t, RenderState{ContentFound: true}, res.Render)
	assert.Equal(t, SourcePrimary, res.Source)
	// Text was already long enough on the first probe.
	assert.Equal(t, []time.Duration{scrollSettle}, sl.all())
	assertClosedOnce(t, eng)
}

func TestFetchContent_ReadinessNothingMatchedStillExtracts(t *testing.T) {
	p := articlePage()
	p.selectors = map[string]bool{"body": true}
	p.bodyText = "Loading"
	eng := newStubEngine(p)
	ext := primaryText()
	f, sl := newTestFetcher(t, eng, ext)

	res, err := f.FetchContent(context.Background(), fetchReq(2))
	require.NoError(t, err)

	assert.Equal(t, RenderState{}, res.Render)
	assert.Equal(t, SourcePrimary, res.Source)
	assert.Equal(t, 1, ext.callCount())
	assert.Contains(t, sl.all(), textPollInterval)
	assertClosedOnce(t, eng)
}

func TestFetchContent_ReadinessIdleFailureFallsThrough(t *testing.T) {
	p := articlePage()
	p.idleErr = errors.New("dom kept changing")
	eng := newStubEngine(p)
	f, _ := newTestFetcher(t, eng, primaryText())

	res, err := f.FetchContent(context.Background(), fetchReq(2))
	require.NoError(t, err)

	assert.Equal(t, RenderState{ContentFound: true, MatchedSelector: "article"}, res.Render)
	assertClosedOnce(t, eng)
}

func TestFetchContent_GenericFallbackOnEmptyPrimary(t *testing.T) {
	p := articlePage()
	p.generic = "<h1>Role</h1><p>" + longText + "</p>"
	eng := newStubEngine(p)
	ext := &stubExtractor{}
	f, _ := newTestFetcher(t, eng, ext)

	res, err := f.FetchContent(context.Background(), fetchReq(2))
	require.NoError(t, err)
	assert.Equal(t, SourceGeneric, res.Source)
	assert.Equal(t, 1, ext.callCount())
	assert.Contains(t, res.Content, "resilient systems")
	assertClosedOnce(t, eng)
}

func TestFetchContent_PrimaryErrorFallsThrough(t *testing.T) {
	p := articlePage()
	p.generic = "<p>" + longText + "</p>"
	eng := newStubEngine(p)
	f, _ := newTestFetcher(t, eng, &stubExtractor{err: errors.New("parser exploded")})

	res, err := f.FetchContent(context.Background(), fetchReq(2))
	require.NoError(t, err)
	assert.Equal(t, SourceGeneric, res.Source)
	assertClosedOnce(t, eng)
}

func TestFetchContent_StructuralMatchSkipsPrimary(t *testing.T) {
	p := articlePage()
	p.html = `<html><body><nav>Home</nav><div class="job-description"><p>` + longText + `</p></div></body></html>`
	eng := newStubEngine(p)
	ext := primaryText()
	f, _ := newTestFetcher(t, eng, ext)

	res, err := f.FetchContent(context.Background(), fetchReq(2))
	require.NoError(t, err)
	assert.Equal(t, SourceStructural, res.Source)
	assert.Equal(t, longText, res.Content)
	assert.Zero(t, ext.callCount())
	assertClosedOnce(t, eng)
}

func TestFetchContent_NoContent(t *testing.T) {
	eng := newStubEngine(articlePage())
	f, _ := newTestFetcher(t, eng, &stubExtractor{})

	_, err := f.FetchContent(context.Background(), fetchReq(2))
	assert.Equal(t, models.ErrNoContentExtracted, models.KindOf(err))
	assertClosedOnce(t, eng)
}

func TestFetchContent_EmptyDocument(t *testing.T) {
	p := articlePage()
	p.html = "<html><body></body></html>"
	eng := newStubEngine(p)
	ext := primaryText()
	f, _ := newTestFetcher(t, eng, ext)

	_, err := f.FetchContent(context.Background(), fetchReq(2))
	require.Error(t, err)
	assert.Equal(t, models.ErrNoContentExtracted, models.KindOf(err))
	assert.Contains(t, err.Error(), "page returned empty content")
	assert.Zero(t, ext.callCount())
	assertClosedOnce(t, eng)
}

func TestFetchContent_Idempotent(t *testing.T) {
	p := articlePage()
	ext := &stubExtractor{content: "Title\n\n" + longText + "\n\nApply\nApply\nApply\n\n" + longText}

	first, err := mustFetcher(t, p, ext).FetchContent(context.Background(), fetchReq(2))
	require.NoError(t, err)
	second, err := mustFetcher(t, p, ext).FetchContent(context.Background(), fetchReq(2))
	require.NoError(t, err)

	assert.Equal(t, first.Content, second.Content)
	assert.Equal(t, 1, strings.Count(first.Content, longText))
}

func mustFetcher(t *testing.T, p stubPage, ext *stubExtractor) *Fetcher {
	f, _ := newTestFetcher(t, newStubEngine(p), ext)
	return f
}

func TestFetchContent_SessionCreationFails(t *testing.T) {
	eng := newStubEngine(articlePage())
	eng.createErr = errors.New("browser gone")
	f, _ := newTestFetcher(t, eng, primaryText())

	_, err := f.FetchContent(context.Background(), fetchReq(2))
	fe := models.AsFetchError(err)
	assert.Equal(t, models.ErrInternal, fe.Kind)
	assert.Equal(t, models.SubKindBrowser, fe.SubKind)
}

func TestFetchContent_CanceledContext(t *testing.T) {
	eng := newStubEngine(articlePage())
	f, _ := newTestFetcher(t, eng, primaryText())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.FetchContent(ctx, fetchReq(2))
	fe := models.AsFetchError(err)
	assert.Equal(t, models.ErrRequestTimeout, fe.Kind)
	assert.Equal(t, models.SubKindCanceled, fe.SubKind)
	assert.Len(t, eng.all(), 1)
	assertClosedOnce(t, eng)
}

func TestFetchContent_InvalidURL(t *testing.T) {
	eng := newStubEngine(articlePage())
	f, _ := newTestFetcher(t, eng, primaryText())

	_, err := f.FetchContent(context.Background(), models.FetchRequest{URL: "ftp://example.com/x"})
	assert.Equal(t, models.ErrInternal, models.KindOf(err))
	assert.Empty(t, eng.all())
}

func TestFetchContent_RecordsMetrics(t *testing.T) {
	eng := newStubEngine(articlePage())
	m := metrics.New()
	f, err := New(testConfig(), Deps{Engine: eng, Extractor: primaryText(), Metrics: m})
	require.NoError(t, err)
	t.Cleanup(f.Close)
	f.sleep = (&sleepLog{}).sleep

	_, err = f.FetchContent(context.Background(), fetchReq(2))
	require.NoError(t, err)

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, fam := range families {
		names = append(names, fam.GetName())
	}
	assert.Contains(t, names, "pagefetch_fetches_total")
	assert.Contains(t, names, "pagefetch_navigations_total")
}

func TestNew_Validation(t *testing.T) {
	cfg := testConfig()
	_, err := New(cfg, Deps{Extractor: primaryText()})
	assert.Error(t, err)

	_, err = New(cfg, Deps{Engine: newStubEngine(articlePage())})
	assert.Error(t, err)

	bad := testConfig()
	bad.Fetch.Strategies = []string{"networkidle"}
	_, err = New(bad, Deps{Engine: newStubEngine(articlePage()), Extractor: primaryText()})
	assert.Error(t, err)

	empty := testConfig()
	empty.Fetch.Strategies = nil
	_, err = New(empty, Deps{Engine: newStubEngine(articlePage()), Extractor: primaryText()})
	assert.Error(t, err)
}

func TestFetcher_NavTimeout(t *testing.T) {
	f, _ := newTestFetcher(t, newStubEngine(articlePage()), primaryText())

	assert.Equal(t, time.Second, f.navTimeout(0))
	assert.Equal(t, 7*time.Second, f.navTimeout(7*time.Second))
	assert.Equal(t, 10*time.Second, f.navTimeout(time.Hour))
}

func TestFetcher_Backoff(t *testing.T) {
	f, _ := newTestFetcher(t, newStubEngine(articlePage()), primaryText())

	assert.Equal(t, 2*time.Second, f.backoff(1))
	assert.Equal(t, 4*time.Second, f.backoff(2))
	assert.Equal(t, 8*time.Second, f.backoff(3))
}

func TestCategorizeError(t *testing.T) {
	fe := categorizeError(context.DeadlineExceeded, "slow")
	assert.Equal(t, models.ErrRequestTimeout, fe.Kind)
	assert.Empty(t, fe.SubKind)

	fe = categorizeError(context.Canceled, "gone")
	assert.Equal(t, models.ErrRequestTimeout, fe.Kind)
	assert.Equal(t, models.SubKindCanceled, fe.SubKind)

	fe = categorizeError(errors.New("boom"), "other")
	assert.Equal(t, models.ErrInternal, fe.Kind)
}

func TestCollectNetworkLogs(t *testing.T) {
	p := articlePage()
	p.nav = map[browser.WaitStrategy]navResult{browser.WaitDOMContentLoaded: committed(200)}
	p.logs = []models.NetworkLog{
		{Type: models.LogRequest, URL: "https://example.com/jobs/1", Method: "GET"},
		{Type: models.LogConsole, Message: "hello"},
	}
	eng := newStubEngine(p)
	f, sl := newTestFetcher(t, eng, primaryText())

	out, err := f.CollectNetworkLogs(context.Background(), "https://example.com/jobs/1", 2*time.Second, true)
	require.NoError(t, err)

	assert.Equal(t, "Role", out.PageTitle)
	assert.Equal(t, "https://example.com/jobs/1", out.FinalURL)
	assert.Equal(t, 2, out.TotalLogs)
	assert.Equal(t, models.LogConsole, out.Logs[1].Type)

	sessions := eng.all()
	require.Len(t, sessions, 1)
	opts := sessions[0].opts
	require.NotNil(t, opts.Record)
	assert.True(t, opts.Record.IncludeBody)
	assert.Equal(t, 100, opts.Record.MaxEntries)
	assert.Nil(t, opts.Intercept)
	assert.Equal(t, []time.Duration{2 * time.Second}, sl.all())
	assertClosedOnce(t, eng)
}

func TestCollectNetworkLogs_CapsWait(t *testing.T) {
	p := articlePage()
	p.nav = map[browser.WaitStrategy]navResult{browser.WaitDOMContentLoaded: committed(200)}
	eng := newStubEngine(p)
	f, sl := newTestFetcher(t, eng, primaryText())

	out, err := f.CollectNetworkLogs(context.Background(), "https://example.com/", time.Minute, false)
	require.NoError(t, err)
	assert.NotNil(t, out.Logs)
	assert.Equal(t, []time.Duration{5 * time.Second}, sl.all())
}

func TestPreparer_InterceptRules(t *testing.T) {
	h := config.DefaultHeuristics()

	p := NewPreparer(newStubEngine(articlePage()), h, config.FetchConfig{BlockTrackers: true}, "")
	assert.Equal(t, h.TrackerDomains, p.intercept.DenyDomains)

	p = NewPreparer(newStubEngine(articlePage()), h, config.FetchConfig{BlockedResourceTypes: []string{"Image"}}, "")
	assert.Empty(t, p.intercept.DenyDomains)
	assert.Equal(t, []string{"Image"}, p.intercept.BlockedResourceTypes)
}
