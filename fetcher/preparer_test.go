package fetcher

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/pagefetch/config"
)

const (
	chromeWindowsUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
	edgeUA          = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36 Edg/130.0.0.0"
	macUA           = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
	firefoxUA       = "Mozilla/5.0 (X11; Linux x86_64; rv:133.0) Gecko/20100101 Firefox/133.0"
)

func TestPreparer_Identity(t *testing.T) {
	h := config.DefaultHeuristics()
	h.UserAgents = []string{chromeWindowsUA}
	p := NewPreparer(newStubEngine(articlePage()), h, config.FetchConfig{}, "")

	id := p.identity("https://jobs.example.com/role/7")
	assert.Equal(t, chromeWindowsUA, id.UserAgent)
	assert.Equal(t, "Win32", id.Platform)
	assert.Equal(t, 1920, id.Viewport.Width)
	assert.Equal(t, 1080, id.Viewport.Height)
	assert.Equal(t, "en-US", id.Locale)
	assert.Equal(t, "America/New_York", id.Timezone)
	assert.Equal(t, `"Windows"`, id.Headers["Sec-CH-UA-Platform"])
	assert.Equal(t, `"Google Chrome";v="131", "Chromium";v="131", "Not.A/Brand";v="24"`, id.Headers["Sec-CH-UA"])
	assert.Equal(t, "https://www.google.com/search?q=jobs.example.com", id.Headers["Referer"])
	assert.Equal(t, "navigate", id.Headers["Sec-Fetch-Mode"])
}

func TestSecCHUA(t *testing.T) {
	assert.Contains(t, secCHUA(edgeUA), `"Microsoft Edge";v="130"`)
	assert.Contains(t, secCHUA(macUA), `"Google Chrome";v="131"`)
	assert.Empty(t, secCHUA(firefoxUA))
}

func TestUAPlatform(t *testing.T) {
	hint, nav := uaPlatform(macUA)
	assert.Equal(t, "macOS", hint)
	assert.Equal(t, "MacIntel", nav)

	hint, nav = uaPlatform(firefoxUA)
	assert.Equal(t, "Linux", hint)
	assert.Equal(t, "Linux x86_64", nav)
}

func TestLease_RenewClosesPrevious(t *testing.T) {
	eng := newStubEngine(articlePage())
	p := NewPreparer(eng, config.DefaultHeuristics(), config.FetchConfig{}, "")

	l, err := p.acquire(context.Background(), "https://example.com/")
	require.NoError(t, err)
	first := l.Session()

	require.NoError(t, l.Renew(context.Background()))
	assert.NotSame(t, first, l.Session())

	l.Release()
	l.Release()
	assertClosedOnce(t, eng)
	assert.Len(t, eng.all(), 2)
}

func TestLease_RenewFailureLeavesNoSession(t *testing.T) {
	eng := newStubEngine(articlePage())
	p := NewPreparer(eng, config.DefaultHeuristics(), config.FetchConfig{}, "")

	l, err := p.acquire(context.Background(), "https://example.com/")
	require.NoError(t, err)

	eng.createErr = errors.New("browser gone")
	require.Error(t, l.Renew(context.Background()))
	assert.Nil(t, l.Session())

	l.Release()
	assertClosedOnce(t, eng)
}
