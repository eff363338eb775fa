package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"commit", "domcontentloaded", "load"}, cfg.Fetch.Strategies)
	assert.Equal(t, 2, cfg.Fetch.DefaultMaxRetries)
	assert.Equal(t, time.Second, cfg.Fetch.BackoffBase)
	assert.Equal(t, 4, cfg.Extraction.Workers)
	assert.Equal(t, 50, cfg.Extraction.MinContentLength)
	assert.True(t, cfg.Fetch.BlockTrackers)
	assert.Empty(t, cfg.Fetch.BlockedResourceTypes)
	assert.Equal(t, 45*time.Second, cfg.Fetch.NavigationTimeout)
	assert.Empty(t, cfg.CORS.AllowOrigins)
	require.NotNil(t, cfg.Heuristics)
	assert.NotEmpty(t, cfg.Heuristics.UserAgents)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PAGEFETCH_PORT", "9999")
	t.Setenv("PAGEFETCH_STRATEGIES", "domcontentloaded, load")
	t.Setenv("PAGEFETCH_BACKOFF_BASE", "250ms")
	t.Setenv("PAGEFETCH_BLOCKED_RESOURCES", "Image,Font")
	t.Setenv("PAGEFETCH_CORS_ORIGINS", "https://app.example.com, http://localhost:3000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, []string{"domcontentloaded", "load"}, cfg.Fetch.Strategies)
	assert.Equal(t, 250*time.Millisecond, cfg.Fetch.BackoffBase)
	assert.Equal(t, []string{"Image", "Font"}, cfg.Fetch.BlockedResourceTypes)
	assert.Equal(t, []string{"https://app.example.com", "http://localhost:3000"}, cfg.CORS.AllowOrigins)
}

func TestLoad_InvalidNumberFallsBack(t *testing.T) {
	t.Setenv("PAGEFETCH_EXTRACT_WORKERS", "many")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Extraction.Workers)
}

func TestLoadHeuristics_FileOverridesNonEmptyLists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heuristics.yaml")
	body := "positive_terms: [ingredients, method]\nstructural_selectors: ['.recipe-body']\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	h, err := LoadHeuristics(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"ingredients", "method"}, h.PositiveTerms)
	assert.Equal(t, []string{".recipe-body"}, h.StructuralSelectors)
	// Untouched lists keep their defaults.
	assert.Equal(t, DefaultHeuristics().NotFoundPhrases, h.NotFoundPhrases)
}

func TestLoadHeuristics_RejectsBadSelector(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heuristics.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fallback_selectors: ['div[[']\n"), 0o600))

	_, err := LoadHeuristics(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fallback_selectors")
}

func TestLoadHeuristics_MissingFile(t *testing.T) {
	_, err := LoadHeuristics(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_HeuristicsFileFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "h.yaml")
	require.NoError(t, os.WriteFile(path, []byte("user_agents: [test-agent/1.0]\n"), 0o600))
	t.Setenv("PAGEFETCH_HEURISTICS_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"test-agent/1.0"}, cfg.Heuristics.UserAgents)
}
