package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Browser    BrowserConfig
	Fetch      FetchConfig
	Extraction ExtractionConfig
	Auth       AuthConfig
	RateLimit  RateLimitConfig
	CORS       CORSConfig
	Admission  AdmissionConfig
	Cache      CacheConfig
	Log        LogConfig
	Debug      DebugConfig
	Heuristics *Heuristics
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the shared Chromium process.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// ControlURL connects to an already running browser instead of launching one.
	ControlURL string
}

// FetchConfig controls navigation, readiness and retry behaviour.
type FetchConfig struct {
	// NavigationTimeout bounds a single navigate call when the caller gives
	// no timeout. The retry loop is capped by attempts, not by wall clock.
	NavigationTimeout time.Duration // default: 45s

	// MaxTimeout caps the caller supplied navigation timeout.
	MaxTimeout time.Duration // default: 180s

	// CommitSettle bounds the post-commit wait for a parsed body.
	CommitSettle time.Duration // default: 15s

	// StrategyPause separates two strategies of the same attempt.
	StrategyPause time.Duration // default: 1s

	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries int // default: 2

	// BackoffBase is multiplied by 2^attempt between attempts.
	BackoffBase time.Duration // default: 1s

	// Strategies lists navigation wait strategies from loosest to strictest.
	Strategies []string // default: ["commit", "domcontentloaded", "load"]

	// ReadinessBudget bounds the whole readiness detection step.
	ReadinessBudget time.Duration // default: 20s

	// IdleTimeout bounds the network idle sub-check.
	IdleTimeout time.Duration // default: 10s

	// SelectorTimeout bounds each content selector wait.
	SelectorTimeout time.Duration // default: 2s

	// ScrollMaxSteps caps the lazy-load scroll sweep.
	ScrollMaxSteps int // default: 30

	// BlockedResourceTypes lists heavy resource classes to abort.
	// default: none, SPA rendering may depend on them
	BlockedResourceTypes []string

	// BlockTrackers aborts requests to the tracker deny-list.
	BlockTrackers bool // default: true
}

// ExtractionConfig controls the extraction chain thresholds.
type ExtractionConfig struct {
	// Workers sizes the CPU-bound extraction lane.
	Workers int // default: 4

	// MinContentLength is the minimum accepted content length.
	MinContentLength int // default: 50

	// MinStructuralText is the minimum text for structural pre-extraction.
	MinStructuralText int // default: 200

	// MinDocumentLength rejects nearly empty serialized documents.
	MinDocumentLength int // default: 100

	// SoftErrorTextThreshold separates short error pages from rendered content.
	SoftErrorTextThreshold int // default: 300

	// MinRenderedText is the visible text length the readiness check waits for.
	MinRenderedText int // default: 300

	// RepeatThreshold suppresses short lines seen more often than this.
	RepeatThreshold int // default: 2
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-identity rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per identity.
	RequestsPerSecond float64 // default: 0.1 (6/minute)

	// Burst is the maximum burst size per identity.
	Burst int // default: 6
}

// CORSConfig controls cross-origin access to the API.
type CORSConfig struct {
	// AllowOrigins lists origins allowed to call the API; "*" allows any.
	// default: none, CORS headers are not sent
	AllowOrigins []string
}

// AdmissionConfig bounds concurrently open sessions.
type AdmissionConfig struct {
	// MaxSessions is the number of fetches allowed in flight.
	MaxSessions int // default: 8

	// QueueTimeout is how long a request may wait for a free slot.
	QueueTimeout time.Duration // default: 10s
}

// CacheConfig controls the fetch response cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached responses.
	MaxEntries int // default: 1000
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// DebugConfig controls the network debug endpoint.
type DebugConfig struct {
	// Enabled exposes /api/v1/debug/network.
	Enabled bool // default: true

	// MaxLogEntries bounds the captured event log.
	MaxLogEntries int // default: 2000

	// MaxWait caps the caller supplied post-load wait.
	MaxWait time.Duration // default: 30s
}

// Load reads configuration from environment variables with sane defaults.
// Heuristic data comes from the built-in defaults, optionally overridden by
// the YAML file named in PAGEFETCH_HEURISTICS_FILE.
func Load() (*Config, error) {
	heuristics, err := LoadHeuristics(os.Getenv("PAGEFETCH_HEURISTICS_FILE"))
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: ServerConfig{
			Host: envOr("PAGEFETCH_HOST", "0.0.0.0"),
			Port: envIntOr("PAGEFETCH_PORT", 8080),
			Mode: envOr("PAGEFETCH_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("PAGEFETCH_HEADLESS", true),
			NoSandbox:  envBoolOr("PAGEFETCH_NO_SANDBOX", false),
			BrowserBin: os.Getenv("PAGEFETCH_BROWSER_BIN"),
			ControlURL: os.Getenv("PAGEFETCH_CONTROL_URL"),
		},
		Fetch: FetchConfig{
			NavigationTimeout:    envDurationOr("PAGEFETCH_NAV_TIMEOUT", 45*time.Second),
			MaxTimeout:           envDurationOr("PAGEFETCH_MAX_TIMEOUT", 180*time.Second),
			CommitSettle:         envDurationOr("PAGEFETCH_COMMIT_SETTLE", 15*time.Second),
			StrategyPause:        envDurationOr("PAGEFETCH_STRATEGY_PAUSE", time.Second),
			DefaultMaxRetries:    envIntOr("PAGEFETCH_MAX_RETRIES", 2),
			BackoffBase:          envDurationOr("PAGEFETCH_BACKOFF_BASE", time.Second),
			Strategies:           envSliceOr("PAGEFETCH_STRATEGIES", []string{"commit", "domcontentloaded", "load"}),
			ReadinessBudget:      envDurationOr("PAGEFETCH_READINESS_BUDGET", 20*time.Second),
			IdleTimeout:          envDurationOr("PAGEFETCH_IDLE_TIMEOUT", 10*time.Second),
			SelectorTimeout:      envDurationOr("PAGEFETCH_SELECTOR_TIMEOUT", 2*time.Second),
			ScrollMaxSteps:       envIntOr("PAGEFETCH_SCROLL_MAX_STEPS", 30),
			BlockedResourceTypes: envSliceOr("PAGEFETCH_BLOCKED_RESOURCES", nil),
			BlockTrackers:        envBoolOr("PAGEFETCH_BLOCK_TRACKERS", true),
		},
		Extraction: ExtractionConfig{
			Workers:                envIntOr("PAGEFETCH_EXTRACT_WORKERS", 4),
			MinContentLength:       envIntOr("PAGEFETCH_MIN_CONTENT", 50),
			MinStructuralText:      envIntOr("PAGEFETCH_MIN_STRUCTURAL_TEXT", 200),
			MinDocumentLength:      envIntOr("PAGEFETCH_MIN_DOCUMENT", 100),
			SoftErrorTextThreshold: envIntOr("PAGEFETCH_SOFT_ERROR_TEXT", 300),
			MinRenderedText:        envIntOr("PAGEFETCH_MIN_RENDERED_TEXT", 300),
			RepeatThreshold:        envIntOr("PAGEFETCH_REPEAT_THRESHOLD", 2),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("PAGEFETCH_AUTH_ENABLED", false),
			APIKeys: envSliceOr("PAGEFETCH_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("PAGEFETCH_RATE_RPS", 0.1),
			Burst:             envIntOr("PAGEFETCH_RATE_BURST", 6),
		},
		CORS: CORSConfig{
			AllowOrigins: envSliceOr("PAGEFETCH_CORS_ORIGINS", nil),
		},
		Admission: AdmissionConfig{
			MaxSessions:  envIntOr("PAGEFETCH_MAX_SESSIONS", 8),
			QueueTimeout: envDurationOr("PAGEFETCH_QUEUE_TIMEOUT", 10*time.Second),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("PAGEFETCH_CACHE_MAX_ENTRIES", 1000),
		},
		Log: LogConfig{
			Level:  envOr("PAGEFETCH_LOG_LEVEL", "info"),
			Format: envOr("PAGEFETCH_LOG_FORMAT", "json"),
		},
		Debug: DebugConfig{
			Enabled:       envBoolOr("PAGEFETCH_DEBUG_ENABLED", true),
			MaxLogEntries: envIntOr("PAGEFETCH_DEBUG_MAX_LOGS", 2000),
			MaxWait:       envDurationOr("PAGEFETCH_DEBUG_MAX_WAIT", 30*time.Second),
		},
		Heuristics: heuristics,
	}, nil
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
