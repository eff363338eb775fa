package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/url"
	"regexp"
	"strings"

	"github.com/use-agent/pagefetch/browser"
	"github.com/use-agent/pagefetch/config"
	"github.com/use-agent/pagefetch/models"
)

// Fixed parts of the identity profile.
var defaultViewport = browser.Viewport{Width: 1920, Height: 1080}

const (
	defaultLocale         = "en-US"
	defaultTimezone       = "America/New_York"
	defaultAcceptLanguage = "en-US,en;q=0.9"
)

var chromeVersionRe = regexp.MustCompile(`Chrome/(\d+)`)

// Preparer builds ready sessions: rotated identity, evasion init script and
// interception rules, all applied before the first navigation.
type Preparer struct {
	engine     browser.Engine
	userAgents []string
	intercept  *browser.InterceptRules
	initScript string
}

// NewPreparer builds a Preparer. initScript is passed through to every
// session untouched.
func NewPreparer(engine browser.Engine, h *config.Heuristics, cfg config.FetchConfig, initScript string) *Preparer {
	rules := &browser.InterceptRules{BlockedResourceTypes: cfg.BlockedResourceTypes}
	if cfg.BlockTrackers {
		rules.DenyDomains = h.TrackerDomains
	}
	return &Preparer{
		engine:     engine,
		userAgents: h.UserAgents,
		intercept:  rules,
		initScript: initScript,
	}
}

// Prepare opens a new session for target. Failures are not retried here.
func (p *Preparer) Prepare(ctx context.Context, target string) (browser.Session, error) {
	id := p.identity(target)
	slog.Debug("preparing session", "url", target, "userAgent", id.UserAgent)

	s, err := p.engine.NewSession(ctx, browser.SessionOptions{
		Identity:   id,
		Intercept:  p.intercept,
		InitScript: p.initScript,
	})
	if err != nil {
		return nil, fmt.Errorf("prepare session: %w", err)
	}
	return s, nil
}

// identity picks a user agent from the pool and derives the matching client
// hint headers, so the UA string and Sec-CH-UA never contradict each other.
func (p *Preparer) identity(target string) browser.IdentityProfile {
	ua := p.userAgents[rand.IntN(len(p.userAgents))]
	platform, navPlatform := uaPlatform(ua)

	headers := map[string]string{
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
		"Accept-Language":           defaultAcceptLanguage,
		"Upgrade-Insecure-Requests": "1",
		"Sec-Fetch-Dest":            "document",
		"Sec-Fetch-Mode":            "navigate",
		"Sec-Fetch-Site":            "none",
		"Sec-Fetch-User":            "?1",
		"Sec-CH-UA-Mobile":          "?0",
		"Sec-CH-UA-Platform":        `"` + platform + `"`,
	}
	if hint := secCHUA(ua); hint != "" {
		headers["Sec-CH-UA"] = hint
	}
	if u, err := url.Parse(target); err == nil && u.Hostname() != "" {
		headers["Referer"] = "https://www.google.com/search?q=" + url.QueryEscape(u.Hostname())
	}

	return browser.IdentityProfile{
		UserAgent:      ua,
		AcceptLanguage: defaultAcceptLanguage,
		Platform:       navPlatform,
		Viewport:       defaultViewport,
		Locale:         defaultLocale,
		Timezone:       defaultTimezone,
		Headers:        headers,
	}
}

// uaPlatform returns the client hint platform and navigator.platform for ua.
func uaPlatform(ua string) (hint, nav string) {
	switch {
	case strings.Contains(ua, "Windows"):
		return "Windows", "Win32"
	case strings.Contains(ua, "Macintosh"):
		return "macOS", "MacIntel"
	default:
		return "Linux", "Linux x86_64"
	}
}

// secCHUA builds the Sec-CH-UA brand list for Chromium based agents.
func secCHUA(ua string) string {
	m := chromeVersionRe.FindStringSubmatch(ua)
	if m == nil {
		return ""
	}
	brand := "Google Chrome"
	if strings.Contains(ua, "Edg/") {
		brand = "Microsoft Edge"
	}
	return fmt.Sprintf(`"%s";v="%s", "Chromium";v="%s", "Not.A/Brand";v="24"`, brand, m[1], m[1])
}

// lease owns the session of one request. It guarantees that every session it
// ever held is closed exactly once, whatever path the request takes.
type lease struct {
	preparer *Preparer
	target   string
	session  browser.Session
}

func (p *Preparer) acquire(ctx context.Context, target string) (*lease, error) {
	s, err := p.Prepare(ctx, target)
	if err != nil {
		return nil, err
	}
	return &lease{preparer: p, target: target, session: s}, nil
}

func (l *lease) Session() browser.Session { return l.session }

// Renew discards the current session and prepares a fresh one. On failure
// the lease holds no session.
func (l *lease) Renew(ctx context.Context) error {
	l.closeCurrent()
	s, err := l.preparer.Prepare(ctx, l.target)
	if err != nil {
		return err
	}
	l.session = s
	return nil
}

// Release closes the current session, if any. Close errors are logged and
// swallowed so they never mask the request outcome.
func (l *lease) Release() {
	l.closeCurrent()
}

func (l *lease) closeCurrent() {
	if l.session == nil {
		return
	}
	if err := l.session.Close(); err != nil {
		slog.Warn("session close failed", "url", l.target, "error", err)
	}
	l.session = nil
}

// sessionError maps a session creation failure to the taxonomy.
func sessionError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return categorizeError(ctx.Err(), "request ended before a browser session was ready")
	}
	return models.Internal(models.SubKindBrowser, "failed to create browser session", err)
}
