package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/pagefetch/config"
	"github.com/ysmood/gson"
)

// EvasionScript is the opaque init script that masks automation signals. It
// is passed across the boundary as-is and never inspected.
var EvasionScript = stealth.JS

// EvasionScriptVersion identifies the EvasionScript payload in logs.
const EvasionScriptVersion = "go-rod/stealth@v0.4.9"

// RodEngine owns the single Chromium process shared by all sessions.
// It is safe for concurrent use.
type RodEngine struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	sessions atomic.Int32
}

// Launch starts (or connects to) the browser. The caller owns the returned
// engine and must Close it on shutdown.
func Launch(cfg config.BrowserConfig) (*RodEngine, error) {
	controlURL := cfg.ControlURL
	var l *launcher.Launcher

	if controlURL == "" {
		l = launcher.New().
			Headless(cfg.Headless).
			NoSandbox(cfg.NoSandbox)

		if cfg.BrowserBin != "" {
			l = l.Bin(cfg.BrowserBin)
		}

		// ── Stealth flags ────────────────────────────────────────────────
		l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
		l.Delete(flags.Flag("enable-automation"))
		l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
		l.Set(flags.Flag("disable-dev-shm-usage"))
		l.Set(flags.Flag("disable-gpu"))
		l.Set(flags.Flag("disable-popup-blocking"))
		l.Set(flags.Flag("disable-renderer-backgrounding"))
		l.Set(flags.Flag("disable-background-timer-throttling"))
		l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
		l.Set(flags.Flag("disable-component-update"))
		l.Set(flags.Flag("disable-default-apps"))
		l.Set(flags.Flag("disable-extensions"))
		l.Set(flags.Flag("window-size"), "1920,1080")
		l.Set(flags.Flag("no-first-run"))

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		controlURL = u
	}
	slog.Info("browser launched", "controlURL", controlURL)

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		if l != nil {
			l.Kill()
		}
		return nil, fmt.Errorf("browser: connect: %w", err)
	}

	return &RodEngine{browser: b, launcher: l}, nil
}

// ActiveSessions returns the number of sessions not yet closed.
func (e *RodEngine) ActiveSessions() int {
	return int(e.sessions.Load())
}

// Close kills the browser process. Call this on graceful shutdown to prevent
// zombie Chrome processes.
func (e *RodEngine) Close() error {
	slog.Info("browser shutting down", "activeSessions", e.ActiveSessions())
	err := e.browser.Close()
	if e.launcher != nil {
		e.launcher.Kill()
		e.launcher.Cleanup()
	}
	return err
}

// NewSession opens a fresh incognito context with one page configured from
// opts. Every setting is applied before the first navigation, so the init
// script and the interception rules cover the very first document.
func (e *RodEngine) NewSession(ctx context.Context, opts SessionOptions) (Session, error) {
	incognito, err := e.browser.Context(ctx).Incognito()
	if err != nil {
		return nil, fmt.Errorf("browser: incognito context: %w", err)
	}

	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = incognito.Close()
		return nil, fmt.Errorf("browser: create page: %w", err)
	}

	s := &rodSession{incognito: incognito, page: page, engine: e}
	e.sessions.Add(1)

	if err := s.configure(ctx, opts); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// configure applies identity, init script, interception and recording.
func (s *rodSession) configure(ctx context.Context, opts SessionOptions) error {
	p := s.page.Context(ctx)
	id := opts.Identity

	if id.UserAgent != "" {
		if err := p.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      id.UserAgent,
			AcceptLanguage: id.AcceptLanguage,
			Platform:       id.Platform,
		}); err != nil {
			return fmt.Errorf("browser: set user agent: %w", err)
		}
	}

	if id.Viewport.Width > 0 && id.Viewport.Height > 0 {
		if err := (proto.EmulationSetDeviceMetricsOverride{
			Width:             id.Viewport.Width,
			Height:            id.Viewport.Height,
			DeviceScaleFactor: 1,
			Mobile:            false,
		}).Call(p); err != nil {
			return fmt.Errorf("browser: set viewport: %w", err)
		}
	}

	// Locale, timezone and certificate overrides are cosmetic; a browser
	// build that rejects them still renders the page.
	if id.Locale != "" {
		overrideRejected("locale", id.Locale, (proto.EmulationSetLocaleOverride{Locale: id.Locale}).Call(p))
	}
	if id.Timezone != "" {
		overrideRejected("timezone", id.Timezone, (proto.EmulationSetTimezoneOverride{TimezoneID: id.Timezone}).Call(p))
	}
	overrideRejected("ignore_certificate_errors", "true", (proto.SecuritySetIgnoreCertificateErrors{Ignore: true}).Call(p))

	if len(id.Headers) > 0 {
		if err := (proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(id.Headers)}).Call(p); err != nil {
			return fmt.Errorf("browser: set headers: %w", err)
		}
	}

	if opts.InitScript != "" {
		if _, err := p.EvalOnNewDocument(opts.InitScript); err != nil {
			return fmt.Errorf("browser: install init script: %w", err)
		}
	}

	s.router = setupHijack(s.page, opts.Intercept)

	if opts.Record != nil {
		s.recorder = startRecorder(s.page, *opts.Record)
	}
	return nil
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
// overrideRejected logs a cosmetic emulation override the browser refused.
func overrideRejected(name, value string, err error) {
	if err != nil {
		slog.Debug("browser override rejected", "override", name, "value", value, "error", err)
	}
}

func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// navigationError converts rod's navigation failure into a *NetError.
func navigationError(err error) error {
	var navErr *rod.NavigationError
	if errors.As(err, &navErr) {
		return &NetError{Reason: navErr.Reason}
	}
	return err
}
