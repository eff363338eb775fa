// Package api wires the HTTP surface of the service.
package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pagefetch/api/handler"
	"github.com/use-agent/pagefetch/api/middleware"
	"github.com/use-agent/pagefetch/cache"
	"github.com/use-agent/pagefetch/config"
	"github.com/use-agent/pagefetch/metrics"
)

// Deps are the collaborators of the router. Cache and Metrics may be nil.
type Deps struct {
	Fetcher   handler.Fetcher
	Cache     *cache.Cache
	Metrics   *metrics.Metrics
	Admission *middleware.Admission
	Stats     handler.StatsFunc
	StartTime time.Time
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:   Recovery → RequestID → Logger → CORS (if origins are set)
//	Fetching: Auth (if enabled) → RateLimit → Admission
//
// Health, liveness and metrics stay outside auth so probes always work.
// ctx bounds the background goroutines of the middleware.
func NewRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Metrics))
	if h := middleware.CORS(cfg.CORS); h != nil {
		r.Use(h)
	}

	r.GET("/healthz", handler.Liveness())
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	v1 := r.Group("/api/v1")
	v1.GET("/health", handler.Health(deps.Stats, deps.StartTime))

	admission := deps.Admission
	if admission == nil {
		admission = middleware.NewAdmission(cfg.Admission)
	}
	protected := []gin.HandlerFunc{}
	if cfg.Auth.Enabled {
		protected = append(protected, middleware.Auth(cfg.Auth.APIKeys))
	}
	protected = append(protected, middleware.RateLimit(ctx, cfg.RateLimit), admission.Middleware())

	defaults := handler.Defaults{
		Timeout:    cfg.Fetch.NavigationTimeout,
		MaxRetries: cfg.Fetch.DefaultMaxRetries,
	}

	api1 := v1.Group("", protected...)
	api1.POST("/fetch", handler.Fetch(deps.Fetcher, deps.Cache, defaults))
	if cfg.Debug.Enabled {
		api1.GET("/debug/network", handler.NetworkDebug(deps.Fetcher))
	}

	v2 := r.Group("/api/v2", protected...)
	v2.GET("/page", handler.Page(deps.Fetcher, defaults))

	return r
}
