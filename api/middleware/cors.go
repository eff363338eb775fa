package middleware

import (
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/use-agent/pagefetch/config"
)

// CORS answers preflight requests and sets the Access-Control headers for
// the configured origins. It returns nil when no origin is configured.
// Origins without an http(s) scheme are skipped.
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-API-Key", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID", "X-Content-Source", "X-Final-URL"},
		MaxAge:        12 * time.Hour,
	}

	if slices.Contains(cfg.AllowOrigins, "*") {
		cc.AllowAllOrigins = true
		return cors.New(cc)
	}

	for _, o := range cfg.AllowOrigins {
		if !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			slog.Warn("ignoring CORS origin without scheme", "origin", o)
			continue
		}
		cc.AllowOrigins = append(cc.AllowOrigins, strings.TrimRight(o, "/"))
	}
	if len(cc.AllowOrigins) == 0 {
		return nil
	}
	cc.AllowCredentials = true
	return cors.New(cc)
}
