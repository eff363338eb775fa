package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pagefetch/models"
)

// Version is reported by the health endpoint; set at build time.
var Version = "0.1.0"

// StatsFunc reports live load of the browser sessions and the extraction lane.
type StatsFunc func() (sessions, extractor models.LoadStats)

// Health returns a handler for GET /api/v1/health.
//
// Status degrades when more than 80% of the session capacity is in use.
func Health(stats StatsFunc, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		var sessions, extractor models.LoadStats
		if stats != nil {
			sessions, extractor = stats()
		}

		status := "healthy"
		if sessions.Capacity > 0 && sessions.Active > int(float64(sessions.Capacity)*0.8) {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:    status,
			Uptime:    time.Since(startTime).Round(time.Second).String(),
			Sessions:  sessions,
			Extractor: extractor,
			Version:   Version,
		})
	}
}

// Liveness returns a handler for GET /healthz.
func Liveness() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	}
}
