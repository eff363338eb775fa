package middleware

import (
	"context"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pagefetch/config"
	"github.com/use-agent/pagefetch/models"
	"golang.org/x/sync/semaphore"
)

// Admission bounds the number of requests that hold a browser session at
// once. Requests queue for a free slot up to QueueTimeout, then get 503.
type Admission struct {
	sem      *semaphore.Weighted
	capacity int
	cfg      config.AdmissionConfig
	inFlight atomic.Int64
}

// NewAdmission builds the limiter from cfg.
func NewAdmission(cfg config.AdmissionConfig) *Admission {
	capacity := cfg.MaxSessions
	if capacity < 1 {
		capacity = 1
	}
	return &Admission{
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: capacity,
		cfg:      cfg,
	}
}

// Capacity is the number of concurrent slots.
func (a *Admission) Capacity() int { return a.capacity }

// InFlight is the number of admitted requests.
func (a *Admission) InFlight() int { return int(a.inFlight.Load()) }

// Middleware returns the gin handler.
func (a *Admission) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if a.cfg.QueueTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, a.cfg.QueueTimeout)
			defer cancel()
		}

		if err := a.sem.Acquire(ctx, 1); err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, models.NewErrorResponse(
				models.ErrCodeOverloaded, "all browser sessions are busy, retry later",
			))
			return
		}
		a.inFlight.Add(1)
		defer func() {
			a.inFlight.Add(-1)
			a.sem.Release(1)
		}()

		c.Next()
	}
}
