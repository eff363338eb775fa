// Package handler holds the gin handlers of the HTTP API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pagefetch/fetcher"
	"github.com/use-agent/pagefetch/models"
)

// Fetcher is the part of *fetcher.Fetcher the handlers use.
type Fetcher interface {
	FetchContent(ctx context.Context, req models.FetchRequest) (*fetcher.Result, error)
	CollectNetworkLogs(ctx context.Context, url string, wait time.Duration, includeBody bool) (*models.DebugResponse, error)
}

// Defaults are applied to requests that leave a knob unset.
type Defaults struct {
	Timeout    time.Duration
	MaxRetries int
}

// statusFor translates the failure taxonomy to HTTP status codes.
// NoContentExtracted is endpoint specific and handled by the callers.
func statusFor(kind models.ErrorKind) int {
	switch kind {
	case models.ErrNotFound:
		return http.StatusNotFound // 404
	case models.ErrUpstreamBadGateway:
		return http.StatusBadGateway // 502
	case models.ErrRequestTimeout:
		return http.StatusRequestTimeout // 408
	case models.ErrNoContentExtracted:
		return http.StatusUnprocessableEntity // 422
	default:
		return http.StatusInternalServerError // 500
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.NewErrorResponse(models.ErrCodeInvalidInput, err.Error()))
}
