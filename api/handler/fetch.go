package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pagefetch/cache"
	"github.com/use-agent/pagefetch/fetcher"
	"github.com/use-agent/pagefetch/models"
)

// Fetch returns a handler for POST /api/v1/fetch.
//
// Orchestration flow:
//  1. Parse & validate the payload, apply defaults.
//  2. Cache lookup when max_age is set.
//  3. Fetcher.FetchContent → content, status, timing.
//  4. Cache store, respond.
func Fetch(f Fetcher, cc *cache.Cache, d Defaults) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var payload models.FetchPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			badRequest(c, err)
			return
		}
		payload.Defaults(d.Timeout, d.MaxRetries)
		req, err := payload.ToRequest()
		if err != nil {
			badRequest(c, err)
			return
		}

		// ── 2. Cache lookup ─────────────────────────────────────────
		maxAge := time.Duration(payload.MaxAge) * time.Millisecond
		cacheKey := cache.Key(req.URL, req.Output)
		if cc != nil && maxAge > 0 {
			if cached, hit := cc.Get(cacheKey, maxAge); hit {
				cached.CacheStatus = "hit"
				cached.Timing = models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()}
				c.JSON(http.StatusOK, cached)
				return
			}
		}

		// ── 3. Fetch ────────────────────────────────────────────────
		res, err := f.FetchContent(c.Request.Context(), req)
		if err != nil {
			fe := models.AsFetchError(err)
			c.JSON(statusFor(fe.Kind), models.FetchResponse{
				Success: false,
				Error:   fe.ToDetail(),
				Timing:  models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()},
			})
			return
		}
		resp := toResponse(res)

		// ── 4. Cache store ──────────────────────────────────────────
		if cc != nil && maxAge > 0 {
			cc.Set(cacheKey, resp)
			resp.CacheStatus = "miss"
		}
		resp.Timing.TotalMs = time.Since(totalStart).Milliseconds()

		c.JSON(http.StatusOK, resp)
	}
}

func toResponse(res *fetcher.Result) models.FetchResponse {
	return models.FetchResponse{
		Success:    true,
		StatusCode: res.Status,
		SoftError:  res.SoftError,
		FinalURL:   res.FinalURL,
		Content:    res.Content,
		Source:     string(res.Source),
		Strategy:   string(res.Strategy),
		Attempts:   res.Attempts,
		Metadata:   res.Metadata,
		Tokens:     res.Tokens,
		Timing: models.TimingInfo{
			TotalMs:      res.Total.Milliseconds(),
			NavigationMs: res.NavigationTime.Milliseconds(),
			ExtractionMs: res.ExtractionTime.Milliseconds(),
		},
	}
}
