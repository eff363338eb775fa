package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pagefetch/models"
)

// NetworkDebug returns a handler for GET /api/v1/debug/network. It loads the
// page in an unfiltered recording session and returns the console and
// network events in arrival order.
func NetworkDebug(f Fetcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q models.DebugQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			badRequest(c, err)
			return
		}

		wait := time.Duration(q.WaitSeconds) * time.Second
		out, err := f.CollectNetworkLogs(c.Request.Context(), q.URL, wait, q.IncludeBody)
		if err != nil {
			fe := models.AsFetchError(err)
			c.JSON(statusFor(fe.Kind), models.ErrorResponse{Error: fe.ToDetail()})
			return
		}
		c.JSON(http.StatusOK, out)
	}
}
