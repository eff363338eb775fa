package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pagefetch/models"
)

// Page returns a handler for GET /api/v2/page.
//
// The body is the extracted content as text/plain. A page that loaded but
// yielded nothing answers 204 with no body; every other failure answers its
// mapped status with the error message as the body.
func Page(f Fetcher, d Defaults) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q models.PageQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			c.String(http.StatusBadRequest, err.Error())
			return
		}
		req, err := q.ToRequest(d.Timeout, d.MaxRetries)
		if err != nil {
			c.String(http.StatusBadRequest, err.Error())
			return
		}

		res, err := f.FetchContent(c.Request.Context(), req)
		if err != nil {
			fe := models.AsFetchError(err)
			if fe.Kind == models.ErrNoContentExtracted {
				c.Status(http.StatusNoContent)
				return
			}
			c.String(statusFor(fe.Kind), fe.Message)
			return
		}

		c.Header("X-Content-Source", string(res.Source))
		c.Header("X-Final-URL", res.FinalURL)
		c.Data(http.StatusOK, contentType(req.Output), []byte(res.Content))
	}
}

func contentType(kind models.OutputKind) string {
	switch kind {
	case models.OutputMarkup:
		return "text/html; charset=utf-8"
	case models.OutputMarkdown:
		return "text/markdown; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}
