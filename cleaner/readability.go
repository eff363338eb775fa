package cleaner

import (
	"log/slog"
	nurl "net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// minReadableLength is the minimum TextContent length (in characters) for
// readability output to be considered valid. Below it we assume the
// algorithm failed to locate the main content.
const minReadableLength = 50

// ExtractContent runs the Mozilla Readability algorithm on rawHTML.
//
// On success it returns the Article with clean HTML in Content, plain text in
// TextContent, and metadata (Title, Byline, Excerpt, SiteName, Language).
// The boolean is false when the URL is unusable, readability errors, or the
// extracted text is shorter than minReadableLength; the caller then falls
// back to the pruner.
func ExtractContent(rawHTML string, sourceURL string) (readability.Article, bool) {
	parsedURL, err := nurl.Parse(sourceURL)
	if err != nil {
		slog.Warn("readability: invalid source URL", "url", sourceURL, "error", err)
		return readability.Article{}, false
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		slog.Debug("readability: extraction failed", "url", sourceURL, "error", err)
		return readability.Article{}, false
	}

	if len(strings.TrimSpace(article.TextContent)) < minReadableLength {
		slog.Debug("readability: extracted content too short",
			"url", sourceURL, "length", len(article.TextContent),
		)
		return readability.Article{}, false
	}

	return article, true
}
