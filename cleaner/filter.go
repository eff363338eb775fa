package cleaner

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// prefilter removes the subtrees Options ask to drop before readability runs:
// comment threads (ExcludeComments) and tables (unless IncludeTables).
// Returns the input unchanged when there is nothing to remove or the HTML
// cannot be parsed.
func prefilter(html string, commentSelectors []string, opts Options) string {
	var exclude []string
	if opts.ExcludeComments {
		exclude = append(exclude, commentSelectors...)
	}
	if !opts.IncludeTables {
		exclude = append(exclude, "table")
	}
	return RemoveSelectors(html, exclude)
}

// RemoveSelectors deletes every element matching any of selectors and
// returns the re-serialized document.
func RemoveSelectors(html string, selectors []string) string {
	if len(selectors) == 0 {
		return html
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}

	removed := 0
	for _, selector := range selectors {
		sel := doc.Find(selector)
		removed += sel.Length()
		sel.Remove()
	}
	if removed == 0 {
		return html
	}

	result, err := doc.Html()
	if err != nil {
		return html
	}
	return result
}
