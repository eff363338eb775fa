package cleaner

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// invisibleSelector is removed before measuring a node's visible text.
const invisibleSelector = "script, style, noscript, template"

// StructuralMatch is a node picked by structural pre-extraction.
type StructuralMatch struct {
	Selector string
	Text     string // visible text, block-aware line breaks
	HTML     string // inner HTML with invisible subtrees removed
}

// MatchStructural walks selectors in order and returns the first matched node
// whose visible text is at least minText characters long. It returns nil when
// no selector qualifies. Selectors that fail to compile are skipped.
func MatchStructural(rawHTML string, selectors []string, minText int) (*StructuralMatch, error) {
	if len(selectors) == 0 {
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, err
	}
	doc.Find(invisibleSelector).Remove()

	for _, raw := range selectors {
		m, err := cascadia.Compile(raw)
		if err != nil {
			slog.Debug("structural: skipping invalid selector", "selector", raw, "error", err)
			continue
		}

		var found *StructuralMatch
		doc.FindMatcher(m).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			inner, err := s.Html()
			if err != nil {
				return true
			}
			text := RenderText(inner)
			if len(text) < minText {
				return true
			}
			found = &StructuralMatch{Selector: raw, Text: text, HTML: strings.TrimSpace(inner)}
			return false
		})
		if found != nil {
			return found, nil
		}
	}
	return nil, nil
}
