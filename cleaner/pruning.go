package cleaner

import (
	"math"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// pruneScoreThreshold is the minimum weighted score a block element must reach
// to be retained as main content. Blocks scoring at or below this value are
// discarded as boilerplate (navigation, sidebars, footers, ads, etc.).
const pruneScoreThreshold = 0.0

// Signal weights for the pruning scorer.
const (
	wTextDensity   = 3.0
	wLinkDensity   = -2.0
	wTagWeight     = 1.5
	wClassIDWeight = 1.0
	wTextLength    = 0.5
)

// positiveClassIDPatterns are substrings in class/id attributes that indicate
// main content areas.
var positiveClassIDPatterns = []string{
	"content", "article", "post", "entry", "body", "main", "text", "job", "description",
}

// baseNegativePatterns always mark boilerplate; the configured noise
// patterns are added to them.
var baseNegativePatterns = []string{
	"sidebar", "widget", "nav", "menu", "comment", "footer",
	"header", "related", "recommend", "promo",
}

// pruner is the scoring fallback used when readability finds nothing.
type pruner struct {
	negative []string
}

func newPruner(noisePatterns []string) *pruner {
	neg := make([]string, 0, len(baseNegativePatterns)+len(noisePatterns))
	neg = append(neg, baseNegativePatterns...)
	for _, p := range noisePatterns {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			neg = append(neg, p)
		}
	}
	return &pruner{negative: neg}
}

// prune scores each top-level block of <body> (descending through single
// wrapper divs, common in SPA shells) and keeps the ones above the
// threshold. It returns "" when no block qualifies, so the caller can treat
// the page as low confidence.
func (p *pruner) prune(rawHTML string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", err
	}

	root := doc.Find("body")
	if root.Length() == 0 {
		return "", nil
	}
	for only := root.Children(); only.Length() == 1 && goquery.NodeName(only) == "div"; only = root.Children() {
		root = only
	}

	var retained []string
	root.Children().Each(func(_ int, el *goquery.Selection) {
		if p.score(el) > pruneScoreThreshold {
			if html, err := goquery.OuterHtml(el); err == nil {
				retained = append(retained, html)
			}
		}
	})

	return strings.Join(retained, "\n"), nil
}

// score computes a weighted score for a DOM element based on multiple
// content signals.
func (p *pruner) score(el *goquery.Selection) float64 {
	fullHTML, err := goquery.OuterHtml(el)
	if err != nil {
		return 0
	}

	text := strings.TrimSpace(el.Text())
	textLen := len(text)
	if textLen == 0 {
		return 0
	}
	totalLen := len(fullHTML)

	// --- text_density: ratio of visible text to total element size ---
	textDensity := 0.0
	if totalLen > 0 {
		textDensity = float64(textLen) / float64(totalLen)
	}

	// --- link_density: ratio of anchor text to total text ---
	linkTextLen := 0
	el.Find("a").Each(func(_ int, a *goquery.Selection) {
		linkTextLen += len(strings.TrimSpace(a.Text()))
	})
	linkDensity := float64(linkTextLen) / float64(textLen)

	textLenScore := math.Log10(float64(textLen) + 1)

	return textDensity*wTextDensity +
		linkDensity*wLinkDensity +
		tagWeight(el)*wTagWeight +
		p.classIDWeight(el)*wClassIDWeight +
		textLenScore*wTextLength
}

// tagWeight returns a score bonus/penalty based on the element's tag name.
func tagWeight(el *goquery.Selection) float64 {
	switch goquery.NodeName(el) {
	case "article", "main", "section":
		return 5.0
	case "nav", "footer", "aside", "header", "form", "script", "style", "noscript":
		return -5.0
	default:
		return 0.0
	}
}

// classIDWeight scans the element's class and id attributes for substrings
// that indicate content vs. boilerplate. Each direction counts at most once.
func (p *pruner) classIDWeight(el *goquery.Selection) float64 {
	class, _ := el.Attr("class")
	id, _ := el.Attr("id")
	combined := strings.ToLower(class + " " + id)

	score := 0.0
	for _, pat := range positiveClassIDPatterns {
		if strings.Contains(combined, pat) {
			score += 3.0
			break
		}
	}
	for _, pat := range p.negative {
		if strings.Contains(combined, pat) {
			score -= 3.0
			break
		}
	}
	return score
}
