package cleaner

import (
	"math"
	"unicode/utf8"

	"github.com/use-agent/pagefetch/models"
)

// EstimateTokens provides a fast token count estimate without a tokenizer.
//
// Heuristic: utf8 rune count / 3. English averages ~4 chars/token and CJK
// ~1.5, so 3 is a middle ground for mixed-language pages and slightly
// over-estimates.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	est := n / 3
	if est < 1 {
		return 1
	}
	return est
}

// TokenSavings compares the rendered page with the extracted content.
func TokenSavings(rawHTML, content string) models.TokenInfo {
	original := EstimateTokens(rawHTML)
	cleaned := EstimateTokens(content)

	savings := 0.0
	if original > 0 {
		savings = float64(original-cleaned) / float64(original) * 100
		savings = math.Round(savings*100) / 100
	}
	return models.TokenInfo{
		OriginalEstimate: original,
		CleanedEstimate:  cleaned,
		SavingsPercent:   savings,
	}
}
