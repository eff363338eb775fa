package fetcher

import (
	"fmt"
	"strings"

	"github.com/use-agent/pagefetch/models"
)

// Verdict is the classification of a committed navigation.
type Verdict int

const (
	// VerdictOK: status below 400.
	VerdictOK Verdict = iota

	// VerdictSoftError: error status, but the page rendered usable content.
	VerdictSoftError

	// VerdictHardError: a real error page; extraction is skipped.
	VerdictHardError
)

func (v Verdict) String() string {
	switch v {
	case VerdictOK:
		return "ok"
	case VerdictSoftError:
		return "soft_error"
	case VerdictHardError:
		return "hard_error"
	default:
		return fmt.Sprintf("verdict(%d)", int(v))
	}
}

// Classifier decides whether an error status is final. Many single-page
// applications answer with 4xx/5xx on shells that still render real content
// client-side, so the status alone is not trusted.
type Classifier struct {
	// ShortText is the rendered text length below which a page counts as a
	// bare error page.
	ShortText int

	// NotFoundPhrases mark a short page as a real error.
	NotFoundPhrases []string

	// PositiveTerms mark a long page as carrying usable content.
	PositiveTerms []string
}

// Classify maps a status and the page's visible text to a Verdict:
//
//	status < 400                              → ok
//	short text containing a not-found phrase  → hard
//	short text without one                    → soft
//	long text containing a positive term      → soft
//	long text without one                     → hard
func (c Classifier) Classify(status int, text string) Verdict {
	if status < 400 {
		return VerdictOK
	}
	lower := strings.ToLower(text)

	if len(lower) < c.ShortText {
		if containsAny(lower, c.NotFoundPhrases) {
			return VerdictHardError
		}
		return VerdictSoftError
	}
	if containsAny(lower, c.PositiveTerms) {
		return VerdictSoftError
	}
	return VerdictHardError
}

// hardStatusError maps a hard error status to the taxonomy.
func hardStatusError(status int, target string) error {
	msg := fmt.Sprintf("target URL %s returned HTTP %d", target, status)
	if status == 404 {
		return models.NotFound(msg)
	}
	return models.UpstreamBadGateway(msg, nil)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}
