package config

import (
	"fmt"
	"os"

	"github.com/andybalholm/cascadia"
	"gopkg.in/yaml.v3"
)

// Heuristics is the data half of the pipeline: selector lists, deny lists and
// phrase lists. None of it is logic, so it can be replaced per deployment
// through a YAML file without touching code.
type Heuristics struct {
	// UserAgents is the identity pool; one is picked per session.
	UserAgents []string `yaml:"user_agents"`

	// TrackerDomains are aborted by the interception rule (host or parent domain match).
	TrackerDomains []string `yaml:"tracker_domains"`

	// ContentSelectors are waited for by the readiness detector, most specific first.
	ContentSelectors []string `yaml:"content_selectors"`

	// StructuralSelectors feed the structural pre-extraction stage.
	StructuralSelectors []string `yaml:"structural_selectors"`

	// FallbackSelectors feed the generic DOM fallback; the last one should match always.
	FallbackSelectors []string `yaml:"fallback_selectors"`

	// NoiseSelectors are removed before any fallback text is read.
	NoiseSelectors []string `yaml:"noise_selectors"`

	// NoisePatterns are class/id substrings marking boilerplate subtrees.
	NoisePatterns []string `yaml:"noise_patterns"`

	// CommentSelectors are dropped before primary extraction.
	CommentSelectors []string `yaml:"comment_selectors"`

	// NotFoundPhrases mark a short error page as a real not-found.
	NotFoundPhrases []string `yaml:"not_found_phrases"`

	// PositiveTerms mark an error-status page as carrying usable content.
	PositiveTerms []string `yaml:"positive_terms"`
}

// DefaultHeuristics returns the canonical built-in data set.
func DefaultHeuristics() *Heuristics {
	return &Heuristics{
		UserAgents: []string{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
			"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36 Edg/130.0.0.0",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36",
		},
		TrackerDomains: []string{
			"google-analytics.com",
			"googletagmanager.com",
			"googletagservices.com",
			"googlesyndication.com",
			"googleadservices.com",
			"adservice.google.com",
			"doubleclick.net",
			"facebook.net",
			"hotjar.com",
			"mixpanel.com",
			"segment.io",
			"segment.com",
			"amplitude.com",
			"sentry.io",
			"newrelic.com",
			"nr-data.net",
			"scorecardresearch.com",
			"quantserve.com",
			"chartbeat.com",
			"taboola.com",
			"outbrain.com",
			"criteo.com",
			"adnxs.com",
			"amazon-adsystem.com",
		},
		ContentSelectors: []string{
			`[data-testid="job-detail"]`,
			".job-description",
			".job-details",
			".position-description",
			`[class*="JobDescription"]`,
			`[class*="jobDescription"]`,
			"article",
			"main",
			`[role="main"]`,
			"#root > div > div",
			"#app > div > div",
			"#__next > div > div",
		},
		StructuralSelectors: []string{
			`[data-testid="job-detail"]`,
			".job-description",
			".job-details",
			".position-description",
			`[class*="JobDescription"]`,
			`[class*="jobDescription"]`,
		},
		FallbackSelectors: []string{
			`[class*="job"]`,
			"article",
			"main",
			`[role="main"]`,
			`[class*="content"]`,
			"body",
		},
		NoiseSelectors: []string{
			"script", "style", "noscript", "iframe", "svg",
			"nav", "header", "footer", "aside", "form",
		},
		NoisePatterns: []string{
			"cookie", "consent", "modal", "banner", "popup", "newsletter",
			"subscribe", "gdpr", "share", "social", "breadcrumb",
		},
		CommentSelectors: []string{
			"#comments", ".comments", "#disqus_thread", `[class*="comment-list"]`, `[id*="comments"]`,
		},
		NotFoundPhrases: []string{
			"page not found", "404", "not found", "does not exist",
		},
		PositiveTerms: []string{
			"apply", "description", "responsibilities", "qualifications", "requirements", "experience",
		},
	}
}

// LoadHeuristics returns the defaults, overlaid with every non-empty list of
// the YAML file at path (when path is non-empty). All selectors are compiled
// once so a bad override fails at startup instead of mid-request.
func LoadHeuristics(path string) (*Heuristics, error) {
	h := DefaultHeuristics()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read heuristics file: %w", err)
		}
		var override Heuristics
		if err := yaml.Unmarshal(raw, &override); err != nil {
			return nil, fmt.Errorf("config: parse heuristics file: %w", err)
		}
		h.merge(&override)
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}

// Validate checks that the identity pool is non-empty and every selector parses.
func (h *Heuristics) Validate() error {
	if len(h.UserAgents) == 0 {
		return fmt.Errorf("config: heuristics: user agent pool is empty")
	}
	if len(h.FallbackSelectors) == 0 {
		return fmt.Errorf("config: heuristics: fallback selector list is empty")
	}
	groups := map[string][]string{
		"content_selectors":    h.ContentSelectors,
		"structural_selectors": h.StructuralSelectors,
		"fallback_selectors":   h.FallbackSelectors,
		"noise_selectors":      h.NoiseSelectors,
		"comment_selectors":    h.CommentSelectors,
	}
	for name, sels := range groups {
		for _, s := range sels {
			if _, err := cascadia.Parse(s); err != nil {
				return fmt.Errorf("config: heuristics: %s: invalid selector %q: %w", name, s, err)
			}
		}
	}
	return nil
}

func (h *Heuristics) merge(o *Heuristics) {
	pick := func(dst *[]string, src []string) {
		if len(src) > 0 {
			*dst = src
		}
	}
	pick(&h.UserAgents, o.UserAgents)
	pick(&h.TrackerDomains, o.TrackerDomains)
	pick(&h.ContentSelectors, o.ContentSelectors)
	pick(&h.StructuralSelectors, o.StructuralSelectors)
	pick(&h.FallbackSelectors, o.FallbackSelectors)
	pick(&h.NoiseSelectors, o.NoiseSelectors)
	pick(&h.NoisePatterns, o.NoisePatterns)
	pick(&h.CommentSelectors, o.CommentSelectors)
	pick(&h.NotFoundPhrases, o.NotFoundPhrases)
	pick(&h.PositiveTerms, o.PositiveTerms)
}
