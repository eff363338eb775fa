package cleaner

import (
	"context"
	"log/slog"
	"strings"

	"github.com/use-agent/pagefetch/config"
	"github.com/use-agent/pagefetch/models"
	"github.com/use-agent/pagefetch/simhash"
)

// dedupMinWords is the shortest block the near-duplicate filter considers.
const dedupMinWords = 6

// Options tune one primary extraction. The defaults used by the pipeline
// favour recall: tables kept, repeated blocks removed, comment threads dropped.
type Options struct {
	// BaseURL resolves relative links and feeds readability's URL heuristics.
	BaseURL string

	IncludeTables   bool
	Deduplicate     bool
	ExcludeComments bool
}

// Extractor is the text extraction engine. It runs two stages:
//
//	Stage 1 (main content): readability, with the block pruner as fallback
//	Stage 2 (render):       text, cleaned HTML or Markdown
//
// An empty result means the engine has no confident answer. The Extractor is
// stateless after construction and safe for concurrent use.
type Extractor struct {
	commentSelectors []string
	pruner           *pruner
	minLength        int
}

// NewExtractor builds an Extractor. Results whose trimmed length is below
// minLength are reported as empty.
func NewExtractor(h *config.Heuristics, minLength int) *Extractor {
	return &Extractor{
		commentSelectors: h.CommentSelectors,
		pruner:           newPruner(h.NoisePatterns),
		minLength:        minLength,
	}
}

// Extract returns the main content of rawHTML in the requested output kind,
// or "" when neither readability nor the pruner finds enough of it.
func (e *Extractor) Extract(ctx context.Context, rawHTML string, kind models.OutputKind, opts Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// ── 1. Pre-filter (comments, tables) ────────────────────────────
	filtered := prefilter(rawHTML, e.commentSelectors, opts)

	// ── 2. Stage 1: main content ────────────────────────────────────
	content := ""
	if article, ok := ExtractContent(filtered, opts.BaseURL); ok {
		content = article.Content
	} else {
		pruned, err := e.pruner.prune(filtered)
		if err != nil {
			slog.Warn("pruning: extraction failed", "url", opts.BaseURL, "error", err)
		}
		content = pruned
	}
	if strings.TrimSpace(content) == "" {
		return "", nil
	}

	if opts.Deduplicate {
		content = simhash.DedupBlocks(content, simhash.DefaultThreshold, dedupMinWords)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	// ── 3. Stage 2: format conversion ───────────────────────────────
	out, err := Render(content, kind, opts.BaseURL)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if len(out) < e.minLength {
		return "", nil
	}
	return out, nil
}

// Render converts a clean HTML fragment to the requested output kind.
func Render(fragment string, kind models.OutputKind, baseURL string) (string, error) {
	switch kind {
	case models.OutputMarkup:
		return fragment, nil
	case models.OutputMarkdown:
		return ToMarkdown(fragment, baseURL)
	default:
		return RenderText(fragment), nil
	}
}
