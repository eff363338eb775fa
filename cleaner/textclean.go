package cleaner

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// shortLineMax is the longest line (in runes) the repetition filter
	// treats as boilerplate-sized.
	shortLineMax = 80

	// alphaCheckMin is the shortest line (non-space runes) the alphabetic
	// ratio filter applies to; short labels, prices and dates pass.
	alphaCheckMin = 20

	// minAlphaRatio is the letter share below which a line is noise.
	minAlphaRatio = 0.3
)

var (
	// jsonLineRe matches serialized state that leaked into visible text:
	// `{"a":1}`, `[{...}]`, `"key": value,`.
	jsonLineRe = regexp.MustCompile(`^(?:[\[{].*[:,].*[\]}],?|"[^"]+"\s*:\s*.+)$`)

	// cssVarLineRe matches custom property declarations and uses.
	cssVarLineRe = regexp.MustCompile(`--[A-Za-z0-9_-]+\s*:|var\(--`)

	blankRunRe = regexp.MustCompile(`\n{3,}`)
)

// CleanText applies the line and paragraph filters to extracted plain text:
//
//  1. drop lines that look like JSON or CSS custom properties
//  2. drop short lines once they have been seen more than repeatThreshold times
//  3. drop lines whose alphabetic ratio is too low
//  4. drop paragraphs equal to an earlier one after whitespace collapsing
//     and case folding
//  5. collapse runs of blank lines
//
// The result depends only on its input.
func CleanText(text string, repeatThreshold int) string {
	if repeatThreshold < 1 {
		repeatThreshold = 1
	}

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	kept := make([]string, 0, len(lines))
	repeats := make(map[string]int)

	for _, line := range lines {
		line = strings.TrimRightFunc(line, unicode.IsSpace)
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			kept = append(kept, "")
			continue
		}
		if jsonLineRe.MatchString(trimmed) || cssVarLineRe.MatchString(trimmed) {
			continue
		}
		if utf8.RuneCountInString(trimmed) <= shortLineMax {
			key := normalizeKey(trimmed)
			repeats[key]++
			if repeats[key] > repeatThreshold {
				continue
			}
		}
		if lowAlphaRatio(trimmed) {
			continue
		}
		kept = append(kept, line)
	}

	return dedupParagraphs(kept)
}

// dedupParagraphs groups lines into blank-line separated paragraphs, drops
// repeated paragraphs and joins the rest with exactly one blank line.
func dedupParagraphs(lines []string) string {
	var (
		paragraphs []string
		current    []string
		seen       = make(map[string]struct{})
	)
	flush := func() {
		if len(current) == 0 {
			return
		}
		p := strings.Join(current, "\n")
		current = current[:0]
		key := normalizeKey(p)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		paragraphs = append(paragraphs, p)
	}

	for _, line := range lines {
		if line == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()

	out := strings.Join(paragraphs, "\n\n")
	return strings.TrimSpace(blankRunRe.ReplaceAllString(out, "\n\n"))
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func lowAlphaRatio(s string) bool {
	letters, total := 0, 0
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if total < alphaCheckMin {
		return false
	}
	return float64(letters)/float64(total) < minAlphaRatio
}
