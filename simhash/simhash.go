// Package simhash finds near-duplicate blocks of text. Pages often repeat a
// block with tiny variations (a teaser and the full paragraph, a sticky CTA
// rendered twice), which exact comparison misses.
package simhash

import (
	"hash/fnv"
	"math/bits"
	"strings"
	"unicode"
)

// DefaultThreshold is the Hamming distance at or below which two
// fingerprints count as the same block.
const DefaultThreshold = 3

// Fingerprint computes a 64-bit SimHash of the given text.
// Tokens are case-folded words with surrounding punctuation trimmed, hashed
// with FNV-64a and accumulated into a bit vector.
func Fingerprint(text string) uint64 {
	words := tokens(text)
	if len(words) == 0 {
		return 0
	}

	var vector [64]int
	h := fnv.New64a()
	for _, word := range words {
		h.Reset()
		h.Write([]byte(word))
		hash := h.Sum64()

		for i := 0; i < 64; i++ {
			if hash&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
	}

	var fingerprint uint64
	for i := 0; i < 64; i++ {
		if vector[i] > 0 {
			fingerprint |= 1 << uint(i)
		}
	}
	return fingerprint
}

func tokens(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := fields[:0]
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Distance returns the Hamming distance between two SimHash fingerprints.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Similar returns true if the Hamming distance between two fingerprints
// is less than or equal to the threshold.
func Similar(a, b uint64, threshold int) bool {
	return Distance(a, b) <= threshold
}

// Index remembers fingerprints of blocks already kept. It is not safe for
// concurrent use; build one per document.
type Index struct {
	threshold int
	seen      []uint64
}

// NewIndex returns an empty Index. A negative threshold selects
// DefaultThreshold.
func NewIndex(threshold int) *Index {
	if threshold < 0 {
		threshold = DefaultThreshold
	}
	return &Index{threshold: threshold}
}

// Seen reports whether text is a near-duplicate of an earlier block. Texts
// that are not duplicates are remembered. Empty texts are never duplicates.
func (x *Index) Seen(text string) bool {
	fp := Fingerprint(text)
	if fp == 0 {
		return false
	}
	for _, prev := range x.seen {
		if Similar(fp, prev, x.threshold) {
			return true
		}
	}
	x.seen = append(x.seen, fp)
	return false
}
