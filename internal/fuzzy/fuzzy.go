// Package fuzzy provides the similarity primitive shared by consolidation
// dedup and source-text verification: normalized Levenshtein similarity over
// case-folded, diacritic-stripped text.
package fuzzy

import (
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var diacriticStripper = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Normalize lowercases, strips diacritics and collapses whitespace so that
// "Juan Pérez García" and "juan perez  garcia" compare equal.
func Normalize(s string) string {
	stripped, _, err := transform.String(diacriticStripper, s)
	if err != nil {
		stripped = s
	}
	return strings.Join(strings.Fields(strings.ToLower(stripped)), " ")
}

// Similarity returns the normalized Levenshtein similarity of two strings in
// [0,1] after Normalize. Identical-after-normalization strings score 1.0.
func Similarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == nb {
		return 1.0
	}
	if na == "" || nb == "" {
		return 0.0
	}
	return levenshtein.Similarity(na, nb, nil)
}

// Dedupe collapses near-identical entries (similarity >= threshold), keeping
// the first occurrence and preserving first-seen order.
func Dedupe(items []string, threshold float64) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item) == "" {
			continue
		}
		dup := false
		for _, kept := range out {
			if Similarity(item, kept) >= threshold {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, item)
		}
	}
	return out
}

// Contains reports whether needle appears in haystack, allowing fuzzy matches:
// it slides a window of len(needle words) words across the haystack and checks
// each window's similarity against the threshold.
func Contains(haystack, needle string, threshold float64) bool {
	n := Normalize(needle)
	if n == "" {
		return false
	}
	h := Normalize(haystack)
	if strings.Contains(h, n) {
		return true
	}

	needleWords := strings.Fields(n)
	haystackWords := strings.Fields(h)
	width := len(needleWords)
	if width == 0 || len(haystackWords) < width {
		return Similarity(h, n) >= threshold
	}
	for i := 0; i+width <= len(haystackWords); i++ {
		window := strings.Join(haystackWords[i:i+width], " ")
		if levenshtein.Similarity(window, n, nil) >= threshold {
			return true
		}
	}
	return false
}
