// Package normalize cleans raw extracted text into analyzable text: collapses
// whitespace runs, strips control characters and keeps paragraph breaks so the
// chunker can respect document structure.
package normalize

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	spaceRuns      = regexp.MustCompile(`[ \t]+`)
	paragraphRuns  = regexp.MustCompile(`\n{3,}`)
	spacesAtBreaks = regexp.MustCompile(` *\n *`)
	pageMarkers    = regexp.MustCompile(`---\s*Página\s+\d+\s*(\(OCR\))?\s*---`)
)

// Normalize cleans raw text while preserving paragraph structure. It is a pure
// function and idempotent: Normalize(Normalize(x)) == Normalize(x). Empty
// input yields an empty string.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	// Drop control characters, keeping newlines and tabs for structure.
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r == '\n' || r == '\t' {
			b.WriteRune(r)
			continue
		}
		if unicode.IsPrint(r) {
			b.WriteRune(r)
		}
	}
	text := b.String()

	text = spaceRuns.ReplaceAllString(text, " ")
	text = paragraphRuns.ReplaceAllString(text, "\n\n")
	text = spacesAtBreaks.ReplaceAllString(text, "\n")
	return strings.TrimSpace(text)
}

// Flatten is Normalize without structure: every line break becomes a space.
// Useful for previews and single-line contexts.
func Flatten(raw string) string {
	text := Normalize(raw)
	text = strings.ReplaceAll(text, "\n", " ")
	return strings.TrimSpace(spaceRuns.ReplaceAllString(text, " "))
}

// RemovePageMarkers strips "--- Página N ---" markers that extraction layers
// insert between pages.
func RemovePageMarkers(text string) string {
	text = pageMarkers.ReplaceAllString(text, "")
	text = paragraphRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

var ocrArtifacts = []struct{ bad, good string }{
	{"||", "l"},
	{"|", "l"},
}

// CleanOCRArtifacts fixes common OCR misreads (pipe characters inside words).
// Replacements only apply between letters so legitimate symbols survive.
func CleanOCRArtifacts(text string) string {
	for _, r := range ocrArtifacts {
		pattern := regexp.MustCompile(`(?:[a-zA-ZáéíóúñÁÉÍÓÚÑ])` + regexp.QuoteMeta(r.bad) + `(?:[a-zA-ZáéíóúñÁÉÍÓÚÑ])`)
		text = pattern.ReplaceAllStringFunc(text, func(m string) string {
			runes := []rune(m)
			return string(runes[0]) + r.good + string(runes[len(runes)-1])
		})
	}
	return text
}

// FirstWords returns the first n words of text with an ellipsis, for previews.
func FirstWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) <= n {
		return text
	}
	return strings.Join(words[:n], " ") + "..."
}
