// Package chunker splits long documents into overlapping, word-bounded
// segments sized to the model's context budget. Consecutive chunks share
// exactly the configured overlap so facts near a boundary appear whole in at
// least one chunk.
package chunker

import "strings"

// Defaults tuned to the target local model's context window.
const (
	DefaultMaxWords        = 2500
	DefaultOverlapWords    = 200
	DefaultInlineThreshold = 3000
)

// WordCount returns the number of whitespace-separated words in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// NeedsChunking reports whether text exceeds the inline-processing threshold.
// Below it the whole document goes to the model as a single chunk.
func NeedsChunking(text string, threshold int) bool {
	if threshold <= 0 {
		threshold = DefaultInlineThreshold
	}
	return WordCount(text) >= threshold
}

// Split divides text into overlapping word windows of at most maxWords words,
// advancing maxWords-overlap words per step. The windows cover the full input
// (the last chunk may be shorter) and consecutive chunks share exactly overlap
// words. Text shorter than one window produces a single chunk.
func Split(text string, maxWords, overlap int) []string {
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}
	if overlap < 0 || overlap >= maxWords {
		overlap = DefaultOverlapWords
		if overlap >= maxWords {
			overlap = maxWords / 10
		}
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if len(words) <= maxWords {
		return []string{strings.Join(words, " ")}
	}

	step := maxWords - overlap
	chunks := make([]string, 0, (len(words)+step-1)/step)
	for start := 0; ; start += step {
		end := start + maxWords
		if end >= len(words) {
			chunks = append(chunks, strings.Join(words[start:], " "))
			break
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}

// Reassemble joins chunks back into the original word sequence by dropping
// each chunk's leading overlap words. Used by tests to prove full coverage.
func Reassemble(chunks []string, overlap int) string {
	if len(chunks) == 0 {
		return ""
	}
	words := strings.Fields(chunks[0])
	for _, chunk := range chunks[1:] {
		cw := strings.Fields(chunk)
		if len(cw) > overlap {
			cw = cw[overlap:]
		} else {
			cw = nil
		}
		words = append(words, cw...)
	}
	return strings.Join(words, " ")
}
