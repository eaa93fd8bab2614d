package chunker

import (
	"fmt"
	"strings"
	"testing"
)

// nWords builds a text of n distinct words so coverage and overlap can be
// checked positionally.
func nWords(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(words, " ")
}

func TestNeedsChunking(t *testing.T) {
	if NeedsChunking(nWords(2999), 3000) {
		t.Error("NeedsChunking(2999 words) = true, want false")
	}
	if !NeedsChunking(nWords(3000), 3000) {
		t.Error("NeedsChunking(3000 words) = false, want true")
	}
	if !NeedsChunking(nWords(3000), 0) {
		t.Error("NeedsChunking with zero threshold should use the default")
	}
}

func TestSplit(t *testing.T) {
	t.Run("short_text_single_chunk", func(t *testing.T) {
		chunks := Split(nWords(100), 2500, 200)
		if len(chunks) != 1 {
			t.Fatalf("Split() produced %d chunks, want 1", len(chunks))
		}
	})

	t.Run("empty_text", func(t *testing.T) {
		if chunks := Split("", 2500, 200); chunks != nil {
			t.Errorf("Split(\"\") = %v, want nil", chunks)
		}
	})

	t.Run("six_thousand_words", func(t *testing.T) {
		text := nWords(6000)
		chunks := Split(text, 2500, 200)
		if len(chunks) != 3 {
			t.Fatalf("Split() produced %d chunks, want 3", len(chunks))
		}

		// Each chunk except the last holds exactly maxWords.
		for i, chunk := range chunks[:len(chunks)-1] {
			if n := WordCount(chunk); n != 2500 {
				t.Errorf("chunk %d has %d words, want 2500", i, n)
			}
		}
		if n := WordCount(chunks[2]); n > 2500 {
			t.Errorf("last chunk has %d words, want <= 2500", n)
		}

		// Consecutive chunks share exactly the overlap.
		for i := 1; i < len(chunks); i++ {
			prev := strings.Fields(chunks[i-1])
			cur := strings.Fields(chunks[i])
			tail := strings.Join(prev[len(prev)-200:], " ")
			head := strings.Join(cur[:200], " ")
			if tail != head {
				t.Errorf("chunks %d/%d do not share a 200-word overlap", i-1, i)
			}
		}

		// Full coverage: reassembly reproduces the original word sequence.
		if got := Reassemble(chunks, 200); got != text {
			t.Error("Reassemble() does not reproduce the original text")
		}
	})

	t.Run("no_word_lost_at_tail", func(t *testing.T) {
		// 2501 words: one word past the window must still appear.
		text := nWords(2501)
		chunks := Split(text, 2500, 200)
		last := chunks[len(chunks)-1]
		if !strings.Contains(last, "w2500") {
			t.Error("Split() dropped the final word")
		}
	})

	t.Run("invalid_overlap_falls_back", func(t *testing.T) {
		chunks := Split(nWords(300), 100, 100) // overlap >= maxWords
		if got := Reassemble(chunks, 10); got != nWords(300) {
			t.Error("Split() with invalid overlap lost coverage")
		}
	})
}
