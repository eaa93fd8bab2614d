package analyze

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSystemPrompt(t *testing.T) {
	sp := SystemPrompt()
	for _, key := range []string{
		"tipo_documento", "partes", "fechas", "importes", "obligaciones",
		"derechos", "riesgos", "resumen_bullets", "notas", "confianza_aprox",
	} {
		if !strings.Contains(sp, key) {
			t.Errorf("system prompt missing schema field %q", key)
		}
	}
	if !strings.Contains(sp, "NO inventes") {
		t.Error("system prompt missing the truthfulness rule")
	}
}

func TestBuild(t *testing.T) {
	t.Run("single_chunk_has_no_fragment_marker", func(t *testing.T) {
		prompt, err := Build("texto del contrato", 0, 1, 8000)
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		if strings.Contains(prompt, "FRAGMENTO") {
			t.Error("single-chunk prompt carries a fragment marker")
		}
		if !strings.Contains(prompt, "texto del contrato") {
			t.Error("prompt does not contain the document text")
		}
	})

	t.Run("multi_chunk_marker", func(t *testing.T) {
		prompt, err := Build("texto", 1, 3, 8000)
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		if !strings.Contains(prompt, "FRAGMENTO 2 DE 3") {
			t.Error("prompt missing FRAGMENTO 2 DE 3 marker")
		}
	})

	t.Run("system_prompt_included", func(t *testing.T) {
		prompt, err := Build("texto", 0, 1, 8000)
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		if !strings.HasPrefix(prompt, SystemPrompt()) {
			t.Error("prompt does not start with the system block")
		}
	})

	t.Run("oversized_text_is_truncated_with_note", func(t *testing.T) {
		long := strings.Repeat("palabra ", 20000)
		prompt, err := Build(long, 0, 1, 3000)
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		if !strings.Contains(prompt, "Documento truncado") {
			t.Error("truncated prompt missing the truncation note")
		}
		if EstimateTokens(prompt) > 3000 {
			t.Errorf("prompt estimates %d tokens, want <= 3000", EstimateTokens(prompt))
		}
	})

	t.Run("budget_too_small", func(t *testing.T) {
		if _, err := Build("texto", 0, 1, 100); err == nil {
			t.Error("Build() with tiny budget should fail")
		}
	})
}

func TestTruncateSafe(t *testing.T) {
	t.Run("short_text_untouched", func(t *testing.T) {
		if got := TruncateSafe("hola mundo", 100); got != "hola mundo" {
			t.Errorf("TruncateSafe() = %q, want unchanged", got)
		}
	})

	t.Run("cuts_at_word_boundary", func(t *testing.T) {
		got := TruncateSafe("uno dos tres cuatro cinco seis siete", 25)
		if !strings.HasSuffix(got, "...") {
			t.Errorf("TruncateSafe() = %q, want ellipsis suffix", got)
		}
		if strings.Contains(strings.TrimSuffix(got, "..."), "cuatr") &&
			!strings.Contains(got, "cuatro") {
			t.Errorf("TruncateSafe() = %q, cut mid-word", got)
		}
	})

	t.Run("never_cuts_a_utf8_sequence", func(t *testing.T) {
		// "á" is two bytes; odd byte limits land inside it without a
		// rune-boundary walkback.
		text := strings.Repeat("á", 50)
		for _, limit := range []int{7, 8, 9} {
			got := TruncateSafe(text, limit)
			if !utf8.ValidString(got) {
				t.Errorf("TruncateSafe(%d) = %q, invalid UTF-8", limit, got)
			}
			if len(got) > limit+len("...") {
				t.Errorf("TruncateSafe(%d) kept %d bytes", limit, len(got))
			}
		}
	})
}

func TestCorrectionInstruction(t *testing.T) {
	instr := CorrectionInstruction("missing required field partes")
	if !strings.Contains(instr, "missing required field partes") {
		t.Error("correction instruction missing the failure reason")
	}
	if !strings.Contains(instr, "JSON") {
		t.Error("correction instruction missing the JSON reminder")
	}

	long := strings.Repeat("x", 500)
	instr = CorrectionInstruction(long)
	if strings.Contains(instr, long) {
		t.Error("correction instruction should truncate long reasons")
	}
}
