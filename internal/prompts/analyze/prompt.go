// Package analyze holds the fixed instruction blocks for document analysis and
// assembles them with a text segment into a single completion prompt.
package analyze

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
	"unicode/utf8"
)

//go:embed system.tmpl
var systemPrompt string

//go:embed user.tmpl
var userPromptTmpl string

var userTemplate = template.Must(template.New("user").Parse(userPromptTmpl))

// responseReserveTokens is kept free for the model's JSON answer.
const responseReserveTokens = 600

// SystemPrompt returns the fixed rules + schema + procedure block.
func SystemPrompt() string {
	return systemPrompt
}

// EstimateTokens approximates the token count of text. Roughly four characters
// per token for Spanish and English.
func EstimateTokens(text string) int {
	return len(text) / 4
}

// TruncateSafe shortens text to at most maxChars bytes without cutting a word
// or a UTF-8 sequence, appending an ellipsis when anything was dropped.
func TruncateSafe(text string, maxChars int) string {
	if len(text) <= maxChars {
		return text
	}
	end := maxChars
	for end > 0 && !utf8.RuneStart(text[end]) {
		end--
	}
	cut := text[:end]
	if idx := strings.LastIndexByte(cut, ' '); idx > maxChars*8/10 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut) + "..."
}

// Build assembles the full prompt for one text chunk. index and count identify
// the chunk's position; when count > 1 the document block carries a fragment
// marker so the model knows it sees a partial document. maxTokens bounds the
// whole prompt; the chunk text is truncated defensively if the chunker's
// sizing and the configured budget disagree.
func Build(text string, index, count, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = 8000
	}

	systemTokens := EstimateTokens(systemPrompt)
	available := maxTokens - systemTokens - responseReserveTokens
	if available < 500 {
		return "", fmt.Errorf(
			"token budget too small for document: system prompt uses %d of %d tokens",
			systemTokens, maxTokens)
	}

	truncated := false
	availableChars := available * 4
	if len(text) > availableChars {
		text = TruncateSafe(text, availableChars)
		truncated = true
	}

	var buf bytes.Buffer
	data := struct {
		Text      string
		Index     int
		Count     int
		Multi     bool
		Truncated bool
	}{Text: text, Index: index + 1, Count: count, Multi: count > 1, Truncated: truncated}
	if err := userTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render document block: %w", err)
	}

	return systemPrompt + "\n\n" + buf.String(), nil
}

// CorrectionInstruction is appended to the original prompt when the model's
// previous output failed parsing or schema validation.
func CorrectionInstruction(reason string) string {
	reason = TruncateSafe(reason, 300)
	return fmt.Sprintf(`

LA RESPUESTA ANTERIOR NO FUE JSON VÁLIDO O NO CUMPLIÓ EL SCHEMA.

ERROR: %s

Devuelve ÚNICAMENTE un JSON válido que cumpla EXACTAMENTE el schema indicado,
sin texto adicional, sin markdown y sin comentarios.`, reason)
}
