package verify

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/mhdc11/Proyecto-IA-Sinensia/internal/analysis"
	"github.com/mhdc11/Proyecto-IA-Sinensia/internal/fuzzy"
)

// Config holds the verification tunables. Zero values fall back to defaults.
type Config struct {
	// SimilarityThreshold for fuzzy party presence checks (default 0.90).
	SimilarityThreshold float64
	// CategoryPenalty subtracted from confidence per category with
	// verification failures (default 0.2).
	CategoryPenalty float64
	// CompletenessCap applied when more than half of the mandatory
	// categories are empty (default 0.5).
	CompletenessCap float64
}

func (c Config) withDefaults() Config {
	if c.SimilarityThreshold <= 0 {
		c.SimilarityThreshold = 0.90
	}
	if c.CategoryPenalty <= 0 {
		c.CategoryPenalty = 0.2
	}
	if c.CompletenessCap <= 0 {
		c.CompletenessCap = 0.5
	}
	return c
}

// NormalizeFacts returns a copy of a with European date notation converted to
// ISO and currency symbols mapped to ISO 4217 codes. Run before Postprocess so
// verification sees the canonical forms.
func NormalizeFacts(a *analysis.Analysis) *analysis.Analysis {
	out := a.Clone()
	for i, f := range out.Fechas {
		if iso, ok := NormalizeEUDate(f.Valor); ok {
			out.Fechas[i].Valor = iso
		}
	}
	for i, imp := range out.Importes {
		out.Importes[i].Moneda = NormalizeCurrency(imp.Moneda)
	}
	return out
}

// Postprocess cross-checks the analysis against the source text and returns a
// new Analysis with adjusted confidence and explanatory notes. Facts are never
// added or removed: a failed check may be formatting drift, so the fact stays
// and only confidence and notes change.
func Postprocess(a *analysis.Analysis, sourceText string, cfg Config) *analysis.Analysis {
	cfg = cfg.withDefaults()
	out := a.Clone()

	adjusted := out.Confianza
	var notes []string

	// Dates: literal presence, or year presence for ISO-normalized values.
	unverifiedDates := 0
	for _, f := range out.Fechas {
		if !dateVerified(f.Valor, sourceText, cfg.SimilarityThreshold) {
			unverifiedDates++
		}
	}
	if unverifiedDates > 0 {
		adjusted -= cfg.CategoryPenalty
		notes = append(notes, fmt.Sprintf(
			"⚠️ %d fecha(s) no verificadas en el texto original (posible deriva de formato)",
			unverifiedDates))
	}

	// Amounts: numeric match against numbers appearing in the text.
	textNumbers := extractNumbers(sourceText)
	unverifiedAmounts := 0
	for _, imp := range out.Importes {
		if imp.Valor == nil {
			continue
		}
		if !numberVerified(*imp.Valor, textNumbers) {
			unverifiedAmounts++
		}
	}
	if unverifiedAmounts > 0 {
		adjusted -= cfg.CategoryPenalty
		notes = append(notes, fmt.Sprintf(
			"⚠️ %d importe(s) no verificados en el texto original (posible inferencia del modelo)",
			unverifiedAmounts))
	}

	// Parties: fuzzy presence in the source text.
	unverifiedParties := 0
	for _, party := range out.Partes {
		if !fuzzy.Contains(sourceText, stripIdentifier(party), cfg.SimilarityThreshold) {
			unverifiedParties++
		}
	}
	if unverifiedParties > 0 {
		adjusted -= cfg.CategoryPenalty
		notes = append(notes, fmt.Sprintf(
			"⚠️ %d parte(s) no localizadas en el texto original",
			unverifiedParties))
	}

	if adjusted < 0 {
		adjusted = 0
	}

	// Completeness: more than half of the mandatory categories empty caps
	// confidence regardless of verification results.
	final := math.Min(out.Confianza, adjusted)
	empty := 7 - out.NonEmptyCategories()
	if empty > 3 {
		notes = append(notes, fmt.Sprintf(
			"Análisis incompleto: %d de 7 categorías sin datos (confianza limitada)", empty))
		final = math.Min(final, cfg.CompletenessCap)
	}

	out.Notas = clipNotes(append(out.Notas, notes...))
	out.Confianza = round2(final)
	return out
}

// dateVerified checks a date value against the source: the literal phrase
// (fuzzy) for non-ISO values, or the year for ISO-normalized values, since
// normalization legitimately rewrites "1 de marzo de 2026" as "2026-03-01".
func dateVerified(value, sourceText string, threshold float64) bool {
	if isoDate.MatchString(value) {
		return strings.Contains(sourceText, value[:4])
	}
	if strings.Contains(fuzzy.Normalize(sourceText), fuzzy.Normalize(value)) {
		return true
	}
	return fuzzy.Contains(sourceText, value, threshold)
}

var numberPattern = regexp.MustCompile(`\d+(?:[.,]\d+)*`)

// extractNumbers pulls every numeric token from the text and parses each under
// both European ("30.000,50") and plain ("30000.50") conventions.
func extractNumbers(text string) []float64 {
	tokens := numberPattern.FindAllString(text, -1)
	out := make([]float64, 0, len(tokens)*2)
	for _, tok := range tokens {
		// European style: dots as thousands separators, comma as decimal.
		eu := strings.ReplaceAll(tok, ".", "")
		eu = strings.ReplaceAll(eu, ",", ".")
		if v, err := strconv.ParseFloat(eu, 64); err == nil {
			out = append(out, v)
		}
		// Plain style: commas as thousands separators.
		plain := strings.ReplaceAll(tok, ",", "")
		if v, err := strconv.ParseFloat(plain, 64); err == nil {
			out = append(out, v)
		}
	}
	return out
}

func numberVerified(value float64, textNumbers []float64) bool {
	for _, n := range textNumbers {
		if math.Abs(value-n) < 0.01 {
			return true
		}
	}
	return false
}

var identifierSuffix = regexp.MustCompile(`\s*\((?:CIF|NIF|DNI|NIE)[^)]*\)\s*$`)

// stripIdentifier removes the "(CIF: ...)" suffix the prompt asks for so the
// presence check matches the name as it appears in running text.
func stripIdentifier(party string) string {
	return strings.TrimSpace(identifierSuffix.ReplaceAllString(party, ""))
}

func clipNotes(notes []string) []string {
	if len(notes) > analysis.MaxNotes {
		return notes[:analysis.MaxNotes]
	}
	return notes
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
