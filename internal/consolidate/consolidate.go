// Package consolidate merges per-chunk partial analyses into one coherent
// document-level Analysis: union with fuzzy dedup for list categories,
// conflict-preserving merges for dates and amounts, density-ranked summary
// bullets and majority-voted document type. Truthfulness wins over tidiness:
// conflicting facts are kept and flagged, never silently dropped.
package consolidate

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/mhdc11/Proyecto-IA-Sinensia/internal/analysis"
	"github.com/mhdc11/Proyecto-IA-Sinensia/internal/fuzzy"
)

// ErrNoAnalyses is returned when there is nothing to consolidate. The
// orchestrator must fall back to a degraded Analysis instead of calling
// Consolidate with zero results.
var ErrNoAnalyses = errors.New("no chunk analyses to consolidate")

// Config holds the consolidation tunables. Zero values fall back to defaults.
type Config struct {
	// SimilarityThreshold above which two entries collapse into one
	// (default 0.90).
	SimilarityThreshold float64
	// ConflictPenalty is the fractional confidence reduction applied when
	// consolidation generated conflict notes (default 0.10).
	ConflictPenalty float64
}

func (c Config) withDefaults() Config {
	if c.SimilarityThreshold <= 0 {
		c.SimilarityThreshold = 0.90
	}
	if c.ConflictPenalty <= 0 {
		c.ConflictPenalty = 0.10
	}
	return c
}

// Consolidate merges chunk analyses, in document order, into one Analysis.
// Chunk order is load-bearing: it breaks ties in document-type voting and
// bullet ranking, favoring earlier content.
func Consolidate(chunks []analysis.Analysis, cfg Config) (*analysis.Analysis, error) {
	if len(chunks) == 0 {
		return nil, ErrNoAnalyses
	}
	cfg = cfg.withDefaults()

	if len(chunks) == 1 {
		out := chunks[0].Clone()
		out.Notas = clip(out.Notas, analysis.MaxNotes)
		if len(out.ResumenBullets) == 0 {
			out.ResumenBullets = []string{fallbackBullet(out)}
		}
		out.EnsureDefaults()
		return out, nil
	}

	var conflictNotes []string

	out := &analysis.Analysis{}
	out.TipoDocumento = voteDocumentType(chunks)
	out.Partes = clip(mergeStrings(chunks, cfg, func(a *analysis.Analysis) []string { return a.Partes }), analysis.MaxParties)
	out.Obligaciones = clip(mergeStrings(chunks, cfg, func(a *analysis.Analysis) []string { return a.Obligaciones }), analysis.MaxObligations)
	out.Derechos = clip(mergeStrings(chunks, cfg, func(a *analysis.Analysis) []string { return a.Derechos }), analysis.MaxRights)
	out.Riesgos = clip(mergeStrings(chunks, cfg, func(a *analysis.Analysis) []string { return a.Riesgos }), analysis.MaxRisks)

	out.Fechas, conflictNotes = mergeDates(chunks, conflictNotes)
	out.Importes, conflictNotes = mergeAmounts(chunks, cfg, conflictNotes)
	out.ResumenBullets = rankBullets(chunks, cfg)

	if len(out.ResumenBullets) == 0 {
		out.ResumenBullets = []string{fallbackBullet(out)}
	}

	// Notes: union of chunk notes plus conflicts found here.
	var allNotes []string
	allNotes = append(allNotes, fmt.Sprintf("Análisis consolidado de %d fragmentos del documento", len(chunks)))
	for i := range chunks {
		allNotes = append(allNotes, chunks[i].Notas...)
	}
	allNotes = append(allNotes, conflictNotes...)
	out.Notas = clip(dedupeExact(allNotes), analysis.MaxNotes)

	// Confidence: mean across chunks, reduced when conflicts were found.
	sum := 0.0
	for i := range chunks {
		sum += chunks[i].Confianza
	}
	conf := sum / float64(len(chunks))
	if len(conflictNotes) > 0 {
		conf *= 1 - cfg.ConflictPenalty
	}
	out.Confianza = math.Round(math.Max(0, math.Min(1, conf))*100) / 100

	out.EnsureDefaults()
	return out, nil
}

// voteDocumentType picks the majority type across chunks, ignoring unknowns.
// Ties go to the type seen earliest in chunk order.
func voteDocumentType(chunks []analysis.Analysis) string {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	for i := range chunks {
		t := chunks[i].TipoDocumento
		if t == "" || t == analysis.DocTypeUnknown {
			continue
		}
		counts[t]++
		if _, ok := firstSeen[t]; !ok {
			firstSeen[t] = i
		}
	}
	best := analysis.DocTypeUnknown
	bestCount := 0
	for t, n := range counts {
		if n > bestCount || (n == bestCount && bestCount > 0 && firstSeen[t] < firstSeen[best]) {
			best, bestCount = t, n
		}
	}
	return best
}

func mergeStrings(chunks []analysis.Analysis, cfg Config, field func(*analysis.Analysis) []string) []string {
	var all []string
	for i := range chunks {
		all = append(all, field(&chunks[i])...)
	}
	return fuzzy.Dedupe(all, cfg.SimilarityThreshold)
}

// mergeDates dedupes by exact (label, value) match. Two entries sharing a
// label but differing in value are both kept and flagged with a conflict note.
func mergeDates(chunks []analysis.Analysis, notes []string) ([]analysis.Fecha, []string) {
	seen := make(map[string]bool)
	valuesByLabel := make(map[string][]string)
	var merged []analysis.Fecha

	for i := range chunks {
		for _, f := range chunks[i].Fechas {
			label := fuzzy.Normalize(f.Etiqueta)
			value := fuzzy.Normalize(f.Valor)
			key := label + "\x00" + value
			if seen[key] {
				continue
			}
			seen[key] = true

			if prior := valuesByLabel[label]; len(prior) > 0 {
				notes = append(notes, fmt.Sprintf(
					"⚠️ Conflicto de fechas para %q: se conservan %q y %q",
					f.Etiqueta, prior[0], f.Valor))
			}
			valuesByLabel[label] = append(valuesByLabel[label], f.Valor)
			merged = append(merged, f)
		}
	}
	if len(merged) > analysis.MaxDates {
		merged = merged[:analysis.MaxDates]
	}
	return merged, notes
}

// mergeAmounts dedupes by (concept, value, currency) near-match on the
// concept. Conflicting values under the same concept are both retained with a
// conflict note.
func mergeAmounts(chunks []analysis.Analysis, cfg Config, notes []string) ([]analysis.Importe, []string) {
	var merged []analysis.Importe

	for i := range chunks {
	next:
		for _, imp := range chunks[i].Importes {
			for _, kept := range merged {
				if fuzzy.Similarity(imp.Concepto, kept.Concepto) < cfg.SimilarityThreshold {
					continue
				}
				if sameAmount(imp, kept) {
					continue next // duplicate
				}
				notes = append(notes, fmt.Sprintf(
					"⚠️ Conflicto de importes para %q: se conservan ambos valores", kept.Concepto))
			}
			merged = append(merged, imp)
		}
	}
	if len(merged) > analysis.MaxAmounts {
		merged = merged[:analysis.MaxAmounts]
	}
	return merged, notes
}

func sameAmount(a, b analysis.Importe) bool {
	switch {
	case a.Valor == nil && b.Valor != nil, a.Valor != nil && b.Valor == nil:
		return false
	case a.Valor != nil && math.Abs(*a.Valor-*b.Valor) >= 0.01:
		return false
	}
	ca, cb := "", ""
	if a.Moneda != nil {
		ca = strings.ToUpper(*a.Moneda)
	}
	if b.Moneda != nil {
		cb = strings.ToUpper(*b.Moneda)
	}
	return ca == cb
}

// rankBullets scores every chunk's bullets by information density and keeps
// the top MaxBullets. The stable sort preserves chunk order on ties, favoring
// earlier chunks (headers, parties and effective dates come first in most
// documents).
func rankBullets(chunks []analysis.Analysis, cfg Config) []string {
	var all []string
	for i := range chunks {
		all = append(all, chunks[i].ResumenBullets...)
	}
	all = fuzzy.Dedupe(all, cfg.SimilarityThreshold)

	sort.SliceStable(all, func(i, j int) bool {
		return bulletScore(all[i]) > bulletScore(all[j])
	})
	if len(all) > analysis.MaxBullets {
		all = all[:analysis.MaxBullets]
	}
	return all
}

// bulletScore is a tunable density heuristic: longer bullets with numbers and
// named entities beat short generic ones.
func bulletScore(bullet string) int {
	words := strings.Fields(bullet)
	score := len(words)
	if score > 20 {
		score = 20
	}
	for i, w := range words {
		r := []rune(w)[0]
		if unicode.IsDigit(r) {
			score += 2
		} else if i > 0 && unicode.IsUpper(r) {
			score++
		}
	}
	return score
}

func fallbackBullet(a *analysis.Analysis) string {
	return fmt.Sprintf("Documento de tipo %q con %d parte(s) identificada(s)",
		a.TipoDocumento, len(a.Partes))
}

func dedupeExact(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		key := strings.TrimSpace(item)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}

func clip(items []string, max int) []string {
	if len(items) > max {
		return items[:max]
	}
	return items
}
