package consolidate

import (
	"strings"
	"testing"

	"github.com/mhdc11/Proyecto-IA-Sinensia/internal/analysis"
)

func chunkAnalysis(docType string, conf float64) analysis.Analysis {
	a := analysis.Analysis{
		TipoDocumento:  docType,
		ResumenBullets: []string{"Resumen genérico del fragmento"},
		Confianza:      conf,
	}
	a.EnsureDefaults()
	return a
}

func TestConsolidate(t *testing.T) {
	t.Run("no_chunks", func(t *testing.T) {
		if _, err := Consolidate(nil, Config{}); err != ErrNoAnalyses {
			t.Errorf("Consolidate(nil) error = %v, want ErrNoAnalyses", err)
		}
	})

	t.Run("single_chunk_passthrough", func(t *testing.T) {
		in := chunkAnalysis("contrato_laboral", 0.8)
		in.Partes = []string{"Empresa S.L."}
		got, err := Consolidate([]analysis.Analysis{in}, Config{})
		if err != nil {
			t.Fatalf("Consolidate() error = %v", err)
		}
		if got.TipoDocumento != "contrato_laboral" || got.Confianza != 0.8 {
			t.Errorf("got %q/%v, want contrato_laboral/0.8", got.TipoDocumento, got.Confianza)
		}
		if len(got.Partes) != 1 {
			t.Errorf("Partes = %v", got.Partes)
		}
	})

	t.Run("dedupes_diacritic_variant_parties", func(t *testing.T) {
		a := chunkAnalysis("contrato_arrendamiento", 0.8)
		a.Partes = []string{"Juan Pérez García"}
		b := chunkAnalysis("contrato_arrendamiento", 0.8)
		b.Partes = []string{"Juan Perez Garcia", "María López"}

		got, err := Consolidate([]analysis.Analysis{a, b}, Config{})
		if err != nil {
			t.Fatalf("Consolidate() error = %v", err)
		}
		if len(got.Partes) != 2 {
			t.Fatalf("Partes = %v, want 2 entries", got.Partes)
		}
		if got.Partes[0] != "Juan Pérez García" {
			t.Errorf("Partes[0] = %q, want first-seen form kept", got.Partes[0])
		}
	})

	t.Run("majority_vote_document_type", func(t *testing.T) {
		chunks := []analysis.Analysis{
			chunkAnalysis("contrato_laboral", 0.8),
			chunkAnalysis("contrato_laboral", 0.8),
			chunkAnalysis("nomina", 0.8),
		}
		got, err := Consolidate(chunks, Config{})
		if err != nil {
			t.Fatalf("Consolidate() error = %v", err)
		}
		if got.TipoDocumento != "contrato_laboral" {
			t.Errorf("TipoDocumento = %q, want contrato_laboral", got.TipoDocumento)
		}
	})

	t.Run("vote_ignores_unknown", func(t *testing.T) {
		chunks := []analysis.Analysis{
			chunkAnalysis(analysis.DocTypeUnknown, 0.5),
			chunkAnalysis(analysis.DocTypeUnknown, 0.5),
			chunkAnalysis("certificado", 0.5),
		}
		got, _ := Consolidate(chunks, Config{})
		if got.TipoDocumento != "certificado" {
			t.Errorf("TipoDocumento = %q, want certificado", got.TipoDocumento)
		}
	})

	t.Run("tie_goes_to_earliest_chunk", func(t *testing.T) {
		chunks := []analysis.Analysis{
			chunkAnalysis("nomina", 0.5),
			chunkAnalysis("certificado", 0.5),
		}
		got, _ := Consolidate(chunks, Config{})
		if got.TipoDocumento != "nomina" {
			t.Errorf("TipoDocumento = %q, want nomina (earliest)", got.TipoDocumento)
		}
	})

	t.Run("date_conflict_keeps_both_with_note", func(t *testing.T) {
		a := chunkAnalysis("contrato_laboral", 0.8)
		a.Fechas = []analysis.Fecha{{Etiqueta: "inicio", Valor: "2026-03-01"}}
		b := chunkAnalysis("contrato_laboral", 0.8)
		b.Fechas = []analysis.Fecha{{Etiqueta: "inicio", Valor: "2026-04-01"}}

		got, err := Consolidate([]analysis.Analysis{a, b}, Config{})
		if err != nil {
			t.Fatalf("Consolidate() error = %v", err)
		}
		if len(got.Fechas) != 2 {
			t.Errorf("Fechas = %v, want both conflicting values kept", got.Fechas)
		}
		found := false
		for _, note := range got.Notas {
			if strings.Contains(note, "Conflicto de fechas") {
				found = true
			}
		}
		if !found {
			t.Errorf("missing conflict note, got %v", got.Notas)
		}
		// Conflicts reduce the merged confidence below the chunk mean.
		if got.Confianza >= 0.8 {
			t.Errorf("Confianza = %v, want < 0.8 after conflict", got.Confianza)
		}
	})

	t.Run("duplicate_dates_collapse", func(t *testing.T) {
		a := chunkAnalysis("contrato_laboral", 0.8)
		a.Fechas = []analysis.Fecha{{Etiqueta: "inicio", Valor: "2026-03-01"}}
		b := chunkAnalysis("contrato_laboral", 0.8)
		b.Fechas = []analysis.Fecha{{Etiqueta: "Inicio", Valor: "2026-03-01"}}

		got, _ := Consolidate([]analysis.Analysis{a, b}, Config{})
		if len(got.Fechas) != 1 {
			t.Errorf("Fechas = %v, want 1 entry", got.Fechas)
		}
	})

	t.Run("amount_conflict_keeps_both", func(t *testing.T) {
		v1, v2 := 1200.0, 1500.0
		a := chunkAnalysis("contrato_arrendamiento", 0.8)
		a.Importes = []analysis.Importe{{Concepto: "renta mensual", Valor: &v1}}
		b := chunkAnalysis("contrato_arrendamiento", 0.8)
		b.Importes = []analysis.Importe{{Concepto: "renta mensual", Valor: &v2}}

		got, _ := Consolidate([]analysis.Analysis{a, b}, Config{})
		if len(got.Importes) != 2 {
			t.Errorf("Importes = %v, want both values kept", got.Importes)
		}
		found := false
		for _, note := range got.Notas {
			if strings.Contains(note, "Conflicto de importes") {
				found = true
			}
		}
		if !found {
			t.Errorf("missing amount conflict note, got %v", got.Notas)
		}
	})

	t.Run("duplicate_amounts_collapse", func(t *testing.T) {
		v1, v2 := 1200.0, 1200.0
		a := chunkAnalysis("contrato_arrendamiento", 0.8)
		a.Importes = []analysis.Importe{{Concepto: "renta mensual", Valor: &v1}}
		b := chunkAnalysis("contrato_arrendamiento", 0.8)
		b.Importes = []analysis.Importe{{Concepto: "Renta mensual", Valor: &v2}}

		got, _ := Consolidate([]analysis.Analysis{a, b}, Config{})
		if len(got.Importes) != 1 {
			t.Errorf("Importes = %v, want 1 entry", got.Importes)
		}
	})

	t.Run("bullets_ranked_and_capped", func(t *testing.T) {
		a := chunkAnalysis("contrato_laboral", 0.8)
		a.ResumenBullets = []string{
			"Breve",
			"El contrato fija un salario anual de 30.000 euros para el puesto de Analista en Madrid",
		}
		b := chunkAnalysis("contrato_laboral", 0.8)
		var many []string
		for i := 0; i < 12; i++ {
			many = append(many, strings.Repeat("x", i+1)+" dato distinto")
		}
		b.ResumenBullets = many

		got, _ := Consolidate([]analysis.Analysis{a, b}, Config{})
		if len(got.ResumenBullets) > analysis.MaxBullets {
			t.Errorf("ResumenBullets has %d entries, want <= %d", len(got.ResumenBullets), analysis.MaxBullets)
		}
		if got.ResumenBullets[0] != a.ResumenBullets[1] {
			t.Errorf("top bullet = %q, want the information-dense one", got.ResumenBullets[0])
		}
	})

	t.Run("confidence_is_mean", func(t *testing.T) {
		chunks := []analysis.Analysis{
			chunkAnalysis("contrato_laboral", 0.9),
			chunkAnalysis("contrato_laboral", 0.7),
		}
		got, _ := Consolidate(chunks, Config{})
		if got.Confianza != 0.8 {
			t.Errorf("Confianza = %v, want 0.8", got.Confianza)
		}
	})

	t.Run("consolidation_note_present", func(t *testing.T) {
		chunks := []analysis.Analysis{
			chunkAnalysis("contrato_laboral", 0.8),
			chunkAnalysis("contrato_laboral", 0.8),
		}
		got, _ := Consolidate(chunks, Config{})
		if len(got.Notas) == 0 || !strings.Contains(got.Notas[0], "2 fragmentos") {
			t.Errorf("Notas = %v, want consolidation note first", got.Notas)
		}
	})
}
