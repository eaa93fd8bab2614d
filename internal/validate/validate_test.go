package validate

import (
	"strings"
	"testing"
)

const validResponse = `{
	"tipo_documento": "contrato_arrendamiento",
	"partes": ["Juan Pérez García (DNI 12345678A)", "María López Ruiz"],
	"fechas": [{"etiqueta": "inicio de vigencia", "valor": "2026-03-01"}],
	"importes": [{"concepto": "renta mensual", "valor": 1200.5, "moneda": "EUR"}],
	"obligaciones": ["Pagar la renta dentro de los cinco primeros días"],
	"derechos": ["Uso pacífico del inmueble"],
	"riesgos": ["Penalización por desistimiento anticipado"],
	"resumen_bullets": ["Contrato de arrendamiento de vivienda entre dos partes"],
	"notas": [],
	"confianza_aprox": 0.85
}`

func TestExtractJSONBlock(t *testing.T) {
	t.Run("bare_object", func(t *testing.T) {
		got, ok := ExtractJSONBlock(`{"a": 1}`)
		if !ok || got != `{"a": 1}` {
			t.Errorf("ExtractJSONBlock() = %q, %v", got, ok)
		}
	})

	t.Run("markdown_fences", func(t *testing.T) {
		raw := "```json\n{\"a\": 1}\n```"
		got, ok := ExtractJSONBlock(raw)
		if !ok || got != `{"a": 1}` {
			t.Errorf("ExtractJSONBlock() = %q, %v", got, ok)
		}
	})

	t.Run("prose_wrapped", func(t *testing.T) {
		raw := "Aquí tienes el análisis solicitado:\n" + validResponse + "\nEspero que te sea útil."
		got, ok := ExtractJSONBlock(raw)
		if !ok {
			t.Fatal("ExtractJSONBlock() ok = false")
		}
		if !strings.HasPrefix(got, "{") || !strings.HasSuffix(got, "}") {
			t.Errorf("ExtractJSONBlock() = %q, want braces-delimited", got)
		}
	})

	t.Run("no_object", func(t *testing.T) {
		if _, ok := ExtractJSONBlock("no hay json aquí"); ok {
			t.Error("ExtractJSONBlock() ok = true for prose")
		}
	})

	t.Run("reversed_braces", func(t *testing.T) {
		if _, ok := ExtractJSONBlock("} nada {"); ok {
			t.Error("ExtractJSONBlock() ok = true for reversed braces")
		}
	})
}

func TestParseAndValidate(t *testing.T) {
	t.Run("valid_response", func(t *testing.T) {
		a, err := ParseAndValidate(validResponse)
		if err != nil {
			t.Fatalf("ParseAndValidate() error = %v", err)
		}
		if a.TipoDocumento != "contrato_arrendamiento" {
			t.Errorf("TipoDocumento = %q", a.TipoDocumento)
		}
		if len(a.Partes) != 2 {
			t.Errorf("Partes = %v, want 2 entries", a.Partes)
		}
		if a.Importes[0].Valor == nil || *a.Importes[0].Valor != 1200.5 {
			t.Errorf("Importes[0].Valor = %v, want 1200.5", a.Importes[0].Valor)
		}
		if a.Confianza != 0.85 {
			t.Errorf("Confianza = %v, want 0.85", a.Confianza)
		}
	})

	t.Run("prose_wrapped_valid_json_accepted", func(t *testing.T) {
		raw := "Claro, aquí está el JSON:\n```json\n" + validResponse + "\n```\n¡Saludos!"
		if _, err := ParseAndValidate(raw); err != nil {
			t.Errorf("ParseAndValidate() error = %v, want nil", err)
		}
	})

	t.Run("null_amount_fields_allowed", func(t *testing.T) {
		raw := strings.Replace(validResponse,
			`{"concepto": "renta mensual", "valor": 1200.5, "moneda": "EUR"}`,
			`{"concepto": "fianza", "valor": null, "moneda": null}`, 1)
		a, err := ParseAndValidate(raw)
		if err != nil {
			t.Fatalf("ParseAndValidate() error = %v", err)
		}
		if a.Importes[0].Valor != nil || a.Importes[0].Moneda != nil {
			t.Error("null amount fields should decode to nil pointers")
		}
	})

	t.Run("missing_required_field", func(t *testing.T) {
		raw := strings.Replace(validResponse, `"partes": ["Juan Pérez García (DNI 12345678A)", "María López Ruiz"],`, "", 1)
		if _, err := ParseAndValidate(raw); err == nil {
			t.Error("ParseAndValidate() accepted output without partes")
		}
	})

	t.Run("empty_bullets_rejected", func(t *testing.T) {
		raw := strings.Replace(validResponse,
			`"resumen_bullets": ["Contrato de arrendamiento de vivienda entre dos partes"],`,
			`"resumen_bullets": [],`, 1)
		if _, err := ParseAndValidate(raw); err == nil {
			t.Error("ParseAndValidate() accepted empty resumen_bullets")
		}
	})

	t.Run("unknown_field_rejected", func(t *testing.T) {
		raw := strings.Replace(validResponse, `"notas": [],`, `"notas": [], "extra": true,`, 1)
		if _, err := ParseAndValidate(raw); err == nil {
			t.Error("ParseAndValidate() accepted an unknown field")
		}
	})

	t.Run("confidence_out_of_range_rejected", func(t *testing.T) {
		raw := strings.Replace(validResponse, `"confianza_aprox": 0.85`, `"confianza_aprox": 1.5`, 1)
		if _, err := ParseAndValidate(raw); err == nil {
			t.Error("ParseAndValidate() accepted confidence > 1")
		}
	})

	t.Run("malformed_json", func(t *testing.T) {
		if _, err := ParseAndValidate(`{"tipo_documento": "x",`); err == nil {
			t.Error("ParseAndValidate() accepted malformed JSON")
		}
	})
}
