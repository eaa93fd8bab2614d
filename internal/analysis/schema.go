package analysis

import "encoding/json"

// Schema is the JSON schema the validator enforces on model output. It is the
// single source of truth for required fields, types and list bounds.
var Schema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"tipo_documento": map[string]any{
			"type":      "string",
			"minLength": 1,
		},
		"partes": map[string]any{
			"type":     "array",
			"items":    map[string]any{"type": "string"},
			"maxItems": MaxParties,
		},
		"fechas": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"etiqueta": map[string]any{"type": "string", "minLength": 1},
					"valor":    map[string]any{"type": "string", "minLength": 1},
				},
				"required":             []string{"etiqueta", "valor"},
				"additionalProperties": false,
			},
			"maxItems": MaxDates,
		},
		"importes": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"concepto": map[string]any{"type": "string", "minLength": 1},
					"valor":    map[string]any{"type": []string{"number", "null"}},
					"moneda":   map[string]any{"type": []string{"string", "null"}},
				},
				"required":             []string{"concepto", "valor", "moneda"},
				"additionalProperties": false,
			},
			"maxItems": MaxAmounts,
		},
		"obligaciones": map[string]any{
			"type":     "array",
			"items":    map[string]any{"type": "string"},
			"maxItems": MaxObligations,
		},
		"derechos": map[string]any{
			"type":     "array",
			"items":    map[string]any{"type": "string"},
			"maxItems": MaxRights,
		},
		"riesgos": map[string]any{
			"type":     "array",
			"items":    map[string]any{"type": "string"},
			"maxItems": MaxRisks,
		},
		"resumen_bullets": map[string]any{
			"type":     "array",
			"items":    map[string]any{"type": "string", "minLength": 1},
			"minItems": 1,
			"maxItems": MaxBullets,
		},
		"notas": map[string]any{
			"type":     "array",
			"items":    map[string]any{"type": "string"},
			"maxItems": MaxNotes,
		},
		"confianza_aprox": map[string]any{
			"type":    "number",
			"minimum": 0.0,
			"maximum": 1.0,
		},
	},
	"required": []string{
		"tipo_documento", "partes", "fechas", "importes", "obligaciones",
		"derechos", "riesgos", "resumen_bullets", "notas", "confianza_aprox",
	},
	"additionalProperties": false,
}

// SchemaJSON returns the schema serialized for the jsonschema compiler and for
// inclusion in correction prompts.
func SchemaJSON() []byte {
	b, err := json.Marshal(Schema)
	if err != nil {
		// Schema is a static literal; marshaling cannot fail at runtime.
		panic(err)
	}
	return b
}
