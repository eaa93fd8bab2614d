// Package classify refines the model's document type with keyword heuristics
// over the full text. The model sees at most one chunk at a time; keyword
// counting over the whole document catches types the per-chunk view misses.
package classify

import (
	"sort"
	"strings"

	"github.com/mhdc11/Proyecto-IA-Sinensia/internal/analysis"
)

// typeKeywords maps each document type to the phrases that indicate it.
var typeKeywords = map[string][]string{
	"contrato_laboral": {
		"contrato de trabajo", "contrato laboral", "trabajador", "empleador",
		"salario", "jornada laboral", "vacaciones", "despido",
		"periodo de prueba", "convenio colectivo",
	},
	"nomina": {
		"nómina", "recibo de salarios", "percepciones", "deducciones",
		"bases de cotización", "irpf", "seguridad social",
		"líquido a percibir", "base reguladora",
	},
	"convenio": {
		"convenio colectivo", "representantes de los trabajadores",
		"ámbito de aplicación", "clasificación profesional", "tabla salarial",
		"jornada anual",
	},
	"certificado": {
		"certifica que", "se expide el presente certificado",
		"en uso de las atribuciones", "para que conste",
		"a petición del interesado",
	},
	"poder_notarial": {
		"poder notarial", "otorga poder", "ante mí", "comparece",
		"representación", "mandato", "notario", "protocolo",
	},
	"acta": {
		"acta de la reunión", "asistentes", "orden del día",
		"acuerdos adoptados", "se levanta la sesión",
	},
	"contrato_arrendamiento": {
		"contrato de arrendamiento", "arrendador", "arrendatario", "alquiler",
		"fianza", "renta mensual", "inmueble",
	},
	"contrato_compraventa": {
		"contrato de compraventa", "vendedor", "comprador", "precio",
		"transmite la propiedad", "bien inmueble", "mueble",
	},
}

// ByKeywords classifies a document by keyword presence, returning the detected
// type and a 0-1 confidence. Returns DocTypeUnknown with zero confidence when
// nothing matches.
func ByKeywords(text string) (string, float64) {
	lower := strings.ToLower(text)

	type scored struct {
		docType string
		matches int
	}
	var scores []scored
	for docType, keywords := range typeKeywords {
		matches := 0
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				matches++
			}
		}
		if matches > 0 {
			scores = append(scores, scored{docType, matches})
		}
	}
	if len(scores) == 0 {
		return analysis.DocTypeUnknown, 0.0
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].matches != scores[j].matches {
			return scores[i].matches > scores[j].matches
		}
		return scores[i].docType < scores[j].docType
	})

	best := scores[0]
	confidence := float64(best.matches) / float64(len(typeKeywords[best.docType]))
	if confidence > 1.0 {
		confidence = 1.0
	}
	// A close runner-up makes the classification ambiguous.
	if len(scores) > 1 && float64(scores[1].matches)/float64(best.matches) > 0.7 {
		confidence *= 0.8
	}
	return best.docType, confidence
}

// llmBaseConfidence is assumed for a non-unknown LLM classification when
// arbitrating against keyword evidence.
const llmBaseConfidence = 0.7

// Refine arbitrates between the model's type and the keyword classification.
// Agreement boosts confidence; disagreement goes to whichever side carries
// more confidence.
func Refine(llmType, text string) (string, float64) {
	keywordType, keywordConf := ByKeywords(text)

	if llmType == keywordType {
		conf := keywordConf + 0.15
		if conf > 1.0 {
			conf = 1.0
		}
		return llmType, conf
	}
	if llmType == analysis.DocTypeUnknown && keywordType != analysis.DocTypeUnknown {
		return keywordType, keywordConf
	}

	llmConf := 0.0
	if llmType != analysis.DocTypeUnknown {
		llmConf = llmBaseConfidence
	}
	if keywordConf > llmConf {
		return keywordType, keywordConf
	}
	return llmType, llmConf
}
