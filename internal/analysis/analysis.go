// Package analysis defines the structured result produced by the document
// pipeline: the eight-category Analysis record plus its date and amount facts.
// Field names on the wire are Spanish because the output contract (and the
// local model's prompt) is Spanish.
package analysis

// DocTypeUnknown is the classification used when the document type cannot be
// determined from the text.
const DocTypeUnknown = "desconocido"

// List bounds for each Analysis category. The validator rejects model output
// that exceeds them and the consolidator clips merged lists to them.
const (
	MaxParties     = 20
	MaxDates       = 30
	MaxAmounts     = 30
	MaxObligations = 50
	MaxRights      = 50
	MaxRisks       = 30
	MaxBullets     = 10
	MaxNotes       = 10
)

// Fecha is a labeled date fact. Valor holds an ISO YYYY-MM-DD date when the
// source is unambiguous, otherwise the literal phrase from the text.
type Fecha struct {
	Etiqueta string `json:"etiqueta"`
	Valor    string `json:"valor"`
}

// Importe is a monetary fact. Valor is nil when the amount is not parseable as
// a number; Moneda is nil when the currency is not explicit in the text.
type Importe struct {
	Concepto string   `json:"concepto"`
	Valor    *float64 `json:"valor"`
	Moneda   *string  `json:"moneda"`
}

// Analysis is the unit of pipeline output. All list fields are always
// present (empty, never nil, after EnsureDefaults) and ResumenBullets holds at
// least one entry in any Analysis the pipeline returns.
type Analysis struct {
	TipoDocumento  string    `json:"tipo_documento"`
	Partes         []string  `json:"partes"`
	Fechas         []Fecha   `json:"fechas"`
	Importes       []Importe `json:"importes"`
	Obligaciones   []string  `json:"obligaciones"`
	Derechos       []string  `json:"derechos"`
	Riesgos        []string  `json:"riesgos"`
	ResumenBullets []string  `json:"resumen_bullets"`
	Notas          []string  `json:"notas"`
	Confianza      float64   `json:"confianza_aprox"`
}

// EnsureDefaults replaces nil slices with empty ones and fills an empty
// document type with DocTypeUnknown, so downstream code and serialization
// never see null lists.
func (a *Analysis) EnsureDefaults() {
	if a.TipoDocumento == "" {
		a.TipoDocumento = DocTypeUnknown
	}
	if a.Partes == nil {
		a.Partes = []string{}
	}
	if a.Fechas == nil {
		a.Fechas = []Fecha{}
	}
	if a.Importes == nil {
		a.Importes = []Importe{}
	}
	if a.Obligaciones == nil {
		a.Obligaciones = []string{}
	}
	if a.Derechos == nil {
		a.Derechos = []string{}
	}
	if a.Riesgos == nil {
		a.Riesgos = []string{}
	}
	if a.ResumenBullets == nil {
		a.ResumenBullets = []string{}
	}
	if a.Notas == nil {
		a.Notas = []string{}
	}
}

// Clone returns a deep copy. The verifier and consolidator operate on copies
// so a caller's Analysis is never mutated.
func (a *Analysis) Clone() *Analysis {
	c := *a
	c.Partes = append([]string(nil), a.Partes...)
	c.Fechas = append([]Fecha(nil), a.Fechas...)
	c.Importes = make([]Importe, len(a.Importes))
	for i, imp := range a.Importes {
		c.Importes[i] = imp
		if imp.Valor != nil {
			v := *imp.Valor
			c.Importes[i].Valor = &v
		}
		if imp.Moneda != nil {
			m := *imp.Moneda
			c.Importes[i].Moneda = &m
		}
	}
	c.Obligaciones = append([]string(nil), a.Obligaciones...)
	c.Derechos = append([]string(nil), a.Derechos...)
	c.Riesgos = append([]string(nil), a.Riesgos...)
	c.ResumenBullets = append([]string(nil), a.ResumenBullets...)
	c.Notas = append([]string(nil), a.Notas...)
	c.EnsureDefaults()
	return &c
}

// NonEmptyCategories counts how many of the seven list categories carry data.
func (a *Analysis) NonEmptyCategories() int {
	n := 0
	if len(a.Partes) > 0 {
		n++
	}
	if len(a.Fechas) > 0 {
		n++
	}
	if len(a.Importes) > 0 {
		n++
	}
	if len(a.Obligaciones) > 0 {
		n++
	}
	if len(a.Derechos) > 0 {
		n++
	}
	if len(a.Riesgos) > 0 {
		n++
	}
	if len(a.ResumenBullets) > 0 {
		n++
	}
	return n
}

// IsComplete reports whether at least half of the categories (counting the
// document type) carry data.
func (a *Analysis) IsComplete() bool {
	n := a.NonEmptyCategories()
	if a.TipoDocumento != DocTypeUnknown {
		n++
	}
	return n >= 4
}

// Degraded builds a structurally valid but information-poor Analysis: unknown
// type, empty lists, zero confidence, a single fallback bullet and the given
// explanatory notes. Used when extraction yields no text or every chunk fails.
func Degraded(bullet string, notes ...string) *Analysis {
	a := &Analysis{
		TipoDocumento:  DocTypeUnknown,
		ResumenBullets: []string{bullet},
		Notas:          append([]string{}, notes...),
		Confianza:      0.0,
	}
	a.EnsureDefaults()
	return a
}
