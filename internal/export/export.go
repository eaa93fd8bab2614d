// Package export renders a finished analysis as JSON, a plain-text report,
// or an XLSX workbook.
package export

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mhdc11/Proyecto-IA-Sinensia/internal/analysis"
)

// Meta carries run information included alongside the analysis in exports.
type Meta struct {
	Filename   string    `json:"archivo,omitempty"`
	Model      string    `json:"modelo,omitempty"`
	ChunkCount int       `json:"fragmentos,omitempty"`
	AnalyzedAt time.Time `json:"fecha_analisis,omitempty"`
}

// JSON returns the analysis and metadata as indented JSON.
func JSON(a *analysis.Analysis, meta Meta) ([]byte, error) {
	payload := struct {
		Meta     Meta               `json:"meta"`
		Analysis *analysis.Analysis `json:"analisis"`
	}{Meta: meta, Analysis: a}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling analysis: %w", err)
	}
	return append(data, '\n'), nil
}

// Text returns a human-readable plain-text report in Spanish.
func Text(a *analysis.Analysis, meta Meta) []byte {
	var b strings.Builder

	b.WriteString("ANÁLISIS DE DOCUMENTO LEGAL\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	if meta.Filename != "" {
		fmt.Fprintf(&b, "Archivo: %s\n", meta.Filename)
	}
	if meta.Model != "" {
		fmt.Fprintf(&b, "Modelo: %s\n", meta.Model)
	}
	if !meta.AnalyzedAt.IsZero() {
		fmt.Fprintf(&b, "Fecha de análisis: %s\n", meta.AnalyzedAt.Format("2006-01-02 15:04"))
	}
	if meta.ChunkCount > 1 {
		fmt.Fprintf(&b, "Fragmentos analizados: %d\n", meta.ChunkCount)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Tipo de documento: %s\n", a.TipoDocumento)
	fmt.Fprintf(&b, "Confianza aproximada: %.2f\n\n", a.Confianza)

	writeSection(&b, "RESUMEN", a.ResumenBullets, "• ")
	writeSection(&b, "PARTES", a.Partes, "- ")

	if len(a.Fechas) > 0 {
		b.WriteString("FECHAS\n" + strings.Repeat("-", 60) + "\n")
		for _, f := range a.Fechas {
			fmt.Fprintf(&b, "- %s: %s\n", f.Etiqueta, f.Valor)
		}
		b.WriteString("\n")
	}

	if len(a.Importes) > 0 {
		b.WriteString("IMPORTES\n" + strings.Repeat("-", 60) + "\n")
		for _, imp := range a.Importes {
			fmt.Fprintf(&b, "- %s: %s\n", imp.Concepto, FormatAmount(imp))
		}
		b.WriteString("\n")
	}

	writeSection(&b, "OBLIGACIONES", a.Obligaciones, "- ")
	writeSection(&b, "DERECHOS", a.Derechos, "- ")
	writeSection(&b, "RIESGOS", a.Riesgos, "- ")
	writeSection(&b, "NOTAS", a.Notas, "- ")

	return []byte(b.String())
}

func writeSection(b *strings.Builder, title string, items []string, bullet string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(title + "\n" + strings.Repeat("-", 60) + "\n")
	for _, item := range items {
		b.WriteString(bullet + item + "\n")
	}
	b.WriteString("\n")
}

// FormatAmount renders an amount with its numeric value and currency when
// the model extracted them.
func FormatAmount(imp analysis.Importe) string {
	if imp.Valor == nil {
		return "sin valor"
	}
	if imp.Moneda != nil && *imp.Moneda != "" {
		return fmt.Sprintf("%.2f %s", *imp.Valor, *imp.Moneda)
	}
	return fmt.Sprintf("%.2f", *imp.Valor)
}

// XLSX returns the analysis as an XLSX workbook with one sheet per category.
func XLSX(a *analysis.Analysis, meta Meta) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const summary = "Resumen"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return nil, err
	}

	write := func(sheet string, col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	row := 1
	writeKV := func(k string, v any) {
		write(summary, 1, row, k)
		write(summary, 2, row, v)
		row++
	}
	if meta.Filename != "" {
		writeKV("Archivo", meta.Filename)
	}
	if meta.Model != "" {
		writeKV("Modelo", meta.Model)
	}
	if !meta.AnalyzedAt.IsZero() {
		writeKV("Fecha de análisis", meta.AnalyzedAt.Format("2006-01-02 15:04"))
	}
	writeKV("Tipo de documento", a.TipoDocumento)
	writeKV("Confianza aproximada", a.Confianza)
	row++
	for i, bullet := range a.ResumenBullets {
		write(summary, 1, row, fmt.Sprintf("Punto %d", i+1))
		write(summary, 2, row, bullet)
		row++
	}
	_ = f.SetColWidth(summary, "A", "A", 22)
	_ = f.SetColWidth(summary, "B", "B", 90)

	listSheet := func(name string, items []string) error {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
		for i, item := range items {
			write(name, 1, i+1, item)
		}
		_ = f.SetColWidth(name, "A", "A", 90)
		return nil
	}

	if err := listSheet("Partes", a.Partes); err != nil {
		return nil, err
	}
	if err := listSheet("Obligaciones", a.Obligaciones); err != nil {
		return nil, err
	}
	if err := listSheet("Derechos", a.Derechos); err != nil {
		return nil, err
	}
	if err := listSheet("Riesgos", a.Riesgos); err != nil {
		return nil, err
	}
	if err := listSheet("Notas", a.Notas); err != nil {
		return nil, err
	}

	const dates = "Fechas"
	if _, err := f.NewSheet(dates); err != nil {
		return nil, err
	}
	write(dates, 1, 1, "Etiqueta")
	write(dates, 2, 1, "Valor")
	for i, fe := range a.Fechas {
		write(dates, 1, i+2, fe.Etiqueta)
		write(dates, 2, i+2, fe.Valor)
	}
	_ = f.SetColWidth(dates, "A", "B", 30)

	const amounts = "Importes"
	if _, err := f.NewSheet(amounts); err != nil {
		return nil, err
	}
	write(amounts, 1, 1, "Concepto")
	write(amounts, 2, 1, "Valor")
	write(amounts, 3, 1, "Moneda")
	for i, imp := range a.Importes {
		write(amounts, 1, i+2, imp.Concepto)
		if imp.Valor != nil {
			write(amounts, 2, i+2, *imp.Valor)
		}
		if imp.Moneda != nil {
			write(amounts, 3, i+2, *imp.Moneda)
		}
	}
	_ = f.SetColWidth(amounts, "A", "A", 40)
	_ = f.SetColWidth(amounts, "B", "C", 14)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
