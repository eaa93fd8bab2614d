package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mhdc11/Proyecto-IA-Sinensia/internal/analysis"
	"github.com/mhdc11/Proyecto-IA-Sinensia/internal/chunker"
	"github.com/mhdc11/Proyecto-IA-Sinensia/internal/export"
	"github.com/mhdc11/Proyecto-IA-Sinensia/internal/pipeline"
	"github.com/mhdc11/Proyecto-IA-Sinensia/internal/providers"
	"github.com/mhdc11/Proyecto-IA-Sinensia/internal/store"
)

var (
	analyzeModel       string
	analyzeTemperature float64
	analyzeFormat      string
	analyzeOut         string
	analyzeSourceType  string
	analyzePages       int
	analyzeNoVerify    bool
	analyzeNoSave      bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze a legal document from a text file",
	Long: `Analyze a legal document and print a structured report.

The input must be a plain-text file (for scanned documents, run OCR first and
pass the extracted text). The whole analysis happens against a local Ollama
instance; no document text leaves this machine.

Examples:
  lexdoc analyze contrato.txt
  lexdoc analyze sentencia.txt --model llama3.1:8b
  lexdoc analyze poliza.txt --format xlsx --out poliza.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := cfgMgr.Get()

		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading document: %w", err)
		}

		client, err := providers.NewOllamaClient(providers.OllamaConfig{
			Endpoint: cfg.Ollama.Endpoint,
		})
		if err != nil {
			return err
		}

		// Wait briefly for Ollama in case the service is still starting.
		err = retry.Do(
			func() error {
				if !client.Healthy(ctx) {
					return fmt.Errorf("ollama not reachable at %s", cfg.Ollama.Endpoint)
				}
				return nil
			},
			retry.Context(ctx),
			retry.Attempts(3),
			retry.Delay(1*time.Second),
		)
		if err != nil {
			return fmt.Errorf("ollama is not available (is it running?): %w", err)
		}

		opts := cfg.PipelineOptions()
		if analyzeModel != "" {
			opts.Model = analyzeModel
		}
		if cmd.Flags().Changed("temperature") {
			opts.Temperature = analyzeTemperature
		}
		if analyzeNoVerify {
			opts.SkipVerification = true
		}

		sourceType, err := parseSourceType(analyzeSourceType)
		if err != nil {
			return err
		}

		p := pipeline.New(client, opts, logger)
		start := time.Now()
		result, err := p.Run(ctx, pipeline.Input{
			Text:       string(raw),
			PageCount:  analyzePages,
			SourceType: sourceType,
		})
		if err != nil {
			if errors.Is(err, pipeline.ErrCancelled) {
				return err
			}
			// Degraded results still get printed; the error explains why.
			color.Yellow("⚠ %v", err)
		}
		if result == nil {
			return fmt.Errorf("analysis failed: %w", err)
		}

		logger.Info("analysis finished",
			"file", args[0],
			"model", opts.Model,
			"elapsed", time.Since(start).Round(time.Millisecond),
		)

		printAnalysis(result)

		if analyzeOut != "" {
			meta := export.Meta{
				Filename:   filepath.Base(args[0]),
				Model:      opts.Model,
				ChunkCount: chunkCount(string(raw), opts),
				AnalyzedAt: time.Now(),
			}
			if err := writeExport(result, meta, analyzeFormat, analyzeOut); err != nil {
				return err
			}
			fmt.Printf("\nResultado guardado en %s\n", analyzeOut)
		}

		if !analyzeNoSave {
			if err := saveRecord(cmd, args[0], string(raw), result, opts, sourceType); err != nil {
				logger.Warn("could not save to history", "error", err)
			}
		}

		return nil
	},
}

func parseSourceType(s string) (pipeline.SourceType, error) {
	switch pipeline.SourceType(s) {
	case pipeline.SourceNative, pipeline.SourceOCR, pipeline.SourceText:
		return pipeline.SourceType(s), nil
	default:
		return "", fmt.Errorf("unknown source type %q (want nativo, ocr or texto)", s)
	}
}

func chunkCount(text string, opts pipeline.Options) int {
	if !chunker.NeedsChunking(text, opts.InlineThreshold) {
		return 1
	}
	return len(chunker.Split(text, opts.ChunkMaxWords, opts.ChunkOverlap))
}

func writeExport(a *analysis.Analysis, meta export.Meta, format, out string) error {
	var data []byte
	var err error
	switch format {
	case "json":
		data, err = export.JSON(a, meta)
	case "text", "txt":
		data = export.Text(a, meta)
	case "xlsx":
		data, err = export.XLSX(a, meta)
	default:
		return fmt.Errorf("unknown format %q (want json, text or xlsx)", format)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(out, data, 0o644)
}

func saveRecord(cmd *cobra.Command, path, text string, a *analysis.Analysis, opts pipeline.Options, sourceType pipeline.SourceType) error {
	cfg := cfgMgr.Get()
	dir := dataDir
	if dir == "" {
		dir = cfg.History.Path
	}
	s, err := store.Open(dir)
	if err != nil {
		return err
	}
	defer s.Close()

	rec := &store.Record{
		Filename:   filepath.Base(path),
		SourceType: string(sourceType),
		PageCount:  analyzePages,
		WordCount:  chunker.WordCount(text),
		ChunkCount: chunkCount(text, opts),
		Model:      opts.Model,
		Confidence: a.Confianza,
		Analysis:   a,
	}
	if err := s.Save(cmd.Context(), rec); err != nil {
		return err
	}
	fmt.Printf("\nGuardado en historial: %s\n", rec.ID)
	return nil
}

func printAnalysis(a *analysis.Analysis) {
	title := color.New(color.FgCyan, color.Bold)
	section := color.New(color.FgWhite, color.Bold)

	title.Println("\nANÁLISIS DE DOCUMENTO LEGAL")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("Tipo de documento: %s\n", a.TipoDocumento)
	confColor := color.New(color.FgGreen)
	switch {
	case a.Confianza < 0.4:
		confColor = color.New(color.FgRed)
	case a.Confianza < 0.7:
		confColor = color.New(color.FgYellow)
	}
	fmt.Print("Confianza aproximada: ")
	confColor.Printf("%.2f\n\n", a.Confianza)

	section.Println("Resumen")
	for _, bullet := range a.ResumenBullets {
		fmt.Printf("  • %s\n", bullet)
	}

	printList(section, "Partes", a.Partes)

	if len(a.Fechas) > 0 {
		section.Println("\nFechas")
		for _, f := range a.Fechas {
			fmt.Printf("  - %s: %s\n", f.Etiqueta, f.Valor)
		}
	}

	if len(a.Importes) > 0 {
		section.Println("\nImportes")
		for _, imp := range a.Importes {
			fmt.Printf("  - %s: %s\n", imp.Concepto, export.FormatAmount(imp))
		}
	}

	printList(section, "Obligaciones", a.Obligaciones)
	printList(section, "Derechos", a.Derechos)
	printList(section, "Riesgos", a.Riesgos)

	if len(a.Notas) > 0 {
		section.Println("\nNotas")
		for _, note := range a.Notas {
			if strings.HasPrefix(note, "⚠") {
				color.Yellow("  %s", note)
			} else {
				fmt.Printf("  %s\n", note)
			}
		}
	}
}

func printList(section *color.Color, name string, items []string) {
	if len(items) == 0 {
		return
	}
	section.Printf("\n%s\n", name)
	for _, item := range items {
		fmt.Printf("  - %s\n", item)
	}
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeModel, "model", "m", "", "ollama model to use (default from config)")
	analyzeCmd.Flags().Float64VarP(&analyzeTemperature, "temperature", "t", 0.2, "sampling temperature (0.1-0.3)")
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", "json", "export format: json, text or xlsx")
	analyzeCmd.Flags().StringVarP(&analyzeOut, "out", "o", "", "write the result to a file")
	analyzeCmd.Flags().StringVar(&analyzeSourceType, "source-type", string(pipeline.SourceText), "document origin: nativo, ocr or texto")
	analyzeCmd.Flags().IntVar(&analyzePages, "pages", 0, "page count of the original document, if known")
	analyzeCmd.Flags().BoolVar(&analyzeNoVerify, "no-verify", false, "skip verification against the source text")
	analyzeCmd.Flags().BoolVar(&analyzeNoSave, "no-save", false, "do not record this analysis in the history")

	rootCmd.AddCommand(analyzeCmd)
}
