package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mhdc11/Proyecto-IA-Sinensia/internal/export"
	"github.com/mhdc11/Proyecto-IA-Sinensia/internal/home"
	"github.com/mhdc11/Proyecto-IA-Sinensia/internal/store"
)

var (
	historyLimit  int
	historyFormat string
	historyOut    string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage previously stored analyses",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored analyses, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		records, err := s.List(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No hay análisis guardados.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tFECHA\tARCHIVO\tTIPO\tESTADO\tCONFIANZA")
		for _, rec := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.2f\n",
				rec.ID[:8],
				rec.CreatedAt.Local().Format("2006-01-02 15:04"),
				rec.Filename,
				rec.Analysis.TipoDocumento,
				statusLabel(rec.Status),
				rec.Confidence,
			)
		}
		return w.Flush()
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a stored analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		rec, err := findRecord(cmd, s, args[0])
		if err != nil {
			return err
		}
		printAnalysis(rec.Analysis)
		return nil
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export a stored analysis to a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		rec, err := findRecord(cmd, s, args[0])
		if err != nil {
			return err
		}
		meta := export.Meta{
			Filename:   rec.Filename,
			Model:      rec.Model,
			ChunkCount: rec.ChunkCount,
			AnalyzedAt: rec.CreatedAt,
		}
		out := historyOut
		if out == "" {
			h, err := home.New(historyDataDir())
			if err != nil {
				return err
			}
			if err := os.MkdirAll(h.ExportsDir(), 0o700); err != nil {
				return err
			}
			out = defaultExportPath(h, rec.ID, historyFormat)
		}
		if err := writeExport(rec.Analysis, meta, historyFormat, out); err != nil {
			return err
		}
		fmt.Printf("Resultado guardado en %s\n", out)
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		rec, err := findRecord(cmd, s, args[0])
		if err != nil {
			return err
		}
		if err := s.Delete(cmd.Context(), rec.ID); err != nil {
			return err
		}
		fmt.Printf("Eliminado %s (%s)\n", rec.ID[:8], rec.Filename)
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all stored analyses",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.Clear(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Historial borrado.")
		return nil
	},
}

// historyDataDir resolves the data directory: the --data-dir flag wins over
// the configured history path; empty falls through to ~/.lexdoc.
func historyDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	return cfgMgr.Get().History.Path
}

func openStore() (*store.Store, error) {
	return store.Open(historyDataDir())
}

// defaultExportPath places an export under the home exports directory, named
// by the record's short ID.
func defaultExportPath(h *home.Dir, id, format string) string {
	return filepath.Join(h.ExportsDir(), id[:8]+"."+extensionFor(format))
}

// findRecord resolves a full or prefix record ID.
func findRecord(cmd *cobra.Command, s *store.Store, id string) (*store.Record, error) {
	rec, err := s.Get(cmd.Context(), id)
	if err == nil {
		return rec, nil
	}

	records, err := s.List(cmd.Context(), 0)
	if err != nil {
		return nil, err
	}
	var match *store.Record
	for i := range records {
		if len(id) >= 4 && len(records[i].ID) >= len(id) && records[i].ID[:len(id)] == id {
			if match != nil {
				return nil, fmt.Errorf("id prefix %q is ambiguous", id)
			}
			match = &records[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("no record with id %q", id)
	}
	return match, nil
}

func statusLabel(status string) string {
	switch status {
	case store.StatusValid:
		return color.GreenString("válido")
	case store.StatusWarnings:
		return color.YellowString("con advertencias")
	case store.StatusIncomplete:
		return color.RedString("incompleto")
	default:
		return status
	}
}

func extensionFor(format string) string {
	switch format {
	case "text", "txt":
		return "txt"
	case "xlsx":
		return "xlsx"
	default:
		return "json"
	}
}

func init() {
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of records to list (0 = all)")
	historyExportCmd.Flags().StringVarP(&historyFormat, "format", "f", "json", "export format: json, text or xlsx")
	historyExportCmd.Flags().StringVarP(&historyOut, "out", "o", "", "output file (default: ~/.lexdoc/exports/<id>.<ext>)")

	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyExportCmd, historyDeleteCmd, historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}
