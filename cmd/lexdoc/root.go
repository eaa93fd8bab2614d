package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mhdc11/Proyecto-IA-Sinensia/internal/config"
	"github.com/mhdc11/Proyecto-IA-Sinensia/version"
)

var (
	cfgFile string
	dataDir string
	verbose bool

	logger *slog.Logger
	cfgMgr *config.Manager
)

var rootCmd = &cobra.Command{
	Use:   "lexdoc",
	Short: "Local legal document analyzer powered by Ollama",
	Long: `Lexdoc analyzes legal documents (contracts, leases, policies, court
rulings) entirely on your machine using a local Ollama model. Document text
never leaves the host.

The pipeline includes:
  - Text normalization and OCR artifact cleanup
  - Automatic chunking of long documents with overlap
  - Structured extraction validated against a strict JSON schema
  - Verification of dates, amounts and parties against the source text
  - Consolidation of per-fragment results into a single report`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.lexdoc/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&dataDir, "data-dir", "", "data directory for analysis history (default: ~/.lexdoc)",
	)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))

		var err error
		cfgMgr, err = config.NewManager(cfgFile)
		return err
	}

	rootCmd.AddCommand(versionCmd)
}
