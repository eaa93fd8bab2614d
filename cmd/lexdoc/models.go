package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mhdc11/Proyecto-IA-Sinensia/internal/providers"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models available in the local Ollama instance",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := cfgMgr.Get()
		client, err := providers.NewOllamaClient(providers.OllamaConfig{
			Endpoint: cfg.Ollama.Endpoint,
		})
		if err != nil {
			return err
		}

		if !client.Healthy(cmd.Context()) {
			return fmt.Errorf("ollama is not reachable at %s", cfg.Ollama.Endpoint)
		}

		models, err := client.ListModels(cmd.Context())
		if err != nil {
			return err
		}
		if len(models) == 0 {
			fmt.Println("No hay modelos instalados. Ejecuta: ollama pull " + cfg.Ollama.Model)
			return nil
		}

		for _, m := range models {
			if m == cfg.Ollama.Model {
				color.Green("* %s (configurado)", m)
			} else {
				fmt.Printf("  %s\n", m)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
