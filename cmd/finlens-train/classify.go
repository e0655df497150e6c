package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"finlens/internal/classifier"
	"finlens/internal/cli"
	"finlens/internal/config"
)

func classifyCmd() *cobra.Command {
	var (
		modelPath string
		fallback  bool
	)
	cmd := &cobra.Command{
		Use:   "classify DESCRIPTION...",
		Short: "Label item descriptions with a trained model",
		Long: `Runs each argument through the same classifier chain the server uses.
With --fallback, descriptions the local model cannot place go to Ollama
as configured by OLLAMA_URL and OLLAMA_MODEL.

Examples:
  finlens-train classify "Milk 1L" "Uber ride"
  finlens-train classify --fallback "Dragon fruit"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, _ := cmd.Flags().GetString("log-level")
			logger := cli.SetupLogger(level)

			cfg := config.Load()
			cfg.UseOllama = fallback
			if modelPath != "" {
				cfg.ModelPath = modelPath
			}

			model, err := classifier.Load(cfg.ModelPath)
			if err != nil {
				return err
			}
			chain, cacheManager := cli.BuildClassifier(cfg, model, logger)
			defer cacheManager.Stop()

			out := cmd.OutOrStdout()
			tierColor := map[classifier.Tier]*color.Color{
				classifier.TierLocal:    color.New(color.BgGreen, color.FgBlack),
				classifier.TierFallback: color.New(color.BgBlue, color.FgWhite),
				classifier.TierDefault:  color.New(color.BgYellow, color.FgBlack),
			}
			for _, desc := range args {
				d, err := chain.Classify(cmd.Context(), desc)
				if err != nil {
					return err
				}
				tierColor[d.Tier].Fprintf(out, " %-8s ", d.Tier)
				fmt.Fprintf(out, " %-16s %s\n", d.Category, strings.TrimSpace(desc))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&modelPath, "model", "m", "", "model file (default: MODEL_PATH or ./data/receipt_categorizer.gob)")
	cmd.Flags().BoolVar(&fallback, "fallback", false, "ask Ollama when the local model is unsure")
	return cmd
}
