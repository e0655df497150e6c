package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"finlens/internal/classifier"
	"finlens/internal/cli"
	"finlens/internal/log"
)

type trainOptions struct {
	corpus   string
	out      string
	rounds   int
	seed     uint64
	testFrac float64
}

func trainCmd() *cobra.Command {
	opts := trainOptions{}
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit the classifier on the seed corpus and write the model",
		Long: `Expands the seed corpus with quantity-suffixed variants, holds out a
test split, fits the model and reports its accuracy on the held-out phrases.

Examples:
  finlens-train train
  finlens-train train --corpus corpus.yaml --out data/model.gob --seed 7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTrain(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.corpus, "corpus", "", "YAML file mapping category names to phrases (default: built-in corpus)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "./data/receipt_categorizer.gob", "where to write the trained model")
	cmd.Flags().IntVar(&opts.rounds, "rounds", 100, "phrases drawn per category")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 42, "random seed for augmentation and the split")
	cmd.Flags().Float64Var(&opts.testFrac, "test-frac", 0.2, "share of samples held out for evaluation")
	return cmd
}

func runTrain(cmd *cobra.Command, opts trainOptions) error {
	level, _ := cmd.Flags().GetString("log-level")
	logger := cli.SetupLogger(level).WithComponent(log.ComponentTrain)

	if opts.rounds < 1 {
		return fmt.Errorf("--rounds must be at least 1, got %d", opts.rounds)
	}
	if opts.testFrac < 0 || opts.testFrac >= 1 {
		return fmt.Errorf("--test-frac must be in [0, 1), got %g", opts.testFrac)
	}

	corpus := classifier.DefaultCorpus
	if opts.corpus != "" {
		c, err := classifier.LoadCorpus(opts.corpus)
		if err != nil {
			return err
		}
		corpus = c
	}

	samples := classifier.Augment(corpus, opts.rounds, opts.seed)
	train, test := classifier.Split(samples, opts.testFrac, opts.seed)
	logger.Info("Training classifier",
		"samples", len(samples),
		"train", len(train),
		"test", len(test),
		"seed", opts.seed)

	model, err := classifier.Train(train)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	hits := evaluate(cmd, model, test)

	if err := os.MkdirAll(filepath.Dir(opts.out), 0o755); err != nil {
		return fmt.Errorf("create model directory: %w", err)
	}
	if err := model.Save(opts.out); err != nil {
		return err
	}

	bold := color.New(color.Bold)
	bold.Fprintln(out, "Samples per category")
	for _, c := range classifier.CountByCategory(samples) {
		fmt.Fprintf(out, "  %-16s %5d\n", c.Category, c.Count)
	}
	fmt.Fprintf(out, "Vocabulary: %d tokens\n", model.VocabularySize())

	if len(test) > 0 {
		acc := float64(hits) / float64(len(test))
		paint := color.New(color.FgGreen)
		if acc < 0.8 {
			paint = color.New(color.FgYellow)
		}
		paint.Fprintf(out, "Held-out accuracy: %.2f%% (%d of %d)\n", acc*100, hits, len(test))
	}
	color.New(color.FgCyan).Fprintf(out, "Model written to %s\n", opts.out)
	return nil
}

// evaluate predicts every held-out sample and returns the number of hits.
func evaluate(cmd *cobra.Command, model *classifier.Model, test []classifier.Sample) int {
	if len(test) == 0 {
		return 0
	}
	bar := progressbar.NewOptions(len(test),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan]Evaluating[reset]"),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(cmd.ErrOrStderr()) }),
	)

	hits := 0
	for _, s := range test {
		if model.Accuracy([]classifier.Sample{s}) == 1 {
			hits++
		}
		_ = bar.Add(1)
	}
	return hits
}
