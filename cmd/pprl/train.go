package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pprl-toolkit/pprl-go/internal/embedder"
	"github.com/pprl-toolkit/pprl-go/internal/features"
)

func newTrainCmd() *cobra.Command {
	var (
		embedderPath string
		table1Path   string
		table2Path   string
		colspecFlag  string
		embedderOut  string
		update       bool
		learningRate float64
		eps          float64
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit the affinity matrix to a pair of pre-matched tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			colspec, err := parseColspec(colspecFlag)
			if err != nil {
				return err
			}

			f, err := os.Open(embedderPath)
			if err != nil {
				return err
			}
			e, err := embedder.Load(f, features.DefaultRegistry(), embedder.Options{Logger: log})
			f.Close()
			if err != nil {
				return fmt.Errorf("loading embedder: %w", err)
			}

			t1, err := readCSVTable(table1Path)
			if err != nil {
				return err
			}
			t2, err := readCSVTable(table2Path)
			if err != nil {
				return err
			}

			et1, err := e.Embed(t1, colspec, false)
			if err != nil {
				return fmt.Errorf("embedding first table: %w", err)
			}
			et2, err := e.Embed(t2, colspec, false)
			if err != nil {
				return fmt.Errorf("embedding second table: %w", err)
			}

			opts := embedder.DefaultTrainOptions()
			opts.Update = update
			opts.LearningRate = learningRate
			opts.Eps = eps

			if err := e.Train(et1, et2, opts); err != nil {
				return fmt.Errorf("training: %w", err)
			}

			out, err := os.Create(embedderOut)
			if err != nil {
				return err
			}
			defer out.Close()
			if err := e.Save(out); err != nil {
				return fmt.Errorf("saving trained embedder: %w", err)
			}

			fmt.Fprintf(os.Stderr, "trained embedder checksum %s written to %s\n", e.Checksum(), embedderOut)
			return nil
		},
	}

	cmd.Flags().StringVar(&embedderPath, "embedder", "", "path to a serialised embedder")
	cmd.Flags().StringVar(&table1Path, "table1", "", "first pre-matched table CSV")
	cmd.Flags().StringVar(&table2Path, "table2", "", "second pre-matched table CSV, same row order as table1")
	cmd.Flags().StringVar(&colspecFlag, "colspec", "", "comma-separated column=kind list")
	cmd.Flags().StringVar(&embedderOut, "out", "embedder-trained.bin", "where to write the trained embedder")
	cmd.Flags().BoolVar(&update, "update", true, "accumulate onto existing frequency matrices instead of resetting them")
	cmd.Flags().Float64Var(&learningRate, "learning-rate", 1.0, "scaling factor for this training call, in (0, 1]")
	cmd.Flags().Float64Var(&eps, "eps", 0.01, "small constant added inside the log ratio")
	_ = cmd.MarkFlagRequired("embedder")
	_ = cmd.MarkFlagRequired("table1")
	_ = cmd.MarkFlagRequired("table2")
	_ = cmd.MarkFlagRequired("colspec")

	return cmd
}
