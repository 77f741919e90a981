package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pprl-toolkit/pprl-go/internal/config"
	"github.com/pprl-toolkit/pprl-go/internal/embedder"
	"github.com/pprl-toolkit/pprl-go/internal/features"
	"github.com/pprl-toolkit/pprl-go/internal/matching"
	"github.com/pprl-toolkit/pprl-go/internal/similarity"
	"github.com/pprl-toolkit/pprl-go/internal/table"
)

func newMatchCmd() *cobra.Command {
	var (
		embedderPath string
		table1Path   string
		table2Path   string
		colspecFlag  string
		out1Path     string
		out2Path     string
		absCutoff    float64
		relCutoff    float64
		hungarian    bool
		trueIDColumn string
		sizeAssumed  int
	)

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Compare two tables and resolve an anonymised one-to-one match",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if sizeAssumed == 0 {
				sizeAssumed = cfg.SizeAssumed
			}

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

			res, err := matching.PerformMatching(e, t1, t2, matching.Options{
				Colspec1: colspec,
				Colspec2: colspec,
				MatchOptions: similarity.MatchOptions{
					AbsCutoff:         absCutoff,
					RelCutoff:         relCutoff,
					Hungarian:         hungarian,
					RequireThresholds: true,
				},
				SizeAssumed:  sizeAssumed,
				TrueIDColumn: trueIDColumn,
				Log:          log,
			})
			if err != nil {
				return fmt.Errorf("matching: %w", err)
			}

			if err := writeCSVTable(out1Path, res.Output1.(*table.Frame)); err != nil {
				return fmt.Errorf("writing %s: %w", out1Path, err)
			}
			if err := writeCSVTable(out2Path, res.Output2.(*table.Frame)); err != nil {
				return fmt.Errorf("writing %s: %w", out2Path, err)
			}

			fmt.Fprintf(os.Stderr, "matched %d pairs\n", len(res.Match))
			if res.PerformanceComputed {
				fmt.Fprintf(os.Stderr, "true positives %d, false positives %d\n", res.TruePositives, res.FalsePositives)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&embedderPath, "embedder", "", "path to a serialised embedder")
	cmd.Flags().StringVar(&table1Path, "table1", "", "first table CSV")
	cmd.Flags().StringVar(&table2Path, "table2", "", "second table CSV")
	cmd.Flags().StringVar(&colspecFlag, "colspec", "", "comma-separated column=kind list")
	cmd.Flags().StringVar(&out1Path, "out1", "matched-1.csv", "output CSV for the first table")
	cmd.Flags().StringVar(&out2Path, "out2", "matched-2.csv", "output CSV for the second table")
	cmd.Flags().Float64Var(&absCutoff, "abs-cutoff", 0, "minimum similarity score for a candidate pair")
	cmd.Flags().Float64Var(&relCutoff, "rel-cutoff", 0, "margin added above each row/column self-threshold")
	cmd.Flags().BoolVar(&hungarian, "hungarian", true, "use optimal assignment instead of greedy")
	cmd.Flags().StringVar(&trueIDColumn, "true-id-column", "", "ground-truth ID column to report match performance against")
	cmd.Flags().IntVar(&sizeAssumed, "size-assumed", 0, "assumed maximum dataset size for private index generation (0 = use config default)")
	_ = cmd.MarkFlagRequired("embedder")
	_ = cmd.MarkFlagRequired("table1")
	_ = cmd.MarkFlagRequired("table2")
	_ = cmd.MarkFlagRequired("colspec")

	return cmd
}
