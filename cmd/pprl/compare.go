package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pprl-toolkit/pprl-go/internal/embedder"
	"github.com/pprl-toolkit/pprl-go/internal/features"
)

func newCompareCmd() *cobra.Command {
	var (
		embedderPath string
		table1Path   string
		table2Path   string
		colspecFlag  string
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Print the pairwise similarity matrix between two tables",
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

			et1, err := e.Embed(t1, colspec, true)
			if err != nil {
				return fmt.Errorf("embedding first table: %w", err)
			}
			et2, err := e.Embed(t2, colspec, true)
			if err != nil {
				return fmt.Errorf("embedding second table: %w", err)
			}

			sim, err := e.Compare(et1, et2, false)
			if err != nil {
				return fmt.Errorf("comparing: %w", err)
			}

			n, m := sim.Dims()
			for i := 0; i < n; i++ {
				for j := 0; j < m; j++ {
					fmt.Printf("%6.4f ", sim.At(i, j))
				}
				fmt.Println()
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&embedderPath, "embedder", "", "path to a serialised embedder")
	cmd.Flags().StringVar(&table1Path, "table1", "", "first table CSV")
	cmd.Flags().StringVar(&table2Path, "table2", "", "second table CSV")
	cmd.Flags().StringVar(&colspecFlag, "colspec", "", "comma-separated column=kind list")
	_ = cmd.MarkFlagRequired("embedder")
	_ = cmd.MarkFlagRequired("table1")
	_ = cmd.MarkFlagRequired("table2")
	_ = cmd.MarkFlagRequired("colspec")

	return cmd
}
