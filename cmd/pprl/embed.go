package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pprl-toolkit/pprl-go/internal/config"
	"github.com/pprl-toolkit/pprl-go/internal/embedder"
)

func newEmbedCmd() *cobra.Command {
	var (
		inputPath    string
		colspecFlag  string
		embedderOut  string
		saltHex      string
		bloomSize    int
		bloomHashes  int
		bloomOffset  int
	)

	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Build a fresh Embedder and encode a table under it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if bloomSize == 0 {
				bloomSize = cfg.BloomSize
			}
			if bloomHashes == 0 {
				bloomHashes = cfg.BloomNumHashes
			}
			if !cmd.Flags().Changed("bloom-offset") {
				bloomOffset = cfg.BloomOffset
			}

			colspec, err := parseColspec(colspecFlag)
			if err != nil {
				return err
			}

			t, err := readCSVTable(inputPath)
			if err != nil {
				return err
			}

			e, err := embedder.New(embedder.Options{
				Size:      bloomSize,
				NumHashes: bloomHashes,
				Offset:    bloomOffset,
				Salt:      []byte(saltHex),
				Logger:    log,
			})
			if err != nil {
				return fmt.Errorf("constructing embedder: %w", err)
			}

			if _, err := e.Embed(t, colspec, true); err != nil {
				return fmt.Errorf("embedding table: %w", err)
			}

			out, err := os.Create(embedderOut)
			if err != nil {
				return err
			}
			defer out.Close()
			if err := e.Save(out); err != nil {
				return fmt.Errorf("saving embedder: %w", err)
			}

			fmt.Fprintf(os.Stderr, "embedder checksum %s written to %s\n", e.Checksum(), embedderOut)
			return nil
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "input CSV path")
	cmd.Flags().StringVar(&colspecFlag, "colspec", "", "comma-separated column=kind list, e.g. name=name,dob=dob")
	cmd.Flags().StringVar(&embedderOut, "out", "embedder.bin", "where to write the serialised embedder")
	cmd.Flags().StringVar(&saltHex, "salt", "", "Bloom-filter salt (shared secret between parties)")
	cmd.Flags().IntVar(&bloomSize, "bloom-size", 0, "Bloom filter size (0 = use config default)")
	cmd.Flags().IntVar(&bloomHashes, "bloom-num-hashes", 0, "number of hash replications per token (0 = use config default)")
	cmd.Flags().IntVar(&bloomOffset, "bloom-offset", 0, "Bloom filter index offset (config default when not given)")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("colspec")

	return cmd
}
