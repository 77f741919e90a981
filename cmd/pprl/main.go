// Command pprl is a demonstration harness for the linkage core: it
// embeds CSV tables into Bloom filters, trains the affinity matrix on
// a pair of known matches, compares two embedded tables, and resolves
// the comparison into an anonymised match. It is not the reference
// deployment path (that is a multi-party, possibly cloud-mediated
// exchange) — it exists so the core packages are exercisable end to
// end from one process.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pprl-toolkit/pprl-go/internal/config"
)

var (
	cfgPath string
	log     = logrus.StandardLogger()
)

func main() {
	root := &cobra.Command{
		Use:   "pprl",
		Short: "Privacy-preserving record linkage toolkit",
		Long:  "pprl embeds, trains, compares, and matches tables via Bloom-filter soft-cosine linkage.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
				log.SetLevel(level)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", ".pprl.toml", "path to TOML config file")

	root.AddCommand(newEmbedCmd())
	root.AddCommand(newTrainCmd())
	root.AddCommand(newCompareCmd())
	root.AddCommand(newMatchCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "pprl:", err)
		os.Exit(1)
	}
}
