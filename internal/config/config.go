// Package config loads the TOML file (.pprl.toml) that configures
// default Bloom-filter parameters, file locations, and logging — the
// same config-then-flag-override pattern the CLI's teacher uses for
// its own .sift.toml.
package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config holds every setting the CLI accepts either from .pprl.toml or
// from flags; flags always take precedence over the file.
type Config struct {
	BloomSize      int    `toml:"bloom-size"`
	BloomNumHashes int    `toml:"bloom-num-hashes"`
	BloomOffset    int    `toml:"bloom-offset"`
	DataDir        string `toml:"data-dir"`
	SizeAssumed    int    `toml:"size-assumed"`
	LogLevel       string `toml:"log-level"`
}

// Default returns the configuration used when no .pprl.toml is present
// or a field is left unset in it.
func Default() Config {
	return Config{
		BloomSize:      2048,
		BloomNumHashes: 2,
		BloomOffset:    0,
		DataDir:        "./data",
		SizeAssumed:    10_000,
		LogLevel:       "info",
	}
}

// Load reads path (typically ".pprl.toml") and overlays it onto
// Default. A missing file is not an error — it just means every field
// keeps its default.
func Load(path string) (Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if err := toml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
