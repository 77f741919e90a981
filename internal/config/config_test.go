package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadOverlaysPresentFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pprl.toml")
	content := "bloom-size = 4096\nlog-level = \"debug\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BloomSize != 4096 {
		t.Fatalf("expected bloom-size overridden to 4096, got %d", cfg.BloomSize)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected log-level overridden to debug, got %q", cfg.LogLevel)
	}
	// Untouched fields keep their defaults.
	if cfg.BloomNumHashes != Default().BloomNumHashes {
		t.Fatalf("expected bloom-num-hashes to keep default, got %d", cfg.BloomNumHashes)
	}
}
