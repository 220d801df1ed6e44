package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/minipagedb/minipagedb/internal/storage/pager"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	if cfg.HTTPAddr == "" || cfg.GRPCAddr == "" {
		t.Fatal("Default() left listen addresses empty")
	}
	if cfg.Engine.FitStrategy() != pager.BestFit {
		t.Fatalf("FitStrategy() = %v, want BestFit", cfg.Engine.FitStrategy())
	}
}

func TestLoadFillsFanoutDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("http_addr: \":9999\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9999" {
		t.Fatalf("HTTPAddr = %q, want :9999", cfg.HTTPAddr)
	}
	if cfg.Engine.Fanout != Default().Engine.Fanout {
		t.Fatalf("Fanout = %d, want the default", cfg.Engine.Fanout)
	}
}

func TestLoadWorstFitStrategy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "engine:\n  fanout: 32\n  strategy: worst_fit\n  coalesce: false\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.FitStrategy() != pager.WorstFit {
		t.Fatalf("FitStrategy() = %v, want WorstFit", cfg.Engine.FitStrategy())
	}
	if cfg.Engine.Coalesce {
		t.Fatal("Coalesce = true, want false")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/config.yaml"); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
