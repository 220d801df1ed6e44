// Package config loads the YAML configuration consumed by cmd/server and
// cmd/repl: listen addresses, the default database/schema to open, and the
// table-engine defaults (B-Tree fanout, placement strategy, coalescing
// policy) applied to every CREATE TABLE issued through the command layer.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/minipagedb/minipagedb/internal/storage/pager"
)

// EngineConfig holds the table-engine defaults applied by the command
// layer (internal/engine) to every table it creates.
type EngineConfig struct {
	Fanout   int    `yaml:"fanout"`
	Strategy string `yaml:"strategy"` // "best_fit" or "worst_fit"
	Coalesce bool   `yaml:"coalesce"`
}

// FitStrategy resolves Strategy to a pager.FitStrategy, defaulting to
// BestFit for an empty or unrecognized value.
func (e EngineConfig) FitStrategy() pager.FitStrategy {
	if e.Strategy == "worst_fit" {
		return pager.WorstFit
	}
	return pager.BestFit
}

// ServerConfig is the root configuration for cmd/server and cmd/repl.
type ServerConfig struct {
	HTTPAddr string       `yaml:"http_addr"`
	GRPCAddr string       `yaml:"grpc_addr"`
	Database string       `yaml:"database"`
	Schema   string       `yaml:"schema"`
	CronSpec string       `yaml:"cron_spec"`
	Engine   EngineConfig `yaml:"engine"`
}

// Default returns the configuration used when no file is supplied.
func Default() *ServerConfig {
	return &ServerConfig{
		HTTPAddr: ":8080",
		GRPCAddr: ":9090",
		Database: "main",
		Schema:   "public",
		CronSpec: "*/5 * * * *",
		Engine: EngineConfig{
			Fanout:   64,
			Strategy: "best_fit",
			Coalesce: true,
		},
	}
}

// Load reads and parses a YAML config file at path. Fields the file omits
// keep their Default() values; a fanout of zero or less is replaced by the
// default fanout.
func Load(path string) (*ServerConfig, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if cfg.Engine.Fanout <= 0 {
		cfg.Engine.Fanout = Default().Engine.Fanout
	}
	return cfg, nil
}
