// Package config loads recall configuration: defaults, overlaid by a YAML
// file, RECALL_* environment variables, then command-line flags.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config holds all recall configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Notes    NotesConfig    `koanf:"notes"`
}

type ServerConfig struct {
	Bind string `koanf:"bind" validate:"required"`
	Port int    `koanf:"port" validate:"gte=1,lte=65535"`
}

type DatabaseConfig struct {
	// Path to the sqlite file. Empty means storage.DefaultPath().
	Path string `koanf:"path"`
}

type NotesConfig struct {
	// Dir is a local directory of markdown notes to serve as the catalog.
	Dir string `koanf:"dir"`
	// GitURL, when set, is a git repository of markdown notes. It is synced
	// into CacheDir and loaded from there.
	GitURL string `koanf:"git_url" validate:"omitempty,url|startswith=git@"`
	// CacheDir is where git-backed notes are checked out.
	CacheDir string `koanf:"cache_dir"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 8643,
		},
	}
}

// Load builds the effective configuration. Precedence, lowest to highest:
// defaults, the YAML file at path (skipped when empty), RECALL_* environment
// variables (RECALL_SERVER__PORT → server.port), then set flags.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	cfg := Default()
	k := koanf.New(".")

	// Seed every key with its default so later providers (and unset flags)
	// only override what they actually set.
	if err := k.Load(confmap.Provider(map[string]any{
		"server.bind":     cfg.Server.Bind,
		"server.port":     cfg.Server.Port,
		"database.path":   cfg.Database.Path,
		"notes.dir":       cfg.Notes.Dir,
		"notes.git_url":   cfg.Notes.GitURL,
		"notes.cache_dir": cfg.Notes.CacheDir,
	}, "."), nil); err != nil {
		return cfg, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return cfg, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("RECALL_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "RECALL_")), "__", ".")
	}), nil); err != nil {
		return cfg, fmt.Errorf("load env config: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return cfg, fmt.Errorf("load flag config: %w", err)
		}
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
