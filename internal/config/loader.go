package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if GAMEFEED_CONFIG is set
//  3. env (prefix GAMEFEED_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("GAMEFEED_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: GAMEFEED_ADDR, GAMEFEED_PAGE_SIZE, ...
	// Map env keys like GAMEFEED_PAGE_SIZE -> page_size (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("GAMEFEED_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "gamefeed_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Basic validation
	switch {
	case cfg.Addr == "":
		return nil, fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case cfg.PageSize <= 0:
		return nil, fmt.Errorf("%w: page_size must be positive", ErrInvalidConfig)
	case cfg.PoolPages <= 0:
		return nil, fmt.Errorf("%w: pool_pages must be positive", ErrInvalidConfig)
	case cfg.Persistence != PersistenceMemory &&
		cfg.Persistence != PersistenceFile &&
		cfg.Persistence != PersistenceBadger:
		return nil, fmt.Errorf("%w: unknown persistence backend %q", ErrInvalidConfig, cfg.Persistence)
	}
	return &cfg, nil
}
