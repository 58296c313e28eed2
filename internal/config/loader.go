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
//  2. file (YAML) if INTAKE_CONFIG is set
//  3. env (prefix INTAKE_)
func Load(_ context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("INTAKE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: INTAKE_ADDR, INTAKE_INPUT_DIR, ...
	// Map env keys like INTAKE_INPUT_DIR -> input_dir (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("INTAKE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "intake_")
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
	case cfg.InputDir == "":
		return nil, fmt.Errorf("%w: input_dir must not be empty", ErrInvalidConfig)
	case cfg.OutputDir == "":
		return nil, fmt.Errorf("%w: output_dir must not be empty", ErrInvalidConfig)
	case cfg.InputDir == cfg.OutputDir:
		return nil, fmt.Errorf("%w: input_dir and output_dir must differ", ErrInvalidConfig)
	case cfg.PollIntervalSeconds <= 0:
		return nil, fmt.Errorf("%w: poll_interval_seconds must be positive", ErrInvalidConfig)
	}
	return &cfg, nil
}
