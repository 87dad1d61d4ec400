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
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if COMITE_CONFIG is set
//  3. env (prefix COMITE_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv("COMITE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: COMITE_ADDR, COMITE_UPLOAD__SECRET, ...
	// A double underscore separates nesting levels so single underscores
	// survive inside key names (e.g. log_level).
	envProvider := env.Provider("COMITE_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "COMITE_"))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects configurations the service cannot run with. Storage
// credentials are checked at signer construction, where the missing
// field can be named precisely.
func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Tracker.TickIntervalSec <= 0:
		return fmt.Errorf("%w: tracker.tick_interval_sec must be positive", ErrInvalidConfig)
	case c.Tracker.InactivityWindowSec <= 0:
		return fmt.Errorf("%w: tracker.inactivity_window_sec must be positive", ErrInvalidConfig)
	case c.Tracker.MinScrollPct < 0 || c.Tracker.MinScrollPct > 100:
		return fmt.Errorf("%w: tracker.min_scroll_pct must be in [0,100]", ErrInvalidConfig)
	case c.Tracker.MinImageRatio < 0 || c.Tracker.MinImageRatio > 1:
		return fmt.Errorf("%w: tracker.min_image_ratio must be in [0,1]", ErrInvalidConfig)
	case c.Upload.MaxBytes <= 0:
		return fmt.Errorf("%w: upload.max_bytes must be positive", ErrInvalidConfig)
	case c.Upload.ExpirySec <= 0:
		return fmt.Errorf("%w: upload.expiry_sec must be positive", ErrInvalidConfig)
	}
	return nil
}
