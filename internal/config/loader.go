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
//  1. defaults (New())
//  2. file (YAML) if PIXELBLISS_CONFIG is set
//  3. env (prefix PIXELBLISS_, double underscore for nesting:
//     PIXELBLISS_RANKING__W_AESTHETIC -> ranking.w_aesthetic)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("PIXELBLISS_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	envProvider := env.Provider("PIXELBLISS_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "PIXELBLISS_"))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Themes) == 0 {
		return fmt.Errorf("%w: themes must not be empty", ErrInvalidConfig)
	}
	if c.RotationMinutes <= 0 {
		return fmt.Errorf("%w: rotation_minutes must be positive", ErrInvalidConfig)
	}
	if c.NumPromptVariants <= 0 {
		return fmt.Errorf("%w: num_prompt_variants must be positive", ErrInvalidConfig)
	}
	if len(c.Generation.Slots) == 0 {
		return fmt.Errorf("%w: generation.slots must not be empty", ErrInvalidConfig)
	}
	r := c.Ranking
	if r.WBrightness < 0 || r.WEntropy < 0 || r.WAesthetic < 0 || r.WLocalQuality < 0 {
		return fmt.Errorf("%w: ranking weights must be non-negative", ErrInvalidConfig)
	}
	if r.BrightnessMin > r.BrightnessMax {
		return fmt.Errorf("%w: brightness_min exceeds brightness_max", ErrInvalidConfig)
	}
	if c.Compression.Enabled && c.Compression.MaxBytes <= 0 {
		return fmt.Errorf("%w: compression.max_bytes must be positive", ErrInvalidConfig)
	}
	if c.History.Path == "" {
		return fmt.Errorf("%w: history.path must not be empty", ErrInvalidConfig)
	}
	return nil
}
