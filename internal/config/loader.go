package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog/log"
)

const envPrefix = "FRISBEE_"

// DotenvFiles are loaded, when present, before the environment is read.
// Values already set in the process environment win.
var DotenvFiles = []string{".env", ".env.backend"}

// Load builds a Config by layering, from low to high precedence:
//  1. defaults (New)
//  2. YAML file named by FRISBEE_CONFIG
//  3. env vars prefixed FRISBEE_, with "__" separating nested keys
//     (FRISBEE_DATABASE__DSN -> database.dsn)
func Load(ctx context.Context) (*Config, error) {
	if err := loadDotenv(DotenvFiles...); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if path := os.Getenv(envPrefix + "CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
		log.Ctx(ctx).Debug().Str("path", path).Msg("loaded config file")
	}

	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("loading env: %w", err)
	}

	cfg := *New()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	// The auth provider ships its secret under its own name.
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = os.Getenv("SUPABASE_JWT_SECRET")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadDotenv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}
