package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. PROTECH_TELEGRAM_TOKEN.
const EnvPrefix = "PROTECH"

// LoadConfig loads and validates configuration from:
//  1. Default values
//  2. The YAML file at path (optional; a missing file is not an error)
//  3. PROTECH_* environment variables
func LoadConfig(path string) (*Config, error) {
	startTime := time.Now()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: failed to read config file %s: %w", ErrConfiguration, path, err)
			}
			slog.Info("Configuration file not found, using defaults and environment", "path", path)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %w", ErrConfiguration, err)
	}

	// A renamed business must not inherit the default brand.
	if cfg.Business.ShortName == "" && cfg.Business.Name == DefaultBusinessName {
		cfg.Business.ShortName = DefaultBusinessShortName
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	slog.Debug("Configuration loaded",
		"path", path,
		"telegram_enabled", cfg.Telegram.Enabled,
		"http_enabled", cfg.HTTP.Enabled,
		"db_path", cfg.Database.Path,
		"emailjs_configured", cfg.EmailJS.Configured(),
		"duration_ms", time.Since(startTime).Milliseconds())

	return cfg, nil
}
