// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config loads typhost settings from defaults, an optional YAML
// file, TYPHOST_* environment variables and bound command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// AppName names the config file, the environment prefix and the default
// cache directories.
const AppName = "typhost"

// ErrInvalidConfig is returned when settings cannot be read or fail
// validation.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the complete set of settings.
type Config struct {
	Root     string         `mapstructure:"root"`
	Main     string         `mapstructure:"main"`
	Render   RenderConfig   `mapstructure:"render"`
	Packages PackagesConfig `mapstructure:"packages"`
	Log      LogConfig      `mapstructure:"log"`
	Watch    WatchConfig    `mapstructure:"watch"`
}

// RenderConfig controls rasterization.
type RenderConfig struct {
	Scale          float64 `mapstructure:"scale"`          // Preview pixels per point
	PNGExportScale float64 `mapstructure:"pngExportScale"` // PNG export pixels per point
}

// PackagesConfig controls where packages are looked up and downloaded.
type PackagesConfig struct {
	CacheDir string `mapstructure:"cacheDir"`
	DataDir  string `mapstructure:"dataDir"`
	Registry string `mapstructure:"registry"` // Base URL of package repositories
	Offline  bool   `mapstructure:"offline"`  // Never download
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console or json
}

// WatchConfig controls the dependency watcher.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// SetDefaults registers the default value of every setting on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("root", ".")
	v.SetDefault("main", "main.typ")
	v.SetDefault("render.scale", 1.0)
	v.SetDefault("render.pngExportScale", 3.0)
	v.SetDefault("packages.cacheDir", filepath.Join(userCacheDir(), AppName, "packages"))
	v.SetDefault("packages.dataDir", filepath.Join(userDataDir(), AppName, "packages"))
	v.SetDefault("packages.registry", "https://github.com/typst")
	v.SetDefault("packages.offline", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("watch.debounce", 200*time.Millisecond)
}

// Load reads settings into v and decodes them. An empty path searches for
// .typhost.yaml in the working directory, which may be absent; an explicit
// path must exist.
func Load(v *viper.Viper, path string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)

	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("." + AppName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: reading config file: %v", ErrInvalidConfig, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: decoding: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if c.Main == "" {
		return fmt.Errorf("%w: main must not be empty", ErrInvalidConfig)
	}
	if c.Render.Scale <= 0 {
		return fmt.Errorf("%w: render.scale must be positive, got %v", ErrInvalidConfig, c.Render.Scale)
	}
	if c.Render.PNGExportScale <= 0 {
		return fmt.Errorf("%w: render.pngExportScale must be positive, got %v", ErrInvalidConfig, c.Render.PNGExportScale)
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalidConfig, err)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: log.format must be console or json, got %q", ErrInvalidConfig, c.Log.Format)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("%w: watch.debounce must not be negative", ErrInvalidConfig)
	}
	return nil
}

func userCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return dir
	}
	return os.TempDir()
}

// userDataDir follows the XDG base directory layout.
func userDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share")
	}
	return os.TempDir()
}
