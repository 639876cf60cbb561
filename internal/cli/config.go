package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// Config - File & Environment Configuration
// =============================================================================

// Config holds the settings read from the config file and environment.
// Precedence is flags > environment > config file > built-in defaults;
// commands apply their flags on top of what LoadConfig returns.
type Config struct {
	Layout    LayoutConfig    `toml:"layout"`
	Normalize NormalizeConfig `toml:"normalize"`
	Render    RenderConfig    `toml:"render"`
	Serve     ServeConfig     `toml:"serve"`
}

// LayoutConfig mirrors the layout settings surface.
type LayoutConfig struct {
	Direction  string  `toml:"direction"`
	Align      string  `toml:"align"`
	LinkStyle  string  `toml:"link_style"`
	LevelGap   float64 `toml:"level_gap"`
	SiblingGap float64 `toml:"sibling_gap"`
	RootGap    float64 `toml:"root_gap"`
}

// NormalizeConfig mirrors the normalization options surface.
type NormalizeConfig struct {
	TitleKeys               []string `toml:"title_keys"`
	HiddenKeys              []string `toml:"hidden_keys"`
	MaxPreviewAttrs         int      `toml:"max_preview_attrs"`
	MaxDepth                int      `toml:"max_depth"`
	ScalarArraysAsAttribute bool     `toml:"scalar_arrays_as_attribute"`
}

// RenderConfig sets render defaults.
type RenderConfig struct {
	Formats []string `toml:"formats"`
	Theme   string   `toml:"theme"`
	Scale   float64  `toml:"scale"`
}

// ServeConfig configures the HTTP server.
type ServeConfig struct {
	Addr      string  `toml:"addr"`
	Store     string  `toml:"store"` // sqlite | mongo
	MongoURI  string  `toml:"mongo_uri"`
	MongoDB   string  `toml:"mongo_db"`
	Cache     string  `toml:"cache"` // file | redis | none
	RedisAddr string  `toml:"redis_addr"`
	RateLimit float64 `toml:"rate_limit"`
	RateBurst int     `toml:"rate_burst"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Render: RenderConfig{Theme: "light", Scale: 2},
		Serve: ServeConfig{
			Addr:      ":8080",
			Store:     "sqlite",
			MongoURI:  "mongodb://localhost:27017",
			MongoDB:   appName,
			Cache:     "file",
			RedisAddr: "localhost:6379",
		},
	}
}

// configPath returns the config file location: $TREETOP_CONFIG when set,
// otherwise ~/.config/treetop/config.toml.
func configPath() (string, error) {
	if p := os.Getenv("TREETOP_CONFIG"); p != "" {
		return p, nil
	}
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// LoadConfig reads the config file (when present) over the built-in
// defaults and applies environment overrides on top. A missing file is
// not an error; a malformed one is.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	path, err := configPath()
	if err == nil {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overlays TREETOP_* environment variables.
func (c *Config) applyEnv() {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString(&c.Layout.Direction, "TREETOP_DIRECTION")
	setString(&c.Layout.LinkStyle, "TREETOP_LINK_STYLE")
	setString(&c.Render.Theme, "TREETOP_THEME")
	setString(&c.Serve.Addr, "TREETOP_ADDR")
	setString(&c.Serve.Store, "TREETOP_STORE")
	setString(&c.Serve.MongoURI, "TREETOP_MONGO_URI")
	setString(&c.Serve.MongoDB, "TREETOP_MONGO_DB")
	setString(&c.Serve.Cache, "TREETOP_CACHE")
	setString(&c.Serve.RedisAddr, "TREETOP_REDIS_ADDR")

	if v := os.Getenv("TREETOP_RATE_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Serve.RateLimit = f
		}
	}
	if v := os.Getenv("TREETOP_RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Serve.RateBurst = n
		}
	}
}
