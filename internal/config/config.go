/*
Package config
File: config.go
Description:
    Server configuration. Values come from three layers, each overriding
    the last: Default(), an optional YAML file, then FARM_* environment
    variables.
*/

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr        string `yaml:"addr"`
	DBPath      string `yaml:"db_path"`
	CatalogPath string `yaml:"catalog_path"` // empty uses the embedded catalog
	LogLevel    string `yaml:"log_level"`

	AutosaveEvery time.Duration `yaml:"autosave_every"` // 0 disables autosave
	AutosaveSlot  string        `yaml:"autosave_slot"`
	PulseEvery    time.Duration `yaml:"pulse_every"`

	Seed int64 `yaml:"seed"` // 0 seeds from the clock

	RateLimit float64 `yaml:"rate_limit"` // requests per second per client
	RateBurst int     `yaml:"rate_burst"`

	AllowRawDispatch bool     `yaml:"allow_raw_dispatch"`
	AllowedOrigins   []string `yaml:"allowed_origins"`
}

func Default() Config {
	return Config{
		Addr:          ":8080",
		DBPath:        "farm.db",
		LogLevel:      "info",
		AutosaveEvery: 30 * time.Second,
		AutosaveSlot:  "autosave",
		PulseEvery:    time.Second,
		RateLimit:     20,
		RateBurst:     40,
		AllowedOrigins: []string{
			"http://localhost:5173",
			"http://localhost:3000",
		},
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overrides fields from FARM_* variables. Unparseable values are
// reported and leave the field unchanged.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	var errs []error
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("FARM_ADDR", &c.Addr)
	str("FARM_DB", &c.DBPath)
	str("FARM_CATALOG", &c.CatalogPath)
	str("FARM_LOG_LEVEL", &c.LogLevel)
	str("FARM_AUTOSAVE_SLOT", &c.AutosaveSlot)
	dur("FARM_AUTOSAVE_EVERY", &c.AutosaveEvery)
	dur("FARM_PULSE_EVERY", &c.PulseEvery)

	if v := getenv("FARM_SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("FARM_SEED: %w", err))
		} else {
			c.Seed = n
		}
	}
	if v := getenv("FARM_RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("FARM_RATE_LIMIT: %w", err))
		} else {
			c.RateLimit = f
		}
	}
	if v := getenv("FARM_RATE_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("FARM_RATE_BURST: %w", err))
		} else {
			c.RateBurst = n
		}
	}
	if v := getenv("FARM_ALLOW_RAW_DISPATCH"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("FARM_ALLOW_RAW_DISPATCH: %w", err))
		} else {
			c.AllowRawDispatch = b
		}
	}
	if v := getenv("FARM_ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = c.AllowedOrigins[:0:0]
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				c.AllowedOrigins = append(c.AllowedOrigins, origin)
			}
		}
	}

	if err := c.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("config: addr is empty")
	}
	if c.PulseEvery <= 0 {
		return fmt.Errorf("config: pulse_every must be positive, got %s", c.PulseEvery)
	}
	if c.AutosaveEvery < 0 {
		return fmt.Errorf("config: autosave_every must not be negative, got %s", c.AutosaveEvery)
	}
	if c.AutosaveEvery > 0 && c.AutosaveSlot == "" {
		return errors.New("config: autosave_slot is empty")
	}
	if c.RateLimit < 0 || c.RateBurst < 0 {
		return errors.New("config: rate limits must not be negative")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel for slog.
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: log_level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}
