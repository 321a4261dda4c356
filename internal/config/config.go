// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package config loads CLI configuration from an optional YAML file in the XDG
// config dir and from ONOFFICE_* environment variables. Credentials may come
// from here or, as a fallback, from the OS keychain.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"onoffice/cli/internal/xdg"
)

// EnvPrefix prefixes every environment override, e.g. ONOFFICE_API_TOKEN.
const EnvPrefix = "ONOFFICE"

// DefaultAPIURL is the stable onOffice API endpoint.
const DefaultAPIURL = "https://api.onoffice.de/api/stable/api.php"

// DefaultTimeout bounds a single API round trip.
const DefaultTimeout = 30 * time.Second

// Config holds the resolved CLI settings.
type Config struct {
	API          APIConfig
	Entities     map[string]string
	FieldModules map[string]string
	Log          LogConfig

	// File is the config file that was read, empty when none was found.
	File string
}

// APIConfig holds connection settings for the onOffice API.
type APIConfig struct {
	URL     string
	Token   string
	Secret  string
	Claim   string
	Timeout time.Duration
}

// LogConfig holds log file settings.
type LogConfig struct {
	Level      string
	File       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
}

// DefaultEntities maps entity names to onOffice resource types.
func DefaultEntities() map[string]string {
	return map[string]string{
		"estate":         "estate",
		"address":        "address",
		"activity":       "agentslog",
		"field":          "fields",
		"file":           "file",
		"filter":         "filter",
		"lastseen":       "lastseen",
		"link":           "link",
		"log":            "log",
		"macro":          "macro",
		"marketplace":    "marketplace",
		"relation":       "relation",
		"searchcriteria": "searchcriteria",
		"setting":        "setting",
	}
}

// DefaultFieldModules maps entity names to field-metadata modules.
func DefaultFieldModules() map[string]string {
	return map[string]string{
		"estate":         "estate",
		"address":        "address",
		"activity":       "agentslog",
		"searchcriteria": "searchcriteria",
	}
}

// Default returns the configuration used when nothing is configured.
func Default() Config {
	return Config{
		API: APIConfig{
			URL:     DefaultAPIURL,
			Timeout: DefaultTimeout,
		},
		Entities:     DefaultEntities(),
		FieldModules: DefaultFieldModules(),
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// envKeys are bound explicitly so they resolve even without a config file.
var envKeys = []string{
	"api.url",
	"api.token",
	"api.secret",
	"api.claim",
	"api.timeout",
	"log.level",
	"log.file",
}

// Load reads configuration. An explicit path must exist; otherwise the default
// file is read when present. Environment variables override file values.
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range envKeys {
		if err := v.BindEnv(k); err != nil {
			return cfg, fmt.Errorf("bind %s: %w", k, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		cfg.File = path
	} else {
		def, err := xdg.ConfigFile()
		if err == nil {
			if _, statErr := os.Stat(def); statErr == nil {
				v.SetConfigFile(def)
				if err := v.ReadInConfig(); err != nil {
					return cfg, fmt.Errorf("read config %s: %w", def, err)
				}
				cfg.File = def
			} else if !errors.Is(statErr, os.ErrNotExist) {
				return cfg, statErr
			}
		}
	}

	if v.IsSet("api.url") {
		cfg.API.URL = strings.TrimSpace(v.GetString("api.url"))
	}
	cfg.API.Token = strings.TrimSpace(v.GetString("api.token"))
	cfg.API.Secret = strings.TrimSpace(v.GetString("api.secret"))
	cfg.API.Claim = strings.TrimSpace(v.GetString("api.claim"))
	if v.IsSet("api.timeout") {
		d, err := ParseTimeout(v.GetString("api.timeout"))
		if err != nil {
			return cfg, err
		}
		cfg.API.Timeout = d
	}

	if v.IsSet("entities") {
		cfg.Entities = normalize(v.GetStringMapString("entities"))
	}
	if v.IsSet("field_modules") {
		cfg.FieldModules = normalize(v.GetStringMapString("field_modules"))
	}

	if v.IsSet("log.level") {
		cfg.Log.Level = strings.ToLower(strings.TrimSpace(v.GetString("log.level")))
	}
	cfg.Log.File = v.GetString("log.file")
	cfg.Log.MaxSize = v.GetInt("log.max_size")
	cfg.Log.MaxBackups = v.GetInt("log.max_backups")
	cfg.Log.MaxAge = v.GetInt("log.max_age")

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the resolved configuration.
func (c Config) Validate() error {
	if len(c.Entities) == 0 {
		return errors.New("invalid config: no entities configured")
	}
	for _, name := range sortedKeys(c.Entities) {
		if c.Entities[name] == "" {
			return fmt.Errorf("invalid config: entity '%s' has no resource type", name)
		}
	}
	for _, name := range sortedKeys(c.FieldModules) {
		if c.FieldModules[name] == "" {
			return fmt.Errorf("invalid config: field module for '%s' is empty", name)
		}
	}
	if c.API.Timeout <= 0 {
		return errors.New("invalid config: api.timeout must be positive")
	}
	return nil
}

// ParseTimeout accepts a Go duration ("45s", "1m") or a bare number of seconds.
func ParseTimeout(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("invalid config: api.timeout must be positive, got %q", s)
		}
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid config: api.timeout %q: %w", s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid config: api.timeout must be positive, got %q", s)
	}
	return d, nil
}

// normalize lowercases and trims names and trims values.
func normalize(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
