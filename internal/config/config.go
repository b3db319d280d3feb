// Package config provides persistent configuration for the prayer widget.
//
// Configuration is stored as JSON at ~/.config/prayer-widget/config.json
// (XDG-compliant). Every key can be overridden by an environment variable
// PRAYER_WIDGET_<KEY>, and a .env file in the working directory is read
// first. The merge priority is: CLI flags > environment > config file > defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	configDirName  = "prayer-widget"
	configFileName = "config.json"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "PRAYER_WIDGET"

	SourceScrape  = "scrape"
	SourceAlAdhan = "aladhan"
)

// ValidKeys lists all config keys that can be set via `config set`.
var ValidKeys = []string{
	"city", "country",
	"latitude", "longitude",
	"method", "school",
	"source", "scrape_url",
	"weather_city", "weather_api_key",
	"data_file", "history_db", "history_days",
	"time_format", "language",
	"alarm_command",
	"refresh_cron",
	"log_level",
}

// Config holds all user-configurable settings.
// Zero values mean "not set" (use defaults or auto-detect).
type Config struct {
	City          string  `json:"city,omitempty" mapstructure:"city"`
	Country       string  `json:"country,omitempty" mapstructure:"country"`
	Latitude      float64 `json:"latitude,omitempty" mapstructure:"latitude"`
	Longitude     float64 `json:"longitude,omitempty" mapstructure:"longitude"`
	Method        *int    `json:"method,omitempty" mapstructure:"method"` // pointer so we can distinguish "not set" from 0
	School        *int    `json:"school,omitempty" mapstructure:"school"` // pointer so we can distinguish "not set" from 0
	Source        string  `json:"source,omitempty" mapstructure:"source"` // "scrape" or "aladhan"
	ScrapeURL     string  `json:"scrape_url,omitempty" mapstructure:"scrape_url"`
	WeatherCity   string  `json:"weather_city,omitempty" mapstructure:"weather_city"`
	WeatherAPIKey string  `json:"weather_api_key,omitempty" mapstructure:"weather_api_key"`
	DataFile      string  `json:"data_file,omitempty" mapstructure:"data_file"`
	HistoryDB     string  `json:"history_db,omitempty" mapstructure:"history_db"`
	HistoryDays   int     `json:"history_days,omitempty" mapstructure:"history_days"`
	TimeFormat    string  `json:"time_format,omitempty" mapstructure:"time_format"` // "12h" or "24h"
	Language      string  `json:"language,omitempty" mapstructure:"language"`       // "en" or "ar"
	AlarmCommand  string  `json:"alarm_command,omitempty" mapstructure:"alarm_command"`
	RefreshCron   string  `json:"refresh_cron,omitempty" mapstructure:"refresh_cron"`
	LogLevel      string  `json:"log_level,omitempty" mapstructure:"log_level"`
}

// Defaults returns a Config with all default values applied.
func Defaults() Config {
	method := -1
	school := -1
	return Config{
		Method:      &method,
		School:      &school,
		Source:      SourceScrape,
		WeatherCity: "Mostaganem",
		HistoryDays: 7,
		TimeFormat:  "24h",
		Language:    "en",
		RefreshCron: "5 0 * * *",
		LogLevel:    "info",
	}
}

// ApplyDefaults fills every unset field from Defaults.
func (c *Config) ApplyDefaults() {
	d := Defaults()
	if c.Method == nil {
		c.Method = d.Method
	}
	if c.School == nil {
		c.School = d.School
	}
	if c.Source == "" {
		c.Source = d.Source
	}
	if c.WeatherCity == "" {
		c.WeatherCity = d.WeatherCity
	}
	if c.HistoryDays <= 0 {
		c.HistoryDays = d.HistoryDays
	}
	if c.TimeFormat == "" {
		c.TimeFormat = d.TimeFormat
	}
	if c.Language == "" {
		c.Language = d.Language
	}
	if c.RefreshCron == "" {
		c.RefreshCron = d.RefreshCron
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
}

// Dir returns the config directory path.
// It respects $XDG_CONFIG_HOME if set, otherwise uses ~/.config/.
func Dir() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, configDirName), nil
}

// Path returns the full path to the config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// LoadDotEnv reads KEY=value pairs from path into the environment.
// Variables already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return nil
}

// Load reads the config file from disk and applies environment overrides.
// If the file does not exist, only the environment is used (not an error).
// If the file exists but is invalid JSON, it returns an error.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	return LoadFrom(path)
}

// LoadFrom reads the config from a specific file path, then overlays
// PRAYER_WIDGET_* environment variables.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	for _, key := range ValidKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := v.ReadConfig(f); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config values: %w", err)
	}

	return &cfg, nil
}

// Save writes the config to disk, creating the directory if needed.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}

	return c.SaveTo(path)
}

// SaveTo writes the config to a specific file path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Reset deletes the config file.
func Reset() error {
	path, err := Path()
	if err != nil {
		return err
	}

	return ResetAt(path)
}

// ResetAt deletes the config file at a specific path.
func ResetAt(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete config file: %w", err)
	}
	return nil
}

// Set sets a config key to the given value.
// It validates the key name and parses the value into the correct type.
func (c *Config) Set(key, value string) error {
	switch key {
	case "city":
		c.City = value
	case "country":
		c.Country = value
	case "latitude":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid latitude %q: must be a number", value)
		}
		if v < -90 || v > 90 {
			return fmt.Errorf("invalid latitude %q: must be between -90 and 90", value)
		}
		c.Latitude = v
	case "longitude":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid longitude %q: must be a number", value)
		}
		if v < -180 || v > 180 {
			return fmt.Errorf("invalid longitude %q: must be between -180 and 180", value)
		}
		c.Longitude = v
	case "method":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid method %q: must be an integer", value)
		}
		if v < 0 || v > 23 {
			return fmt.Errorf("invalid method %q: must be between 0 and 23", value)
		}
		c.Method = &v
	case "school":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid school %q: must be an integer", value)
		}
		if v != 0 && v != 1 {
			return fmt.Errorf("invalid school %q: must be 0 (Shafi) or 1 (Hanafi)", value)
		}
		c.School = &v
	case "source":
		if value != SourceScrape && value != SourceAlAdhan {
			return fmt.Errorf("invalid source %q: must be %q or %q", value, SourceScrape, SourceAlAdhan)
		}
		c.Source = value
	case "scrape_url":
		u, err := url.Parse(value)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid scrape_url %q: must be an http(s) URL", value)
		}
		c.ScrapeURL = value
	case "weather_city":
		c.WeatherCity = value
	case "weather_api_key":
		c.WeatherAPIKey = value
	case "data_file":
		c.DataFile = value
	case "history_db":
		c.HistoryDB = value
	case "history_days":
		v, err := strconv.Atoi(value)
		if err != nil || v < 1 {
			return fmt.Errorf("invalid history_days %q: must be a positive integer", value)
		}
		c.HistoryDays = v
	case "time_format":
		if value != "12h" && value != "24h" {
			return fmt.Errorf("invalid time_format %q: must be \"12h\" or \"24h\"", value)
		}
		c.TimeFormat = value
	case "language":
		if value != "en" && value != "ar" {
			return fmt.Errorf("invalid language %q: must be \"en\" or \"ar\"", value)
		}
		c.Language = value
	case "alarm_command":
		c.AlarmCommand = value
	case "refresh_cron":
		if _, err := cron.ParseStandard(value); err != nil {
			return fmt.Errorf("invalid refresh_cron %q: %w", value, err)
		}
		c.RefreshCron = value
	case "log_level":
		if _, err := zerolog.ParseLevel(value); err != nil || value == "" {
			return fmt.Errorf("invalid log_level %q: must be one of trace, debug, info, warn, error", value)
		}
		c.LogLevel = value
	default:
		return fmt.Errorf("unknown config key %q; valid keys: %s", key, strings.Join(ValidKeys, ", "))
	}

	return nil
}

// Get returns the string value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "city":
		return c.City, nil
	case "country":
		return c.Country, nil
	case "latitude":
		if c.Latitude == 0 {
			return "", nil
		}
		return strconv.FormatFloat(c.Latitude, 'f', -1, 64), nil
	case "longitude":
		if c.Longitude == 0 {
			return "", nil
		}
		return strconv.FormatFloat(c.Longitude, 'f', -1, 64), nil
	case "method":
		if c.Method == nil {
			return "", nil
		}
		return strconv.Itoa(*c.Method), nil
	case "school":
		if c.School == nil {
			return "", nil
		}
		return strconv.Itoa(*c.School), nil
	case "source":
		return c.Source, nil
	case "scrape_url":
		return c.ScrapeURL, nil
	case "weather_city":
		return c.WeatherCity, nil
	case "weather_api_key":
		return c.WeatherAPIKey, nil
	case "data_file":
		return c.DataFile, nil
	case "history_db":
		return c.HistoryDB, nil
	case "history_days":
		if c.HistoryDays == 0 {
			return "", nil
		}
		return strconv.Itoa(c.HistoryDays), nil
	case "time_format":
		return c.TimeFormat, nil
	case "language":
		return c.Language, nil
	case "alarm_command":
		return c.AlarmCommand, nil
	case "refresh_cron":
		return c.RefreshCron, nil
	case "log_level":
		return c.LogLevel, nil
	default:
		return "", fmt.Errorf("unknown config key %q", key)
	}
}

// MethodOrDefault returns the method value, falling back to the given default.
func (c *Config) MethodOrDefault(def int) int {
	if c.Method != nil {
		return *c.Method
	}
	return def
}

// SchoolOrDefault returns the school value, falling back to the given default.
func (c *Config) SchoolOrDefault(def int) int {
	if c.School != nil {
		return *c.School
	}
	return def
}

// GoTimeFormat returns the Go layout for TimeFormat.
func (c *Config) GoTimeFormat() string {
	if c.TimeFormat == "12h" {
		return "3:04 PM"
	}
	return "15:04"
}
