// Package config handles configuration loading for Sector Screen.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	API      APIConfig      `mapstructure:"api"      yaml:"api"`
	Screener ScreenerConfig `mapstructure:"screener" yaml:"screener"`
	Export   ExportConfig   `mapstructure:"export"   yaml:"export"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// ScreenerConfig holds screening pipeline settings.
type ScreenerConfig struct {
	CacheTTL      int    `mapstructure:"cache_ttl"      yaml:"cache_ttl"`      // seconds
	RateLimit     int    `mapstructure:"rate_limit"     yaml:"rate_limit"`     // upstream requests per second
	DefaultMethod string `mapstructure:"default_method" yaml:"default_method"` // "top", "growth", "performance"
	DefaultTopN   int    `mapstructure:"default_top_n"  yaml:"default_top_n"`
}

// ExportConfig holds spreadsheet export settings.
type ExportConfig struct {
	Directory string `mapstructure:"directory" yaml:"directory"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.sectorscreen/config.yaml (home directory)
//  3. /etc/sectorscreen/config.yaml (system)
//
// Environment variables override config file values.
// Format: SECTORSCREEN_<SECTION>_<KEY>, e.g., SECTORSCREEN_API_PORT.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".sectorscreen"))
	v.AddConfigPath("/etc/sectorscreen")

	v.SetEnvPrefix("SECTORSCREEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required to exist).
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found — that's fine, use defaults + env vars.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("SECTORSCREEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// Screener defaults
	v.SetDefault("screener.cache_ttl", 1800) // 30 minutes
	v.SetDefault("screener.rate_limit", 5)
	v.SetDefault("screener.default_method", "top")
	v.SetDefault("screener.default_top_n", 20)

	// Export defaults
	v.SetDefault("export.directory", ".")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
