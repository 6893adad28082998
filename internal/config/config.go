package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/atikulmunna/logsift/internal/matcher"
)

// Config holds all logsift settings.
type Config struct {
	LogLevel          string       `mapstructure:"log_level"`
	LogFormat         string       `mapstructure:"log_format"`
	EmptyFilters      string       `mapstructure:"empty_filters"` // "allow" or "reject"
	VerboseThreshold  int          `mapstructure:"verbose_threshold"`
	ParallelThreshold int          `mapstructure:"parallel_threshold"`
	ExportDir         string       `mapstructure:"export_dir"`
	Server            ServerConfig `mapstructure:"server"`
}

// ServerConfig holds settings for `logsift serve`.
type ServerConfig struct {
	Port      string `mapstructure:"port"`
	CacheSize int    `mapstructure:"cache_size"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel:          "info",
		LogFormat:         "text",
		EmptyFilters:      "allow",
		VerboseThreshold:  100,
		ParallelThreshold: 0,
		ExportDir:         ".",
		Server: ServerConfig{
			Port:      "8080",
			CacheSize: 128,
		},
	}
}

// SetDefaults registers the built-in values on v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("empty_filters", d.EmptyFilters)
	v.SetDefault("verbose_threshold", d.VerboseThreshold)
	v.SetDefault("parallel_threshold", d.ParallelThreshold)
	v.SetDefault("export_dir", d.ExportDir)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.cache_size", d.Server.CacheSize)
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (Config, error) {
	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the commands cannot use.
func (c Config) Validate() error {
	if _, err := matcher.ParseEmptyPolicy(c.EmptyFilters); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	if c.VerboseThreshold < 0 {
		return fmt.Errorf("verbose_threshold must not be negative, got %d", c.VerboseThreshold)
	}
	if c.Server.CacheSize <= 0 {
		return fmt.Errorf("server.cache_size must be positive, got %d", c.Server.CacheSize)
	}
	return nil
}

// MatcherOptions translates the config into matcher options.
func (c Config) MatcherOptions() matcher.Options {
	policy, _ := matcher.ParseEmptyPolicy(c.EmptyFilters)
	return matcher.Options{
		EmptyPolicy:       policy,
		ParallelThreshold: c.ParallelThreshold,
	}
}
