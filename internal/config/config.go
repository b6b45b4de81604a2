// Package config holds the application's root configuration.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/kittclouds/storygraph/pkg/scanner/conductor"
)

// Config is the root configuration structure for the entire application.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Store    StoreConfig    `mapstructure:"store"`
	Batch    BatchConfig    `mapstructure:"batch"`
}

// ColorConfig defines the color settings for different log levels.
// These are used for console output only.
type ColorConfig struct {
	Debug string `mapstructure:"debug" json:"debug" yaml:"debug"`
	Info  string `mapstructure:"info" json:"info" yaml:"info"`
	Warn  string `mapstructure:"warn" json:"warn" yaml:"warn"`
	Error string `mapstructure:"error" json:"error" yaml:"error"`
	Fatal string `mapstructure:"fatal" json:"fatal" yaml:"fatal"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" json:"level" yaml:"level"`
	Format      string      `mapstructure:"format" json:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" json:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" json:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" json:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" json:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" json:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" json:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" json:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" json:"colors" yaml:"colors"`
}

// AnalysisConfig holds the pipeline tunables.
type AnalysisConfig struct {
	ContextWindow         int     `mapstructure:"context_window"`
	CooccurrenceWindow    int     `mapstructure:"cooccurrence_window"`
	MinConfidence         float64 `mapstructure:"min_confidence"`
	SummaryMaxLength      int     `mapstructure:"summary_max_length"`
	FallbackChapterSize   int     `mapstructure:"fallback_chapter_size"`
	MaxFallbackCandidates int     `mapstructure:"max_fallback_candidates"`
	MaxTrackedMentions    int     `mapstructure:"max_tracked_mentions"`
	TimeReach             int     `mapstructure:"time_reach"`
}

// StoreConfig holds settings for the SQLite store.
type StoreConfig struct {
	// DSN is empty when results are not persisted.
	DSN string `mapstructure:"dsn"`
}

// BatchConfig holds settings for multi-document runs.
type BatchConfig struct {
	Concurrency int           `mapstructure:"concurrency"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// Options converts the tunables to pipeline options.
func (a AnalysisConfig) Options() conductor.Options {
	return conductor.Options{
		ContextWindow:         a.ContextWindow,
		CooccurrenceWindow:    a.CooccurrenceWindow,
		MinConfidence:         a.MinConfidence,
		SummaryMaxLength:      a.SummaryMaxLength,
		FallbackChapterSize:   a.FallbackChapterSize,
		MaxFallbackCandidates: a.MaxFallbackCandidates,
		MaxTrackedMentions:    a.MaxTrackedMentions,
		TimeReach:             a.TimeReach,
	}
}

// SetDefaults installs every default so the application runs without a file.
func SetDefaults(v *viper.Viper) {
	d := conductor.DefaultOptions()

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "storygraph")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 7)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.fatal", "magenta")

	v.SetDefault("analysis.context_window", d.ContextWindow)
	v.SetDefault("analysis.cooccurrence_window", d.CooccurrenceWindow)
	v.SetDefault("analysis.min_confidence", d.MinConfidence)
	v.SetDefault("analysis.summary_max_length", d.SummaryMaxLength)
	v.SetDefault("analysis.fallback_chapter_size", d.FallbackChapterSize)
	v.SetDefault("analysis.max_fallback_candidates", d.MaxFallbackCandidates)
	v.SetDefault("analysis.max_tracked_mentions", d.MaxTrackedMentions)
	v.SetDefault("analysis.time_reach", d.TimeReach)

	v.SetDefault("store.dsn", "")

	v.SetDefault("batch.concurrency", 4)
	v.SetDefault("batch.timeout", "5m")
}

// Load unmarshals and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	a := c.Analysis
	var errs []error
	for _, f := range []struct {
		key string
		val int
	}{
		{"analysis.context_window", a.ContextWindow},
		{"analysis.cooccurrence_window", a.CooccurrenceWindow},
		{"analysis.summary_max_length", a.SummaryMaxLength},
		{"analysis.fallback_chapter_size", a.FallbackChapterSize},
		{"analysis.max_fallback_candidates", a.MaxFallbackCandidates},
		{"analysis.max_tracked_mentions", a.MaxTrackedMentions},
		{"batch.concurrency", c.Batch.Concurrency},
	} {
		if f.val <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", f.key, f.val))
		}
	}
	if a.TimeReach < 0 {
		errs = append(errs, fmt.Errorf("analysis.time_reach must not be negative, got %d", a.TimeReach))
	}
	if a.MinConfidence < 0 || a.MinConfidence > 1 {
		errs = append(errs, fmt.Errorf("analysis.min_confidence must be within [0,1], got %g", a.MinConfidence))
	}
	if c.Batch.Timeout < 0 {
		errs = append(errs, fmt.Errorf("batch.timeout must not be negative, got %s", c.Batch.Timeout))
	}
	return errors.Join(errs...)
}
