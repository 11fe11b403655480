// Package config provides Viper-based hierarchical configuration management
// for the extraction pipeline and recurrence engine.
package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Data struct {
		Directory     string `mapstructure:"directory" yaml:"directory"`
		DatabaseFile  string `mapstructure:"database_file" yaml:"database_file"`
		AttachmentDir string `mapstructure:"attachment_dir" yaml:"attachment_dir"`
	} `mapstructure:"data" yaml:"data"`

	OCR struct {
		Binary     string   `mapstructure:"binary" yaml:"binary"`
		Languages  []string `mapstructure:"languages" yaml:"languages"`
		Preprocess bool     `mapstructure:"preprocess" yaml:"preprocess"`
	} `mapstructure:"ocr" yaml:"ocr"`

	PDF struct {
		Binary string `mapstructure:"binary" yaml:"binary"`
		Layout bool   `mapstructure:"layout" yaml:"layout"`
	} `mapstructure:"pdf" yaml:"pdf"`

	AI struct {
		Enabled          bool   `mapstructure:"enabled" yaml:"enabled"`
		Model            string `mapstructure:"model" yaml:"model"`
		TimeoutSeconds   int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
		MaxRetries       int    `mapstructure:"max_retries" yaml:"max_retries"`
		FallbackCategory string `mapstructure:"fallback_category" yaml:"fallback_category"`
		APIKey           string `mapstructure:"api_key" yaml:"-"` // Never serialize API key
	} `mapstructure:"ai" yaml:"ai"`

	Batch struct {
		Workers        int     `mapstructure:"workers" yaml:"workers"`
		MemoryPerJobGB float64 `mapstructure:"memory_per_job_gb" yaml:"memory_per_job_gb"`
		FailSafe       bool    `mapstructure:"fail_safe" yaml:"fail_safe"`
	} `mapstructure:"batch" yaml:"batch"`

	Recurrence struct {
		HorizonMonths int `mapstructure:"horizon_months" yaml:"horizon_months"`
	} `mapstructure:"recurrence" yaml:"recurrence"`
}

var (
	globalConfig *Config
	configOnce   sync.Once
)

// InitializeConfig initializes Viper configuration with hierarchical loading:
// defaults, then an optional config file, then environment variables.
func InitializeConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.scanledger")
	v.AddConfigPath(".scanledger")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SCANLEDGER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Continue with defaults and env vars on a broken config file.
			fmt.Printf("Warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
	}

	// The API key is always read from the unprefixed variable the provider
	// documents, never from a config file.
	if err := v.BindEnv("ai.api_key", "GEMINI_API_KEY"); err != nil {
		fmt.Printf("Warning: failed to bind GEMINI_API_KEY environment variable: %v\n", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// GetConfig returns the process-wide configuration, initializing it on first
// use. Initialization errors fall back to defaults.
func GetConfig() *Config {
	configOnce.Do(func() {
		cfg, err := InitializeConfig()
		if err != nil {
			fmt.Printf("Warning: configuration error, using defaults: %v\n", err)
			cfg = defaultConfig()
		}
		globalConfig = cfg
	})
	return globalConfig
}

func defaultConfig() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("data.directory", "data")
	v.SetDefault("data.database_file", "data/scanledger.db")
	v.SetDefault("data.attachment_dir", "data/attachments")

	v.SetDefault("ocr.binary", "tesseract")
	v.SetDefault("ocr.languages", []string{"fra", "eng"})
	v.SetDefault("ocr.preprocess", true)

	v.SetDefault("pdf.binary", "pdftotext")
	v.SetDefault("pdf.layout", true)

	v.SetDefault("ai.enabled", true)
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout_seconds", 30)
	v.SetDefault("ai.max_retries", 3)
	v.SetDefault("ai.fallback_category", "Uncategorized")

	v.SetDefault("batch.workers", 0) // 0 = size from hardware
	v.SetDefault("batch.memory_per_job_gb", 0.5)
	v.SetDefault("batch.fail_safe", true)

	v.SetDefault("recurrence.horizon_months", 3)
}

func validateConfig(cfg *Config) error {
	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "warning", "error", "fatal":
	default:
		return fmt.Errorf("invalid log level: %s", cfg.Log.Level)
	}
	if cfg.AI.TimeoutSeconds <= 0 {
		return fmt.Errorf("ai.timeout_seconds must be positive, got %d", cfg.AI.TimeoutSeconds)
	}
	if cfg.AI.MaxRetries < 0 {
		return fmt.Errorf("ai.max_retries must not be negative, got %d", cfg.AI.MaxRetries)
	}
	if cfg.Batch.Workers < 0 {
		return fmt.Errorf("batch.workers must not be negative, got %d", cfg.Batch.Workers)
	}
	if cfg.Recurrence.HorizonMonths <= 0 {
		return fmt.Errorf("recurrence.horizon_months must be positive, got %d", cfg.Recurrence.HorizonMonths)
	}
	return nil
}
