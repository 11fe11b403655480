package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestInitializeConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := InitializeConfig()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "data/scanledger.db", cfg.Data.DatabaseFile)
	assert.Equal(t, "tesseract", cfg.OCR.Binary)
	assert.Equal(t, []string{"fra", "eng"}, cfg.OCR.Languages)
	assert.True(t, cfg.OCR.Preprocess)
	assert.Equal(t, "pdftotext", cfg.PDF.Binary)
	assert.True(t, cfg.AI.Enabled)
	assert.Equal(t, "gemini-2.0-flash", cfg.AI.Model)
	assert.Equal(t, 30, cfg.AI.TimeoutSeconds)
	assert.Zero(t, cfg.Batch.Workers, "zero means size from hardware")
	assert.Equal(t, 3, cfg.Recurrence.HorizonMonths)
}

func TestInitializeConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
log:
  level: debug
ocr:
  binary: /opt/tesseract/bin/tesseract
batch:
  workers: 4
  fail_safe: false
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))
	chdir(t, dir)
	t.Setenv("HOME", t.TempDir())

	cfg, err := InitializeConfig()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/opt/tesseract/bin/tesseract", cfg.OCR.Binary)
	assert.Equal(t, 4, cfg.Batch.Workers)
	assert.False(t, cfg.Batch.FailSafe)
	assert.Equal(t, "gemini-2.0-flash", cfg.AI.Model, "unlisted keys keep defaults")
}

func TestInitializeConfigEnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SCANLEDGER_LOG_LEVEL", "error")
	t.Setenv("SCANLEDGER_AI_MODEL", "gemini-1.5-pro")
	t.Setenv("GEMINI_API_KEY", "test-key-123")

	cfg, err := InitializeConfig()
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "gemini-1.5-pro", cfg.AI.Model)
	assert.Equal(t, "test-key-123", cfg.AI.APIKey, "api key comes from the provider's own variable")
}

func TestInitializeConfigRejectsInvalidValues(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SCANLEDGER_LOG_LEVEL", "verbose")

	_, err := InitializeConfig()
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	base := func() *Config {
		cfg := defaultConfig()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults pass", mutate: func(*Config) {}},
		{name: "warn level accepted", mutate: func(c *Config) { c.Log.Level = "warn" }},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: true},
		{name: "zero ai timeout", mutate: func(c *Config) { c.AI.TimeoutSeconds = 0 }, wantErr: true},
		{name: "negative retries", mutate: func(c *Config) { c.AI.MaxRetries = -1 }, wantErr: true},
		{name: "negative workers", mutate: func(c *Config) { c.Batch.Workers = -2 }, wantErr: true},
		{name: "zero horizon", mutate: func(c *Config) { c.Recurrence.HorizonMonths = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
