package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "file", cfg.Store.Driver)
	assert.Equal(t, "models.yaml", cfg.Store.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.InDelta(t, 50, cfg.Imaging.CannyLow, 0.001)
	assert.InDelta(t, 150, cfg.Imaging.CannyHigh, 0.001)
	assert.Equal(t, "threshold", cfg.Quality.Analyzer)
	assert.Equal(t, "adaptive", cfg.Quality.FilterPolicy)
	assert.Equal(t, "best_strategy", cfg.Extraction.Mode)
	assert.Len(t, cfg.Extraction.Strategies, 5)
	assert.InDelta(t, 0.8, cfg.Extraction.PartialThreshold, 0.001)
	assert.InDelta(t, 0.85, cfg.Extraction.PhraseThreshold, 0.001)
	assert.Equal(t, "tesseract", cfg.OCR.Provider)
	assert.Equal(t, "spa+eng", cfg.OCR.Language)
	assert.Equal(t, 3, cfg.OCR.MaxRetries)
	assert.Equal(t, 4, cfg.Pipeline.PageConcurrency)
	assert.Equal(t, 2, cfg.Pipeline.DocumentConcurrency)
	assert.InDelta(t, 0.2, cfg.Monitoring.FailureRateThreshold, 0.001)
	assert.Equal(t, 5, cfg.Monitoring.MinDocuments)
	assert.Empty(t, cfg.Monitoring.WebhookURL)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
  path: models.db
log:
  level: debug
  format: console
quality:
  analyzer: regression
extraction:
  mode: merge_all
  strategies: [structured, complement]
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "models.db", cfg.Store.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "regression", cfg.Quality.Analyzer)
	assert.Equal(t, "merge_all", cfg.Extraction.Mode)
	assert.Equal(t, []string{"structured", "complement"}, cfg.Extraction.Strategies)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Defaults still apply for unset values
	assert.Equal(t, "adaptive", cfg.Quality.FilterPolicy)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("REGDOC_STORE_DRIVER", "postgres")
	t.Setenv("REGDOC_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("REGDOC_SERVER_PORT", "3000")
	t.Setenv("REGDOC_OCR_PROVIDER", "mistral")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "mistral", cfg.OCR.Provider)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}

func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "file"
	cfg.OCR.Provider = "tesseract"
	cfg.Extraction.PartialThreshold = 0.8
	cfg.Extraction.PhraseThreshold = 0.85
	cfg.Extraction.MinTextQuality = 0.5
	cfg.Pipeline.PageConcurrency = 4
	cfg.Pipeline.DocumentConcurrency = 2
	cfg.Server.Port = 8080
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	cfg := validDefaults()
	for _, mode := range []string{"analyze", "extract", "compare", "models", "process", "serve"} {
		assert.NoError(t, cfg.Validate(mode), mode)
	}
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")

	assert.NoError(t, cfg.Validate("process"))
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateMistralNeedsKey(t *testing.T) {
	cfg := validDefaults()
	cfg.OCR.Provider = "mistral"

	err := cfg.Validate("process")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ocr.mistral_api_key is required")

	cfg.OCR.MistralKey = "key"
	assert.NoError(t, cfg.Validate("process"))
}

func TestValidateStoreDrivers(t *testing.T) {
	cfg := validDefaults()

	cfg.Store.Driver = "postgres"
	err := cfg.Validate("models")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")

	cfg.Store.DatabaseURL = "postgres://localhost/regdoc"
	assert.NoError(t, cfg.Validate("models"))

	cfg.Store.Driver = "sqlite"
	err = cfg.Validate("models")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.path is required")

	cfg.Store.Driver = "mongo"
	err = cfg.Validate("models")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be one of")
}

func TestValidateConcurrencyBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Pipeline.PageConcurrency = 0
	err := cfg.Validate("process")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "page_concurrency must be between 1 and 64")

	cfg.Pipeline.PageConcurrency = 65
	assert.Error(t, cfg.Validate("process"))

	cfg.Pipeline.PageConcurrency = 64
	assert.NoError(t, cfg.Validate("process"))
}

func TestValidateThresholds(t *testing.T) {
	cfg := validDefaults()

	cfg.Extraction.PartialThreshold = 1.5
	err := cfg.Validate("compare")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "extraction.partial_threshold")

	cfg.Extraction.PartialThreshold = 0.8
	cfg.Extraction.MinTextQuality = -0.1
	err = cfg.Validate("compare")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "extraction.min_text_quality")
}

func TestValidateMonitoringThresholds(t *testing.T) {
	cfg := validDefaults()
	cfg.Monitoring.LowQualityRateThreshold = 2

	err := cfg.Validate("process")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "monitoring thresholds")

	assert.NoError(t, cfg.Validate("serve"))
}

func TestLoadEnvSecrets(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("REGDOC_OCR_MISTRAL_API_KEY", "secret")
	t.Setenv("REGDOC_STORE_DATABASE_URL", "postgres://db/regdoc")
	t.Setenv("REGDOC_PIPELINE_SKIP_ENHANCEMENT", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.OCR.MistralKey)
	assert.Equal(t, "postgres://db/regdoc", cfg.Store.DatabaseURL)
	assert.True(t, cfg.Pipeline.SkipEnhancement)
}
