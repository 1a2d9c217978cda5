package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Imaging    ImagingConfig    `yaml:"imaging" mapstructure:"imaging"`
	Quality    QualityConfig    `yaml:"quality" mapstructure:"quality"`
	Extraction ExtractionConfig `yaml:"extraction" mapstructure:"extraction"`
	OCR        OCRConfig        `yaml:"ocr" mapstructure:"ocr"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ImagingConfig tunes feature extraction.
type ImagingConfig struct {
	CannyLow     float64 `yaml:"canny_low" mapstructure:"canny_low"`
	CannyHigh    float64 `yaml:"canny_high" mapstructure:"canny_high"`
	MaxDimension int     `yaml:"max_dimension" mapstructure:"max_dimension"`
}

// QualityConfig selects the analyzer and filter policy. Model coefficients
// and thresholds come from the model store, not from here.
type QualityConfig struct {
	Analyzer     string `yaml:"analyzer" mapstructure:"analyzer"`
	FilterPolicy string `yaml:"filter_policy" mapstructure:"filter_policy"`
}

// ExtractionConfig configures strategy orchestration and comparison.
type ExtractionConfig struct {
	Mode             string   `yaml:"mode" mapstructure:"mode"`
	Strategies       []string `yaml:"strategies" mapstructure:"strategies"`
	Concurrency      int      `yaml:"concurrency" mapstructure:"concurrency"`
	PartialThreshold float64  `yaml:"partial_threshold" mapstructure:"partial_threshold"`
	PhraseThreshold  float64  `yaml:"phrase_threshold" mapstructure:"phrase_threshold"`
	MinTextQuality   float64  `yaml:"min_text_quality" mapstructure:"min_text_quality"`
}

// OCRConfig configures text recognition.
type OCRConfig struct {
	Provider      string  `yaml:"provider" mapstructure:"provider"`
	TesseractPath string  `yaml:"tesseract_path" mapstructure:"tesseract_path"`
	Language      string  `yaml:"language" mapstructure:"language"`
	PdfToTextPath string  `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	MistralKey    string  `yaml:"mistral_api_key" mapstructure:"mistral_api_key"`
	MistralModel  string  `yaml:"mistral_ocr_model" mapstructure:"mistral_ocr_model"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	Burst         int     `yaml:"burst" mapstructure:"burst"`
	MaxRetries    int     `yaml:"max_retries" mapstructure:"max_retries"`
	TimeoutSecs   int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// StoreConfig configures where quality models are loaded from.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// PipelineConfig configures document processing.
type PipelineConfig struct {
	PageConcurrency     int `yaml:"page_concurrency" mapstructure:"page_concurrency"`
	DocumentConcurrency int `yaml:"document_concurrency" mapstructure:"document_concurrency"`
	// SkipEnhancement sends original page images to OCR.
	SkipEnhancement bool `yaml:"skip_enhancement" mapstructure:"skip_enhancement"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	MaxUploadMB    int      `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
}

// MonitoringConfig configures batch health alerts.
type MonitoringConfig struct {
	WebhookURL              string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	FailureRateThreshold    float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	LowQualityRateThreshold float64 `yaml:"low_quality_rate_threshold" mapstructure:"low_quality_rate_threshold"`
	// MinSimilarity of 0 disables the reconciliation alert.
	MinSimilarity float64 `yaml:"min_similarity" mapstructure:"min_similarity"`
	MinDocuments  int     `yaml:"min_documents" mapstructure:"min_documents"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("REGDOC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("imaging.canny_low", 50.0)
	v.SetDefault("imaging.canny_high", 150.0)
	v.SetDefault("imaging.max_dimension", 2000)
	v.SetDefault("quality.analyzer", "threshold")
	v.SetDefault("quality.filter_policy", "adaptive")
	v.SetDefault("extraction.mode", "best_strategy")
	v.SetDefault("extraction.strategies", []string{"structured", "contextual", "table_based", "search", "complement"})
	v.SetDefault("extraction.concurrency", 5)
	v.SetDefault("extraction.partial_threshold", 0.8)
	v.SetDefault("extraction.phrase_threshold", 0.85)
	v.SetDefault("extraction.min_text_quality", 0.5)
	v.SetDefault("ocr.provider", "tesseract")
	v.SetDefault("ocr.tesseract_path", "tesseract")
	v.SetDefault("ocr.language", "spa+eng")
	v.SetDefault("ocr.pdftotext_path", "pdftotext")
	v.SetDefault("ocr.mistral_api_key", "")
	v.SetDefault("ocr.mistral_ocr_model", "mistral-ocr-latest")
	v.SetDefault("ocr.rate_per_second", 2.0)
	v.SetDefault("ocr.burst", 1)
	v.SetDefault("ocr.max_retries", 3)
	v.SetDefault("ocr.timeout_secs", 120)
	v.SetDefault("store.driver", "file")
	v.SetDefault("store.path", "models.yaml")
	v.SetDefault("store.database_url", "")
	v.SetDefault("pipeline.page_concurrency", 4)
	v.SetDefault("pipeline.document_concurrency", 2)
	v.SetDefault("pipeline.skip_enhancement", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.max_upload_mb", 25)
	v.SetDefault("monitoring.webhook_url", "")
	v.SetDefault("monitoring.failure_rate_threshold", 0.2)
	v.SetDefault("monitoring.low_quality_rate_threshold", 0.3)
	v.SetDefault("monitoring.min_similarity", 0.0)
	v.SetDefault("monitoring.min_documents", 5)
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
