package config

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks the settings a command mode depends on and reports every
// problem at once.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "analyze", "extract", "compare", "models":
	case "process", "serve":
		switch c.OCR.Provider {
		case "tesseract", "local", "":
		case "mistral":
			if c.OCR.MistralKey == "" {
				errs = append(errs, "ocr.mistral_api_key is required for the mistral provider")
			}
		default:
			errs = append(errs, "ocr.provider must be one of tesseract, local, mistral")
		}
		if c.Pipeline.PageConcurrency < 1 || c.Pipeline.PageConcurrency > 64 {
			errs = append(errs, "pipeline.page_concurrency must be between 1 and 64")
		}
		if c.Pipeline.DocumentConcurrency < 1 || c.Pipeline.DocumentConcurrency > 64 {
			errs = append(errs, "pipeline.document_concurrency must be between 1 and 64")
		}
		if c.OCR.RatePerSecond < 0 {
			errs = append(errs, "ocr.rate_per_second must be >= 0")
		}
		if mode == "serve" && c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if mode == "process" {
			m := c.Monitoring
			if m.FailureRateThreshold < 0 || m.FailureRateThreshold > 1 ||
				m.LowQualityRateThreshold < 0 || m.LowQualityRateThreshold > 1 ||
				m.MinSimilarity < 0 || m.MinSimilarity > 1 {
				errs = append(errs, "monitoring thresholds must be between 0 and 1")
			}
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.Store.Driver {
	case "file", "":
	case "sqlite":
		if c.Store.Path == "" {
			errs = append(errs, "store.path is required for the sqlite driver")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required for the postgres driver")
		}
	default:
		errs = append(errs, "store.driver must be one of file, sqlite, postgres")
	}

	for name, v := range map[string]float64{
		"extraction.partial_threshold": c.Extraction.PartialThreshold,
		"extraction.phrase_threshold":  c.Extraction.PhraseThreshold,
		"extraction.min_text_quality":  c.Extraction.MinTextQuality,
	} {
		if v < 0 || v > 1 {
			errs = append(errs, name+" must be between 0 and 1")
		}
	}
	if c.Extraction.Concurrency < 0 {
		errs = append(errs, "extraction.concurrency must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}
