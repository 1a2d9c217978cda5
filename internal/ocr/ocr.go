// Package ocr turns page images and native PDFs into text with a confidence
// estimate.
package ocr

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/regdoc-cli/internal/config"
)

// Engine names.
const (
	EngineTesseract = "tesseract"
	EngineMistral   = "mistral"
	EnginePdfToText = "pdftotext"
)

// Result is recognized text plus a confidence in [0, 1].
type Result struct {
	Text       string  `json:"text"`
	Confidence float32 `json:"confidence"`
	Engine     string  `json:"engine"`
}

// Engine recognizes text in an encoded page image. Failures wrap
// model.ErrExtractionFailed.
type Engine interface {
	ExtractText(ctx context.Context, image []byte) (Result, error)
}

// TextLayer reads the embedded text of a native PDF.
type TextLayer interface {
	ExtractPDF(ctx context.Context, pdf []byte) (Result, error)
}

// NewEngine builds the configured engine, rate limited when
// cfg.RatePerSecond is positive.
func NewEngine(cfg config.OCRConfig) (Engine, error) {
	var eng Engine
	switch cfg.Provider {
	case "tesseract", "local", "":
		eng = NewTesseract(cfg.TesseractPath, cfg.Language)
	case "mistral":
		if cfg.MistralKey == "" {
			return nil, eris.New("ocr: mistral provider requires mistral_api_key")
		}
		m := NewMistralOCR(cfg.MistralKey, cfg.MistralModel)
		if cfg.MaxRetries > 0 {
			m.retry = m.retry.WithAttempts(cfg.MaxRetries)
		}
		if cfg.TimeoutSecs > 0 {
			m.client.Timeout = time.Duration(cfg.TimeoutSecs) * time.Second
		}
		eng = m
	default:
		return nil, eris.Errorf("ocr: unknown provider %q", cfg.Provider)
	}

	if cfg.RatePerSecond > 0 {
		eng = NewLimited(eng, cfg.RatePerSecond, cfg.Burst)
	}
	return eng, nil
}

// Limited serializes calls to an engine through a token bucket.
type Limited struct {
	next    Engine
	limiter *rate.Limiter
}

// NewLimited wraps next with a limiter of perSecond calls and the given burst
// (minimum 1).
func NewLimited(next Engine, perSecond float64, burst int) *Limited {
	if burst < 1 {
		burst = 1
	}
	return &Limited{next: next, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// ExtractText waits for a token, then delegates.
func (l *Limited) ExtractText(ctx context.Context, image []byte) (Result, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return Result{}, eris.Wrap(err, "ocr: rate limit wait")
	}
	return l.next.ExtractText(ctx, image)
}

// Unwrap returns the limited engine.
func (l *Limited) Unwrap() Engine { return l.next }
