// Package pipeline runs scanned regulatory documents end to end: quality
// assessment, enhancement, recognition, field extraction and optional
// reconciliation against an authoritative record.
package pipeline

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/regdoc-cli/internal/compare"
	"github.com/sells-group/regdoc-cli/internal/extraction"
	"github.com/sells-group/regdoc-cli/internal/imaging"
	"github.com/sells-group/regdoc-cli/internal/ocr"
	"github.com/sells-group/regdoc-cli/internal/quality"
)

// Stage names reported in page timings and failures.
const (
	StageDecode    = "decode"
	StageAssess    = "assess"
	StageSelect    = "select"
	StageEnhance   = "enhance"
	StageOCR       = "ocr"
	StageTextLayer = "text_layer"
	StageExtract   = "extract"
	StageReconcile = "reconcile"
)

// Deps are the collaborators a Pipeline drives. TextLayer is optional; without
// it PDFs are rejected.
type Deps struct {
	Features     *imaging.FeatureExtractor
	Analyzer     quality.Analyzer
	Selector     quality.FilterSelector
	Enhancer     *imaging.Enhancer
	OCR          ocr.Engine
	TextLayer    ocr.TextLayer
	Orchestrator *extraction.Orchestrator
	Comparer     *compare.Comparer
}

// Options tune a Pipeline.
type Options struct {
	Mode                extraction.Mode
	PageConcurrency     int
	DocumentConcurrency int
	// MinTextQuality flags pages whose recognized text scores below it.
	MinTextQuality float64
	// SkipEnhancement sends the original image to OCR.
	SkipEnhancement bool
	// MaxDimension bounds the image handed to enhancement and OCR.
	MaxDimension int
}

// Pipeline is safe for concurrent use once built.
type Pipeline struct {
	deps Deps
	opts Options
}

// New validates deps and fills option defaults.
func New(deps Deps, opts Options) (*Pipeline, error) {
	switch {
	case deps.Features == nil:
		return nil, eris.New("pipeline: feature extractor is required")
	case deps.Analyzer == nil:
		return nil, eris.New("pipeline: analyzer is required")
	case deps.Selector == nil:
		return nil, eris.New("pipeline: filter selector is required")
	case deps.OCR == nil:
		return nil, eris.New("pipeline: ocr engine is required")
	case deps.Orchestrator == nil:
		return nil, eris.New("pipeline: orchestrator is required")
	}
	if deps.Enhancer == nil {
		deps.Enhancer = imaging.NewEnhancer()
	}
	if deps.Comparer == nil {
		deps.Comparer = compare.NewComparer(compare.DefaultPartialThreshold)
	}
	if opts.PageConcurrency <= 0 {
		opts.PageConcurrency = 1
	}
	if opts.DocumentConcurrency <= 0 {
		opts.DocumentConcurrency = 1
	}
	return &Pipeline{deps: deps, opts: opts}, nil
}

// Mode returns the arbitration mode used for documents.
func (p *Pipeline) Mode() extraction.Mode { return p.opts.Mode }
