package pipeline

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/regdoc-cli/internal/compare"
	"github.com/sells-group/regdoc-cli/internal/config"
	"github.com/sells-group/regdoc-cli/internal/extraction"
	"github.com/sells-group/regdoc-cli/internal/imaging"
	"github.com/sells-group/regdoc-cli/internal/ocr"
	"github.com/sells-group/regdoc-cli/internal/quality"
)

// Components are the configured building blocks shared by the CLI commands.
type Components struct {
	Features     *imaging.FeatureExtractor
	Analyzer     quality.Analyzer
	Selector     quality.FilterSelector
	Comparer     *compare.Comparer
	Orchestrator *extraction.Orchestrator
	Mode         extraction.Mode
}

// NewComponents builds the quality and extraction stack from cfg and set.
// It needs no OCR engine, so offline commands can use it.
func NewComponents(cfg *config.Config, set *quality.ModelSet) (*Components, error) {
	if set == nil {
		set = quality.DefaultModelSet()
	}
	fe := imaging.NewFeatureExtractor(imaging.FeatureConfig{
		CannyLow:     cfg.Imaging.CannyLow,
		CannyHigh:    cfg.Imaging.CannyHigh,
		MaxDimension: cfg.Imaging.MaxDimension,
	})

	analyzer, err := quality.NewAnalyzer(cfg.Quality.Analyzer, fe, set)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: analyzer")
	}
	predictor, err := quality.NewParameterPredictor(set.Models)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: predictor")
	}
	policy, err := quality.ParsePolicy(cfg.Quality.FilterPolicy)
	if err != nil {
		return nil, err
	}
	selector, err := quality.NewFilterSelector(policy, quality.SelectorDeps{
		Presets:   set.Presets,
		Threshold: quality.NewThresholdAnalyzer(fe, set.Thresholds, set.Presets),
		Predictor: predictor,
		Analyzer:  analyzer,
	})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: filter selector")
	}

	strategies, err := extraction.NewStrategies(cfg.Extraction.Strategies, cfg.Extraction.PhraseThreshold)
	if err != nil {
		return nil, err
	}
	mode, err := extraction.ParseMode(cfg.Extraction.Mode)
	if err != nil {
		return nil, err
	}
	comparer := compare.NewComparer(cfg.Extraction.PartialThreshold)

	return &Components{
		Features: fe,
		Analyzer: analyzer,
		Selector: selector,
		Comparer: comparer,
		Orchestrator: extraction.NewOrchestrator(strategies,
			extraction.WithConcurrency(cfg.Extraction.Concurrency),
			extraction.WithComparer(comparer),
		),
		Mode: mode,
	}, nil
}

// Build wires a full Pipeline from configuration, using engine for OCR. A
// nil engine is built from cfg.OCR.
func Build(cfg *config.Config, set *quality.ModelSet, engine ocr.Engine) (*Pipeline, error) {
	c, err := NewComponents(cfg, set)
	if err != nil {
		return nil, err
	}
	return c.NewPipeline(cfg, engine)
}

// NewPipeline assembles a Pipeline around the components.
func (c *Components) NewPipeline(cfg *config.Config, engine ocr.Engine) (*Pipeline, error) {
	if engine == nil {
		var err error
		engine, err = ocr.NewEngine(cfg.OCR)
		if err != nil {
			return nil, err
		}
	}
	return New(Deps{
		Features:     c.Features,
		Analyzer:     c.Analyzer,
		Selector:     c.Selector,
		Enhancer:     imaging.NewEnhancer(),
		OCR:          engine,
		TextLayer:    ocr.NewPdfToText(cfg.OCR.PdfToTextPath),
		Orchestrator: c.Orchestrator,
		Comparer:     c.Comparer,
	}, Options{
		Mode:                c.Mode,
		PageConcurrency:     cfg.Pipeline.PageConcurrency,
		DocumentConcurrency: cfg.Pipeline.DocumentConcurrency,
		MinTextQuality:      cfg.Extraction.MinTextQuality,
		SkipEnhancement:     cfg.Pipeline.SkipEnhancement,
		MaxDimension:        cfg.Imaging.MaxDimension,
	})
}
