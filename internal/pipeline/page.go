package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/regdoc-cli/internal/compare"
	"github.com/sells-group/regdoc-cli/internal/imaging"
	"github.com/sells-group/regdoc-cli/internal/model"
	"github.com/sells-group/regdoc-cli/internal/ocr"
)

// StageTiming records how long one stage of a page took.
type StageTiming struct {
	Name       string `json:"name"`
	DurationMs int64  `json:"duration_ms"`
}

// PageResult is everything learned about one page.
type PageResult struct {
	Index      int                          `json:"index"`
	Native     bool                         `json:"native"`
	Features   *model.ImagePropertyFeatures `json:"features,omitempty"`
	Assessment *model.QualityAssessment     `json:"assessment,omitempty"`
	Filter     model.FilterType             `json:"filter"`
	Parameters model.FilterParameters       `json:"parameters,omitempty"`
	OCR        ocr.Result                   `json:"ocr"`
	// TextQuality is compare.QualityScore of the recognized text.
	TextQuality    float64       `json:"text_quality"`
	LowTextQuality bool          `json:"low_text_quality"`
	Stages         []StageTiming `json:"stages"`
}

// StageError carries the stage and page a run failed in. Page is -1 for
// document-level stages.
type StageError struct {
	Stage string
	Page  int
	Err   error
}

func (e *StageError) Error() string {
	if e.Page < 0 {
		return fmt.Sprintf("pipeline: %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("pipeline: page %d: %s: %v", e.Page, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// StageOf returns the failing stage recorded in err, or "".
func StageOf(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// ProcessPage runs one page. Native PDFs go through the text layer; images
// are assessed, enhanced and recognized.
func (p *Pipeline) ProcessPage(ctx context.Context, index int, data []byte) (*PageResult, error) {
	if err := model.CheckCancelled(ctx); err != nil {
		return nil, err
	}
	res := &PageResult{Index: index, Filter: model.FilterNone}
	timed := func(stage string, fn func() error) error {
		start := time.Now()
		err := fn()
		res.Stages = append(res.Stages, StageTiming{Name: stage, DurationMs: time.Since(start).Milliseconds()})
		if err != nil {
			return &StageError{Stage: stage, Page: index, Err: err}
		}
		return nil
	}

	if ocr.IsPDF(data) {
		if err := timed(StageTextLayer, func() error { return p.readTextLayer(ctx, data, res) }); err != nil {
			return nil, err
		}
		p.scoreText(res)
		return res, nil
	}

	var err error
	var img, enhanced image.Image
	if err = timed(StageDecode, func() error {
		img, err = imaging.Decode(data)
		if err == nil {
			img = imaging.Downscale(img, p.opts.MaxDimension)
		}
		return err
	}); err != nil {
		return nil, err
	}

	if err = timed(StageAssess, func() error {
		f, ferr := p.deps.Features.Extract(img)
		if ferr != nil {
			return ferr
		}
		res.Features = &f
		res.Assessment, ferr = p.deps.Analyzer.Assess(ctx, f)
		return ferr
	}); err != nil {
		return nil, err
	}

	var params model.FilterParameters = model.NoFilter{}
	if !p.opts.SkipEnhancement {
		if err = timed(StageSelect, func() error {
			params, err = p.deps.Selector.Select(ctx, *res.Features)
			return err
		}); err != nil {
			return nil, err
		}
	}
	res.Parameters = params
	res.Filter = params.FilterType()

	var png []byte
	if err = timed(StageEnhance, func() error {
		enhanced, err = p.deps.Enhancer.Apply(ctx, img, params)
		if err != nil {
			return err
		}
		png, err = imaging.EncodePNG(enhanced)
		return err
	}); err != nil {
		return nil, err
	}

	if err = timed(StageOCR, func() error {
		res.OCR, err = p.deps.OCR.ExtractText(ctx, png)
		return err
	}); err != nil {
		return nil, err
	}

	p.scoreText(res)
	zap.L().Debug("pipeline: page done",
		zap.Int("page", index),
		zap.Stringer("level", res.Assessment.QualityLevel),
		zap.Stringer("filter", res.Filter),
		zap.Float64("text_quality", res.TextQuality),
	)
	return res, nil
}

func (p *Pipeline) readTextLayer(ctx context.Context, data []byte, res *PageResult) error {
	if p.deps.TextLayer == nil {
		return eris.Wrap(model.ErrInvalidImage, "pipeline: pdf input needs a text layer reader")
	}
	out, err := p.deps.TextLayer.ExtractPDF(ctx, data)
	if err != nil {
		return err
	}
	if out.Confidence == 0 {
		return eris.Wrap(model.ErrExtractionFailed, "pipeline: pdf has no text layer; submit page images instead")
	}
	res.Native = true
	res.OCR = out
	return nil
}

func (p *Pipeline) scoreText(res *PageResult) {
	res.TextQuality = compare.QualityScore(res.OCR.Text)
	res.LowTextQuality = res.TextQuality < p.opts.MinTextQuality
}
