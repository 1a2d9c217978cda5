package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/regdoc-cli/internal/config"
	"github.com/sells-group/regdoc-cli/internal/extraction"
	"github.com/sells-group/regdoc-cli/internal/model"
	"github.com/sells-group/regdoc-cli/internal/ocr"
	"github.com/sells-group/regdoc-cli/internal/resilience"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

const (
	firstPage = `OFICIO DE ASEGURAMIENTO
Expediente: EXP-2024-001
No. de Oficio: OF/220/2024
Autoridad: Servicio de Administración Tributaria`

	secondPage = `Fundamento: Artículo 40 del Código Fiscal
Acción solicitada: Aseguramiento de cuentas
Monto: $1,500,000.00 MXN
Fecha: 5 de marzo de 2024`
)

var pngMagic = []byte("\x89PNG")

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Imaging.CannyLow = 50
	cfg.Imaging.CannyHigh = 150
	cfg.Imaging.MaxDimension = 400
	cfg.Quality.Analyzer = "threshold"
	cfg.Quality.FilterPolicy = "adaptive"
	cfg.Extraction.Mode = "best_strategy"
	cfg.Extraction.Concurrency = 5
	cfg.Extraction.PartialThreshold = 0.8
	cfg.Extraction.PhraseThreshold = 0.85
	cfg.Extraction.MinTextQuality = 0.5
	cfg.OCR.Provider = "tesseract"
	cfg.Pipeline.PageConcurrency = 1
	cfg.Pipeline.DocumentConcurrency = 2
	return cfg
}

// scanImage draws dark bars on a light page, roughly like lines of text.
func scanImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 160, 120))
	for y := 0; y < 120; y++ {
		for x := 0; x < 160; x++ {
			v := uint8(235)
			if y%20 >= 8 && y%20 < 13 && x > 10 && x < 150 && (x/7)%3 != 0 {
				v = 30
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestPipeline(t *testing.T, cfg *config.Config, engine ocr.Engine, textLayer ocr.TextLayer) *Pipeline {
	t.Helper()
	c, err := NewComponents(cfg, nil)
	require.NoError(t, err)
	p, err := New(Deps{
		Features:     c.Features,
		Analyzer:     c.Analyzer,
		Selector:     c.Selector,
		OCR:          engine,
		TextLayer:    textLayer,
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
	require.NoError(t, err)
	return p
}

func stageNames(r *PageResult) []string {
	names := make([]string, len(r.Stages))
	for i, s := range r.Stages {
		names[i] = s.Name
	}
	return names
}

func TestNew_RequiresDeps(t *testing.T) {
	_, err := New(Deps{}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feature extractor is required")

	c, err := NewComponents(testConfig(), nil)
	require.NoError(t, err)
	_, err = New(Deps{Features: c.Features, Analyzer: c.Analyzer, Selector: c.Selector, Orchestrator: c.Orchestrator}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ocr engine is required")
}

func TestNew_Defaults(t *testing.T) {
	c, err := NewComponents(testConfig(), nil)
	require.NoError(t, err)
	p, err := New(Deps{
		Features: c.Features, Analyzer: c.Analyzer, Selector: c.Selector,
		OCR: &mockEngine{}, Orchestrator: c.Orchestrator,
	}, Options{})
	require.NoError(t, err)
	assert.NotNil(t, p.deps.Enhancer)
	assert.NotNil(t, p.deps.Comparer)
	assert.Equal(t, 1, p.opts.PageConcurrency)
	assert.Equal(t, 1, p.opts.DocumentConcurrency)
}

func TestProcessPage_Image(t *testing.T) {
	engine := &mockEngine{}
	engine.On("ExtractText", mock.Anything, mock.MatchedBy(func(b []byte) bool {
		return bytes.HasPrefix(b, pngMagic)
	})).Return(ocr.Result{Text: firstPage, Confidence: 0.88, Engine: "mock"}, nil).Once()

	p := newTestPipeline(t, testConfig(), engine, nil)
	res, err := p.ProcessPage(context.Background(), 0, scanImage(t))
	require.NoError(t, err)

	assert.False(t, res.Native)
	require.NotNil(t, res.Features)
	require.NotNil(t, res.Assessment)
	assert.NotNil(t, res.Parameters)
	assert.Equal(t, res.Parameters.FilterType(), res.Filter)
	assert.Equal(t, []string{StageDecode, StageAssess, StageSelect, StageEnhance, StageOCR}, stageNames(res))
	assert.Equal(t, firstPage, res.OCR.Text)
	assert.Greater(t, res.TextQuality, 0.5)
	assert.False(t, res.LowTextQuality)
	engine.AssertExpectations(t)
}

func TestProcessPage_SkipEnhancement(t *testing.T) {
	engine := &mockEngine{}
	engine.On("ExtractText", mock.Anything, mock.Anything).
		Return(ocr.Result{Text: firstPage, Confidence: 0.9}, nil)

	cfg := testConfig()
	cfg.Pipeline.SkipEnhancement = true
	p := newTestPipeline(t, cfg, engine, nil)

	res, err := p.ProcessPage(context.Background(), 0, scanImage(t))
	require.NoError(t, err)
	assert.Equal(t, model.FilterNone, res.Filter)
	assert.NotContains(t, stageNames(res), StageSelect)
}

func TestProcessPage_LowTextQuality(t *testing.T) {
	engine := &mockEngine{}
	engine.On("ExtractText", mock.Anything, mock.Anything).
		Return(ocr.Result{Text: "~~^^ |||| @#~ ¬¬¬ ^^", Confidence: 0.2}, nil)

	p := newTestPipeline(t, testConfig(), engine, nil)
	res, err := p.ProcessPage(context.Background(), 3, scanImage(t))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Index)
	assert.Less(t, res.TextQuality, 0.5)
	assert.True(t, res.LowTextQuality)
}

func TestProcessPage_NativePDF(t *testing.T) {
	engine := &mockEngine{}
	layer := &mockTextLayer{}
	layer.On("ExtractPDF", mock.Anything, mock.Anything).
		Return(ocr.Result{Text: firstPage, Confidence: 1, Engine: ocr.EnginePdfToText}, nil)

	p := newTestPipeline(t, testConfig(), engine, layer)
	res, err := p.ProcessPage(context.Background(), 0, []byte("%PDF-1.7 ..."))
	require.NoError(t, err)
	assert.True(t, res.Native)
	assert.Nil(t, res.Assessment)
	assert.Equal(t, model.FilterNone, res.Filter)
	assert.Equal(t, []string{StageTextLayer}, stageNames(res))
	engine.AssertNotCalled(t, "ExtractText", mock.Anything, mock.Anything)
}

func TestProcessPage_PDFWithoutTextLayer(t *testing.T) {
	layer := &mockTextLayer{}
	layer.On("ExtractPDF", mock.Anything, mock.Anything).
		Return(ocr.Result{Engine: ocr.EnginePdfToText}, nil)

	p := newTestPipeline(t, testConfig(), &mockEngine{}, layer)
	_, err := p.ProcessPage(context.Background(), 0, []byte("%PDF-1.7"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrExtractionFailed))
	assert.Equal(t, StageTextLayer, StageOf(err))
}

func TestProcessPage_PDFWithoutReader(t *testing.T) {
	p := newTestPipeline(t, testConfig(), &mockEngine{}, nil)
	_, err := p.ProcessPage(context.Background(), 0, []byte("%PDF-1.7"))
	assert.True(t, errors.Is(err, model.ErrInvalidImage))
}

func TestProcessPage_DecodeError(t *testing.T) {
	p := newTestPipeline(t, testConfig(), &mockEngine{}, nil)
	_, err := p.ProcessPage(context.Background(), 2, []byte("not an image"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrImageDecode))
	assert.Equal(t, StageDecode, StageOf(err))
}

func TestProcessPage_OCRError(t *testing.T) {
	engine := &mockEngine{}
	engine.On("ExtractText", mock.Anything, mock.Anything).
		Return(ocr.Result{}, model.ErrExtractionFailed)

	p := newTestPipeline(t, testConfig(), engine, nil)
	_, err := p.ProcessPage(context.Background(), 0, scanImage(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrExtractionFailed))
	assert.Equal(t, StageOCR, StageOf(err))
}

func TestProcessPage_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := newTestPipeline(t, testConfig(), &mockEngine{}, nil)
	_, err := p.ProcessPage(ctx, 0, scanImage(t))
	assert.ErrorIs(t, err, model.ErrCancelled)
}

func TestProcessDocument_ExtractsAndReconciles(t *testing.T) {
	engine := &queueEngine{texts: []string{firstPage, secondPage}}
	p := newTestPipeline(t, testConfig(), engine, nil)

	img := scanImage(t)
	res, err := p.ProcessDocument(context.Background(), Document{
		Source: "oficio-220.png",
		Pages:  [][]byte{img, img},
		Authoritative: &model.ExtractedFields{
			CaseID:          "EXP-2024-001",
			Cause:           "Artículo 40 del Código Fiscal",
			RequestedAction: "Aseguramiento de cuentas",
			MonetaryAmounts: []model.MonetaryAmount{{Value: decimal.NewFromInt(1500000), Currency: "MXN"}},
			Dates:           []string{"2024-03-05"},
		},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.ID)
	assert.Equal(t, "best_strategy", res.Mode)
	require.Len(t, res.Pages, 2)
	assert.Equal(t, firstPage+pageSeparator+secondPage, res.Text)
	assert.InDelta(t, 0.9, res.OCRConfidence, 0.001)
	assert.False(t, res.LowTextQuality)

	fields := res.Fields()
	require.NotNil(t, fields)
	assert.Equal(t, "EXP-2024-001", fields.CaseID)
	assert.Equal(t, "Aseguramiento de cuentas", fields.RequestedAction)
	assert.Equal(t, []string{"2024-03-05"}, fields.Dates)
	assert.Equal(t, extraction.NameStructured, res.Extraction.Contributors[0])

	require.NotNil(t, res.Comparison)
	byName := map[string]model.FieldComparison{}
	for _, fc := range res.Comparison.FieldComparisons {
		byName[fc.FieldName] = fc
	}
	assert.Equal(t, model.StatusMatch, byName["case_id"].Status)
	assert.Equal(t, model.StatusMatch, byName["monetary_amounts"].Status)
	assert.Equal(t, model.StatusMatch, byName["dates"].Status)
	require.NotNil(t, byName["case_id"].OCRConfidence)
	assert.False(t, res.FinishedAt.Before(res.StartedAt))
}

func TestProcessDocument_NoFieldsStillReconciles(t *testing.T) {
	engine := &queueEngine{texts: []string{"nothing relevant here at all"}}
	p := newTestPipeline(t, testConfig(), engine, nil)

	res, err := p.ProcessDocument(context.Background(), Document{
		ID:            "doc-7",
		Pages:         [][]byte{scanImage(t)},
		Authoritative: &model.ExtractedFields{CaseID: "EXP-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "doc-7", res.ID)
	assert.Nil(t, res.Fields())
	require.NotNil(t, res.Comparison)
	assert.Equal(t, model.StatusMissing, res.Comparison.FieldComparisons[0].Status)
}

func TestProcessDocument_NoPages(t *testing.T) {
	p := newTestPipeline(t, testConfig(), &mockEngine{}, nil)
	_, err := p.ProcessDocument(context.Background(), Document{Source: "empty"})
	assert.True(t, errors.Is(err, model.ErrInvalidImage))
}

func TestProcessDocument_PageFailure(t *testing.T) {
	engine := &queueEngine{texts: []string{firstPage}}
	p := newTestPipeline(t, testConfig(), engine, nil)

	_, err := p.ProcessDocument(context.Background(), Document{
		Pages: [][]byte{scanImage(t), []byte("garbage")},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrImageDecode))
	assert.Equal(t, StageDecode, StageOf(err))
	assert.Contains(t, err.Error(), "page 1")
}

func TestProcessDocument_ComplementKeepsExisting(t *testing.T) {
	engine := &queueEngine{texts: []string{firstPage + "\n" + secondPage}}
	cfg := testConfig()
	cfg.Extraction.Mode = "complement"
	p := newTestPipeline(t, cfg, engine, nil)

	res, err := p.ProcessDocument(context.Background(), Document{
		Pages:    [][]byte{scanImage(t)},
		Existing: &model.ExtractedFields{CaseID: "KNOWN-1"},
	})
	require.NoError(t, err)
	fields := res.Fields()
	require.NotNil(t, fields)
	assert.Equal(t, "KNOWN-1", fields.CaseID)
	assert.Equal(t, "Aseguramiento de cuentas", fields.RequestedAction)
}

func TestProcessBatch_RecordsFailures(t *testing.T) {
	engine := &queueEngine{texts: []string{firstPage + "\n" + secondPage}}
	p := newTestPipeline(t, testConfig(), engine, nil)

	img := scanImage(t)
	out, err := p.ProcessBatch(context.Background(), []Document{
		{Source: "a.png", Pages: [][]byte{img}},
		{Source: "broken.png", Pages: [][]byte{[]byte("garbage")}},
		{Source: "c.png", Pages: [][]byte{img}},
	})
	require.NoError(t, err)
	require.Len(t, out.Documents, 3)
	assert.Equal(t, 2, out.Succeeded())
	assert.NotNil(t, out.Documents[0])
	assert.Nil(t, out.Documents[1])
	assert.NotNil(t, out.Documents[2])
	assert.Equal(t, "a.png", out.Documents[0].Source)

	require.Len(t, out.Failures, 1)
	f := out.Failures[0]
	assert.Equal(t, "broken.png", f.Source)
	assert.NotEmpty(t, f.DocumentID)
	assert.Equal(t, StageDecode, f.Stage)
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, resilience.KindPermanent, f.Kind)
}

func TestProcessBatch_FailuresInSubmissionOrder(t *testing.T) {
	engine := &queueEngine{texts: []string{firstPage}}
	cfg := testConfig()
	cfg.Pipeline.DocumentConcurrency = 4
	p := newTestPipeline(t, cfg, engine, nil)

	var docs []Document
	var want []string
	for i := 0; i < 8; i++ {
		src := fmt.Sprintf("broken-%d.png", i)
		docs = append(docs, Document{Source: src, Pages: [][]byte{[]byte("garbage")}})
		want = append(want, src)
	}
	for run := 0; run < 3; run++ {
		out, err := p.ProcessBatch(context.Background(), docs)
		require.NoError(t, err)
		var got []string
		for _, f := range out.Failures {
			got = append(got, f.Source)
		}
		assert.Equal(t, want, got)
	}
}

func TestPageOf(t *testing.T) {
	assert.Equal(t, 1, pageOf(&StageError{Stage: StageOCR, Page: 0, Err: errors.New("x")}))
	assert.Equal(t, 3, pageOf(fmt.Errorf("doc: %w", &StageError{Stage: StageDecode, Page: 2, Err: errors.New("x")})))
	assert.Equal(t, 0, pageOf(&StageError{Stage: StageExtract, Page: -1, Err: errors.New("x")}))
	assert.Equal(t, 0, pageOf(errors.New("plain")))
}

func TestProcessBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := newTestPipeline(t, testConfig(), &queueEngine{texts: []string{"x"}}, nil)

	_, err := p.ProcessBatch(ctx, []Document{{Pages: [][]byte{scanImage(t)}}})
	assert.ErrorIs(t, err, model.ErrCancelled)
}

func TestBuild(t *testing.T) {
	p, err := Build(testConfig(), nil, &mockEngine{})
	require.NoError(t, err)
	assert.Equal(t, extraction.ModeBestStrategy, p.Mode())
	assert.NotNil(t, p.deps.TextLayer)

	p, err = Build(testConfig(), nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &ocr.Tesseract{}, p.deps.OCR)

	cfg := testConfig()
	cfg.OCR.Provider = "bogus"
	_, err = Build(cfg, nil, nil)
	require.Error(t, err)
}

func TestNewComponents_BadSettings(t *testing.T) {
	cfg := testConfig()
	cfg.Extraction.Mode = "vote"
	_, err := NewComponents(cfg, nil)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.Quality.FilterPolicy = "magic"
	_, err = NewComponents(cfg, nil)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.Extraction.Strategies = []string{"structured", "structured"}
	_, err = NewComponents(cfg, nil)
	assert.Error(t, err)
}
