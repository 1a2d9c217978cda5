package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/regdoc-cli/internal/extraction"
	"github.com/sells-group/regdoc-cli/internal/model"
	"github.com/sells-group/regdoc-cli/internal/resilience"
)

// pageSeparator joins page texts before extraction.
const pageSeparator = "\n\n"

// Document is one submission: ordered page images (or a single native PDF),
// optional previously known fields for complement mode, and an optional
// authoritative record to reconcile against.
type Document struct {
	ID            string                 `json:"id,omitempty"`
	Source        string                 `json:"source"`
	Pages         [][]byte               `json:"-"`
	Existing      *model.ExtractedFields `json:"existing,omitempty"`
	Authoritative *model.ExtractedFields `json:"authoritative,omitempty"`
}

// DocumentResult is the outcome of one document run.
type DocumentResult struct {
	ID             string                  `json:"id"`
	Source         string                  `json:"source"`
	Mode           string                  `json:"mode"`
	Pages          []*PageResult           `json:"pages"`
	Text           string                  `json:"text"`
	OCRConfidence  float32                 `json:"ocr_confidence"`
	LowTextQuality bool                    `json:"low_text_quality"`
	Extraction     *extraction.Outcome     `json:"extraction"`
	Comparison     *model.ComparisonResult `json:"comparison,omitempty"`
	StartedAt      time.Time               `json:"started_at"`
	FinishedAt     time.Time               `json:"finished_at"`
}

// Fields returns the extracted fields, or nil.
func (r *DocumentResult) Fields() *model.ExtractedFields {
	if r == nil || r.Extraction == nil {
		return nil
	}
	return r.Extraction.Fields
}

// ProcessDocument runs every page concurrently, then extracts fields from the
// joined text and reconciles them when an authoritative record is given. The
// first page failure cancels the rest.
func (p *Pipeline) ProcessDocument(ctx context.Context, doc Document) (*DocumentResult, error) {
	if err := model.CheckCancelled(ctx); err != nil {
		return nil, err
	}
	if len(doc.Pages) == 0 {
		return nil, eris.Wrapf(model.ErrInvalidImage, "pipeline: document %q has no pages", doc.Source)
	}
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}

	log := zap.L().With(zap.String("document_id", doc.ID), zap.String("source", doc.Source))
	log.Info("pipeline: processing document", zap.Int("pages", len(doc.Pages)))

	result := &DocumentResult{
		ID:        doc.ID,
		Source:    doc.Source,
		Mode:      p.opts.Mode.String(),
		Pages:     make([]*PageResult, len(doc.Pages)),
		StartedAt: time.Now().UTC(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.PageConcurrency)
	for i, data := range doc.Pages {
		g.Go(func() error {
			page, err := p.ProcessPage(gctx, i, data)
			if err != nil {
				return err
			}
			result.Pages[i] = page
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, model.ErrCancelled
		}
		return nil, err
	}

	texts := make([]string, len(result.Pages))
	var confSum float64
	for i, page := range result.Pages {
		texts[i] = page.OCR.Text
		confSum += float64(page.OCR.Confidence)
		result.LowTextQuality = result.LowTextQuality || page.LowTextQuality
	}
	result.Text = strings.Join(texts, pageSeparator)
	result.OCRConfidence = float32(confSum / float64(len(result.Pages)))

	outcome, err := p.deps.Orchestrator.RunDetailed(ctx, result.Text, p.opts.Mode, doc.Existing)
	if err != nil {
		return nil, &StageError{Stage: StageExtract, Page: -1, Err: err}
	}
	result.Extraction = outcome

	if doc.Authoritative != nil {
		extracted := outcome.Fields
		if extracted == nil {
			extracted = &model.ExtractedFields{}
		}
		conf := result.OCRConfidence
		cmp, err := p.deps.Comparer.Reconcile(ctx, doc.Authoritative, extracted, &conf)
		if err != nil {
			return nil, &StageError{Stage: StageReconcile, Page: -1, Err: err}
		}
		result.Comparison = cmp
	}

	result.FinishedAt = time.Now().UTC()
	fields := []zap.Field{
		zap.Bool("low_text_quality", result.LowTextQuality),
		zap.Strings("contributors", outcome.Contributors),
		zap.Duration("elapsed", result.FinishedAt.Sub(result.StartedAt)),
	}
	if result.Comparison != nil {
		fields = append(fields, zap.Float32("overall_similarity", result.Comparison.OverallSimilarity))
	}
	log.Info("pipeline: document complete", fields...)
	return result, nil
}

// BatchResult holds per-document results in submission order. Failed
// documents have a nil slot and an entry in Failures, which are also in
// submission order.
type BatchResult struct {
	Documents []*DocumentResult    `json:"documents"`
	Failures  []resilience.Failure `json:"failures,omitempty"`
}

// Succeeded counts documents that completed.
func (b *BatchResult) Succeeded() int {
	n := 0
	for _, d := range b.Documents {
		if d != nil {
			n++
		}
	}
	return n
}

// ProcessBatch runs documents with bounded concurrency. A failing document is
// recorded and does not stop the others; only cancellation aborts the batch.
func (p *Pipeline) ProcessBatch(ctx context.Context, docs []Document) (*BatchResult, error) {
	out := &BatchResult{Documents: make([]*DocumentResult, len(docs))}
	failed := make([]*resilience.Failure, len(docs))

	g := new(errgroup.Group)
	g.SetLimit(p.opts.DocumentConcurrency)
	for i, doc := range docs {
		if doc.ID == "" {
			doc.ID = uuid.New().String()
		}
		g.Go(func() error {
			res, err := p.ProcessDocument(ctx, doc)
			if err == nil {
				out.Documents[i] = res
				return nil
			}
			if ctx.Err() != nil {
				return model.ErrCancelled
			}

			f := resilience.NewFailure(doc.ID, doc.Source, pageOf(err), stageOr(err, "document"), err)
			zap.L().Warn("pipeline: document failed",
				zap.String("document_id", doc.ID),
				zap.String("source", doc.Source),
				zap.String("stage", f.Stage),
				zap.String("kind", f.Kind),
				zap.Error(err),
			)
			failed[i] = &f
			return nil
		})
	}
	err := g.Wait()
	for _, f := range failed {
		if f != nil {
			out.Failures = append(out.Failures, *f)
		}
	}
	if err != nil {
		return out, err
	}

	zap.L().Info("pipeline: batch complete",
		zap.Int("documents", len(docs)),
		zap.Int("succeeded", out.Succeeded()),
		zap.Int("failed", len(out.Failures)),
	)
	return out, nil
}

func stageOr(err error, fallback string) string {
	if s := StageOf(err); s != "" {
		return s
	}
	return fallback
}

// pageOf recovers the 1-based failing page number from err, or 0 when the
// failure is not tied to a page.
func pageOf(err error) int {
	var se *StageError
	if errors.As(err, &se) && se.Page >= 0 {
		return se.Page + 1
	}
	return 0
}
