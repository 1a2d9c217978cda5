package monitoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/regdoc-cli/internal/model"
	"github.com/sells-group/regdoc-cli/internal/pipeline"
	"github.com/sells-group/regdoc-cli/internal/resilience"
)

func TestSummarize_Empty(t *testing.T) {
	snap := Summarize(nil)
	assert.Equal(t, 0, snap.Documents)
	assert.False(t, snap.CollectedAt.IsZero())

	snap = Summarize(&pipeline.BatchResult{})
	assert.Equal(t, 0.0, snap.FailRate)
	assert.Nil(t, snap.FailuresByStage)
}

func TestSummarize_Batch(t *testing.T) {
	batch := &pipeline.BatchResult{
		Documents: []*pipeline.DocumentResult{
			{ID: "a", OCRConfidence: 0.9, Comparison: &model.ComparisonResult{OverallSimilarity: 0.8}},
			{ID: "b", OCRConfidence: 0.5, LowTextQuality: true},
			nil,
			nil,
		},
		Failures: []resilience.Failure{
			{DocumentID: "c", Stage: "ocr", Kind: resilience.KindTransient},
			{DocumentID: "d", Stage: "decode", Kind: resilience.KindPermanent},
		},
	}

	snap := Summarize(batch)
	assert.Equal(t, 4, snap.Documents)
	assert.Equal(t, 2, snap.Succeeded)
	assert.Equal(t, 2, snap.Failed)
	assert.Equal(t, 1, snap.TransientFailures)
	assert.InDelta(t, 0.5, snap.FailRate, 1e-9)
	assert.Equal(t, 1, snap.LowTextQuality)
	assert.InDelta(t, 0.5, snap.LowQualityRate, 1e-9)
	assert.InDelta(t, 0.7, snap.AvgOCRConfidence, 1e-6)
	assert.Equal(t, 1, snap.Reconciled)
	assert.InDelta(t, 0.8, snap.AvgSimilarity, 1e-6)
	assert.Equal(t, map[string]int{"ocr": 1, "decode": 1}, snap.FailuresByStage)
}
