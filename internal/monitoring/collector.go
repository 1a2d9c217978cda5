// Package monitoring summarizes batch runs and posts threshold alerts to a webhook.
package monitoring

import (
	"time"

	"github.com/sells-group/regdoc-cli/internal/pipeline"
	"github.com/sells-group/regdoc-cli/internal/resilience"
)

// MetricsSnapshot summarizes one batch run.
type MetricsSnapshot struct {
	Documents         int     `json:"documents"`
	Succeeded         int     `json:"succeeded"`
	Failed            int     `json:"failed"`
	TransientFailures int     `json:"transient_failures"`
	FailRate          float64 `json:"fail_rate"`

	// LowTextQuality counts succeeded documents flagged for poor recognized text.
	LowTextQuality   int            `json:"low_text_quality"`
	LowQualityRate   float64        `json:"low_quality_rate"`
	AvgOCRConfidence float64        `json:"avg_ocr_confidence"`
	Reconciled       int            `json:"reconciled"`
	AvgSimilarity    float64        `json:"avg_similarity"`
	FailuresByStage  map[string]int `json:"failures_by_stage,omitempty"`
	CollectedAt      time.Time      `json:"collected_at"`
}

// Summarize computes a snapshot from a batch result.
func Summarize(batch *pipeline.BatchResult) *MetricsSnapshot {
	snap := &MetricsSnapshot{CollectedAt: time.Now().UTC()}
	if batch == nil {
		return snap
	}

	var confSum, simSum float64
	for _, d := range batch.Documents {
		if d == nil {
			continue
		}
		snap.Succeeded++
		confSum += float64(d.OCRConfidence)
		if d.LowTextQuality {
			snap.LowTextQuality++
		}
		if d.Comparison != nil {
			snap.Reconciled++
			simSum += float64(d.Comparison.OverallSimilarity)
		}
	}

	snap.Failed = len(batch.Failures)
	for _, f := range batch.Failures {
		if f.Kind == resilience.KindTransient {
			snap.TransientFailures++
		}
		if snap.FailuresByStage == nil {
			snap.FailuresByStage = make(map[string]int)
		}
		snap.FailuresByStage[f.Stage]++
	}

	snap.Documents = snap.Succeeded + snap.Failed
	if snap.Documents > 0 {
		snap.FailRate = float64(snap.Failed) / float64(snap.Documents)
	}
	if snap.Succeeded > 0 {
		snap.AvgOCRConfidence = confSum / float64(snap.Succeeded)
		snap.LowQualityRate = float64(snap.LowTextQuality) / float64(snap.Succeeded)
	}
	if snap.Reconciled > 0 {
		snap.AvgSimilarity = simSum / float64(snap.Reconciled)
	}
	return snap
}
