package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/regdoc-cli/internal/config"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertBatchFailureRate  AlertType = "batch_failure_rate"
	AlertLowTextQuality    AlertType = "low_text_quality"
	AlertReconciliationGap AlertType = "reconciliation_gap"
)

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates a MetricsSnapshot against configured thresholds
// and sends alerts via webhook when thresholds are breached.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate checks the snapshot against thresholds and returns any alerts.
// Batches smaller than MinDocuments never alert.
func (a *Alerter) Evaluate(snap *MetricsSnapshot) []Alert {
	if snap == nil || snap.Documents < a.cfg.MinDocuments {
		return nil
	}
	var alerts []Alert
	now := time.Now().UTC()

	if snap.FailRate > a.cfg.FailureRateThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertBatchFailureRate,
			Severity: "high",
			Message: fmt.Sprintf(
				"Batch failure rate %.1f%% exceeds threshold %.1f%% (%d failed / %d documents)",
				snap.FailRate*100, a.cfg.FailureRateThreshold*100, snap.Failed, snap.Documents,
			),
			Details: map[string]any{
				"failure_rate": snap.FailRate,
				"threshold":    a.cfg.FailureRateThreshold,
				"failed":       snap.Failed,
				"transient":    snap.TransientFailures,
				"by_stage":     snap.FailuresByStage,
			},
			Timestamp: now,
		})
	}

	if snap.Succeeded > 0 && snap.LowQualityRate > a.cfg.LowQualityRateThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertLowTextQuality,
			Severity: "medium",
			Message: fmt.Sprintf(
				"%d of %d documents produced low quality text (%.1f%%, threshold %.1f%%)",
				snap.LowTextQuality, snap.Succeeded, snap.LowQualityRate*100, a.cfg.LowQualityRateThreshold*100,
			),
			Details: map[string]any{
				"low_quality_rate":   snap.LowQualityRate,
				"threshold":          a.cfg.LowQualityRateThreshold,
				"avg_ocr_confidence": snap.AvgOCRConfidence,
			},
			Timestamp: now,
		})
	}

	if a.cfg.MinSimilarity > 0 && snap.Reconciled > 0 && snap.AvgSimilarity < a.cfg.MinSimilarity {
		alerts = append(alerts, Alert{
			Type:     AlertReconciliationGap,
			Severity: "medium",
			Message: fmt.Sprintf(
				"Average reconciliation similarity %.2f is below %.2f across %d documents",
				snap.AvgSimilarity, a.cfg.MinSimilarity, snap.Reconciled,
			),
			Details: map[string]any{
				"avg_similarity": snap.AvgSimilarity,
				"min_similarity": a.cfg.MinSimilarity,
				"reconciled":     snap.Reconciled,
			},
			Timestamp: now,
		})
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

// sendWebhook posts a single alert to the webhook URL.
func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
