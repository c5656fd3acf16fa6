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

	"github.com/sells-group/leadscore-cli/internal/config"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertFallbackRate      AlertType = "fallback_rate"
	AlertEnrichFailureRate AlertType = "enrich_failure_rate"
)

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates a MetricsSnapshot against configured thresholds and
// sends alerts via webhook when they are breached.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
}

// NewAlerter creates an Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate checks the snapshot against thresholds and returns any alerts.
// Small samples are skipped: a threshold over 2 records is noise.
func (a *Alerter) Evaluate(snap *MetricsSnapshot) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	if snap.Analyzed >= 5 && a.cfg.FallbackRateThreshold > 0 && snap.FallbackRate > a.cfg.FallbackRateThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertFallbackRate,
			Severity: "high",
			Message: fmt.Sprintf("project %s: %.0f%% of analyses are heuristic fallbacks (threshold %.0f%%)",
				snap.ProjectID, snap.FallbackRate*100, a.cfg.FallbackRateThreshold*100),
			Details: map[string]any{
				"project_id": snap.ProjectID,
				"fallbacks":  snap.Fallbacks,
				"analyzed":   snap.Analyzed,
			},
			Timestamp: now,
		})
	}

	if snap.Enriched >= 5 && a.cfg.FailureRateThreshold > 0 && snap.EnrichFailRate > a.cfg.FailureRateThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertEnrichFailureRate,
			Severity: "medium",
			Message: fmt.Sprintf("project %s: %.0f%% of enrichment calls failed (threshold %.0f%%)",
				snap.ProjectID, snap.EnrichFailRate*100, a.cfg.FailureRateThreshold*100),
			Details: map[string]any{
				"project_id": snap.ProjectID,
				"failed":     snap.EnrichFailed,
				"enriched":   snap.Enriched,
			},
			Timestamp: now,
		})
	}

	return alerts
}

// SendAlerts posts each alert to the configured webhook and returns how
// many were delivered. A missing webhook URL logs instead of failing.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	sent := 0
	for _, alert := range alerts {
		if err := a.send(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err))
			continue
		}
		sent++
	}
	return sent
}

func (a *Alerter) send(ctx context.Context, alert Alert) error {
	if a.cfg.WebhookURL == "" {
		zap.L().Warn("monitoring: alert raised but no webhook configured",
			zap.String("type", string(alert.Type)),
			zap.String("message", alert.Message))
		return nil
	}

	body, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "monitoring: build alert request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: post alert")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 300 {
		return eris.Errorf("monitoring: webhook returned %d", resp.StatusCode)
	}
	return nil
}
