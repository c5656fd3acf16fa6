package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadscore-cli/internal/config"
)

func testMonitoringConfig() config.MonitoringConfig {
	return config.MonitoringConfig{
		FallbackRateThreshold: 0.2,
		FailureRateThreshold:  0.3,
	}
}

func TestEvaluate_FallbackRateBreach(t *testing.T) {
	a := NewAlerter(testMonitoringConfig())

	alerts := a.Evaluate(&MetricsSnapshot{
		ProjectID:    "p1",
		Analyzed:     10,
		Fallbacks:    3,
		FallbackRate: 0.3,
	})

	require.Len(t, alerts, 1)
	assert.Equal(t, AlertFallbackRate, alerts[0].Type)
	assert.Contains(t, alerts[0].Message, "p1")
	assert.Equal(t, 3, alerts[0].Details["fallbacks"])
}

func TestEvaluate_SmallSampleSkipped(t *testing.T) {
	a := NewAlerter(testMonitoringConfig())

	alerts := a.Evaluate(&MetricsSnapshot{
		ProjectID:    "p1",
		Analyzed:     2,
		Fallbacks:    2,
		FallbackRate: 1.0,
	})
	assert.Empty(t, alerts)
}

func TestEvaluate_UnderThreshold(t *testing.T) {
	a := NewAlerter(testMonitoringConfig())

	alerts := a.Evaluate(&MetricsSnapshot{
		ProjectID:      "p1",
		Analyzed:       10,
		FallbackRate:   0.1,
		Enriched:       10,
		EnrichFailRate: 0.1,
	})
	assert.Empty(t, alerts)
}

func TestSendAlerts_Webhook(t *testing.T) {
	var received Alert
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testMonitoringConfig()
	cfg.WebhookURL = srv.URL
	a := NewAlerter(cfg)

	sent := a.SendAlerts(context.Background(), []Alert{
		{Type: AlertEnrichFailureRate, Severity: "medium", Message: "too many failures"},
	})

	assert.Equal(t, 1, sent)
	assert.Equal(t, AlertEnrichFailureRate, received.Type)
}

func TestSendAlerts_WebhookError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testMonitoringConfig()
	cfg.WebhookURL = srv.URL
	a := NewAlerter(cfg)

	sent := a.SendAlerts(context.Background(), []Alert{{Type: AlertFallbackRate}})
	assert.Equal(t, 0, sent)
}

func TestSendAlerts_NoWebhookLogsOnly(t *testing.T) {
	a := NewAlerter(testMonitoringConfig())
	sent := a.SendAlerts(context.Background(), []Alert{{Type: AlertFallbackRate}})
	assert.Equal(t, 1, sent)
}
