package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/leadscore-cli/internal/config"
)

func TestPipelineConfig_Defaults(t *testing.T) {
	cfg = &config.Config{
		Anthropic: config.AnthropicConfig{HaikuModel: "claude-haiku-4-5-20251001"},
	}

	pc := pipelineConfig()

	// Zero-valued batch settings fall back to the built-in pacing.
	assert.Equal(t, "claude-haiku-4-5-20251001", pc.Model)
	assert.Equal(t, int64(4096), pc.MaxTokens)
	assert.Equal(t, 2*time.Second, pc.AnalysisOpts.InterItemDelay)
	assert.Equal(t, 3*time.Second, pc.AnalysisOpts.PollInterval)
	assert.Equal(t, 60, pc.AnalysisOpts.MaxPollAttempts)
	assert.Equal(t, 200*time.Millisecond, pc.EnrichOpts.InterItemDelay)
	assert.Equal(t, 5*time.Second, pc.EnrichOpts.PollInterval)
	assert.Equal(t, 30, pc.EnrichOpts.MaxPollAttempts)
}

func TestPipelineConfig_Overrides(t *testing.T) {
	cfg = &config.Config{
		Anthropic: config.AnthropicConfig{
			HaikuModel: "claude-haiku-4-5-20251001",
			MaxTokens:  2048,
		},
		Batch: config.BatchConfig{
			AnalysisDelayMs:   500,
			AnalysisPollSecs:  1,
			AnalysisPollLimit: 10,
			EnrichDelayMs:     50,
			EnrichPollSecs:    2,
			EnrichPollLimit:   5,
			RetryMaxAttempts:  3,
			RetryDelaySecs:    2,
		},
	}

	pc := pipelineConfig()

	assert.Equal(t, int64(2048), pc.MaxTokens)
	assert.Equal(t, 500*time.Millisecond, pc.AnalysisOpts.InterItemDelay)
	assert.Equal(t, time.Second, pc.AnalysisOpts.PollInterval)
	assert.Equal(t, 10, pc.AnalysisOpts.MaxPollAttempts)
	assert.Equal(t, 50*time.Millisecond, pc.EnrichOpts.InterItemDelay)
	assert.Equal(t, 2*time.Second, pc.EnrichOpts.PollInterval)
	assert.Equal(t, 5, pc.EnrichOpts.MaxPollAttempts)
	assert.Equal(t, 3, pc.StoreRetry.MaxAttempts)
	assert.Equal(t, 2*time.Second, pc.StoreRetry.Delay)
}
