// Package mql calls the MQL enrichment provider, which qualifies a lead
// from name and phone and returns employment, business, credit and loan
// records alongside a P0..P5 rating.
package mql

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/leadscore-cli/internal/resilience"
)

const defaultBaseURL = "https://api.mqlscore.in/v2"

// StatusNotFound is the provider's sentinel for a person it has no data
// on. It is a normal outcome, not an error.
const StatusNotFound = "DATA_NOT_FOUND"

// Client performs enrichment lookups.
type Client interface {
	Enrich(ctx context.Context, req EnrichRequest) (*EnrichResponse, error)
}

// EnrichRequest identifies the person to qualify.
type EnrichRequest struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	ProjectID string `json:"project_id"`
}

// EnrichResponse is the provider payload. Data is kept raw: projection
// into typed records happens at the reconcile boundary, nowhere else.
type EnrichResponse struct {
	Status    string          `json:"status"`
	MQLRating string          `json:"mql_rating,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`

	// Raw is the full untouched response body for audit storage.
	Raw json.RawMessage `json:"-"`
}

// NotFound reports whether the provider had no data for the person.
func (r *EnrichResponse) NotFound() bool {
	return r.Status == StatusNotFound
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit overrides the default request rate.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates an MQL provider client. The default limiter matches
// the provider's published 5 req/s ceiling.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(5), 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Enrich(ctx context.Context, req EnrichRequest) (*EnrichResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "mql: rate limit wait")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "mql: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/enrich", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "mql: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "mql: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "mql: read response")
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, resilience.NewTransientError(
			eris.Errorf("mql: status %d: %s", resp.StatusCode, string(respBody)),
			resp.StatusCode,
		)
	default:
		return nil, eris.Errorf("mql: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var result EnrichResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "mql: unmarshal response")
	}
	result.Raw = respBody

	return &result, nil
}
