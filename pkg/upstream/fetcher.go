// Package upstream performs the outbound HTTPS calls to the sports-data
// APIs being proxied.
package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	upstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sportscache_upstream_requests_total",
		Help: "Total upstream requests by HTTP status",
	}, []string{"status"})

	upstreamRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sportscache_upstream_request_duration_seconds",
		Help:    "Upstream request duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	})

	upstreamErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sportscache_upstream_errors_total",
		Help: "Total upstream transport errors",
	})
)

// Fetcher issues GET requests against the upstream APIs.
type Fetcher struct {
	httpClient *http.Client
	apiToken   string
	logger     zerolog.Logger
}

// New creates a Fetcher. A zero timeout means requests are never cut
// off; a hung upstream call then hangs the serving request.
func New(apiToken string, timeout time.Duration, logger zerolog.Logger) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		apiToken: apiToken,
		logger:   logger,
	}
}

// Fetch performs a single GET and returns the full response body.
//
// The status code is deliberately not validated: a 4xx/5xx upstream
// body is passed through (and cached) like any other payload. Only
// transport-level failures produce an error.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", f.apiToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		upstreamErrorsTotal.Inc()
		f.logger.Error().Err(err).Msg("Upstream request failed")
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		upstreamErrorsTotal.Inc()
		f.logger.Error().Err(err).Msg("Reading upstream body failed")
		return nil, fmt.Errorf("read upstream body: %w", err)
	}

	upstreamRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
	upstreamRequestDuration.Observe(time.Since(start).Seconds())

	f.logger.Debug().
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Dur("duration", time.Since(start)).
		Msg("Upstream request completed")

	return body, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (f *Fetcher) SetHTTPClient(client *http.Client) {
	f.httpClient = client
}
