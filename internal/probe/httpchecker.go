package probe

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"
)

// HTTPChecker probes a URL with a single HEAD request. Redirects are
// followed; the classification applies to the final response. There
// are no retries — retry cadence belongs to the scheduling loop.
type HTTPChecker struct {
	Client *http.Client
}

// NewHTTPChecker builds a checker with the given per-request timeout.
// insecure disables TLS certificate verification for deployments that
// monitor endpoints with self-signed certificates.
func NewHTTPChecker(timeout time.Duration, insecure bool) *HTTPChecker {
	client := &http.Client{Timeout: timeout}
	if insecure {
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return &HTTPChecker{Client: client}
}

func (h *HTTPChecker) Check(ctx context.Context, url string) CheckResult {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return CheckResult{Err: err.Error()}
	}

	resp, err := h.Client.Do(req)
	latency := time.Since(start).Seconds() * 1000 // ms
	if err != nil {
		return CheckResult{LatencyMS: latency, Err: err.Error()}
	}
	defer resp.Body.Close()

	return CheckResult{
		Up:         resp.StatusCode >= 200 && resp.StatusCode < 400,
		StatusCode: resp.StatusCode,
		LatencyMS:  latency,
	}
}
