package probe

import "context"

// CheckResult is the outcome of a single liveness probe.
//
// StatusCode is the final HTTP status after redirects, 0 when the
// request failed before any response arrived. Err carries the
// transport error text in that case and is empty otherwise.
type CheckResult struct {
	Up         bool
	StatusCode int
	LatencyMS  float64
	Err        string
}

// Checker performs a single liveness check against a URL.
type Checker interface {
	Check(ctx context.Context, url string) CheckResult
}
