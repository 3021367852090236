package domain

import "time"

// ProbeResult is the live per-target row published to observers. It is
// produced fresh each probe round and superseded wholesale by the next
// round's result for the same name. Error is set only when the probe
// failed before receiving a response.
type ProbeResult struct {
	Name       string      `json:"name"`
	URL        string      `json:"url"`
	Status     Status      `json:"status"`
	StatusCode int         `json:"status_code"`
	Error      string      `json:"error,omitempty"`
	LatencyMS  float64     `json:"latency_ms"`
	Uptime     UptimeStats `json:"uptime"`
}

type MemoryUsage struct {
	Total     uint64  `json:"total"`
	Available uint64  `json:"available"`
	Percent   float64 `json:"percent"`
}

type DiskUsage struct {
	Total   uint64  `json:"total"`
	Free    uint64  `json:"free"`
	Percent float64 `json:"percent"`
}

type NetCounters struct {
	BytesSent uint64 `json:"sent"`
	BytesRecv uint64 `json:"recv"`
}

// SystemSnapshot is one sample of host resource usage. It is replaced
// wholesale on every sampling tick; no history is retained.
type SystemSnapshot struct {
	CPUPercent float64     `json:"cpu"`
	Memory     MemoryUsage `json:"memory"`
	Disk       DiskUsage   `json:"disk"`
	Net        NetCounters `json:"net"`
	SampledAt  time.Time   `json:"sampled_at"`
}

// LiveSnapshot is the combined view pushed to every live observer:
// host metrics plus the per-target rows, down targets first.
type LiveSnapshot struct {
	Type    string         `json:"type"`
	System  SystemSnapshot `json:"system"`
	Targets []ProbeResult  `json:"urls"`
}

// SnapshotTypeUpdate is the Type carried by every pushed LiveSnapshot.
const SnapshotTypeUpdate = "update"
