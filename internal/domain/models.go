package domain

import "time"

// Status is the liveness classification of a monitored client.
type Status string

const (
	StatusUp   Status = "up"
	StatusDown Status = "down"
)

// Target is one monitored endpoint. Name is the unique key; adding a
// target under an existing name replaces its URL.
type Target struct {
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// CheckRecord is one persisted probe outcome. Records are append-only.
type CheckRecord struct {
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	CheckedAt time.Time `json:"checked_at"`
}

// UptimeStats holds rolling availability percentages, always in [0,100].
// A window with no recorded checks reports 100.
type UptimeStats struct {
	Window24h float64 `json:"window_24h"`
	Window7d  float64 `json:"window_7d"`
}
