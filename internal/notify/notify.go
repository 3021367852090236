package notify

import "context"

// Alert describes one down transition (or a manual trigger) for a
// monitored client.
type Alert struct {
	Name   string
	URL    string
	Detail string
}

// Notifier delivers alerts to one destination.
type Notifier interface {
	Notify(ctx context.Context, a Alert) error
}

type Multi []Notifier

func (m Multi) Notify(ctx context.Context, a Alert) error {
	var firstErr error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, a); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
