package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Webhook posts alert payloads to an automation endpoint (n8n or
// similar). With an empty URL it runs in log-only mode: the alert is
// written to the log and delivery is skipped without error.
type Webhook struct {
	URL    string
	Client *http.Client
	Log    *zap.Logger
}

func NewWebhook(url string, log *zap.Logger) *Webhook {
	return &Webhook{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
		Log:    log,
	}
}

type webhookError struct {
	Status string `json:"status"`
	Detail string `json:"detail"`
}

type webhookPayload struct {
	Name   string       `json:"name"`
	URL    string       `json:"url"`
	Status int          `json:"status"`
	Error  webhookError `json:"error"`
}

func (w *Webhook) Notify(ctx context.Context, a Alert) error {
	if w == nil {
		return nil
	}
	if w.URL == "" {
		w.Log.Warn("alert webhook not configured, skipping delivery",
			zap.String("name", a.Name),
			zap.String("url", a.URL),
			zap.String("detail", a.Detail),
		)
		return nil
	}

	body, err := json.Marshal(webhookPayload{
		Name:   a.Name,
		URL:    a.URL,
		Status: 500,
		Error:  webhookError{Status: "500", Detail: a.Detail},
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}
	return nil
}
