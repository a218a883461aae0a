package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sinhau/pixelbliss/pkg/logger"
)

const alertRequestTimeout = 10 * time.Second

// Alerter notifies an operator about terminal pipeline states.
type Alerter interface {
	Success(ctx context.Context, theme, model, postURL string)
	Failure(ctx context.Context, reason, details string)
}

// NopAlerter discards all notifications.
type NopAlerter struct{}

func (NopAlerter) Success(ctx context.Context, theme, model, postURL string) {}
func (NopAlerter) Failure(ctx context.Context, reason, details string)       {}

// WebhookAlerter posts JSON messages to a chat webhook. An empty URL
// disables alerting entirely, so callers never need to branch.
type WebhookAlerter struct {
	url    string
	client *http.Client
	logger logger.Logger
}

// NewWebhookAlerter creates an alerter for the given webhook URL.
func NewWebhookAlerter(url string) *WebhookAlerter {
	return &WebhookAlerter{
		url:    url,
		client: &http.Client{Timeout: alertRequestTimeout},
		logger: logger.Get().Named("alerts"),
	}
}

// Success sends a post-published notification.
func (a *WebhookAlerter) Success(ctx context.Context, theme, model, postURL string) {
	a.send(ctx, fmt.Sprintf("[pixelbliss] posted %s via %s -> %s", theme, model, postURL))
}

// Failure sends a failure or exhaustion notification.
func (a *WebhookAlerter) Failure(ctx context.Context, reason, details string) {
	msg := "[pixelbliss] FAIL: " + reason
	if details != "" {
		msg += "\n" + details
	}
	a.send(ctx, msg)
}

func (a *WebhookAlerter) send(ctx context.Context, message string) {
	if a.url == "" {
		return
	}
	body, err := json.Marshal(map[string]string{"content": message})
	if err != nil {
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		a.logger.Warn(ctx, "building alert request failed", logger.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		a.logger.Warn(ctx, "sending alert failed", logger.Error(err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		a.logger.Warn(ctx, "alert webhook rejected message", logger.Int("status", resp.StatusCode))
	}
}
