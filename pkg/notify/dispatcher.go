// Package notify implements outbound notification dispatch for visitor
// events: Slack and Teams incoming webhooks plus HTML email over SMTP.
// Deliveries are independent; one failing target never blocks or rolls back
// the others, and no retries happen here.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gatehouse-io/gatehouse-engine/pkg/logging"
)

// Result is the per-target outcome of one dispatch.
type Result struct {
	Target  string `json:"target"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Target is a single notification destination.
type Target interface {
	// Name identifies the target in dispatch results.
	Name() string
	// Send delivers the event. A delivery is terminal: it either succeeds
	// or fails, with no retry loop inside this package.
	Send(ctx context.Context, event *Event) error
}

// Dispatcher fans an event out to all targets concurrently and waits for
// every delivery to settle.
type Dispatcher struct {
	logger *zap.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	return &Dispatcher{logger: logger}
}

// Dispatch sends the event to every target concurrently and returns one
// Result per target, in target order. Errors are sanitized so webhook URLs
// never leak into results or logs.
func (d *Dispatcher) Dispatch(ctx context.Context, targets []Target, event *Event) []Result {
	results := make([]Result, len(targets))

	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Add(1)
		go func(i int, target Target) {
			defer wg.Done()

			err := target.Send(ctx, event)
			if err != nil {
				msg := logging.SanitizeError(err)
				results[i] = Result{Target: target.Name(), Success: false, Error: msg}
				d.logger.Warn("Notification delivery failed",
					zap.String("target", target.Name()),
					zap.String("event_type", event.Type),
					zap.String("error", msg))
				return
			}

			results[i] = Result{Target: target.Name(), Success: true}
			d.logger.Debug("Notification delivered",
				zap.String("target", target.Name()),
				zap.String("event_type", event.Type))
		}(i, target)
	}
	wg.Wait()

	return results
}

// WebhookTarget delivers events to a Slack or Teams incoming webhook.
type WebhookTarget struct {
	name        string
	url         string
	webhookType string
	client      *http.Client
}

// NewWebhookTarget creates a webhook target. webhookType selects the message
// format ("slack" or "teams").
func NewWebhookTarget(name, url, webhookType string, client *http.Client) *WebhookTarget {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &WebhookTarget{name: name, url: url, webhookType: webhookType, client: client}
}

// Name identifies the target in dispatch results.
func (t *WebhookTarget) Name() string {
	return t.name
}

// Send posts the formatted message to the webhook URL.
func (t *WebhookTarget) Send(ctx context.Context, event *Event) error {
	var payload any
	if t.webhookType == "teams" {
		payload = FormatTeamsMessage(event)
	} else {
		payload = FormatSlackMessage(event)
	}
	return t.sendJSON(ctx, payload)
}

// sendJSON sends a JSON payload to the webhook URL.
func (t *WebhookTarget) sendJSON(ctx context.Context, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("request returned non-2xx status: %d", resp.StatusCode)
	}

	return nil
}

// Ensure WebhookTarget implements Target at compile time.
var _ Target = (*WebhookTarget)(nil)
