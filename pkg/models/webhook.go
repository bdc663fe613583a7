package models

import (
	"net/url"
	"time"

	"github.com/google/uuid"
)

// Webhook target types.
const (
	WebhookTypeSlack = "slack"
	WebhookTypeTeams = "teams"
)

// IsValidWebhookType checks if the given webhook type is valid.
func IsValidWebhookType(t string) bool {
	return t == WebhookTypeSlack || t == WebhookTypeTeams
}

// WebhookConfig is an admin-owned notification target. The URL is
// operationally sensitive and must never appear in logs or audit snapshots.
type WebhookConfig struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	URL              string    `json:"url"`
	Type             string    `json:"type"`
	Active           bool      `json:"active"`
	NotifyOnCheckin  bool      `json:"notify_on_checkin"`
	NotifyOnCheckout bool      `json:"notify_on_checkout"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// AuditSnapshot returns the fields recorded in audit log entries for this
// config. The secret URL is reduced to its host, which is enough for
// operational review without exposing the token-bearing path.
func (w *WebhookConfig) AuditSnapshot() map[string]any {
	host := ""
	if u, err := url.Parse(w.URL); err == nil {
		host = u.Host
	}
	return map[string]any{
		"name":               w.Name,
		"type":               w.Type,
		"url_host":           host,
		"active":             w.Active,
		"notify_on_checkin":  w.NotifyOnCheckin,
		"notify_on_checkout": w.NotifyOnCheckout,
	}
}
