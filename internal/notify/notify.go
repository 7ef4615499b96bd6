// Package notify announces completed reports to downstream consumers.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/savegress/staysync/internal/report"
	"github.com/savegress/staysync/internal/stats"
)

// Notifier announces a completed report
type Notifier interface {
	Name() string
	Notify(r *report.Report) error
}

// WebhookNotifier posts report announcements to a webhook
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier creates a new webhook notifier
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Name returns the notifier name
func (n *WebhookNotifier) Name() string {
	return "webhook"
}

// Notify posts the report announcement. Only the summary travels over the
// wire; per-stay rows carry patient identifiers and stay on the server.
func (n *WebhookNotifier) Notify(r *report.Report) error {
	if n.url == "" {
		return nil
	}

	payload := WebhookPayload{
		EventType:   "report.completed",
		ReportID:    r.ID,
		Kind:        r.Kind,
		GeneratedAt: r.GeneratedAt,
		Degraded:    r.Degraded,
		Summary:     r.Summary,
		Timestamp:   time.Now(),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := n.client.Post(n.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}

// WebhookPayload represents the webhook payload
type WebhookPayload struct {
	EventType   string         `json:"event_type"`
	ReportID    string         `json:"report_id"`
	Kind        report.Kind    `json:"kind"`
	GeneratedAt time.Time      `json:"generated_at"`
	Degraded    bool           `json:"degraded"`
	Summary     *stats.Summary `json:"summary"`
	Timestamp   time.Time      `json:"timestamp"`
}

// ConsoleNotifier logs report announcements to console (for testing)
type ConsoleNotifier struct{}

// NewConsoleNotifier creates a new console notifier
func NewConsoleNotifier() *ConsoleNotifier {
	return &ConsoleNotifier{}
}

// Name returns the notifier name
func (n *ConsoleNotifier) Name() string {
	return "console"
}

// Notify logs the report
func (n *ConsoleNotifier) Notify(r *report.Report) error {
	fmt.Printf("[REPORT] %s (%s): %d stays, %d matched, %d on-time, %d unmatched\n",
		r.ID, r.Kind, r.Summary.Total, r.Summary.Matched, r.Summary.OnTime, r.Summary.Unmatched)
	return nil
}
