// Package webhook delivers checkpoint notifications over plain JSON
// webhooks: Microsoft Teams message cards, PagerDuty events and Opsgenie
// alerts. Each notifier builds the channel's payload from the generic
// notification and posts it with a single HTTP round-trip.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/deepnoodle-ai/checkpoint"
)

const (
	pagerDutyEventsURL  = "https://events.pagerduty.com/v2/enqueue"
	opsgenieAlertsURL   = "https://api.opsgenie.com/v2/alerts"
	opsgenieAlertsURLEU = "https://api.eu.opsgenie.com/v2/alerts"
)

func defaultClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

// post marshals the payload and delivers it, treating any non-2xx response
// as a delivery failure.
func post(ctx context.Context, client *http.Client, url string, headers map[string]string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		request.Header.Set(key, value)
	}
	response, err := client.Do(request)
	if err != nil {
		return fmt.Errorf("failed to post webhook: %w", err)
	}
	defer response.Body.Close()
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", response.StatusCode)
	}
	return nil
}

func summarize(note checkpoint.Notification) string {
	status := "passed"
	if !note.Success {
		status = "failed"
	}
	return fmt.Sprintf("Checkpoint %q: validation of suite %q %s (run %s)",
		note.CheckpointName, note.ExpectationSuiteName, status, note.RunID.RunName)
}

// TeamsNotifier posts MessageCard payloads to the webhook URL configured on
// each microsoft_teams_notification action.
type TeamsNotifier struct {
	client *http.Client
}

var _ checkpoint.Notifier = (*TeamsNotifier)(nil)

func NewTeamsNotifier(client *http.Client) *TeamsNotifier {
	if client == nil {
		client = defaultClient()
	}
	return &TeamsNotifier{client: client}
}

func (n *TeamsNotifier) Send(ctx context.Context, spec checkpoint.ActionSpec, note checkpoint.Notification) error {
	themeColor := "2eb886"
	if !note.Success {
		themeColor = "a30200"
	}
	card := map[string]any{
		"@type":      "MessageCard",
		"@context":   "https://schema.org/extensions",
		"summary":    summarize(note),
		"themeColor": themeColor,
		"title":      fmt.Sprintf("Checkpoint %s", note.CheckpointName),
		"text":       summarize(note),
		"sections": []map[string]any{{
			"facts": []map[string]string{
				{"name": "Suite", "value": note.ExpectationSuiteName},
				{"name": "Batch", "value": note.BatchIdentifier},
				{"name": "Run", "value": note.RunID.RunName},
				{"name": "Expectations", "value": fmt.Sprintf("%d/%d passed",
					note.Statistics.SuccessfulExpectations,
					note.Statistics.EvaluatedExpectations)},
			},
		}},
	}
	return post(ctx, n.client, spec.Webhook, nil, card)
}

// PagerDutyNotifier triggers PagerDuty events using the routing key
// configured on each pagerduty_notification action.
type PagerDutyNotifier struct {
	client *http.Client
	url    string
}

var _ checkpoint.Notifier = (*PagerDutyNotifier)(nil)

func NewPagerDutyNotifier(client *http.Client) *PagerDutyNotifier {
	if client == nil {
		client = defaultClient()
	}
	return &PagerDutyNotifier{client: client, url: pagerDutyEventsURL}
}

func (n *PagerDutyNotifier) Send(ctx context.Context, spec checkpoint.ActionSpec, note checkpoint.Notification) error {
	severity := spec.Severity
	if severity == "" {
		severity = "critical"
	}
	event := map[string]any{
		"routing_key":  spec.RoutingKey,
		"event_action": "trigger",
		"dedup_key":    fmt.Sprintf("%s-%s", note.CheckpointName, note.RunID.RunName),
		"payload": map[string]any{
			"summary":  summarize(note),
			"severity": severity,
			"source":   note.CheckpointName,
			"custom_details": map[string]any{
				"expectation_suite": note.ExpectationSuiteName,
				"batch":             note.BatchIdentifier,
				"success":           note.Success,
			},
		},
	}
	return post(ctx, n.client, n.url, nil, event)
}

// OpsgenieNotifier creates Opsgenie alerts using the API key configured on
// each opsgenie_notification action. The action's region field selects the
// EU endpoint when set to "eu".
type OpsgenieNotifier struct {
	client *http.Client
	url    string // overrides region-based endpoint selection when set
}

var _ checkpoint.Notifier = (*OpsgenieNotifier)(nil)

func NewOpsgenieNotifier(client *http.Client) *OpsgenieNotifier {
	if client == nil {
		client = defaultClient()
	}
	return &OpsgenieNotifier{client: client}
}

func (n *OpsgenieNotifier) Send(ctx context.Context, spec checkpoint.ActionSpec, note checkpoint.Notification) error {
	url := n.url
	if url == "" {
		url = opsgenieAlertsURL
		if spec.Region == "eu" {
			url = opsgenieAlertsURLEU
		}
	}
	priority := spec.Priority
	if priority == "" {
		priority = "P3"
	}
	alert := map[string]any{
		"message":  summarize(note),
		"alias":    fmt.Sprintf("%s-%s", note.CheckpointName, note.RunID.RunName),
		"priority": priority,
		"details": map[string]string{
			"expectation_suite": note.ExpectationSuiteName,
			"batch":             note.BatchIdentifier,
		},
	}
	headers := map[string]string{"Authorization": "GenieKey " + spec.APIKey}
	return post(ctx, n.client, url, headers, alert)
}
