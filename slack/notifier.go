// Package slack delivers checkpoint notifications to Slack incoming
// webhooks.
package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	goslack "github.com/slack-go/slack"

	"github.com/deepnoodle-ai/checkpoint"
)

// NotifierOptions configures a Notifier.
type NotifierOptions struct {

	// HTTPClient used to post webhook messages. Defaults to a client with
	// a 10 second timeout.
	HTTPClient *http.Client

	// Logger for delivery diagnostics. Defaults to a discard logger.
	Logger *slog.Logger
}

// Notifier posts validation outcomes to the webhook URL configured on each
// slack_notification action. It implements checkpoint.Notifier.
type Notifier struct {
	client *http.Client
	logger *slog.Logger
}

var _ checkpoint.Notifier = (*Notifier)(nil)

func NewNotifier(opts NotifierOptions) *Notifier {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Notifier{client: opts.HTTPClient, logger: opts.Logger}
}

// Send posts one webhook message describing the validation outcome.
func (n *Notifier) Send(ctx context.Context, spec checkpoint.ActionSpec, note checkpoint.Notification) error {
	message := buildMessage(note)
	if err := goslack.PostWebhookCustomHTTPContext(ctx, spec.Webhook, n.client, message); err != nil {
		return fmt.Errorf("failed to post slack webhook: %w", err)
	}
	n.logger.Debug("slack notification delivered",
		"checkpoint", note.CheckpointName,
		"suite", note.ExpectationSuiteName,
		"success", note.Success)
	return nil
}

func buildMessage(note checkpoint.Notification) *goslack.WebhookMessage {
	status := "passed"
	color := "good"
	if !note.Success {
		status = "failed"
		color = "danger"
	}
	text := fmt.Sprintf("Checkpoint %q: validation of suite %q %s",
		note.CheckpointName, note.ExpectationSuiteName, status)

	fields := []goslack.AttachmentField{
		{Title: "Run", Value: note.RunID.RunName, Short: true},
		{Title: "Batch", Value: note.BatchIdentifier, Short: true},
		{
			Title: "Expectations",
			Value: fmt.Sprintf("%d/%d passed (%.1f%%)",
				note.Statistics.SuccessfulExpectations,
				note.Statistics.EvaluatedExpectations,
				note.Statistics.SuccessPercent),
			Short: true,
		},
	}
	if len(note.Sites) > 0 {
		fields = append(fields, goslack.AttachmentField{
			Title: "Data Docs",
			Value: strings.Join(note.Sites, ", "),
			Short: true,
		})
	}
	return &goslack.WebhookMessage{
		Text: text,
		Attachments: []goslack.Attachment{{
			Color:  color,
			Fields: fields,
			Ts:     json.Number(strconv.FormatInt(note.RunID.RunTime.Unix(), 10)),
		}},
	}
}
