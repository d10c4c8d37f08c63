// Package notify delivers rendered Slack messages to an incoming webhook.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ab0utbla-k/cloudwatch-alarm-slack/internal/slack"
)

// BlockKitBuilderURL prefixes preview links; the fragment is the percent-encoded message.
const BlockKitBuilderURL = "https://app.slack.com/block-kit-builder/#"

// maxErrorBody caps how much of a failed response is kept in the error.
const maxErrorBody = 512

var tracer = otel.Tracer("github.com/ab0utbla-k/cloudwatch-alarm-slack/internal/notify")

// Sender delivers a Slack message.
type Sender interface {
	Send(ctx context.Context, msg *slack.Message) error
}

// Webhook posts messages to a Slack incoming webhook. With an empty URL it only logs
// a Block Kit Builder preview link and makes no network call.
type Webhook struct {
	client *http.Client
	url    string
	logger *slog.Logger
}

// NewWebhook creates a Webhook sender. webhookURL may be empty to enable preview mode.
func NewWebhook(client *http.Client, webhookURL string, logger *slog.Logger) *Webhook {
	return &Webhook{
		client: client,
		url:    webhookURL,
		logger: logger,
	}
}

// NewHTTPClient returns an HTTP client whose requests are traced.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// Send encodes msg and posts it to the webhook, or logs the preview link when no
// webhook is configured. Failures are returned as *DeliveryError.
func (w *Webhook) Send(ctx context.Context, msg *slack.Message) error {
	ctx, span := tracer.Start(ctx, "notify.webhook")
	defer span.End()

	body, err := msg.Encode()
	if err != nil {
		return fmt.Errorf("cannot encode message: %w", err)
	}

	w.logger.InfoContext(ctx, "slack message", slog.String("body", string(body)))

	if w.url == "" {
		span.SetAttributes(attribute.Bool("notify.preview", true))
		w.logger.InfoContext(ctx, "no webhook configured; message preview",
			slog.String("previewURL", PreviewLink(body)))
		return nil
	}

	span.SetAttributes(attribute.Bool("notify.preview", false))

	if err := w.post(ctx, body); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delivery failed")
		return err
	}

	return nil
}

func (w *Webhook) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return &DeliveryError{Err: fmt.Errorf("cannot build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return &DeliveryError{Err: err}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &DeliveryError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("webhook responded %q", strings.TrimSpace(string(respBody))),
		}
	}

	return nil
}

// PreviewLink returns the Block Kit Builder URL that renders body.
func PreviewLink(body []byte) string {
	return BlockKitBuilderURL + PercentEncode(string(body))
}

// PercentEncode escapes every byte except ASCII letters, digits, "_.-~" and "/".
// Spaces become %20.
func PercentEncode(s string) string {
	escaped := url.QueryEscape(s)
	return strings.NewReplacer("+", "%20", "%2F", "/").Replace(escaped)
}
