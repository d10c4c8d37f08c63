package handler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ab0utbla-k/cloudwatch-alarm-slack/internal/alarm"
	"github.com/ab0utbla-k/cloudwatch-alarm-slack/internal/notify"
	"github.com/ab0utbla-k/cloudwatch-alarm-slack/internal/slack"
)

var tracer = otel.Tracer("github.com/ab0utbla-k/cloudwatch-alarm-slack/internal/handler")

type EventHandler struct {
	sender notify.Sender
	logger *slog.Logger
}

func NewEventHandler(sender notify.Sender, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		sender: sender,
		logger: logger,
	}
}

// HandleRequest processes the records in order and stops at the first one that
// cannot be decoded, rendered or delivered.
func (h *EventHandler) HandleRequest(ctx context.Context, event events.SNSEvent) error {
	messageIDs := make([]string, 0, len(event.Records))
	for _, r := range event.Records {
		messageIDs = append(messageIDs, r.SNS.MessageID)
	}

	h.logger.InfoContext(
		ctx,
		"event received",
		slog.Int("records", len(event.Records)),
		slog.Any("messageIDs", messageIDs),
	)

	for i, record := range event.Records {
		if err := h.handleRecord(ctx, record); err != nil {
			return fmt.Errorf("record %d (%s): %w", i, record.SNS.MessageID, err)
		}
	}

	return nil
}

func (h *EventHandler) handleRecord(ctx context.Context, record events.SNSEventRecord) error {
	ctx, span := tracer.Start(ctx, "handler.record")
	defer span.End()
	span.SetAttributes(
		attribute.String("sns.message_id", record.SNS.MessageID),
		attribute.String("sns.topic_arn", record.SNS.TopicArn),
	)

	alarmEvent, err := alarm.Decode(record.SNS.Message)
	if err != nil {
		h.logger.ErrorContext(
			ctx,
			"cannot decode alarm notification",
			slog.String("messageID", record.SNS.MessageID),
			slog.String("error", err.Error()),
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid notification")
		return err
	}

	span.SetAttributes(
		attribute.String("alarm.name", alarmEvent.AlarmName),
		attribute.String("alarm.state", alarmEvent.NewStateValue),
	)

	msg, err := slack.Translate(alarmEvent)
	if err != nil {
		h.logger.ErrorContext(
			ctx,
			"cannot build slack message",
			slog.String("alarmName", alarmEvent.AlarmName),
			slog.String("error", err.Error()),
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid notification")
		return err
	}

	if err := h.sender.Send(ctx, msg); err != nil {
		h.logger.ErrorContext(
			ctx,
			"cannot send notification",
			slog.String("alarmName", alarmEvent.AlarmName),
			slog.String("error", err.Error()),
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, "delivery failed")
		return err
	}

	h.logger.InfoContext(
		ctx,
		"notification sent",
		slog.String("alarmName", alarmEvent.AlarmName),
		slog.String("state", alarmEvent.NewStateValue),
	)

	return nil
}
