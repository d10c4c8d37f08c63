// Command preview runs the alarm notifier locally against an SNS event file.
//
// Without SLACK_WEBHOOK_URL the rendered message is logged as a Block Kit Builder
// link; with it, the message is posted exactly as the Lambda function would.
//
//	preview -event cmd/preview/testdata/sns-event.json
//	preview -raw < alarm-message.json
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"

	"github.com/aws/aws-lambda-go/events"
	"github.com/joho/godotenv"

	"github.com/ab0utbla-k/cloudwatch-alarm-slack/internal/config"
	"github.com/ab0utbla-k/cloudwatch-alarm-slack/internal/handler"
	"github.com/ab0utbla-k/cloudwatch-alarm-slack/internal/notify"
)

func main() {
	eventPath := flag.String("event", "-", "SNS event JSON file, - for stdin")
	envPath := flag.String("env", ".env", "dotenv file to load before reading configuration")
	raw := flag.Bool("raw", false, "input is a bare CloudWatch alarm message rather than an SNS event")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := godotenv.Load(*envPath); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Error("cannot load env file", slog.String("path", *envPath), slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Debug("env file not found, using environment", slog.String("path", *envPath))
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("cannot load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	event, err := readEvent(*eventPath, *raw)
	if err != nil {
		logger.Error("cannot read event", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sender := notify.NewWebhook(notify.NewHTTPClient(cfg.HTTPTimeout), cfg.SlackWebhookURL, logger)
	h := handler.NewEventHandler(sender, logger)

	if err := h.HandleRequest(ctx, event); err != nil {
		logger.Error("cannot process event", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func readEvent(path string, raw bool) (events.SNSEvent, error) {
	var (
		data []byte
		err  error
	)

	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return events.SNSEvent{}, err
	}

	return parseEvent(data, raw)
}

func parseEvent(data []byte, raw bool) (events.SNSEvent, error) {
	if raw {
		return events.SNSEvent{Records: []events.SNSEventRecord{{
			EventSource: "aws:sns",
			SNS: events.SNSEntity{
				MessageID: "local-preview",
				Message:   string(data),
			},
		}}}, nil
	}

	var event events.SNSEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return events.SNSEvent{}, fmt.Errorf("cannot parse sns event: %w", err)
	}

	if len(event.Records) == 0 {
		return events.SNSEvent{}, errors.New("sns event has no records; use -raw for a bare alarm message")
	}

	return event, nil
}
