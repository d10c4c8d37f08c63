package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/ab0utbla-k/cloudwatch-alarm-slack/internal/alarm"
	"github.com/ab0utbla-k/cloudwatch-alarm-slack/internal/notify"
	"github.com/ab0utbla-k/cloudwatch-alarm-slack/internal/slack"
)

const alarmMessage = `{
	"AlarmName": "HighCPU",
	"AlarmDescription": null,
	"AWSAccountId": "123456789012",
	"NewStateValue": "ALARM",
	"NewStateReason": "Threshold Crossed",
	"StateChangeTime": "2023-01-15T10:30:00.000+0000",
	"Region": "US East (N. Virginia)",
	"AlarmArn": "arn:aws:cloudwatch:us-east-1:123456789012:alarm:HighCPU",
	"OldStateValue": "OK",
	"Trigger": {
		"MetricName": "CPUUtilization",
		"Namespace": "AWS/EC2",
		"Statistic": "AVERAGE",
		"Unit": "Percent",
		"Period": 300,
		"EvaluationPeriods": 3,
		"ComparisonOperator": "GreaterThanThreshold",
		"Threshold": 80
	}
}`

const okMessage = `{
	"AlarmName": "LowDisk",
	"NewStateValue": "OK",
	"OldStateValue": "ALARM",
	"NewStateReason": "Threshold Crossed",
	"StateChangeTime": "2023-01-15T11:00:00.000+0000",
	"AlarmArn": "arn:aws:cloudwatch:eu-west-1:123456789012:alarm:LowDisk",
	"Trigger": {
		"MetricName": "FreeStorageSpace",
		"Statistic": "MINIMUM",
		"Period": 60,
		"EvaluationPeriods": 1,
		"ComparisonOperator": "LessThanThreshold",
		"Threshold": 1000000000,
		"Dimensions": [{"name": "DBInstanceIdentifier", "value": "orders"}]
	}
}`

func setupHandler(t *testing.T) (*SenderMock, *EventHandler) {
	t.Helper()

	sender := new(SenderMock)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return sender, NewEventHandler(sender, logger)
}

func newSNSEvent(messages ...string) events.SNSEvent {
	records := make([]events.SNSEventRecord, 0, len(messages))
	for i, m := range messages {
		records = append(records, events.SNSEventRecord{
			EventSource: "aws:sns",
			SNS: events.SNSEntity{
				MessageID: "msg-" + string(rune('a'+i)),
				TopicArn:  "arn:aws:sns:us-east-1:123456789012:cloudwatch-alarms",
				Message:   m,
			},
		})
	}
	return events.SNSEvent{Records: records}
}

func messageWithColor(color string) any {
	return mock.MatchedBy(func(msg *slack.Message) bool {
		return len(msg.Attachments) == 1 && msg.Attachments[0].Color == color
	})
}

func TestHandleRequest_SingleRecord(t *testing.T) {
	sender, h := setupHandler(t)

	sender.On("Send",
		mock.MatchedBy(func(ctx context.Context) bool { return ctx != nil }),
		mock.MatchedBy(func(msg *slack.Message) bool {
			blocks := msg.Attachments[0].Blocks
			return msg.Attachments[0].Color == "#A30200" &&
				blocks[1].Text.Text == "*Trigger:*\nAverage CPUUtilization > 80 percent for 3 period(s) of 300 seconds."
		}),
	).Return(nil).Once()

	err := h.HandleRequest(context.Background(), newSNSEvent(alarmMessage))
	require.NoError(t, err)
	sender.AssertExpectations(t)
}

func TestHandleRequest_MultipleRecordsInOrder(t *testing.T) {
	sender, h := setupHandler(t)

	var order []string
	sender.On("Send", mock.Anything, messageWithColor("#A30200")).
		Run(func(mock.Arguments) { order = append(order, "alarm") }).
		Return(nil).Once()
	sender.On("Send", mock.Anything, messageWithColor("#2EB886")).
		Run(func(mock.Arguments) { order = append(order, "ok") }).
		Return(nil).Once()

	err := h.HandleRequest(context.Background(), newSNSEvent(alarmMessage, okMessage))
	require.NoError(t, err)
	assert.Equal(t, []string{"alarm", "ok"}, order)
	sender.AssertExpectations(t)
}

func TestHandleRequest_EmptyEvent(t *testing.T) {
	sender, h := setupHandler(t)

	err := h.HandleRequest(context.Background(), events.SNSEvent{})
	require.NoError(t, err)
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestHandleRequest_InvalidRecordStopsBatch(t *testing.T) {
	sender, h := setupHandler(t)

	sender.On("Send", mock.Anything, messageWithColor("#A30200")).Return(nil).Once()

	err := h.HandleRequest(context.Background(), newSNSEvent(alarmMessage, `{"AlarmName": "broken"}`, okMessage))
	require.Error(t, err)
	assert.ErrorIs(t, err, alarm.ErrValidation)
	assert.NotErrorIs(t, err, notify.ErrDelivery)
	assert.Contains(t, err.Error(), "record 1 (msg-b)")

	sender.AssertExpectations(t)
	sender.AssertNumberOfCalls(t, "Send", 1)
}

func TestHandleRequest_UnparsableTimestamp(t *testing.T) {
	sender, h := setupHandler(t)

	msg := `{"AlarmName": "x", "AlarmArn": "arn:aws:cloudwatch:us-east-1:123456789012:alarm:x",
		"OldStateValue": "OK", "NewStateValue": "ALARM", "NewStateReason": "r",
		"StateChangeTime": "Sunday",
		"Trigger": {"MetricName": "m", "Statistic": "SUM", "ComparisonOperator": "LessThanThreshold",
			"Threshold": 1, "EvaluationPeriods": 1, "Period": 60}}`

	err := h.HandleRequest(context.Background(), newSNSEvent(msg))
	require.Error(t, err)
	assert.ErrorIs(t, err, alarm.ErrValidation)
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestHandleRequest_DeliveryFailure(t *testing.T) {
	sender, h := setupHandler(t)

	deliveryErr := &notify.DeliveryError{StatusCode: 500, Err: errors.New("internal error")}
	sender.On("Send", mock.Anything, mock.Anything).Return(deliveryErr).Once()

	err := h.HandleRequest(context.Background(), newSNSEvent(alarmMessage, okMessage))
	require.Error(t, err)
	assert.ErrorIs(t, err, notify.ErrDelivery)
	assert.NotErrorIs(t, err, alarm.ErrValidation)

	var dErr *notify.DeliveryError
	require.ErrorAs(t, err, &dErr)
	assert.Equal(t, 500, dErr.StatusCode)

	sender.AssertNumberOfCalls(t, "Send", 1)
}

func TestHandleRequest_RecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	sender, h := setupHandler(t)
	sender.On("Send", mock.Anything, mock.Anything).Return(nil).Once()

	require.NoError(t, h.HandleRequest(context.Background(), newSNSEvent(alarmMessage)))
	require.Error(t, h.HandleRequest(context.Background(), newSNSEvent(`not json`)))

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "handler.record", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "HighCPU", attrs["alarm.name"])
	assert.Equal(t, "msg-a", attrs["sns.message_id"])

	assert.Equal(t, codes.Error, spans[1].Status().Code)
}

func TestHandleRequest_WebhookEndToEnd(t *testing.T) {
	var posted [][]byte
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		posted = append(posted, body)
	}))
	defer server.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewEventHandler(notify.NewWebhook(server.Client(), server.URL, logger), logger)

	require.NoError(t, h.HandleRequest(context.Background(), newSNSEvent(alarmMessage, okMessage)))
	require.Len(t, posted, 2)

	assert.JSONEq(t, `{"attachments":[{"color":"#2EB886","blocks":[
		{"type":"section","text":{"type":"mrkdwn","text":"*Name:*\nLowDisk"}},
		{"type":"section","text":{"type":"mrkdwn","text":"*Trigger:*\nMinimum FreeStorageSpace < 1000000000 for 1 period(s) of 60 seconds."}},
		{"type":"section","text":{"type":"mrkdwn","text":"*State change reason:*\nThreshold Crossed"}},
		{"type":"section","text":{"type":"mrkdwn","text":"*Dimension(s):*\nDBInstanceIdentifier: orders"}},
		{"type":"section","fields":[
			{"type":"mrkdwn","text":"*Previous state:*\nALARM"},
			{"type":"mrkdwn","text":"*New state:*\nOK"}
		]},
		{"type":"section","text":{"type":"mrkdwn","text":"*Link to alarm:*\nhttps://console.aws.amazon.com/cloudwatch/home?region=eu-west-1#s=Alarms&alarm=LowDisk"}},
		{"type":"context","elements":[{"type":"mrkdwn","text":"<!date^1673780400^ {date} at {time}| >"}]}
	]}]}`, string(posted[1]))
}
