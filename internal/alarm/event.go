// Package alarm decodes CloudWatch alarm notifications delivered through SNS.
package alarm

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws/arn"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Event is the JSON document CloudWatch publishes to SNS when an alarm changes state.
type Event struct {
	AlarmName        string  `json:"AlarmName"`
	AlarmDescription *string `json:"AlarmDescription"`
	AWSAccountID     string  `json:"AWSAccountId"`
	AlarmArn         string  `json:"AlarmArn"`
	OldStateValue    string  `json:"OldStateValue"`
	NewStateValue    string  `json:"NewStateValue"`
	NewStateReason   string  `json:"NewStateReason"`
	StateChangeTime  string  `json:"StateChangeTime"`
	Region           string  `json:"Region"`
	Trigger          Trigger `json:"Trigger"`
}

// Trigger describes the metric condition that drives the alarm.
type Trigger struct {
	MetricName         string                   `json:"MetricName"`
	Namespace          string                   `json:"Namespace"`
	Statistic          string                   `json:"Statistic"`
	ComparisonOperator types.ComparisonOperator `json:"ComparisonOperator"`
	// Threshold keeps the literal number from the notification so it renders unchanged.
	Threshold         json.Number `json:"Threshold"`
	Unit              *string     `json:"Unit"`
	EvaluationPeriods *int32      `json:"EvaluationPeriods"`
	Period            *int32      `json:"Period"`
	Dimensions        []Dimension `json:"Dimensions"`
}

// Dimension is a single name/value pair of the alarm metric.
type Dimension struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

var stateChangeTimeLayouts = []string{
	"2006-01-02T15:04:05.999999Z0700",
	"2006-01-02T15:04:05.999999Z07:00",
}

// Decode parses an SNS message body into an Event and checks that every field
// needed to render a notification is present.
func Decode(message string) (*Event, error) {
	var event Event
	if err := json.Unmarshal([]byte(message), &event); err != nil {
		return nil, &ValidationError{Field: "Message", Err: err}
	}

	if err := event.Validate(); err != nil {
		return nil, err
	}

	return &event, nil
}

// Validate reports the first required field that is missing.
func (e *Event) Validate() error {
	required := []struct {
		field   string
		present bool
	}{
		{"AlarmName", e.AlarmName != ""},
		{"AlarmArn", e.AlarmArn != ""},
		{"OldStateValue", e.OldStateValue != ""},
		{"NewStateValue", e.NewStateValue != ""},
		{"NewStateReason", e.NewStateReason != ""},
		{"StateChangeTime", e.StateChangeTime != ""},
		{"Trigger.MetricName", e.Trigger.MetricName != ""},
		{"Trigger.Statistic", e.Trigger.Statistic != ""},
		{"Trigger.ComparisonOperator", e.Trigger.ComparisonOperator != ""},
		{"Trigger.Threshold", e.Trigger.Threshold != ""},
		{"Trigger.EvaluationPeriods", e.Trigger.EvaluationPeriods != nil},
		{"Trigger.Period", e.Trigger.Period != nil},
	}

	for _, r := range required {
		if !r.present {
			return &ValidationError{Field: r.field, Err: ErrMissingField}
		}
	}

	return nil
}

// Description returns the alarm description and whether it is set.
func (e *Event) Description() (string, bool) {
	if e.AlarmDescription == nil || *e.AlarmDescription == "" {
		return "", false
	}
	return *e.AlarmDescription, true
}

// SourceRegion returns the region segment of the alarm ARN, e.g. "us-east-1" for
// arn:aws:cloudwatch:us-east-1:123456789012:alarm:HighCPU.
func (e *Event) SourceRegion() (string, error) {
	parsed, err := arn.Parse(e.AlarmArn)
	if err != nil {
		return "", &ValidationError{Field: "AlarmArn", Err: err}
	}

	if parsed.Region == "" {
		return "", &ValidationError{Field: "AlarmArn", Err: fmt.Errorf("no region in %q", e.AlarmArn)}
	}

	return parsed.Region, nil
}

// ChangedAt parses StateChangeTime, e.g. "2023-01-15T10:30:00.000+0000".
func (e *Event) ChangedAt() (time.Time, error) {
	var lastErr error
	for _, layout := range stateChangeTimeLayouts {
		t, err := time.Parse(layout, e.StateChangeTime)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}

	return time.Time{}, &ValidationError{Field: "StateChangeTime", Err: lastErr}
}

// DimensionList renders the trigger dimensions as "name: value" pairs joined by ", ".
// It returns "" when the trigger has no dimensions.
func (t *Trigger) DimensionList() string {
	if len(t.Dimensions) == 0 {
		return ""
	}

	pairs := make([]string, 0, len(t.Dimensions))
	for _, d := range t.Dimensions {
		pairs = append(pairs, d.Name+": "+d.Value)
	}

	return strings.Join(pairs, ", ")
}
