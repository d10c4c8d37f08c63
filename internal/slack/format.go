package slack

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/ab0utbla-k/cloudwatch-alarm-slack/internal/alarm"
)

const (
	// UnknownColor is used for any alarm state without a dedicated color.
	UnknownColor = "#808080"
	// UnknownOperator is rendered for comparison operators without a symbol,
	// such as the anomaly detection band operators.
	UnknownOperator = "unknown"

	alarmLinkFormat = "https://console.aws.amazon.com/cloudwatch/home?region=%s#s=Alarms&alarm=%s"
)

var stateColors = map[types.StateValue]string{
	types.StateValueAlarm:            "#A30200",
	types.StateValueOk:               "#2EB886",
	types.StateValueInsufficientData: "#DAA038",
}

var operatorSymbols = map[types.ComparisonOperator]string{
	types.ComparisonOperatorGreaterThanThreshold:          ">",
	types.ComparisonOperatorGreaterThanOrEqualToThreshold: ">=",
	types.ComparisonOperatorLessThanThreshold:             "<",
	types.ComparisonOperatorLessThanOrEqualToThreshold:    "<=",
}

// StateColor maps an alarm state to the attachment accent color.
func StateColor(state string) string {
	if color, ok := stateColors[types.StateValue(state)]; ok {
		return color
	}
	return UnknownColor
}

// OperatorSymbol maps a comparison operator to its mathematical symbol.
func OperatorSymbol(op types.ComparisonOperator) string {
	if symbol, ok := operatorSymbols[op]; ok {
		return symbol
	}
	return UnknownOperator
}

// UnitSuffix renders the metric unit as " <unit>" in lower case. Missing units and
// the CloudWatch "None" unit render as nothing.
func UnitSuffix(unit *string) string {
	if unit == nil || *unit == "" || strings.EqualFold(*unit, string(types.StandardUnitNone)) {
		return ""
	}
	return " " + strings.ToLower(*unit)
}

// TriggerSentence describes the alarm condition, e.g.
// "Average CPUUtilization > 80 percent for 3 period(s) of 300 seconds.".
func TriggerSentence(t *alarm.Trigger) string {
	return fmt.Sprintf("%s %s %s %s%s for %d period(s) of %d seconds.",
		capitalize(t.Statistic),
		t.MetricName,
		OperatorSymbol(t.ComparisonOperator),
		t.Threshold.String(),
		UnitSuffix(t.Unit),
		aws.ToInt32(t.EvaluationPeriods),
		aws.ToInt32(t.Period))
}

// AlarmLink returns the CloudWatch console URL of the alarm in the given region.
func AlarmLink(region, alarmName string) string {
	return fmt.Sprintf(alarmLinkFormat, region, escapeAlarmName(alarmName))
}

// EpochSeconds rounds t to the nearest second and returns it as Unix time.
func EpochSeconds(t time.Time) int64 {
	return t.Round(time.Second).Unix()
}

// DateDirective renders a Slack date formatting token that each reader sees in their own locale.
func DateDirective(epoch int64) string {
	return fmt.Sprintf("<!date^%d^ {date} at {time}| >", epoch)
}

// escapeAlarmName query-escapes the name, keeping parentheses literal.
func escapeAlarmName(name string) string {
	escaped := url.QueryEscape(name)
	return strings.NewReplacer("%28", "(", "%29", ")").Replace(escaped)
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
