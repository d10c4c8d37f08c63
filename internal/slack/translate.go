package slack

import (
	"github.com/ab0utbla-k/cloudwatch-alarm-slack/internal/alarm"
)

// Translate builds the Slack message for an alarm state change.
//
// Blocks appear in a fixed order: name, description (if any), trigger, state change
// reason, dimensions (if any), previous and new state side by side, console link,
// and a context block with the state change time. The only errors are
// *alarm.ValidationError values for an unusable ARN or timestamp.
func Translate(event *alarm.Event) (*Message, error) {
	region, err := event.SourceRegion()
	if err != nil {
		return nil, err
	}

	changedAt, err := event.ChangedAt()
	if err != nil {
		return nil, err
	}

	blocks := []Block{TextSection("Name", event.AlarmName)}

	if description, ok := event.Description(); ok {
		blocks = append(blocks, TextSection("Description", description))
	}

	blocks = append(blocks,
		TextSection("Trigger", TriggerSentence(&event.Trigger)),
		TextSection("State change reason", event.NewStateReason),
	)

	if dimensions := event.Trigger.DimensionList(); dimensions != "" {
		blocks = append(blocks, TextSection("Dimension(s)", dimensions))
	}

	blocks = append(blocks,
		FieldsSection(
			Markdown("Previous state", event.OldStateValue),
			Markdown("New state", event.NewStateValue),
		),
		TextSection("Link to alarm", AlarmLink(region, event.AlarmName)),
		ContextBlock(Markdown("", DateDirective(EpochSeconds(changedAt)))),
	)

	return &Message{
		Attachments: []Attachment{{
			Color:  StateColor(event.NewStateValue),
			Blocks: blocks,
		}},
	}, nil
}
