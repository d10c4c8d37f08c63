// Package slack renders CloudWatch alarm events as Slack attachment messages built from Block Kit blocks.
package slack

import (
	"bytes"
	"encoding/json"
)

const (
	blockSection = "section"
	blockContext = "context"
	textMarkdown = "mrkdwn"
)

// Message is the payload accepted by Slack incoming webhooks.
type Message struct {
	Attachments []Attachment `json:"attachments"`
}

// Attachment carries the accent color and the blocks rendered next to it.
type Attachment struct {
	Color  string  `json:"color"`
	Blocks []Block `json:"blocks"`
}

// Block is a section with a single text, a section with side-by-side fields, or a context block.
type Block struct {
	Type     string `json:"type"`
	Text     *Text  `json:"text,omitempty"`
	Fields   []Text `json:"fields,omitempty"`
	Elements []Text `json:"elements,omitempty"`
}

// Text is a mrkdwn text object.
type Text struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Markdown returns a mrkdwn text object. A non-empty title is rendered in bold on its own line above value.
func Markdown(title, value string) Text {
	if title != "" {
		value = "*" + title + ":*\n" + value
	}
	return Text{Type: textMarkdown, Text: value}
}

// TextSection returns a section block holding a single titled text.
func TextSection(title, value string) Block {
	text := Markdown(title, value)
	return Block{Type: blockSection, Text: &text}
}

// FieldsSection returns a section block whose texts render side by side.
func FieldsSection(fields ...Text) Block {
	return Block{Type: blockSection, Fields: fields}
}

// ContextBlock returns a context block with the given elements.
func ContextBlock(elements ...Text) Block {
	return Block{Type: blockContext, Elements: elements}
}

// Encode serializes the message as sent to the webhook. HTML characters are left
// unescaped so Slack control sequences such as <!date^...> survive verbatim.
func (m *Message) Encode() ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return nil, err
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
