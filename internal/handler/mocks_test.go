package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ab0utbla-k/cloudwatch-alarm-slack/internal/slack"
)

// SenderMock is a mock implementation of the notify.Sender interface.
type SenderMock struct {
	mock.Mock
}

func (m *SenderMock) Send(ctx context.Context, msg *slack.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
