package slackgw

import (
	"context"
	"errors"
)

// MockGateway is a configurable in-memory Gateway for tests and local
// development. Unset functions return zero-value successes.
type MockGateway struct {
	PostMessageFunc  func(ctx context.Context, token, channelID, text string) (*PostResult, error)
	ListChannelsFunc func(ctx context.Context, token string) ([]Channel, error)
	ExchangeCodeFunc func(ctx context.Context, code string) (*OAuthGrant, error)

	// PostedMessages records every successful PostMessage call.
	PostedMessages []PostedMessage
}

type PostedMessage struct {
	Token     string
	ChannelID string
	Text      string
}

var _ Gateway = (*MockGateway)(nil)

func (m *MockGateway) PostMessage(ctx context.Context, token, channelID, text string) (*PostResult, error) {
	if m.PostMessageFunc != nil {
		res, err := m.PostMessageFunc(ctx, token, channelID, text)
		if err == nil {
			m.PostedMessages = append(m.PostedMessages, PostedMessage{Token: token, ChannelID: channelID, Text: text})
		}
		return res, err
	}
	m.PostedMessages = append(m.PostedMessages, PostedMessage{Token: token, ChannelID: channelID, Text: text})
	return &PostResult{Channel: channelID, Timestamp: "0000000000.000000"}, nil
}

func (m *MockGateway) ListChannels(ctx context.Context, token string) ([]Channel, error) {
	if m.ListChannelsFunc != nil {
		return m.ListChannelsFunc(ctx, token)
	}
	return nil, nil
}

func (m *MockGateway) ExchangeCode(ctx context.Context, code string) (*OAuthGrant, error) {
	if m.ExchangeCodeFunc != nil {
		return m.ExchangeCodeFunc(ctx, code)
	}
	return nil, errors.New("mock gateway: ExchangeCode not configured")
}
