package slackgw

import "context"

// Channel is a destination a message can be delivered to: a public or
// private channel, or a direct-message conversation.
type Channel struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsChannel bool   `json:"is_channel"`
	IsPrivate bool   `json:"is_private"`
}

// OAuthGrant is the outcome of exchanging an OAuth code with Slack.
// ExpiresIn is in seconds; zero means the token does not expire.
type OAuthGrant struct {
	SlackUserID  string
	TeamID       string
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

// PostResult identifies the message Slack accepted.
type PostResult struct {
	Channel   string
	Timestamp string
}

// RejectionError is an API-level rejection from Slack, as opposed to a
// transport failure. Reason is Slack's error string, e.g.
// "channel_not_found", and is what Error() returns so the reason is recorded
// verbatim wherever the error message is persisted.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string { return e.Reason }

// Gateway abstracts the Slack Web API operations this service consumes.
// Implementations must return Slack's own error string (e.g.
// "channel_not_found") as the error message for API-level rejections, since
// that string is recorded verbatim on failed scheduled messages.
type Gateway interface {
	// PostMessage delivers one message to one channel on behalf of the
	// token's user.
	PostMessage(ctx context.Context, token, channelID, text string) (*PostResult, error)

	// ListChannels enumerates channels and DMs visible to the token.
	ListChannels(ctx context.Context, token string) ([]Channel, error)

	// ExchangeCode trades an OAuth callback code for workspace credentials.
	ExchangeCode(ctx context.Context, code string) (*OAuthGrant, error)
}
