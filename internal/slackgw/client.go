package slackgw

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/slack-go/slack"
)

// WebAPIGateway talks to the real Slack Web API via slack-go.
type WebAPIGateway struct {
	logger       *slog.Logger
	httpClient   *http.Client
	clientID     string
	clientSecret string
	redirectURI  string
}

func NewWebAPIGateway(logger *slog.Logger, clientID, clientSecret, redirectURI string, timeout time.Duration) *WebAPIGateway {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &WebAPIGateway{
		logger:       logger.With("component", "slack_gateway"),
		httpClient:   &http.Client{Timeout: timeout},
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
	}
}

var _ Gateway = (*WebAPIGateway)(nil)

func (g *WebAPIGateway) client(token string) *slack.Client {
	return slack.New(token, slack.OptionHTTPClient(g.httpClient))
}

func (g *WebAPIGateway) PostMessage(ctx context.Context, token, channelID, text string) (*PostResult, error) {
	channel, ts, err := g.client(token).PostMessageContext(ctx, channelID, slack.MsgOptionText(text, false))
	if err != nil {
		// slack-go surfaces API rejections as an error whose message is the
		// Slack error string ("channel_not_found", "not_in_channel", ...).
		var apiErr slack.SlackErrorResponse
		if errors.As(err, &apiErr) {
			return nil, &RejectionError{Reason: apiErr.Error()}
		}
		return nil, err
	}
	return &PostResult{Channel: channel, Timestamp: ts}, nil
}

func (g *WebAPIGateway) ListChannels(ctx context.Context, token string) ([]Channel, error) {
	api := g.client(token)

	conversations, _, err := api.GetConversationsContext(ctx, &slack.GetConversationsParameters{
		Types:           []string{"public_channel", "private_channel"},
		ExcludeArchived: true,
		Limit:           100,
	})
	if err != nil {
		return nil, fmt.Errorf("listing channels: %w", err)
	}

	ims, _, err := api.GetConversationsContext(ctx, &slack.GetConversationsParameters{
		Types:           []string{"im"},
		ExcludeArchived: true,
		Limit:           100,
	})
	if err != nil {
		return nil, fmt.Errorf("listing direct messages: %w", err)
	}

	channels := make([]Channel, 0, len(conversations)+len(ims))
	for _, c := range conversations {
		channels = append(channels, Channel{
			ID:        c.ID,
			Name:      "#" + c.Name,
			IsChannel: true,
			IsPrivate: c.IsPrivate,
		})
	}
	for _, im := range ims {
		if im.User == "" {
			continue
		}
		channels = append(channels, Channel{
			ID:        im.ID,
			Name:      "@" + g.dmDisplayName(ctx, api, im.User),
			IsChannel: false,
			IsPrivate: true,
		})
	}
	return channels, nil
}

// dmDisplayName resolves a DM peer's name, falling back to the raw user id
// when the users.info lookup fails.
func (g *WebAPIGateway) dmDisplayName(ctx context.Context, api *slack.Client, userID string) string {
	info, err := api.GetUserInfoContext(ctx, userID)
	if err != nil {
		g.logger.DebugContext(ctx, "Failed to resolve DM user name", "user_id", userID, "error", err)
		return userID
	}
	if info.RealName != "" {
		return info.RealName
	}
	if info.Name != "" {
		return info.Name
	}
	return userID
}

func (g *WebAPIGateway) ExchangeCode(ctx context.Context, code string) (*OAuthGrant, error) {
	resp, err := slack.GetOAuthV2ResponseContext(ctx, g.httpClient, g.clientID, g.clientSecret, code, g.redirectURI)
	if err != nil {
		return nil, fmt.Errorf("oauth code exchange: %w", err)
	}
	return &OAuthGrant{
		SlackUserID:  resp.AuthedUser.ID,
		TeamID:       resp.Team.ID,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
	}, nil
}
