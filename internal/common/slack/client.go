// Package slack wraps the Slack Web API calls the ingestion flow relies on:
// threaded replies and user lookups.
package slack

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/slack-go/slack"
)

// UserInfo is the subset of a Slack profile shown in task records.
type UserInfo struct {
	ID          string
	Name        string
	DisplayName string
	Avatar      string
}

// PreferredName returns the display name, then the real/login name.
func (u *UserInfo) PreferredName() string {
	if u == nil {
		return ""
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Name
}

type Client struct {
	api *slack.Client
}

type Option func(*options)

type options struct {
	apiURL     string
	httpClient *http.Client
}

// WithAPIURL points the client at a different Web API root, e.g. a test server.
func WithAPIURL(url string) Option {
	return func(o *options) { o.apiURL = url }
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

func NewClient(botToken string, opts ...Option) *Client {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	var slackOpts []slack.Option
	if o.apiURL != "" {
		apiURL := o.apiURL
		if !strings.HasSuffix(apiURL, "/") {
			apiURL += "/"
		}
		slackOpts = append(slackOpts, slack.OptionAPIURL(apiURL))
	}
	if o.httpClient != nil {
		slackOpts = append(slackOpts, slack.OptionHTTPClient(o.httpClient))
	}

	return &Client{api: slack.New(botToken, slackOpts...)}
}

// PostMessage posts text into channel, replying in the thread of threadTS when set.
func (c *Client) PostMessage(ctx context.Context, channelID, text, threadTS string) error {
	msgOpts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if threadTS != "" {
		msgOpts = append(msgOpts, slack.MsgOptionTS(threadTS))
	}

	if _, _, err := c.api.PostMessageContext(ctx, channelID, msgOpts...); err != nil {
		return fmt.Errorf("chat.postMessage to %s: %w", channelID, err)
	}
	return nil
}

// GetUserInfo returns nil without error when Slack reports user_not_found.
func (c *Client) GetUserInfo(ctx context.Context, userID string) (*UserInfo, error) {
	user, err := c.api.GetUserInfoContext(ctx, userID)
	if err != nil {
		if err.Error() == "user_not_found" {
			return nil, nil
		}
		return nil, fmt.Errorf("users.info %s: %w", userID, err)
	}

	return &UserInfo{
		ID:          user.ID,
		Name:        firstNonEmpty(user.RealName, user.Name),
		DisplayName: user.Profile.DisplayName,
		Avatar:      user.Profile.Image72,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
