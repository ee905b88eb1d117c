// Package discord sends follow-up requests (message edits, deletes and direct
// messages) to the Discord REST API on behalf of the interaction router.
package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// UpstreamError reports a follow-up request that Discord rejected or that
// never completed.
type UpstreamError struct {
	Op     string
	Status int // HTTP status, 0 if no response was received
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("discord %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("discord %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

// API is the subset of *discordgo.Session the client calls.
type API interface {
	WebhookMessageEdit(webhookID, token, messageID string, data *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	WebhookMessageDelete(webhookID, token, messageID string, options ...discordgo.RequestOption) error
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type Client struct {
	api   API
	appID string
}

func NewClient(api API, appID string) *Client {
	return &Client{api: api, appID: appID}
}

// NewSession builds a REST-only session. The token is sent as "Bot <token>"
// on every request.
func NewSession(botToken string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return s, nil
}

// EditMessage replaces the content of a message sent through the interaction
// webhook identified by token and strips its components.
func (c *Client) EditMessage(ctx context.Context, token, messageID, content string) error {
	components := []discordgo.MessageComponent{}
	_, err := c.api.WebhookMessageEdit(c.appID, token, messageID, &discordgo.WebhookEdit{
		Content:    &content,
		Components: &components,
	}, discordgo.WithContext(ctx))
	return wrap("edit message", err)
}

func (c *Client) DeleteMessage(ctx context.Context, token, messageID string) error {
	err := c.api.WebhookMessageDelete(c.appID, token, messageID, discordgo.WithContext(ctx))
	return wrap("delete message", err)
}

// SendDirect opens (or reuses) the DM channel with userID and posts msg there.
func (c *Client) SendDirect(ctx context.Context, userID string, msg *discordgo.MessageSend) error {
	ch, err := c.api.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return wrap("open dm channel", err)
	}
	_, err = c.api.ChannelMessageSendComplex(ch.ID, msg, discordgo.WithContext(ctx))
	return wrap("send direct message", err)
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	ue := &UpstreamError{Op: op, Err: err}
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil {
		ue.Status = rest.Response.StatusCode
	}
	return ue
}
