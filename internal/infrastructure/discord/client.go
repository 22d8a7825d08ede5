// Package discord renders interactive sessions on Discord and turns gateway
// events into interaction events and commands.
package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/qj0r9j0vc2/button-bridge/internal/domain/entity"
	domainerrors "github.com/qj0r9j0vc2/button-bridge/internal/domain/errors"
)

// Client sends and edits component messages through the Discord REST API.
// Implements the interact.Platform interface.
type Client struct {
	session *discordgo.Session
}

// NewClient creates a Discord platform client over an authenticated session.
func NewClient(session *discordgo.Session) *Client {
	return &Client{session: session}
}

// SendMessage posts msg to channelID and returns the new message ID.
func (c *Client) SendMessage(ctx context.Context, channelID string, msg entity.OutgoingMessage) (string, error) {
	endpoint := discordgo.EndpointChannelMessages(channelID)

	body, err := c.session.RequestWithBucketID(http.MethodPost, endpoint, msg.WirePayload(), endpoint,
		discordgo.WithContext(ctx))
	if err != nil {
		return "", categorizeDiscordError(err, "creating discord message")
	}

	var created discordgo.Message
	if err := json.Unmarshal(body, &created); err != nil {
		return "", domainerrors.NewPermanentError("decoding created discord message", err)
	}
	if created.ID == "" {
		return "", domainerrors.NewPermanentError("creating discord message: response has no message id", nil)
	}
	return created.ID, nil
}

// EditMessage replaces content, embeds and components of a message.
func (c *Client) EditMessage(ctx context.Context, channelID, messageID string, msg entity.OutgoingMessage) error {
	endpoint := discordgo.EndpointChannelMessage(channelID, messageID)

	_, err := c.session.RequestWithBucketID(http.MethodPatch, endpoint, msg.WirePayload(),
		discordgo.EndpointChannelMessage(channelID, ""), discordgo.WithContext(ctx))
	if err != nil {
		return categorizeDiscordError(err, "editing discord message")
	}
	return nil
}

// Acknowledge answers the interaction with a deferred message update, which
// tells Discord the click was handled without changing the message.
func (c *Client) Acknowledge(ctx context.Context, handle entity.AckHandle) error {
	if handle.InteractionID == "" || handle.Token == "" {
		return domainerrors.NewPermanentError("acknowledging discord interaction: missing id or token", nil)
	}

	err := c.session.InteractionRespond(
		&discordgo.Interaction{ID: handle.InteractionID, Token: handle.Token},
		&discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredMessageUpdate},
		discordgo.WithContext(ctx),
	)
	if err != nil {
		return categorizeDiscordError(err, "acknowledging discord interaction")
	}
	return nil
}

// Name returns the platform identifier.
func (c *Client) Name() string {
	return "discord"
}

// categorizeDiscordError wraps Discord API errors as transient or permanent domain errors.
func categorizeDiscordError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		status := restErr.Response.StatusCode
		detail := http.StatusText(status)
		if restErr.Message != nil && restErr.Message.Message != "" {
			detail = fmt.Sprintf("%s (code %d)", restErr.Message.Message, restErr.Message.Code)
		}

		switch {
		case status == http.StatusTooManyRequests:
			return domainerrors.NewTransientError(
				fmt.Sprintf("%s: rate limited", operation),
				err,
			)
		case status >= http.StatusInternalServerError:
			return domainerrors.NewTransientError(
				fmt.Sprintf("%s: discord server error: %s", operation, detail),
				err,
			)
		default:
			// 401, 403 missing access, 404 unknown message or
			// interaction, 400 invalid form body.
			return domainerrors.NewPermanentError(
				fmt.Sprintf("%s: %s", operation, detail),
				err,
			)
		}
	}

	if errors.Is(err, discordgo.ErrJSONUnmarshal) {
		return domainerrors.NewPermanentError(
			fmt.Sprintf("%s: malformed response", operation),
			err,
		)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return domainerrors.NewTransientError(
			fmt.Sprintf("%s: network error", operation),
			err,
		)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domainerrors.NewTransientError(
			fmt.Sprintf("%s: context done", operation),
			err,
		)
	}

	return domainerrors.NewPermanentError(
		fmt.Sprintf("%s: %v", operation, err),
		err,
	)
}
