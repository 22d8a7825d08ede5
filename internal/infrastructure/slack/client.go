package slack

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"

	"github.com/qj0r9j0vc2/button-bridge/internal/domain/entity"
	domainerrors "github.com/qj0r9j0vc2/button-bridge/internal/domain/errors"
)

// Acker acknowledges Socket Mode envelopes.
type Acker interface {
	Ack(req socketmode.Request, payload ...interface{})
}

// Client renders sessions on Slack. Message IDs are message timestamps;
// the channel is always passed alongside.
// Implements the interact.Platform interface.
type Client struct {
	api   *slack.Client
	acker Acker
}

// NewClient creates a Slack platform client. acker is usually the Socket
// Mode client that delivered the interactions.
func NewClient(api *slack.Client, acker Acker) *Client {
	return &Client{
		api:   api,
		acker: acker,
	}
}

// SendMessage posts msg to channelID and returns its timestamp.
func (c *Client) SendMessage(ctx context.Context, channelID string, msg entity.OutgoingMessage) (string, error) {
	_, timestamp, err := c.api.PostMessageContext(ctx, channelID, messageOptions(msg)...)
	if err != nil {
		return "", categorizeSlackError(err, "posting slack message")
	}
	return timestamp, nil
}

// EditMessage replaces the message at timestamp messageID.
func (c *Client) EditMessage(ctx context.Context, channelID, messageID string, msg entity.OutgoingMessage) error {
	if messageID == "" {
		return domainerrors.NewPermanentError("updating slack message: empty message timestamp", nil)
	}

	_, _, _, err := c.api.UpdateMessageContext(ctx, channelID, messageID, messageOptions(msg)...)
	if err != nil {
		return categorizeSlackError(err, "updating slack message")
	}
	return nil
}

// Acknowledge acks the Socket Mode envelope that carried the click. The
// envelope ID travels in the handle's token.
func (c *Client) Acknowledge(ctx context.Context, handle entity.AckHandle) error {
	if handle.Token == "" {
		return domainerrors.NewPermanentError("acknowledging slack interaction: missing envelope id", nil)
	}
	if err := ctx.Err(); err != nil {
		return categorizeSlackError(err, "acknowledging slack interaction")
	}

	c.acker.Ack(socketmode.Request{EnvelopeID: handle.Token})
	return nil
}

// Name returns the platform identifier.
func (c *Client) Name() string {
	return "slack"
}

func messageOptions(msg entity.OutgoingMessage) []slack.MsgOption {
	blocks := BuildBlocks(msg)
	return []slack.MsgOption{
		slack.MsgOptionText(FallbackText(msg), false),
		// Always send the block list so an edit without components
		// removes the buttons.
		slack.MsgOptionBlocks(blocks...),
	}
}

// categorizeSlackError wraps Slack API errors as transient or permanent domain errors.
func categorizeSlackError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var rateErr *slack.RateLimitedError
	if errors.As(err, &rateErr) {
		return domainerrors.NewTransientError(
			fmt.Sprintf("%s: rate limited, retry after %s", operation, rateErr.RetryAfter),
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

	var slackErr slack.SlackErrorResponse
	if errors.As(err, &slackErr) {
		switch slackErr.Err {
		case "rate_limited", "ratelimited":
			return domainerrors.NewTransientError(
				fmt.Sprintf("%s: rate limited", operation),
				err,
			)

		case "internal_error", "fatal_error", "service_unavailable", "request_timeout":
			return domainerrors.NewTransientError(
				fmt.Sprintf("%s: slack server error", operation),
				err,
			)

		default:
			// invalid_auth, channel_not_found, message_not_found,
			// cant_update_message, invalid_blocks and the like.
			return domainerrors.NewPermanentError(
				fmt.Sprintf("%s: %s", operation, slackErr.Err),
				err,
			)
		}
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
