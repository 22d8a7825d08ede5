package discord

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qj0r9j0vc2/button-bridge/internal/domain/entity"
	domainerrors "github.com/qj0r9j0vc2/button-bridge/internal/domain/errors"
)

func componentInteraction(customID string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:        "i-1",
		Token:     "tok-1",
		Type:      discordgo.InteractionMessageComponent,
		ChannelID: "c-1",
		Message:   &discordgo.Message{ID: "m-1"},
		Member:    &discordgo.Member{User: &discordgo.User{ID: "u-guild"}},
		Data:      discordgo.MessageComponentInteractionData{CustomID: customID},
	}}
}

func TestTranslateInteraction(t *testing.T) {
	evt, ok := translateInteraction(componentInteraction("confirm"))
	require.True(t, ok)

	assert.Equal(t, entity.InteractionEvent{
		Type:        entity.EventInteractionCreate,
		ChannelID:   "c-1",
		MessageID:   "m-1",
		UserID:      "u-guild",
		CustomID:    "confirm",
		HasCustomID: true,
		Ack:         entity.AckHandle{InteractionID: "i-1", Token: "tok-1"},
	}, evt)
	assert.True(t, evt.IsButtonClickOn("c-1", "m-1"))
}

func TestTranslateInteraction_DirectMessageUser(t *testing.T) {
	i := componentInteraction("next")
	i.Member = nil
	i.User = &discordgo.User{ID: "u-dm"}

	evt, ok := translateInteraction(i)
	require.True(t, ok)
	assert.Equal(t, "u-dm", evt.UserID)
}

func TestTranslateInteraction_MissingCustomID(t *testing.T) {
	evt, ok := translateInteraction(componentInteraction(""))
	require.True(t, ok)
	assert.False(t, evt.HasCustomID)
	assert.False(t, evt.IsButtonClickOn("c-1", "m-1"))
}

func TestTranslateInteraction_IgnoresOtherTypes(t *testing.T) {
	i := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type: discordgo.InteractionApplicationCommand,
		Data: discordgo.ApplicationCommandInteractionData{Name: "ping"},
	}}
	_, ok := translateInteraction(i)
	assert.False(t, ok)

	_, ok = translateInteraction(nil)
	assert.False(t, ok)
}

func TestTranslateMessage(t *testing.T) {
	msg := func(authorID string, bot bool, content string) *discordgo.MessageCreate {
		return &discordgo.MessageCreate{Message: &discordgo.Message{
			ChannelID: "c-1",
			Content:   content,
			Author:    &discordgo.User{ID: authorID, Username: "alice", Bot: bot},
		}}
	}

	cmd, ok := translateMessage(msg("u-1", false, "!confirm --destructive wipe"), "!", "bot")
	require.True(t, ok)
	assert.Equal(t, entity.Command{
		Name:      "confirm",
		Args:      "--destructive wipe",
		ChannelID: "c-1",
		UserID:    "u-1",
		UserName:  "alice",
	}, cmd)

	_, ok = translateMessage(msg("u-1", false, "hello"), "!", "bot")
	assert.False(t, ok)

	_, ok = translateMessage(msg("u-2", true, "!confirm x"), "!", "bot")
	assert.False(t, ok, "bot authors are ignored")

	_, ok = translateMessage(msg("bot", false, "!confirm x"), "!", "bot")
	assert.False(t, ok, "own messages are ignored")
}

func TestCategorizeDiscordError(t *testing.T) {
	restErr := func(status int) error {
		return &discordgo.RESTError{
			Response: &http.Response{StatusCode: status},
			Message:  &discordgo.APIErrorMessage{Code: 10008, Message: "Unknown Message"},
		}
	}

	tests := []struct {
		name          string
		err           error
		wantTransient bool
	}{
		{"rate limited", restErr(http.StatusTooManyRequests), true},
		{"bad gateway", restErr(http.StatusBadGateway), true},
		{"unknown message", restErr(http.StatusNotFound), false},
		{"missing access", restErr(http.StatusForbidden), false},
		{"bad json", discordgo.ErrJSONUnmarshal, false},
		{"deadline", context.DeadlineExceeded, true},
		{"other", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := categorizeDiscordError(tt.err, "op")
			assert.Equal(t, tt.wantTransient, domainerrors.IsTransientError(err))
			assert.Equal(t, !tt.wantTransient, domainerrors.IsPermanentError(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}

	assert.NoError(t, categorizeDiscordError(nil, "op"))
}

func TestClient_AcknowledgeRequiresHandle(t *testing.T) {
	c := NewClient(&discordgo.Session{})

	err := c.Acknowledge(context.Background(), entity.AckHandle{InteractionID: "i"})
	assert.True(t, domainerrors.IsPermanentError(err))
}

func TestNewGateway_RequiresToken(t *testing.T) {
	_, err := NewGateway("", "!", nil)
	assert.Error(t, err)
}
