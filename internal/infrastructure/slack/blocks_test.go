package slack

import (
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qj0r9j0vc2/button-bridge/internal/domain/entity"
)

func TestBuildBlocks_TextWithButtons(t *testing.T) {
	msg := entity.OutgoingMessage{
		Content: "Delete everything?",
		Components: []entity.Component{entity.MustActionRow(
			entity.Button{Style: entity.ButtonStyleDanger, Label: "Confirm", CustomID: "confirm"},
			entity.Button{Style: entity.ButtonStyleSecondary, Label: "Cancel", CustomID: "cancel"},
			entity.Button{Style: entity.ButtonStyleLink, Label: "Docs", URL: "https://example.com"},
		)},
	}

	blocks := BuildBlocks(msg)
	require.Len(t, blocks, 2)

	section, ok := blocks[0].(*slack.SectionBlock)
	require.True(t, ok)
	assert.Equal(t, "Delete everything?", section.Text.Text)

	actions, ok := blocks[1].(*slack.ActionBlock)
	require.True(t, ok)
	require.Len(t, actions.Elements.ElementSet, 3)

	confirm := actions.Elements.ElementSet[0].(*slack.ButtonBlockElement)
	assert.Equal(t, "confirm", confirm.ActionID)
	assert.Equal(t, slack.StyleDanger, confirm.Style)

	cancel := actions.Elements.ElementSet[1].(*slack.ButtonBlockElement)
	assert.Equal(t, "cancel", cancel.ActionID)
	assert.Equal(t, slack.Style(""), cancel.Style)

	link := actions.Elements.ElementSet[2].(*slack.ButtonBlockElement)
	assert.Equal(t, "https://example.com", link.URL)
	assert.Equal(t, "link_0_2", link.ActionID)
}

func TestBuildBlocks_DisabledButtonsBecomeContext(t *testing.T) {
	msg := entity.OutgoingMessage{
		Content: "Pick",
		Components: []entity.Component{entity.MustActionRow(
			entity.Button{Style: entity.ButtonStyleSecondary, Label: "A", CustomID: "a", Disabled: true},
			entity.Button{Style: entity.ButtonStyleSuccess, Label: "B", CustomID: "b", Disabled: true},
		)},
	}

	blocks := BuildBlocks(msg)
	require.Len(t, blocks, 2)

	ctxBlock, ok := blocks[1].(*slack.ContextBlock)
	require.True(t, ok)
	require.Len(t, ctxBlock.ContextElements.Elements, 1)
	text := ctxBlock.ContextElements.Elements[0].(*slack.TextBlockObject)
	assert.Equal(t, "~A~  *B*", text.Text)
}

func TestBuildBlocks_NoComponents(t *testing.T) {
	blocks := BuildBlocks(entity.OutgoingMessage{Content: "done"})
	require.Len(t, blocks, 1)
	assert.IsType(t, &slack.SectionBlock{}, blocks[0])
}

func TestBuildBlocks_Embed(t *testing.T) {
	msg := entity.OutgoingMessage{
		Content: "ignored",
		Embed: &entity.Embed{
			Title:       "Report",
			Description: "All good",
			Fields:      []entity.EmbedField{{Name: "CPU", Value: "3%"}},
			Footer:      &entity.EmbedFooter{Text: "page 1"},
		},
	}

	blocks := BuildBlocks(msg)
	require.Len(t, blocks, 4)
	assert.IsType(t, &slack.HeaderBlock{}, blocks[0])
	assert.IsType(t, &slack.SectionBlock{}, blocks[1])
	assert.IsType(t, &slack.SectionBlock{}, blocks[2])
	assert.IsType(t, &slack.ContextBlock{}, blocks[3])

	assert.Equal(t, "Report", FallbackText(msg))
}

