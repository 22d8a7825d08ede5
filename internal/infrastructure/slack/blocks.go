package slack

import (
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"github.com/qj0r9j0vc2/button-bridge/internal/domain/entity"
)

// Slack caps section text at 3000 characters.
const maxSectionText = 3000

// BuildBlocks renders an OutgoingMessage as Block Kit blocks.
//
// Slack has no disabled buttons, so disabled buttons are drawn as a context
// line under their row: the resolved choice in bold, the rest struck out.
func BuildBlocks(msg entity.OutgoingMessage) []slack.Block {
	var blocks []slack.Block

	if msg.Embed != nil {
		blocks = append(blocks, buildEmbed(msg.Embed)...)
	} else if msg.Content != "" {
		blocks = append(blocks, markdownSection(msg.Content))
	}

	for i, c := range msg.Components {
		row, ok := c.(entity.ActionRow)
		if !ok {
			continue
		}
		blocks = append(blocks, buildRow(i, row)...)
	}

	return blocks
}

// FallbackText is the notification text shown where blocks cannot render.
func FallbackText(msg entity.OutgoingMessage) string {
	if msg.Embed != nil {
		if msg.Embed.Title != "" {
			return msg.Embed.Title
		}
		return msg.Embed.Description
	}
	return msg.Content
}

func markdownSection(text string) *slack.SectionBlock {
	if r := []rune(text); len(r) > maxSectionText {
		text = string(r[:maxSectionText-1]) + "…"
	}
	return slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType, text, false, false),
		nil, nil,
	)
}

func buildEmbed(embed *entity.Embed) []slack.Block {
	var blocks []slack.Block

	if embed.Title != "" {
		title := embed.Title
		if embed.URL != "" {
			blocks = append(blocks, markdownSection(fmt.Sprintf("*<%s|%s>*", embed.URL, title)))
		} else {
			blocks = append(blocks, slack.NewHeaderBlock(
				slack.NewTextBlockObject(slack.PlainTextType, title, true, false),
			))
		}
	}

	if embed.Description != "" {
		blocks = append(blocks, markdownSection(embed.Description))
	}

	if len(embed.Fields) > 0 {
		fields := make([]*slack.TextBlockObject, 0, len(embed.Fields))
		for _, f := range embed.Fields {
			fields = append(fields, slack.NewTextBlockObject(
				slack.MarkdownType,
				fmt.Sprintf("*%s*\n%s", f.Name, f.Value),
				false, false,
			))
		}
		// A section holds at most 10 fields.
		for len(fields) > 0 {
			n := min(10, len(fields))
			blocks = append(blocks, slack.NewSectionBlock(nil, fields[:n], nil))
			fields = fields[n:]
		}
	}

	if embed.Footer != nil && embed.Footer.Text != "" {
		blocks = append(blocks, slack.NewContextBlock("",
			slack.NewTextBlockObject(slack.MarkdownType, embed.Footer.Text, false, false),
		))
	}

	return blocks
}

func buildRow(index int, row entity.ActionRow) []slack.Block {
	var (
		elements []slack.BlockElement
		resolved []string
	)

	for j, b := range row.Buttons {
		if b.Disabled {
			resolved = append(resolved, disabledLabel(b))
			continue
		}
		elements = append(elements, buildButton(index, j, b))
	}

	var blocks []slack.Block
	if len(elements) > 0 {
		blocks = append(blocks, slack.NewActionBlock(fmt.Sprintf("row_%d", index), elements...))
	}
	if len(resolved) > 0 {
		blocks = append(blocks, slack.NewContextBlock(fmt.Sprintf("row_%d_resolved", index),
			slack.NewTextBlockObject(slack.MarkdownType, strings.Join(resolved, "  "), false, false),
		))
	}
	return blocks
}

func buildButton(rowIndex, buttonIndex int, b entity.Button) *slack.ButtonBlockElement {
	text := slack.NewTextBlockObject(slack.PlainTextType, buttonText(b), true, false)

	if b.IsLink() {
		// Link buttons still need a unique action ID.
		btn := slack.NewButtonBlockElement(fmt.Sprintf("link_%d_%d", rowIndex, buttonIndex), "", text)
		btn.URL = b.URL
		return btn
	}

	btn := slack.NewButtonBlockElement(b.CustomID, b.CustomID, text)
	switch b.Style {
	case entity.ButtonStylePrimary, entity.ButtonStyleSuccess:
		btn = btn.WithStyle(slack.StylePrimary)
	case entity.ButtonStyleDanger:
		btn = btn.WithStyle(slack.StyleDanger)
	}
	return btn
}

func buttonText(b entity.Button) string {
	if b.Emoji != nil && b.Emoji.ID == "" && b.Emoji.Name != "" {
		return b.Emoji.Name + " " + b.Label
	}
	return b.Label
}

func disabledLabel(b entity.Button) string {
	if b.Style == entity.ButtonStyleSuccess {
		return fmt.Sprintf("*%s*", buttonText(b))
	}
	return fmt.Sprintf("~%s~", buttonText(b))
}
