package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qj0r9j0vc2/button-bridge/internal/domain/entity"
	"github.com/qj0r9j0vc2/button-bridge/internal/infrastructure/eventbus"
	"github.com/qj0r9j0vc2/button-bridge/internal/infrastructure/persistence/memory"
	"github.com/qj0r9j0vc2/button-bridge/internal/usecase/interact"
)

type chatPlatform struct {
	mu      sync.Mutex
	sent    []entity.OutgoingMessage
	edits   []entity.OutgoingMessage
	sendErr error
}

func (p *chatPlatform) SendMessage(ctx context.Context, channelID string, msg entity.OutgoingMessage) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sendErr != nil {
		return "", p.sendErr
	}
	p.sent = append(p.sent, msg)
	return fmt.Sprintf("msg-%d", len(p.sent)), nil
}

func (p *chatPlatform) EditMessage(ctx context.Context, channelID, messageID string, msg entity.OutgoingMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.edits = append(p.edits, msg)
	return nil
}

func (p *chatPlatform) Acknowledge(ctx context.Context, handle entity.AckHandle) error {
	return nil
}

func (p *chatPlatform) Sent() []entity.OutgoingMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]entity.OutgoingMessage(nil), p.sent...)
}

func (p *chatPlatform) Edits() []entity.OutgoingMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]entity.OutgoingMessage(nil), p.edits...)
}

type commandCount struct {
	mu    sync.Mutex
	calls []string
}

func (c *commandCount) RecordCommand(ctx context.Context, platform, name string, success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, fmt.Sprintf("%s/%s/%t", platform, name, success))
}

type routerHarness struct {
	bus      *eventbus.Bus
	platform *chatPlatform
	history  *memory.SessionRecordRepository
	metrics  *commandCount
	router   *CommandRouter
}

func newRouterHarness(t *testing.T) *routerHarness {
	t.Helper()
	h := &routerHarness{
		bus:      eventbus.New(),
		platform: &chatPlatform{},
		history:  memory.NewSessionRecordRepository(),
		metrics:  &commandCount{},
	}
	rt := interact.NewRuntime(h.platform, h.bus,
		interact.WithRecorder(h.history),
		interact.WithDefaultTimeout(5*time.Second),
	)
	h.router = NewCommandRouter(CommandRouterConfig{
		Runtime:  rt,
		Replier:  h.platform,
		History:  h.history,
		Platform: "discord",
		Prefix:   "!",
		Metrics:  h.metrics,
	})
	return h
}

func (h *routerHarness) start(cmd entity.Command) <-chan error {
	done := make(chan error, 1)
	go func() { done <- h.router.HandleCommand(context.Background(), cmd) }()
	return done
}

func (h *routerHarness) waitForSession(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool { return h.bus.Len() == 1 },
		2*time.Second, 5*time.Millisecond, "session never subscribed")
}

func (h *routerHarness) click(messageID, customID string) {
	h.bus.Publish(entity.InteractionEvent{
		Type:        entity.EventInteractionCreate,
		ChannelID:   "chan-1",
		MessageID:   messageID,
		UserID:      "user-1",
		CustomID:    customID,
		HasCustomID: true,
		Ack:         entity.AckHandle{InteractionID: "i-" + customID, Token: "t-" + customID},
	})
}

func wait(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("command did not finish")
		return nil
	}
}

func command(name, args string) entity.Command {
	return entity.Command{Name: name, Args: args, ChannelID: "chan-1", UserID: "user-1", UserName: "alice"}
}

func TestCommandRouter_ConfirmDestructive(t *testing.T) {
	h := newRouterHarness(t)

	done := h.start(command("confirm", "--destructive drop the table"))
	h.waitForSession(t)

	prompt := h.platform.Sent()[0]
	assert.Equal(t, "drop the table", prompt.Content)
	row, ok := prompt.Components[0].(entity.ActionRow)
	require.True(t, ok)
	assert.Equal(t, entity.ButtonStyleDanger, row.Buttons[0].Style)

	h.click("msg-1", interact.ConfirmID)
	require.NoError(t, wait(t, done))

	edits := h.platform.Edits()
	require.Len(t, edits, 1)
	assert.Equal(t, "drop the table\nConfirmed by <@user-1>", edits[0].Content)
	assert.Equal(t, []string{"discord/confirm/true"}, h.metrics.calls)
}

func TestCommandRouter_ChooseRepliesWithChoice(t *testing.T) {
	h := newRouterHarness(t)

	done := h.start(command("choose", "red | green | blue"))
	h.waitForSession(t)

	h.click("msg-1", "choice_1")
	require.NoError(t, wait(t, done))

	sent := h.platform.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "<@user-1> chose green", sent[1].Content)

	records, err := h.history.FindByUser(context.Background(), "user-1", 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "choice_1", records[0].Choice)
}

func TestCommandRouter_ChooseValidation(t *testing.T) {
	h := newRouterHarness(t)

	require.NoError(t, h.router.HandleCommand(context.Background(), command("choose", "")))
	tooMany := strings.Repeat("x ", maxChoices+1)
	require.NoError(t, h.router.HandleCommand(context.Background(), command("choose", tooMany)))
	longLabel := strings.Repeat("a", 81)
	require.NoError(t, h.router.HandleCommand(context.Background(), command("choose", longLabel)))

	sent := h.platform.Sent()
	require.Len(t, sent, 3)
	assert.Equal(t, "Usage: !choose <a> <b> ... or choose <a> | <b> | ...", sent[0].Content)
	assert.Equal(t, "At most 25 options are supported.", sent[1].Content)
	assert.True(t, strings.HasPrefix(sent[2].Content, "Invalid input: "))
	assert.Zero(t, h.bus.Len())
}

func TestCommandRouter_PagesUsesLimits(t *testing.T) {
	h := newRouterHarness(t)
	h.router.SetPageLimits(10, 5)

	done := h.start(command("pages", "aa bb cc dd ee ff"))
	h.waitForSession(t)

	assert.Equal(t, "aa bb cc\n\nPage 1/2", h.platform.Sent()[0].Content)

	h.click("msg-1", interact.NavStop)
	require.NoError(t, wait(t, done))
}

func TestCommandRouter_PagesFitMessageLimit(t *testing.T) {
	tests := []struct {
		name     string
		length   int
		maxChars int
		minChars int
	}{
		{name: "just under limit", length: 1993},
		{name: "several pages", length: 5000},
		{name: "configured defaults", length: 5000, maxChars: 2000, minChars: 1500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newRouterHarness(t)
			h.router.SetPageLimits(tt.maxChars, tt.minChars)

			text := strings.Repeat("word ", tt.length/5+1)[:tt.length]
			done := h.start(command("pages", text))
			h.waitForSession(t)

			for range 4 {
				h.click("msg-1", interact.NavNext)
			}
			h.click("msg-1", interact.NavStop)
			require.NoError(t, wait(t, done))

			rendered := append(h.platform.Sent(), h.platform.Edits()...)
			require.Len(t, rendered, 6)
			for _, msg := range rendered {
				assert.LessOrEqual(t, utf8.RuneCountInString(msg.Content), maxMessageChars)
			}
			assert.Contains(t, rendered[0].Content, "\n\nPage 1/")
		})
	}
}

func TestFitPageLimits(t *testing.T) {
	maxChars, minChars := fitPageLimits(strings.Repeat("a", 5000), 0, 0)
	assert.Equal(t, 2000-len("\n\nPage 9999/9999"), maxChars)
	assert.Zero(t, minChars)

	maxChars, minChars = fitPageLimits(strings.Repeat("a", 5000), 2000, 1995)
	assert.Equal(t, 1984, maxChars)
	assert.Equal(t, 1984*3/4, minChars)

	maxChars, minChars = fitPageLimits("aa bb cc", 10, 5)
	assert.Equal(t, 10, maxChars)
	assert.Equal(t, 5, minChars)
}

func TestCommandRouter_History(t *testing.T) {
	h := newRouterHarness(t)
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, h.history.Save(context.Background(), &entity.SessionRecord{
		ID: "r1", Kind: entity.SessionKindConfirmation, UserID: "user-1",
		Outcome: entity.OutcomeConfirmed, StartedAt: now, EndedAt: now,
	}))

	require.NoError(t, h.router.HandleCommand(context.Background(), command("history", "")))

	sent := h.platform.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Recent sessions:\n2025-01-02 03:04:05  confirmation  confirmed", sent[0].Content)
}

func TestCommandRouter_UnknownCommandIgnored(t *testing.T) {
	h := newRouterHarness(t)

	require.NoError(t, h.router.HandleCommand(context.Background(), command("dance", "")))
	assert.Empty(t, h.platform.Sent())
	assert.Empty(t, h.metrics.calls)
}

func TestCommandRouter_ReplyFailure(t *testing.T) {
	h := newRouterHarness(t)
	h.platform.sendErr = errors.New("missing access")

	err := h.router.HandleCommand(context.Background(), command("help", ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command help")
	assert.Equal(t, []string{"discord/help/false"}, h.metrics.calls)
}

func TestChoiceRows(t *testing.T) {
	options := make([]string, 12)
	for i := range options {
		options[i] = fmt.Sprintf("opt%d", i)
	}

	rows, err := ChoiceRows(options)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Len(t, rows[0].Buttons, 5)
	assert.Len(t, rows[2].Buttons, 2)
	assert.Equal(t, "choice_11", rows[2].Buttons[1].CustomID)
}

func TestChoiceIndex(t *testing.T) {
	tests := []struct {
		customID string
		index    int
		ok       bool
	}{
		{customID: "choice_0", index: 0, ok: true},
		{customID: "choice_11", index: 11, ok: true},
		{customID: "choice_", ok: false},
		{customID: "choice_x", ok: false},
		{customID: "choice_-1", ok: false},
		{customID: "choice_1x", ok: false},
		{customID: "pick_1", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.customID, func(t *testing.T) {
			index, ok := choiceIndex(tt.customID)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.index, index)
		})
	}
}

func TestParseChoices(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, parseChoices("  a   b "))
	assert.Equal(t, []string{"fish and chips", "pizza"}, parseChoices("fish and chips | | pizza"))
	assert.Empty(t, parseChoices("   "))
}

func TestFormatHistory(t *testing.T) {
	assert.Equal(t, "No sessions yet.", FormatHistory(nil))

	ended := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	got := FormatHistory([]*entity.SessionRecord{
		{Kind: entity.SessionKindMultipleChoice, Outcome: entity.OutcomeChosen, Choice: "choice_2", EndedAt: ended},
		{Kind: entity.SessionKindPaginator, Outcome: entity.OutcomeTimedOut, PageIndex: 1, EndedAt: ended},
	})
	assert.Equal(t, "Recent sessions:\n"+
		"2025-01-02 03:04:05  multiple_choice  chosen (choice_2)\n"+
		"2025-01-02 03:04:05  paginator  timed_out (page 2)", got)
}
