package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/qj0r9j0vc2/button-bridge/internal/domain/entity"
	"github.com/qj0r9j0vc2/button-bridge/internal/domain/logger"
	"github.com/qj0r9j0vc2/button-bridge/internal/domain/repository"
	"github.com/qj0r9j0vc2/button-bridge/internal/usecase/interact"
)

const (
	maxChoices      = 25
	choicesPerRow   = 5
	historyLimit    = 5
	destructiveFlag = "--destructive"
	pageFooter      = "\n\nPage {current_page_plus_one}/{total_pages}"
	pageFormat      = "{content}" + pageFooter

	// maxMessageChars is Discord's message length limit. Slack allows more.
	maxMessageChars  = 2000
	defaultPageChars = 2000
)

// Replier posts plain replies to a channel.
type Replier interface {
	SendMessage(ctx context.Context, channelID string, msg entity.OutgoingMessage) (string, error)
}

// CommandMetrics counts handled commands.
type CommandMetrics interface {
	RecordCommand(ctx context.Context, platform, name string, success bool)
}

// CommandRouter turns chat commands into interactive sessions.
type CommandRouter struct {
	runtime  *interact.Runtime
	replier  Replier
	history  repository.SessionRecordRepository
	platform string
	prefix   string
	logger   logger.Logger
	metrics  CommandMetrics
	tracer   trace.Tracer

	mu       sync.RWMutex
	maxChars int
	minChars int
}

// CommandRouterConfig holds the collaborators of a CommandRouter. History,
// Metrics and Tracer are optional.
type CommandRouterConfig struct {
	Runtime  *interact.Runtime
	Replier  Replier
	History  repository.SessionRecordRepository
	Platform string
	Prefix   string
	Logger   logger.Logger
	Metrics  CommandMetrics
	Tracer   trace.Tracer
	MaxChars int
	MinChars int
}

// NewCommandRouter creates a router.
func NewCommandRouter(cfg CommandRouterConfig) *CommandRouter {
	r := &CommandRouter{
		runtime:  cfg.Runtime,
		replier:  cfg.Replier,
		history:  cfg.History,
		platform: cfg.Platform,
		prefix:   cfg.Prefix,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		tracer:   cfg.Tracer,
	}
	if r.logger == nil {
		r.logger = logger.Nop{}
	}
	if r.tracer == nil {
		r.tracer = noop.NewTracerProvider().Tracer("")
	}
	r.SetPageLimits(cfg.MaxChars, cfg.MinChars)
	return r
}

// SetPageLimits changes how the pages command splits text.
// Zero values fall back to the paginator defaults.
func (r *CommandRouter) SetPageLimits(maxChars, minChars int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.maxChars = maxChars
	r.minChars = minChars
}

func (r *CommandRouter) pageLimits() (int, int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.maxChars, r.minChars
}

// HandleCommand runs cmd to completion. Session commands block until the
// session ends. Unknown commands are ignored.
func (r *CommandRouter) HandleCommand(ctx context.Context, cmd entity.Command) error {
	var run func(context.Context, entity.Command) error
	switch cmd.Name {
	case "confirm":
		run = r.confirm
	case "choose":
		run = r.choose
	case "pages":
		run = r.pages
	case "history":
		run = r.showHistory
	case "help":
		run = r.help
	default:
		r.logger.Debug("ignoring unknown command", "command", cmd.Name)
		return nil
	}

	ctx, span := r.tracer.Start(ctx, "command."+cmd.Name, trace.WithAttributes(
		attribute.String("platform", r.platform),
		attribute.String("channel_id", cmd.ChannelID),
		attribute.String("user_id", cmd.UserID),
	))
	defer span.End()

	err := run(ctx, cmd)
	if err != nil && isUsageError(err) {
		r.logger.Debug("rejected command input", "command", cmd.Name, "error", err)
		err = r.reply(ctx, cmd.ChannelID, "Invalid input: "+err.Error())
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if r.metrics != nil {
		r.metrics.RecordCommand(ctx, r.platform, cmd.Name, err == nil)
	}
	if err != nil {
		return fmt.Errorf("command %s: %w", cmd.Name, err)
	}
	return nil
}

func (r *CommandRouter) confirm(ctx context.Context, cmd entity.Command) error {
	text := cmd.Args
	destructive := false
	if rest, ok := strings.CutPrefix(text, destructiveFlag); ok && (rest == "" || rest[0] == ' ') {
		destructive = true
		text = strings.TrimSpace(rest)
	}
	if text == "" {
		return r.usage(ctx, cmd.ChannelID, "confirm [--destructive] <question>")
	}

	confirmation, err := r.runtime.NewConfirmation(invocation(cmd), text, interact.ConfirmationOptions{
		Destructive:    destructive,
		ConfirmMessage: fmt.Sprintf("%s\nConfirmed by <@%s>", text, cmd.UserID),
		CancelMessage:  fmt.Sprintf("%s\nCancelled", text),
	})
	if err != nil {
		return err
	}

	_, err = confirmation.Run(ctx)
	return err
}

func (r *CommandRouter) choose(ctx context.Context, cmd entity.Command) error {
	options := parseChoices(cmd.Args)
	if len(options) == 0 {
		return r.usage(ctx, cmd.ChannelID, "choose <a> <b> ... or choose <a> | <b> | ...")
	}
	if len(options) > maxChoices {
		return r.reply(ctx, cmd.ChannelID, fmt.Sprintf("At most %d options are supported.", maxChoices))
	}

	rows, err := ChoiceRows(options)
	if err != nil {
		return err
	}

	prompt, err := r.runtime.NewMultipleChoice(invocation(cmd), "Pick one:", rows, interact.MultipleChoiceOptions{})
	if err != nil {
		return err
	}

	choice, err := prompt.Run(ctx)
	if err != nil {
		return err
	}

	if choice == interact.NoChoice {
		return r.reply(ctx, cmd.ChannelID, "No option was chosen.")
	}
	i, ok := choiceIndex(choice)
	if !ok || i >= len(options) {
		return fmt.Errorf("unexpected choice %q", choice)
	}
	return r.reply(ctx, cmd.ChannelID, fmt.Sprintf("<@%s> chose %s", cmd.UserID, options[i]))
}

func (r *CommandRouter) pages(ctx context.Context, cmd entity.Command) error {
	if strings.TrimSpace(cmd.Args) == "" {
		return r.usage(ctx, cmd.ChannelID, "pages <text>")
	}

	maxChars, minChars := r.pageLimits()
	maxChars, minChars = fitPageLimits(cmd.Args, maxChars, minChars)
	paginator, err := r.runtime.NewPaginatorFromContent(invocation(cmd), cmd.Args, interact.ContentOptions{
		MaxChars: maxChars,
		MinChars: minChars,
		Format:   pageFormat,
	})
	if err != nil {
		return err
	}

	_, err = paginator.Run(ctx)
	return err
}

func (r *CommandRouter) showHistory(ctx context.Context, cmd entity.Command) error {
	if r.history == nil {
		return r.reply(ctx, cmd.ChannelID, "Session history is not available.")
	}

	records, err := r.history.FindByUser(ctx, cmd.UserID, historyLimit)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}
	return r.reply(ctx, cmd.ChannelID, FormatHistory(records))
}

func (r *CommandRouter) help(ctx context.Context, cmd entity.Command) error {
	p := r.prefix
	text := strings.Join([]string{
		"Commands:",
		p + "confirm [--destructive] <question>  ask for confirmation",
		p + "choose <a> <b> ...  pick one of up to 25 options",
		p + "pages <text>  page through long text",
		p + "history  your last sessions",
	}, "\n")
	return r.reply(ctx, cmd.ChannelID, text)
}

func (r *CommandRouter) usage(ctx context.Context, channelID, syntax string) error {
	return r.reply(ctx, channelID, "Usage: "+r.prefix+syntax)
}

func (r *CommandRouter) reply(ctx context.Context, channelID, text string) error {
	if _, err := r.replier.SendMessage(ctx, channelID, entity.OutgoingMessage{Content: text}); err != nil {
		return fmt.Errorf("sending reply: %w", err)
	}
	return nil
}

func invocation(cmd entity.Command) entity.Invocation {
	return entity.Invocation{ChannelID: cmd.ChannelID, UserID: cmd.UserID}
}

// parseChoices splits on "|" when present, otherwise on whitespace.
func parseChoices(args string) []string {
	var parts []string
	if strings.Contains(args, "|") {
		parts = strings.Split(args, "|")
	} else {
		parts = strings.Fields(args)
	}

	options := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			options = append(options, p)
		}
	}
	return options
}

// ChoiceRows lays options out as primary buttons, five per row, with custom
// IDs "choice_<n>".
func ChoiceRows(options []string) ([]entity.ActionRow, error) {
	rows := make([]entity.ActionRow, 0, (len(options)+choicesPerRow-1)/choicesPerRow)
	for start := 0; start < len(options); start += choicesPerRow {
		end := min(start+choicesPerRow, len(options))

		buttons := make([]entity.Button, 0, end-start)
		for i := start; i < end; i++ {
			b, err := entity.NewButton(entity.ButtonStylePrimary, options[i], fmt.Sprintf("choice_%d", i))
			if err != nil {
				return nil, err
			}
			buttons = append(buttons, b)
		}

		row, err := entity.NewActionRow(buttons...)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func choiceIndex(customID string) (int, bool) {
	rest, ok := strings.CutPrefix(customID, "choice_")
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(rest)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

// fitPageLimits shrinks the content limit so that a page plus its footer
// stays within maxMessageChars. The footer is sized for the largest page
// count content could produce: one rune per page plus a trailing empty page.
func fitPageLimits(content string, maxChars, minChars int) (int, int) {
	if maxChars <= 0 {
		maxChars = defaultPageChars
	}

	digits := len(strconv.Itoa(utf8.RuneCountInString(content) + 1))
	footer := strings.NewReplacer(
		interact.PlaceholderCurrentPagePlusOne, strings.Repeat("9", digits),
		interact.PlaceholderTotalPages, strings.Repeat("9", digits),
	).Replace(pageFooter)

	maxChars = max(1, min(maxChars, maxMessageChars-utf8.RuneCountInString(footer)))
	if minChars >= maxChars {
		minChars = maxChars * 3 / 4
	}
	return maxChars, minChars
}

// FormatHistory renders session records as one line each.
func FormatHistory(records []*entity.SessionRecord) string {
	if len(records) == 0 {
		return "No sessions yet."
	}

	var b strings.Builder
	b.WriteString("Recent sessions:")
	for _, rec := range records {
		fmt.Fprintf(&b, "\n%s  %s  %s", rec.EndedAt.UTC().Format(time.DateTime), rec.Kind, rec.Outcome)
		if rec.Choice != "" {
			fmt.Fprintf(&b, " (%s)", rec.Choice)
		}
		if rec.Kind == entity.SessionKindPaginator {
			fmt.Fprintf(&b, " (page %d)", rec.PageIndex+1)
		}
	}
	return b.String()
}

func isUsageError(err error) bool {
	return entity.IsValidationError(err) ||
		errors.Is(err, entity.ErrInvalidSplit) ||
		errors.Is(err, entity.ErrNoPages)
}
