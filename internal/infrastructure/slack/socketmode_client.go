package slack

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/qj0r9j0vc2/button-bridge/internal/domain/entity"
	"github.com/qj0r9j0vc2/button-bridge/internal/domain/logger"
	"github.com/qj0r9j0vc2/button-bridge/internal/infrastructure/config"
	"github.com/qj0r9j0vc2/button-bridge/internal/infrastructure/resilience"
)

// Publisher fans interaction events out to live sessions and reports how
// many sessions matched.
type Publisher interface {
	Publish(evt entity.InteractionEvent) int
}

// CommandHandler runs a text or slash command. It may block for the whole
// lifetime of the session it starts.
type CommandHandler interface {
	HandleCommand(ctx context.Context, cmd entity.Command) error
}

// SocketModeClient receives Slack interactions over Socket Mode and feeds
// them to the event bus.
type SocketModeClient struct {
	client        *socketmode.Client
	slackAPI      *slack.Client
	cfg           config.SocketModeConfig
	commandPrefix string
	logger        logger.Logger
	reconnectCfg  ReconnectionConfig
	breaker       *resilience.CircuitBreaker

	publisher Publisher
	commands  CommandHandler
	inflight  sync.WaitGroup

	connected     atomic.Bool
	botUserID     string
	connectionID  string
	lastReconnect time.Time
}

// NewSocketModeClient creates a new Socket Mode client.
func NewSocketModeClient(botToken string, cfg config.SocketModeConfig, commandPrefix string, log logger.Logger, breakerOpts ...resilience.Option) (*SocketModeClient, error) {
	if cfg.AppToken == "" {
		return nil, fmt.Errorf("socket mode app token is required")
	}
	if botToken == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	apiOpts := []slack.Option{
		slack.OptionDebug(cfg.Debug),
		slack.OptionAppLevelToken(cfg.AppToken),
	}
	smOpts := []socketmode.Option{socketmode.OptionDebug(cfg.Debug)}
	if cfg.Debug {
		apiOpts = append(apiOpts, slack.OptionLog(newDebugLogger(log, "slack-api")))
		smOpts = append(smOpts, socketmode.OptionLog(newDebugLogger(log, "slack-socketmode")))
	}

	slackAPI := slack.New(botToken, apiOpts...)
	socketClient := socketmode.New(slackAPI, smOpts...)

	reconnectCfg := DefaultReconnectionConfig()

	return &SocketModeClient{
		client:        socketClient,
		slackAPI:      slackAPI,
		cfg:           cfg,
		commandPrefix: commandPrefix,
		logger:        log,
		reconnectCfg:  reconnectCfg,
		breaker:       resilience.NewCircuitBreaker("slack-socketmode", reconnectCfg.MaxRetries, reconnectCfg.MaxBackoff, breakerOpts...),
	}, nil
}

// SetPublisher sets where button clicks are published.
func (c *SocketModeClient) SetPublisher(p Publisher) {
	c.publisher = p
}

// SetCommandHandler sets the command handler.
func (c *SocketModeClient) SetCommandHandler(handler CommandHandler) {
	c.commands = handler
}

// Connect verifies the credentials, backing off between failed attempts
// until the circuit breaker opens.
func (c *SocketModeClient) Connect(ctx context.Context) error {
	for attempt := 0; ; attempt++ {
		err := c.breaker.Execute(ctx, func() error {
			return c.attemptConnection(ctx)
		})
		if err == nil {
			c.connected.Store(true)
			c.lastReconnect = time.Now()
			c.logger.Info("Connected to Slack",
				"connection_id", c.connectionID,
				"attempt", attempt+1)
			return nil
		}

		if errors.Is(err, resilience.ErrCircuitOpen) || c.breaker.State() == resilience.StateOpen {
			c.logger.Error("Circuit breaker is open, giving up on Slack",
				"failures", c.breaker.Failures(),
				"error", err)
			return fmt.Errorf("connecting to slack: %w", err)
		}

		backoff := CalculateBackoff(c.reconnectCfg, attempt)
		c.logger.Warn("Failed to connect to Slack, retrying",
			"error", err,
			"attempt", attempt+1,
			"backoff", backoff.String())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
}

func (c *SocketModeClient) attemptConnection(ctx context.Context) error {
	authTest, err := c.slackAPI.AuthTestContext(ctx)
	if err != nil {
		return categorizeSlackError(err, "auth test")
	}

	c.connectionID = authTest.TeamID
	c.botUserID = authTest.UserID
	c.logger.Debug("Auth test passed",
		"team_id", authTest.TeamID,
		"user_id", authTest.UserID)
	return nil
}

// Run connects and serves Socket Mode events until ctx is done. It waits
// for in-flight commands before returning.
func (c *SocketModeClient) Run(ctx context.Context) error {
	if c.publisher == nil {
		return fmt.Errorf("slack socket mode: no publisher set")
	}
	if err := c.Connect(ctx); err != nil {
		return err
	}

	go c.runEventLoop(ctx)

	err := c.client.RunContext(ctx)
	c.connected.Store(false)
	c.inflight.Wait()

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (c *SocketModeClient) runEventLoop(ctx context.Context) {
	c.logger.Info("Starting Socket Mode event loop")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Context cancelled, stopping event loop")
			return

		case evt, ok := <-c.client.Events:
			if !ok {
				return
			}
			c.handleSocketModeEvent(ctx, evt)
		}
	}
}

func (c *SocketModeClient) handleSocketModeEvent(ctx context.Context, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		c.logger.Info("Connecting to Slack Socket Mode")

	case socketmode.EventTypeConnectionError:
		c.connected.Store(false)
		c.logger.Error("Socket Mode connection error", "error", evt.Data)

	case socketmode.EventTypeConnected:
		c.connected.Store(true)
		c.logger.Info("Connected to Slack via Socket Mode")

	case socketmode.EventTypeInteractive:
		callback, ok := evt.Data.(slack.InteractionCallback)
		if !ok || evt.Request == nil {
			c.logger.Error("Failed to cast interaction callback event")
			return
		}
		c.handleInteraction(callback, *evt.Request)

	case socketmode.EventTypeSlashCommand:
		cmd, ok := evt.Data.(slack.SlashCommand)
		if !ok || evt.Request == nil {
			c.logger.Error("Failed to cast slash command event")
			return
		}
		c.client.Ack(*evt.Request)
		c.dispatch(ctx, translateSlashCommand(cmd))

	case socketmode.EventTypeEventsAPI:
		eventsAPI, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok || evt.Request == nil {
			c.logger.Error("Failed to cast events API event")
			return
		}
		c.client.Ack(*evt.Request)

		if cmd, ok := translateMessageEvent(eventsAPI, c.commandPrefix, c.botUserID); ok {
			c.dispatch(ctx, cmd)
		}

	default:
		c.logger.Debug("Unhandled Socket Mode event", "type", evt.Type)
	}
}

// handleInteraction publishes block action clicks. The owning session acks
// the envelope; clicks nobody waits for are acked here.
func (c *SocketModeClient) handleInteraction(callback slack.InteractionCallback, req socketmode.Request) {
	events := translateBlockActions(callback, req.EnvelopeID)
	if len(events) == 0 {
		c.client.Ack(req)
		return
	}

	matched := 0
	for _, e := range events {
		matched += c.publisher.Publish(e)
	}
	if matched == 0 {
		c.logger.Debug("Acknowledging click with no live session",
			"message_ts", events[0].MessageID,
			"action_id", events[0].CustomID)
		c.client.Ack(req)
	}
}

func (c *SocketModeClient) dispatch(ctx context.Context, cmd entity.Command) {
	if c.commands == nil {
		return
	}

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		if err := c.commands.HandleCommand(ctx, cmd); err != nil {
			c.logger.Error("Failed to handle command",
				"command", cmd.Name,
				"channel_id", cmd.ChannelID,
				"error", err)
		}
	}()
}

// IsConnected returns true if the client is currently connected.
func (c *SocketModeClient) IsConnected() bool {
	return c.connected.Load()
}

// ConnectionID returns the team ID reported by the last auth test.
func (c *SocketModeClient) ConnectionID() string {
	return c.connectionID
}

// LastReconnect returns the timestamp of the last successful connection.
func (c *SocketModeClient) LastReconnect() time.Time {
	return c.lastReconnect
}

// SlackAPI returns the underlying Slack API client.
func (c *SocketModeClient) SlackAPI() *slack.Client {
	return c.slackAPI
}

// Ack acknowledges a Socket Mode envelope.
func (c *SocketModeClient) Ack(req socketmode.Request, payload ...interface{}) {
	c.client.Ack(req, payload...)
}

// translateBlockActions turns a block_actions callback into click events.
// The envelope ID doubles as the ack token.
func translateBlockActions(callback slack.InteractionCallback, envelopeID string) []entity.InteractionEvent {
	if callback.Type != slack.InteractionTypeBlockActions {
		return nil
	}

	messageTS := callback.Message.Timestamp
	if messageTS == "" {
		messageTS = callback.Container.MessageTs
	}
	channelID := callback.Channel.ID
	if channelID == "" {
		channelID = callback.Container.ChannelID
	}

	events := make([]entity.InteractionEvent, 0, len(callback.ActionCallback.BlockActions))
	for _, action := range callback.ActionCallback.BlockActions {
		if action == nil {
			continue
		}
		events = append(events, entity.InteractionEvent{
			Type:        entity.EventInteractionCreate,
			ChannelID:   channelID,
			MessageID:   messageTS,
			UserID:      callback.User.ID,
			CustomID:    action.ActionID,
			HasCustomID: action.ActionID != "",
			Ack: entity.AckHandle{
				InteractionID: callback.TriggerID,
				Token:         envelopeID,
			},
		})
	}
	return events
}

func translateSlashCommand(cmd slack.SlashCommand) entity.Command {
	return entity.Command{
		Name:      strings.ToLower(strings.TrimPrefix(cmd.Command, "/")),
		Args:      strings.TrimSpace(cmd.Text),
		ChannelID: cmd.ChannelID,
		UserID:    cmd.UserID,
		UserName:  cmd.UserName,
	}
}

// translateMessageEvent extracts a prefixed text command from a channel
// message. Bot messages, including our own, are ignored.
func translateMessageEvent(event slackevents.EventsAPIEvent, prefix, botUserID string) (entity.Command, bool) {
	if event.Type != slackevents.CallbackEvent {
		return entity.Command{}, false
	}
	msg, ok := event.InnerEvent.Data.(*slackevents.MessageEvent)
	if !ok || msg.BotID != "" || msg.SubType != "" || msg.User == "" || msg.User == botUserID {
		return entity.Command{}, false
	}

	name, args, ok := entity.ParseCommand(prefix, msg.Text)
	if !ok {
		return entity.Command{}, false
	}
	return entity.Command{
		Name:      name,
		Args:      args,
		ChannelID: msg.Channel,
		UserID:    msg.User,
	}, true
}
