package discord

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/qj0r9j0vc2/button-bridge/internal/domain/entity"
	"github.com/qj0r9j0vc2/button-bridge/internal/domain/logger"
	"github.com/qj0r9j0vc2/button-bridge/internal/infrastructure/resilience"
)

// Publisher fans interaction events out to live sessions and reports how
// many sessions matched.
type Publisher interface {
	Publish(evt entity.InteractionEvent) int
}

// CommandHandler runs a text command. It may block for the whole lifetime
// of the session it starts.
type CommandHandler interface {
	HandleCommand(ctx context.Context, cmd entity.Command) error
}

const (
	openAttempts = 5
	openBackoff  = 2 * time.Second
)

// Gateway owns the Discord websocket session. Component interactions are
// published to the bus; prefixed messages become commands.
type Gateway struct {
	session       *discordgo.Session
	commandPrefix string
	logger        logger.Logger
	breaker       *resilience.CircuitBreaker

	publisher Publisher
	commands  CommandHandler

	// ctx is the Run context, used by command goroutines.
	ctx      context.Context
	inflight sync.WaitGroup

	connected atomic.Bool
	botUserID atomic.Value
}

// NewGateway creates a gateway for a bot token. Nothing connects until Run.
// breakerOpts configure the breaker guarding connection attempts.
func NewGateway(botToken, commandPrefix string, log logger.Logger, breakerOpts ...resilience.Option) (*Gateway, error) {
	if botToken == "" {
		return nil, fmt.Errorf("discord bot token is required")
	}

	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent
	// Failed calls end the session run instead of being replayed.
	session.MaxRestRetries = 0
	session.ShouldRetryOnRateLimit = false

	g := &Gateway{
		session:       session,
		commandPrefix: commandPrefix,
		logger:        log,
		breaker:       resilience.NewCircuitBreaker("discord-gateway", openAttempts, time.Minute, breakerOpts...),
		ctx:           context.Background(),
	}
	g.botUserID.Store("")

	session.AddHandler(g.onReady)
	session.AddHandler(g.onInteractionCreate)
	session.AddHandler(g.onMessageCreate)
	session.AddHandler(func(_ *discordgo.Session, _ *discordgo.Disconnect) {
		g.connected.Store(false)
		g.logger.Warn("Disconnected from Discord gateway")
	})
	session.AddHandler(func(_ *discordgo.Session, _ *discordgo.Resumed) {
		g.connected.Store(true)
		g.logger.Info("Resumed Discord gateway session")
	})

	return g, nil
}

// Session returns the underlying discordgo session for REST use.
func (g *Gateway) Session() *discordgo.Session {
	return g.session
}

// SetPublisher sets where button clicks are published.
func (g *Gateway) SetPublisher(p Publisher) {
	g.publisher = p
}

// SetCommandHandler sets the command handler.
func (g *Gateway) SetCommandHandler(handler CommandHandler) {
	g.commands = handler
}

// IsConnected reports whether the websocket is up.
func (g *Gateway) IsConnected() bool {
	return g.connected.Load()
}

// Run opens the gateway and blocks until ctx is done, then closes it and
// waits for in-flight commands.
func (g *Gateway) Run(ctx context.Context) error {
	if g.publisher == nil {
		return fmt.Errorf("discord gateway: no publisher set")
	}
	g.ctx = ctx

	if err := g.open(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	g.logger.Info("Closing Discord gateway")
	err := g.session.Close()
	g.connected.Store(false)
	g.inflight.Wait()
	if err != nil {
		return fmt.Errorf("closing discord session: %w", err)
	}
	return nil
}

func (g *Gateway) open(ctx context.Context) error {
	for attempt := 1; ; attempt++ {
		err := g.breaker.Execute(ctx, g.session.Open)
		if err == nil {
			g.connected.Store(true)
			return nil
		}
		if errors.Is(err, resilience.ErrCircuitOpen) || g.breaker.State() == resilience.StateOpen {
			return fmt.Errorf("opening discord gateway: %w", err)
		}

		g.logger.Warn("Failed to open Discord gateway, retrying",
			"error", err,
			"attempt", attempt,
			"backoff", openBackoff.String())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(openBackoff):
		}
	}
}

func (g *Gateway) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	if r.User != nil {
		g.botUserID.Store(r.User.ID)
	}
	g.connected.Store(true)
	g.logger.Info("Connected to Discord gateway",
		"guilds", len(r.Guilds))
}

func (g *Gateway) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	evt, ok := translateInteraction(i)
	if !ok {
		return
	}

	if g.publisher.Publish(evt) > 0 {
		return
	}

	// Nobody waits for this click; answer it so the user does not see a
	// failed interaction.
	g.logger.Debug("Acknowledging click with no live session",
		"message_id", evt.MessageID,
		"custom_id", evt.CustomID)
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err != nil {
		g.logger.Warn("Failed to acknowledge orphan click", "error", err)
	}
}

func (g *Gateway) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	cmd, ok := translateMessage(m, g.commandPrefix, g.botUserID.Load().(string))
	if !ok || g.commands == nil {
		return
	}

	ctx := g.ctx
	g.inflight.Add(1)
	go func() {
		defer g.inflight.Done()
		if err := g.commands.HandleCommand(ctx, cmd); err != nil {
			g.logger.Error("Failed to handle command",
				"command", cmd.Name,
				"channel_id", cmd.ChannelID,
				"error", err)
		}
	}()
}

// translateInteraction normalizes a message component interaction.
func translateInteraction(i *discordgo.InteractionCreate) (entity.InteractionEvent, bool) {
	if i == nil || i.Interaction == nil || i.Type != discordgo.InteractionMessageComponent {
		return entity.InteractionEvent{}, false
	}

	data := i.MessageComponentData()
	evt := entity.InteractionEvent{
		Type:        entity.EventInteractionCreate,
		ChannelID:   i.ChannelID,
		CustomID:    data.CustomID,
		HasCustomID: data.CustomID != "",
		Ack: entity.AckHandle{
			InteractionID: i.ID,
			Token:         i.Token,
		},
	}
	if i.Message != nil {
		evt.MessageID = i.Message.ID
	}
	switch {
	case i.Member != nil && i.Member.User != nil:
		evt.UserID = i.Member.User.ID
	case i.User != nil:
		evt.UserID = i.User.ID
	}
	return evt, true
}

// translateMessage extracts a prefixed text command. Messages from bots,
// including this one, are ignored.
func translateMessage(m *discordgo.MessageCreate, prefix, botUserID string) (entity.Command, bool) {
	if m == nil || m.Message == nil || m.Author == nil || m.Author.Bot || m.Author.ID == botUserID {
		return entity.Command{}, false
	}

	name, args, ok := entity.ParseCommand(prefix, m.Content)
	if !ok {
		return entity.Command{}, false
	}
	return entity.Command{
		Name:      name,
		Args:      args,
		ChannelID: m.ChannelID,
		UserID:    m.Author.ID,
		UserName:  m.Author.Username,
	}, true
}
