package app

import (
	"context"
	"fmt"

	"github.com/qj0r9j0vc2/button-bridge/internal/adapter/handler"
	"github.com/qj0r9j0vc2/button-bridge/internal/infrastructure/config"
	"github.com/qj0r9j0vc2/button-bridge/internal/infrastructure/discord"
	"github.com/qj0r9j0vc2/button-bridge/internal/infrastructure/eventbus"
	"github.com/qj0r9j0vc2/button-bridge/internal/infrastructure/resilience"
	infraslack "github.com/qj0r9j0vc2/button-bridge/internal/infrastructure/slack"
	"github.com/qj0r9j0vc2/button-bridge/internal/usecase/interact"
)

// Connection is the long-lived inbound side of a chat platform.
type Connection interface {
	Run(ctx context.Context) error
	IsConnected() bool
}

// Clients holds the selected chat platform.
type Clients struct {
	Name     string
	Platform interact.Platform
	Conn     Connection

	discord *discord.Gateway
	slack   *infraslack.SocketModeClient
}

func (app *Application) initializeClients() error {
	log := app.logger.Adapter()
	breakerOpts := []resilience.Option{
		resilience.WithHalfOpenSuccesses(1),
		resilience.WithStateChange(app.onBreakerStateChange),
	}

	switch app.config.Platform {
	case config.PlatformDiscord:
		gateway, err := discord.NewGateway(
			app.config.Discord.BotToken,
			app.config.Discord.CommandPrefix,
			log,
			breakerOpts...,
		)
		if err != nil {
			return fmt.Errorf("discord: %w", err)
		}
		app.clients = &Clients{
			Name:     config.PlatformDiscord,
			Platform: discord.NewClient(gateway.Session()),
			Conn:     gateway,
			discord:  gateway,
		}

	case config.PlatformSlack:
		sm, err := infraslack.NewSocketModeClient(
			app.config.Slack.BotToken,
			app.config.Slack.SocketMode,
			app.config.Slack.CommandPrefix,
			log,
			breakerOpts...,
		)
		if err != nil {
			return fmt.Errorf("slack: %w", err)
		}
		app.clients = &Clients{
			Name:     config.PlatformSlack,
			Platform: infraslack.NewClient(sm.SlackAPI(), sm),
			Conn:     sm,
			slack:    sm,
		}

	default:
		return fmt.Errorf("unknown platform: %s", app.config.Platform)
	}

	app.logger.Get().Info("chat platform selected",
		"platform", app.clients.Name,
		"command_prefix", app.config.CommandPrefix(),
	)
	return nil
}

// attach routes inbound clicks to bus and commands to the router.
func (c *Clients) attach(bus *eventbus.Bus, commands *handler.CommandRouter) {
	switch {
	case c.discord != nil:
		c.discord.SetPublisher(bus)
		c.discord.SetCommandHandler(commands)
	case c.slack != nil:
		c.slack.SetPublisher(bus)
		c.slack.SetCommandHandler(commands)
	}
}

func (app *Application) onBreakerStateChange(name string, from, to resilience.State) {
	app.logger.Get().Warn("circuit breaker state changed",
		"breaker", name,
		"from", from.String(),
		"to", to.String(),
	)
	app.telemetry.Metrics.RecordCircuitStateChange(context.Background(), name, from.String(), to.String())
}
