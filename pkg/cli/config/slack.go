package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	slacksvc "github.com/secmon-lab/onramp/pkg/service/slack"
	"github.com/urfave/cli/v3"
)

// Slack holds CLI flags for the chat-surface notifier
type Slack struct {
	botToken string `masq:"secret"`
}

// Flags returns CLI flags for Slack configuration
func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token",
			Category:    "Slack",
			Sources:     cli.EnvVars("ONRAMP_SLACK_BOT_TOKEN"),
			Destination: &x.botToken,
		},
	}
}

// LogValue never exposes the token itself
func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("bot-token.len", len(x.botToken)),
	)
}

// IsConfigured reports whether a bot token was provided
func (x *Slack) IsConfigured() bool {
	return x.botToken != ""
}

// Configure creates the Slack notification service
func (x *Slack) Configure() (slacksvc.Service, error) {
	if x.botToken == "" {
		return nil, goerr.New("slack-bot-token is required")
	}
	return slacksvc.New(x.botToken)
}
