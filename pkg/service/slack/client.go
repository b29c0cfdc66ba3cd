package slack

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/onramp/pkg/domain/model"
	"github.com/secmon-lab/onramp/pkg/domain/types"
	"github.com/slack-go/slack"
)

// client implements Service over the Slack Web API
type client struct {
	api      *slack.Client
	endpoint string
}

var _ Service = &client{}

// Option is a functional option for client configuration
type Option func(*client)

// WithEndpoint sets the service endpoint recorded on conversation
// references opened by this client.
func WithEndpoint(endpoint string) Option {
	return func(c *client) {
		c.endpoint = endpoint
	}
}

// New creates a new Slack service with the provided bot token
func New(token string, opts ...Option) (Service, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}

	c := &client{
		api:      slack.New(token),
		endpoint: "https://slack.com/api/",
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Send renders the notification to minimal Block Kit and posts it to
// the stored conversation. Failures are tagged so the retry decorator
// can classify them.
func (c *client) Send(ctx context.Context, msg *model.Notification, conv model.ConversationRef) error {
	if err := conv.Validate(); err != nil {
		return goerr.Wrap(err, "cannot send to incomplete conversation reference")
	}

	blocks := renderBlocks(msg)
	_, _, err := c.api.PostMessageContext(ctx, conv.ID.String(),
		slack.MsgOptionBlocks(blocks...),
		slack.MsgOptionText(msg.Title, false),
	)
	if err != nil {
		return classifyError(err, conv)
	}
	return nil
}

// OpenConversation opens a direct message conversation with a user
func (c *client) OpenConversation(ctx context.Context, slackUserID string) (model.ConversationRef, error) {
	ch, _, _, err := c.api.OpenConversationContext(ctx, &slack.OpenConversationParameters{
		Users: []string{slackUserID},
	})
	if err != nil {
		return model.ConversationRef{}, goerr.Wrap(err, "failed to open conversation", goerr.V("user", slackUserID))
	}
	return model.ConversationRef{
		ID:              types.ConversationID(ch.ID),
		ServiceEndpoint: c.endpoint,
	}, nil
}

// classifyError tags rate-limit and server-error class failures as
// retryable for the bounded retry policy.
func classifyError(err error, conv model.ConversationRef) error {
	var rateErr *slack.RateLimitedError
	if errors.As(err, &rateErr) {
		return goerr.Wrap(err, "slack rate limited",
			goerr.T(types.ErrTagRateLimited),
			goerr.V("conversation", conv.ID),
			goerr.V("retry_after", rateErr.RetryAfter.String()),
		)
	}

	var statusErr slack.StatusCodeError
	if errors.As(err, &statusErr) && statusErr.Code >= 500 {
		return goerr.Wrap(err, "slack server error",
			goerr.T(types.ErrTagServerError),
			goerr.V("conversation", conv.ID),
			goerr.V("status", statusErr.Code),
		)
	}

	return goerr.Wrap(err, "failed to post message", goerr.V("conversation", conv.ID))
}

func renderBlocks(msg *model.Notification) []slack.Block {
	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, msg.Title, false, false)),
	}

	if msg.Body != "" {
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, msg.Body, false, false), nil, nil))
	}

	if len(msg.Fields) > 0 {
		fields := make([]*slack.TextBlockObject, 0, len(msg.Fields))
		for _, f := range msg.Fields {
			fields = append(fields, slack.NewTextBlockObject(slack.MarkdownType,
				"*"+f.Label+"*\n"+f.Value, false, false))
		}
		blocks = append(blocks, slack.NewSectionBlock(nil, fields, nil))
	}

	if len(msg.Actions) > 0 {
		elems := make([]slack.BlockElement, 0, len(msg.Actions))
		for _, a := range msg.Actions {
			btn := slack.NewButtonBlockElement("", a.Label,
				slack.NewTextBlockObject(slack.PlainTextType, a.Label, false, false))
			if a.URL != "" {
				btn.URL = a.URL
			}
			elems = append(elems, btn)
		}
		blocks = append(blocks, slack.NewActionBlock(string(msg.Kind), elems...))
	}

	return blocks
}
