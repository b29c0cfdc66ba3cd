package slack

import (
	"context"

	"github.com/secmon-lab/onramp/pkg/domain/interfaces"
	"github.com/secmon-lab/onramp/pkg/domain/model"
)

// Service delivers engine notifications to Slack conversations. It is
// the chat-surface implementation of the Notifier contract.
type Service interface {
	interfaces.Notifier

	// OpenConversation opens (or resumes) a direct message conversation
	// with a user and returns its conversation reference.
	OpenConversation(ctx context.Context, slackUserID string) (model.ConversationRef, error)
}
