package interfaces

import (
	"context"

	"github.com/secmon-lab/onramp/pkg/domain/model"
)

// Notifier delivers a notification payload to a stored conversation.
// Send must be safe to call again for the same payload: the bounded
// retry policy may invoke it up to 3 times per call site.
type Notifier interface {
	Send(ctx context.Context, msg *model.Notification, conv model.ConversationRef) error
}
