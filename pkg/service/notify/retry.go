package notify

import (
	"context"
	"math/rand"
	"time"

	"github.com/secmon-lab/onramp/pkg/domain/interfaces"
	"github.com/secmon-lab/onramp/pkg/domain/model"
	"github.com/secmon-lab/onramp/pkg/domain/types"
	"github.com/secmon-lab/onramp/pkg/utils/logging"
)

const (
	// maxRetries is the number of retries after the first attempt.
	// Every call site makes at most 3 attempts in total.
	maxRetries = 2

	baseDelay = 1 * time.Second
	maxDelay  = 30 * time.Second
)

// RetryNotifier decorates a Notifier with a bounded retry. Only
// rate-limit and server-error class failures are retried; everything
// else propagates immediately. Backoff uses decorrelated jitter
// starting at baseDelay.
type RetryNotifier struct {
	inner interfaces.Notifier
	sleep func(time.Duration)
}

var _ interfaces.Notifier = &RetryNotifier{}

// Option is a functional option for RetryNotifier configuration
type Option func(*RetryNotifier)

// WithSleep overrides the sleep function, for tests
func WithSleep(f func(time.Duration)) Option {
	return func(n *RetryNotifier) {
		n.sleep = f
	}
}

// NewRetryNotifier wraps the given notifier with the retry policy
func NewRetryNotifier(inner interfaces.Notifier, opts ...Option) *RetryNotifier {
	n := &RetryNotifier{
		inner: inner,
		sleep: time.Sleep,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Send delivers the notification, retrying transient delivery failures
// up to maxRetries times.
func (n *RetryNotifier) Send(ctx context.Context, msg *model.Notification, conv model.ConversationRef) error {
	delay := baseDelay

	for attempt := 0; ; attempt++ {
		err := n.inner.Send(ctx, msg, conv)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries || !types.IsRetryableDelivery(err) {
			return err
		}

		logging.From(ctx).Warn("transient delivery failure, retrying",
			"kind", msg.Kind,
			"conversation", conv.ID,
			"attempt", attempt+1,
			"delay", delay.String(),
			"error", err.Error(),
		)

		n.sleep(delay)
		delay = n.nextDelay(delay)
	}
}

// nextDelay computes a decorrelated-jitter backoff: a random duration
// between baseDelay and three times the previous delay, capped. Uses
// the shared top-level source so one notifier can serve concurrent
// senders.
func (n *RetryNotifier) nextDelay(prev time.Duration) time.Duration {
	upper := prev * 3
	if upper > maxDelay {
		upper = maxDelay
	}
	span := upper - baseDelay
	if span <= 0 {
		return baseDelay
	}
	return baseDelay + time.Duration(rand.Int63n(int64(span)))
}
