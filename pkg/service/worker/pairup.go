package worker

import (
	"context"
	"net/url"
	"time"

	"github.com/secmon-lab/onramp/pkg/domain/interfaces"
	"github.com/secmon-lab/onramp/pkg/domain/model"
	"github.com/secmon-lab/onramp/pkg/service/matchmaker"
	"github.com/secmon-lab/onramp/pkg/utils/errutil"
	"github.com/secmon-lab/onramp/pkg/utils/logging"
)

// PairUpWorker runs the peer matchmaking cycle: once per interval it
// asks the matcher for one cross-cohort pair and notifies both sides.
type PairUpWorker struct {
	*runner
	repo     interfaces.Repository
	notifier interfaces.Notifier
	matcher  *matchmaker.Matcher
	baseURL  string
}

// NewPairUpWorker creates the pair-up scheduler
func NewPairUpWorker(repo interfaces.Repository, notifier interfaces.Notifier, matcher *matchmaker.Matcher, baseURL string, opts ...Option) *PairUpWorker {
	w := &PairUpWorker{
		repo:     repo,
		notifier: notifier,
		matcher:  matcher,
		baseURL:  baseURL,
	}
	w.runner = newRunner("pair-up", 24*time.Hour, w.cycle)
	for _, opt := range opts {
		opt(w.runner)
	}
	return w
}

func (w *PairUpWorker) cycle(ctx context.Context) error {
	now := w.now()

	users, err := w.repo.User().ListActivated(ctx)
	if err != nil {
		return err
	}

	pair := w.matcher.Match(users, now)
	if pair == nil {
		logging.From(ctx).Info("no pair produced this cycle", "candidates", len(users))
		return nil
	}

	// Each side gets a card naming the other party. A failure on one
	// side never blocks the other.
	w.notifySide(ctx, pair.A, pair.B)
	w.notifySide(ctx, pair.B, pair.A)

	logging.From(ctx).Info("pair-up delivered", "a", pair.A.ID, "b", pair.B.ID)
	return nil
}

func (w *PairUpWorker) notifySide(ctx context.Context, recipient, other *model.User) {
	if recipient.Conversation.IsZero() {
		logging.From(ctx).Warn("pair-up recipient has no conversation", "user", recipient.ID)
		return
	}

	msg := &model.Notification{
		Kind:  model.NotificationPairUp,
		Title: "Time to meet someone new!",
		Body:  "You have been matched with " + other.DisplayName + " for a casual chat this week.",
		Fields: []model.NotificationField{
			{Label: "Your match", Value: other.DisplayName},
			{Label: "Contact", Value: other.UserPrincipalName},
		},
		Actions: []model.NotificationAction{
			{Label: "Start a chat", URL: w.baseURL + "/pairup/chat?user=" + url.QueryEscape(other.ID.String())},
			{Label: "Propose a meeting", URL: w.baseURL + "/pairup/meet?user=" + url.QueryEscape(other.ID.String())},
			{Label: "Pause matches", URL: w.baseURL + "/pairup/pause"},
		},
	}

	if err := w.notifier.Send(ctx, msg, recipient.Conversation); err != nil {
		errutil.Handle(ctx, err, "failed to deliver pair-up notification")
	}
}
