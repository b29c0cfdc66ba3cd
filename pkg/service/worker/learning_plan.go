package worker

import (
	"context"
	"strings"
	"time"

	"github.com/secmon-lab/onramp/pkg/domain/interfaces"
	"github.com/secmon-lab/onramp/pkg/domain/model"
	"github.com/secmon-lab/onramp/pkg/domain/model/config"
	"github.com/secmon-lab/onramp/pkg/utils/errutil"
	"github.com/secmon-lab/onramp/pkg/utils/logging"
)

// LearningPlanWorker delivers the weekly learning-plan card. Every
// Monday each configured plan week is sent to the cohort of users whose
// install age falls into that week's 7-day bucket.
type LearningPlanWorker struct {
	*runner
	repo     interfaces.Repository
	notifier interfaces.Notifier
	weeks    []config.LearningWeek
}

// Option is a functional option shared by the scheduler workers
type Option func(*runner)

// WithInterval overrides the scheduling interval
func WithInterval(d time.Duration) Option {
	return func(r *runner) {
		r.interval = d
	}
}

// WithClock overrides the time source, for tests
func WithClock(now func() time.Time) Option {
	return func(r *runner) {
		r.now = now
	}
}

// WithCheckpoints enables the persisted last-run marker
func WithCheckpoints(repo interfaces.CheckpointRepository) Option {
	return func(r *runner) {
		r.checkpoints = repo
	}
}

// NewLearningPlanWorker creates the weekly learning-plan scheduler
func NewLearningPlanWorker(repo interfaces.Repository, notifier interfaces.Notifier, weeks []config.LearningWeek, opts ...Option) *LearningPlanWorker {
	w := &LearningPlanWorker{
		repo:     repo,
		notifier: notifier,
		weeks:    weeks,
	}
	w.runner = newRunner("learning-plan", 24*time.Hour, w.cycle)
	for _, opt := range opts {
		opt(w.runner)
	}
	return w
}

func (w *LearningPlanWorker) cycle(ctx context.Context) error {
	now := w.now()
	if now.Weekday() != time.Monday {
		logging.From(ctx).Debug("learning plan skipped, not Monday", "weekday", now.Weekday().String())
		return nil
	}
	if w.ranOn(ctx, now) {
		logging.From(ctx).Info("learning plan already ran today")
		return nil
	}

	users, err := w.repo.User().ListActivated(ctx)
	if err != nil {
		return err
	}

	// One failing week never interrupts the others, and one failing
	// recipient never interrupts the rest of its cohort.
	for i, week := range w.weeks {
		w.sendWeek(ctx, i+1, week, users, now)
	}

	w.markRan(ctx, now)
	return nil
}

func (w *LearningPlanWorker) sendWeek(ctx context.Context, weekNum int, week config.LearningWeek, users []*model.User, now time.Time) {
	lower := time.Duration(weekNum-1) * 7 * 24 * time.Hour
	upper := time.Duration(weekNum) * 7 * 24 * time.Hour

	var sent int
	for _, u := range users {
		tenure := u.Tenure(now)
		if tenure < lower || tenure >= upper {
			continue
		}
		if u.Conversation.IsZero() {
			continue
		}

		msg := &model.Notification{
			Kind:  model.NotificationLearningPlan,
			Title: week.Title,
			Body:  "• " + strings.Join(week.Items, "\n• "),
		}
		if err := w.notifier.Send(ctx, msg, u.Conversation); err != nil {
			errutil.Handle(ctx, err, "failed to send learning plan")
			continue
		}
		sent++
	}

	logging.From(ctx).Info("learning plan week delivered", "week", weekNum, "sent", sent)
}
