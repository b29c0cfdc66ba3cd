package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/secmon-lab/onramp/pkg/domain/interfaces"
	"github.com/secmon-lab/onramp/pkg/domain/model"
	"github.com/secmon-lab/onramp/pkg/domain/model/config"
	"github.com/secmon-lab/onramp/pkg/utils/errutil"
	"github.com/secmon-lab/onramp/pkg/utils/logging"
)

// defaultSurveyBatchSize bounds one send batch of feedback surveys
const defaultSurveyBatchSize = 5

// SurveyWorker sends the feedback survey to new hires of approved
// introductions on Mondays, and a feedback summary to the HR team on
// the first day of each month.
type SurveyWorker struct {
	*runner
	repo     interfaces.Repository
	notifier interfaces.Notifier
	cfg      config.SurveyConfig
}

// NewSurveyWorker creates the survey scheduler
func NewSurveyWorker(repo interfaces.Repository, notifier interfaces.Notifier, cfg config.SurveyConfig, opts ...Option) *SurveyWorker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultSurveyBatchSize
	}
	w := &SurveyWorker{
		repo:     repo,
		notifier: notifier,
		cfg:      cfg,
	}
	w.runner = newRunner("survey", 24*time.Hour, w.cycle)
	for _, opt := range opts {
		opt(w.runner)
	}
	return w
}

func (w *SurveyWorker) cycle(ctx context.Context) error {
	now := w.now()

	if now.Weekday() == time.Monday && !w.ranOn(ctx, now) {
		if err := w.sendSurveys(ctx, now); err != nil {
			return err
		}
		w.markRan(ctx, now)
	}

	if now.Day() == 1 {
		w.sendMonthlySummary(ctx)
	}

	return nil
}

// sendSurveys delivers the survey card in fixed-size batches. The
// survey status flips to Sent only after a successful send, so a failed
// recipient is retried on the next cycle.
func (w *SurveyWorker) sendSurveys(ctx context.Context, now time.Time) error {
	intros, err := w.repo.Introduction().ListPendingSurvey(ctx)
	if err != nil {
		return err
	}
	if len(intros) == 0 {
		return nil
	}

	var sent, failed int
	for start := 0; start < len(intros); start += w.cfg.BatchSize {
		end := start + w.cfg.BatchSize
		if end > len(intros) {
			end = len(intros)
		}

		for _, intro := range intros[start:end] {
			msg := &model.Notification{
				Kind:  model.NotificationSurvey,
				Title: "How is your onboarding going?",
				Body:  "You joined a little while ago. We would love to hear how it is going so far.",
			}
			if err := w.notifier.Send(ctx, msg, intro.NewHireConversation); err != nil {
				errutil.Handle(ctx, err, "failed to send feedback survey")
				failed++
				continue
			}

			if err := intro.MarkSurveySent(now); err != nil {
				errutil.Handle(ctx, err, "failed to mark survey sent")
				failed++
				continue
			}
			if err := w.repo.Introduction().Put(ctx, intro); err != nil {
				errutil.Handle(ctx, err, "failed to persist survey status")
				failed++
				continue
			}
			sent++
		}
	}

	logging.From(ctx).Info("feedback surveys delivered", "sent", sent, "failed", failed, "batch_size", w.cfg.BatchSize)
	return nil
}

// sendMonthlySummary posts one feedback summary to the HR team's stored
// conversation. A missing team configuration downgrades to a log entry.
func (w *SurveyWorker) sendMonthlySummary(ctx context.Context) {
	if w.cfg.HRTeamID == "" {
		logging.From(ctx).Debug("no HR team configured, skipping monthly summary")
		return
	}

	team, err := w.repo.Team().Get(ctx, w.cfg.HRTeamID)
	if err != nil {
		errutil.Handle(ctx, err, "failed to load HR team for summary")
		return
	}
	if team == nil {
		logging.From(ctx).Warn("HR team is not installed, skipping monthly summary", "team", w.cfg.HRTeamID)
		return
	}

	pending, err := w.repo.Introduction().ListPendingSurvey(ctx)
	if err != nil {
		errutil.Handle(ctx, err, "failed to count pending surveys")
		return
	}

	msg := &model.Notification{
		Kind:  model.NotificationSurveySummary,
		Title: "Monthly onboarding feedback summary",
		Body:  fmt.Sprintf("%d approved introductions are still awaiting survey responses.", len(pending)),
	}
	if err := w.notifier.Send(ctx, msg, team.Conversation); err != nil {
		errutil.Handle(ctx, err, "failed to send monthly summary")
		return
	}

	logging.From(ctx).Info("monthly feedback summary delivered", "team", w.cfg.HRTeamID)
}
