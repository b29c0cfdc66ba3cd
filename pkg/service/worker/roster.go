package worker

import (
	"context"
	"time"

	"github.com/secmon-lab/onramp/pkg/domain/types"
	"github.com/secmon-lab/onramp/pkg/usecase"
	"github.com/secmon-lab/onramp/pkg/utils/logging"
)

// RosterSyncer reconciles the security group roster and requests app
// installation for users that still lack one.
type RosterSyncer interface {
	Reconcile(ctx context.Context, groupID types.GroupID) (*usecase.ReconcileSummary, error)
	InstallPending(ctx context.Context, appID string) (*usecase.InstallSummary, error)
}

// RosterWorker keeps the user store in step with the onboarding
// security group so new hires enter the flow without manual action.
type RosterWorker struct {
	*runner
	roster  RosterSyncer
	groupID types.GroupID
	appID   string
}

// NewRosterWorker creates the roster reconciliation scheduler
func NewRosterWorker(roster RosterSyncer, groupID types.GroupID, appID string, opts ...Option) *RosterWorker {
	w := &RosterWorker{
		roster:  roster,
		groupID: groupID,
		appID:   appID,
	}
	w.runner = newRunner("roster-sync", time.Hour, w.cycle)
	for _, opt := range opts {
		opt(w.runner)
	}
	return w
}

func (w *RosterWorker) cycle(ctx context.Context) error {
	summary, err := w.roster.Reconcile(ctx, w.groupID)
	if err != nil {
		return err
	}

	logging.From(ctx).Info("roster reconciled",
		"group_members", summary.GroupMembers,
		"new_hires", summary.NewHires,
		"new_managers", summary.NewManagers,
		"skipped_lookups", summary.SkippedLookups)

	if w.appID == "" {
		return nil
	}

	install, err := w.roster.InstallPending(ctx, w.appID)
	if err != nil {
		return err
	}

	logging.From(ctx).Info("app installation requested",
		"requested", install.Requested,
		"installed", install.Installed,
		"conflicts", install.Conflicts,
		"failures", install.Failures)

	return nil
}
