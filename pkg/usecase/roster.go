package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/onramp/pkg/domain/model"
	"github.com/secmon-lab/onramp/pkg/domain/types"
	"github.com/secmon-lab/onramp/pkg/utils/errutil"
	"github.com/secmon-lab/onramp/pkg/utils/logging"
)

// RosterUseCase reconciles the configured security-group roster into
// skeleton user records and requests app provisioning for the ones
// still lacking it.
type RosterUseCase struct {
	uc *UseCases
}

func newRosterUseCase(uc *UseCases) *RosterUseCase {
	return &RosterUseCase{uc: uc}
}

// ReconcileSummary reports what one reconciliation pass did
type ReconcileSummary struct {
	GroupMembers   int
	NewHires       int
	NewManagers    int
	SkippedLookups int
}

// Reconcile computes the delta between the security-group membership
// and the previously known users, then persists the delta plus their
// direct managers as skeleton records. Manager resolution goes one
// level only. A failed manager lookup skips that individual, never
// the batch.
func (x *RosterUseCase) Reconcile(ctx context.Context, groupID types.GroupID) (*ReconcileSummary, error) {
	members, err := x.uc.directory.GroupMembers(ctx, groupID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list group members", goerr.V("group", groupID))
	}

	knownHires, err := x.uc.repo.User().ListByRole(ctx, types.UserRoleNewHire)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list known new hires")
	}
	knownManagers, err := x.uc.repo.User().ListByRole(ctx, types.UserRoleHiringManager)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list known managers")
	}

	knownHireIDs := make(map[types.UserID]bool, len(knownHires))
	for _, u := range knownHires {
		knownHireIDs[u.ID] = true
	}
	knownManagerIDs := make(map[types.UserID]bool, len(knownManagers))
	for _, u := range knownManagers {
		knownManagerIDs[u.ID] = true
	}

	// First run: nobody is known yet, every member is new and every
	// member's manager gets bootstrapped alongside them.
	firstRun := len(knownHires) == 0 && len(knownManagers) == 0

	var newHireIDs []types.UserID
	for _, id := range members {
		if firstRun || !knownHireIDs[id] {
			newHireIDs = append(newHireIDs, id)
		}
	}

	summary := &ReconcileSummary{GroupMembers: len(members)}

	now := x.uc.now()
	seen := make(map[types.UserID]bool)
	var skeletons []*model.User

	for _, id := range newHireIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		skeletons = append(skeletons, &model.User{
			ID:               id,
			Role:             types.UserRoleNewHire,
			OptedIntoPairUps: true,
			CreatedAt:        now,
			UpdatedAt:        now,
		})
		summary.NewHires++
	}

	// Managers are resolved for the delta only
	for _, id := range newHireIDs {
		manager, err := x.uc.directory.ManagerOf(ctx, id)
		if err != nil {
			errutil.Handle(ctx, err, "failed to resolve manager during reconcile")
			summary.SkippedLookups++
			continue
		}
		if manager == nil {
			logging.From(ctx).Warn("group member has no manager", "user", id)
			summary.SkippedLookups++
			continue
		}
		if seen[manager.ID] || knownManagerIDs[manager.ID] {
			continue
		}
		seen[manager.ID] = true
		skeletons = append(skeletons, &model.User{
			ID:                manager.ID,
			Role:              types.UserRoleHiringManager,
			OptedIntoPairUps:  true,
			DisplayName:       manager.DisplayName,
			UserPrincipalName: manager.UserPrincipalName,
			CreatedAt:         now,
			UpdatedAt:         now,
		})
		summary.NewManagers++
	}

	if len(skeletons) == 0 {
		logging.From(ctx).Info("roster reconcile found no delta", "members", len(members))
		return summary, nil
	}

	if err := x.uc.repo.User().SaveMany(ctx, skeletons); err != nil {
		return nil, goerr.Wrap(err, "failed to persist skeleton users", goerr.V("count", len(skeletons)))
	}

	logging.From(ctx).Info("roster reconcile completed",
		"members", len(members),
		"new_hires", summary.NewHires,
		"new_managers", summary.NewManagers,
		"skipped", summary.SkippedLookups,
	)
	return summary, nil
}

// InstallSummary reports the outcome of a bulk installation pass
type InstallSummary struct {
	Requested int
	Installed int
	Conflicts int
	Failures  int
}

// InstallPending requests app installation for every user still lacking
// it. Per-user conflicts (already installed) and failures never abort
// the remaining users.
func (x *RosterUseCase) InstallPending(ctx context.Context, appID string) (*InstallSummary, error) {
	pending, err := x.uc.repo.User().ListNotActivated(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list uninstalled users")
	}

	summary := &InstallSummary{Requested: len(pending)}
	if len(pending) == 0 {
		return summary, nil
	}

	ids := make([]types.UserID, len(pending))
	for i, u := range pending {
		ids[i] = u.ID
	}

	results, err := x.uc.directory.InstallApp(ctx, ids, appID)
	if err != nil {
		return nil, goerr.Wrap(err, "bulk install request failed", goerr.V("count", len(ids)))
	}

	for _, res := range results {
		switch {
		case res.Err != nil:
			errutil.Handle(ctx, res.Err, "app install failed for user")
			summary.Failures++
		case res.Conflict:
			summary.Conflicts++
		default:
			summary.Installed++
		}
	}

	logging.From(ctx).Info("bulk app install completed",
		"requested", summary.Requested,
		"installed", summary.Installed,
		"conflicts", summary.Conflicts,
		"failures", summary.Failures,
	)
	return summary, nil
}
