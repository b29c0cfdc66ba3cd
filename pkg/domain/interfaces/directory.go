package interfaces

import (
	"context"

	"github.com/secmon-lab/onramp/pkg/domain/model"
	"github.com/secmon-lab/onramp/pkg/domain/types"
)

// UserRef is the directory's view of a user, before any onboarding
// record exists for them.
type UserRef struct {
	ID                types.UserID
	DisplayName       string
	UserPrincipalName string
}

// InstallResult is the per-user outcome of a bulk app installation
// request. Conflict means the app was already installed.
type InstallResult struct {
	UserID   types.UserID
	Conflict bool
	Err      error
}

// Directory resolves identity-graph relations. Implementations may use
// different API surfaces internally; callers never see the distinction.
type Directory interface {
	// ManagerOf resolves the manager of a user.
	// Returns nil, nil when the user has no manager assigned.
	ManagerOf(ctx context.Context, userID types.UserID) (*UserRef, error)

	// GroupMembers lists the member IDs of a security group
	GroupMembers(ctx context.Context, groupID types.GroupID) ([]types.UserID, error)

	// TeamsJoinedBy lists the teams visible to the given user token
	TeamsJoinedBy(ctx context.Context, userToken string) ([]model.Team, error)

	// ChannelsOf lists the channels of a team
	ChannelsOf(ctx context.Context, teamID types.TeamID) ([]model.Channel, error)

	// PhotoOf fetches the profile photo of a user.
	// Returns nil, nil when no photo is set.
	PhotoOf(ctx context.Context, userID types.UserID) ([]byte, error)

	// ProfileNoteOf fetches the "about me" note of a user
	ProfileNoteOf(ctx context.Context, userID types.UserID) (string, error)

	// InstallApp requests app installation for the given users and
	// returns per-user outcomes. A failed or conflicting user never
	// aborts the rest.
	InstallApp(ctx context.Context, userIDs []types.UserID, appID string) ([]InstallResult, error)
}
