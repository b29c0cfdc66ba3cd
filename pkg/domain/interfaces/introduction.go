package interfaces

import (
	"context"

	"github.com/secmon-lab/onramp/pkg/domain/model"
	"github.com/secmon-lab/onramp/pkg/domain/types"
)

// IntroductionRepository defines data access for Introduction records.
// Introductions are upserted, never deleted.
type IntroductionRepository interface {
	// Get retrieves an introduction by its composite key.
	// Returns nil, nil when no record exists for the pair.
	Get(ctx context.Context, key model.IntroductionKey) (*model.Introduction, error)

	// Put upserts an introduction. The record must pass Validate.
	Put(ctx context.Context, intro *model.Introduction) error

	// ListByManager retrieves all introductions in a manager's partition
	ListByManager(ctx context.Context, managerID types.UserID) ([]*model.Introduction, error)

	// ListByStatus retrieves introductions whose status is in the given set
	ListByStatus(ctx context.Context, statuses ...types.IntroStatus) ([]*model.Introduction, error)

	// ListPendingSurvey retrieves approved introductions whose feedback
	// survey has not been sent yet
	ListPendingSurvey(ctx context.Context) ([]*model.Introduction, error)
}
