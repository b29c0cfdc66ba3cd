package interfaces

import (
	"context"

	"github.com/secmon-lab/onramp/pkg/domain/model"
	"github.com/secmon-lab/onramp/pkg/domain/types"
)

// TeamRepository defines data access for Team installation records
type TeamRepository interface {
	// Get retrieves a team by ID. Returns nil, nil when unknown.
	Get(ctx context.Context, id types.TeamID) (*model.Team, error)

	// Put upserts a team installation record
	Put(ctx context.Context, team *model.Team) error

	// Delete removes a team record on uninstall
	Delete(ctx context.Context, id types.TeamID) error

	// GetAll retrieves all team installation records
	GetAll(ctx context.Context) ([]*model.Team, error)
}
