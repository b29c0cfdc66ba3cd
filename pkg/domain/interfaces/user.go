package interfaces

import (
	"context"

	"github.com/secmon-lab/onramp/pkg/domain/model"
	"github.com/secmon-lab/onramp/pkg/domain/types"
)

// UserRepository defines data access for User records
type UserRepository interface {
	// Get retrieves a user by directory ID.
	// Returns nil, nil when the user is unknown.
	Get(ctx context.Context, id types.UserID) (*model.User, error)

	// Put upserts a single user
	Put(ctx context.Context, user *model.User) error

	// SaveMany upserts users in storage-level batches (chunked at 100
	// internally)
	SaveMany(ctx context.Context, users []*model.User) error

	// GetAll retrieves all known users
	GetAll(ctx context.Context) ([]*model.User, error)

	// ListByRole retrieves users with the given role
	ListByRole(ctx context.Context, role types.UserRole) ([]*model.User, error)

	// ListActivated retrieves users that have opened the app in personal
	// scope (InstalledAt set)
	ListActivated(ctx context.Context) ([]*model.User, error)

	// ListNotActivated retrieves skeleton users still lacking app
	// installation
	ListNotActivated(ctx context.Context) ([]*model.User, error)
}
