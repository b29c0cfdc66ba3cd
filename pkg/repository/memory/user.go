package memory

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/onramp/pkg/domain/model"
	"github.com/secmon-lab/onramp/pkg/domain/types"
)

type userRepository struct {
	mu    sync.RWMutex
	users map[types.UserID]*model.User
}

func newUserRepository() *userRepository {
	return &userRepository{
		users: make(map[types.UserID]*model.User),
	}
}

func copyUser(src *model.User) *model.User {
	dst := *src
	if src.InstalledAt != nil {
		t := *src.InstalledAt
		dst.InstalledAt = &t
	}
	return &dst
}

// Get retrieves a user by ID. Unknown users are not an error.
func (r *userRepository) Get(ctx context.Context, id types.UserID) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return copyUser(user), nil
}

// Put upserts a single user
func (r *userRepository) Put(ctx context.Context, user *model.User) error {
	if err := user.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid user")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.users[user.ID] = copyUser(user)
	return nil
}

// SaveMany upserts users. The in-memory backend has no batch limit but
// keeps the same contract as the Firestore backend.
func (r *userRepository) SaveMany(ctx context.Context, users []*model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range users {
		if err := user.ID.Validate(); err != nil {
			return goerr.Wrap(err, "invalid user in batch")
		}
		r.users[user.ID] = copyUser(user)
	}
	return nil
}

// GetAll retrieves all known users
func (r *userRepository) GetAll(ctx context.Context) ([]*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*model.User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, copyUser(user))
	}
	return users, nil
}

// ListByRole retrieves users with the given role
func (r *userRepository) ListByRole(ctx context.Context, role types.UserRole) ([]*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var users []*model.User
	for _, user := range r.users {
		if user.Role == role {
			users = append(users, copyUser(user))
		}
	}
	return users, nil
}

// ListActivated retrieves users with a recorded app installation
func (r *userRepository) ListActivated(ctx context.Context) ([]*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var users []*model.User
	for _, user := range r.users {
		if user.IsActivated() {
			users = append(users, copyUser(user))
		}
	}
	return users, nil
}

// ListNotActivated retrieves skeleton users still lacking installation
func (r *userRepository) ListNotActivated(ctx context.Context) ([]*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var users []*model.User
	for _, user := range r.users {
		if !user.IsActivated() {
			users = append(users, copyUser(user))
		}
	}
	return users, nil
}
