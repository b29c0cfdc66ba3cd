package memory

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/onramp/pkg/domain/model"
	"github.com/secmon-lab/onramp/pkg/domain/types"
)

type teamRepository struct {
	mu    sync.RWMutex
	teams map[types.TeamID]*model.Team
}

func newTeamRepository() *teamRepository {
	return &teamRepository{
		teams: make(map[types.TeamID]*model.Team),
	}
}

// Get retrieves a team by ID. Unknown teams are not an error.
func (r *teamRepository) Get(ctx context.Context, id types.TeamID) (*model.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	team, ok := r.teams[id]
	if !ok {
		return nil, nil
	}
	teamCopy := *team
	return &teamCopy, nil
}

// Put upserts a team installation record
func (r *teamRepository) Put(ctx context.Context, team *model.Team) error {
	if err := team.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid team")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	teamCopy := *team
	r.teams[team.ID] = &teamCopy
	return nil
}

// Delete removes a team record on uninstall
func (r *teamRepository) Delete(ctx context.Context, id types.TeamID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.teams, id)
	return nil
}

// GetAll retrieves all team installation records
func (r *teamRepository) GetAll(ctx context.Context) ([]*model.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	teams := make([]*model.Team, 0, len(r.teams))
	for _, team := range r.teams {
		teamCopy := *team
		teams = append(teams, &teamCopy)
	}
	return teams, nil
}
