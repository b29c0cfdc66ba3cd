package memory

import (
	"context"
	"sync"
	"time"
)

type checkpointRepository struct {
	mu      sync.RWMutex
	lastRun map[string]time.Time
}

func newCheckpointRepository() *checkpointRepository {
	return &checkpointRepository{
		lastRun: make(map[string]time.Time),
	}
}

// GetLastRun retrieves the last recorded run time of a job
func (r *checkpointRepository) GetLastRun(ctx context.Context, job string) (time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.lastRun[job], nil
}

// PutLastRun records the run time of a job
func (r *checkpointRepository) PutLastRun(ctx context.Context, job string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastRun[job] = at
	return nil
}
