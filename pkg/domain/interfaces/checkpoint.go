package interfaces

import (
	"context"
	"time"
)

// CheckpointRepository stores a per-job last-run marker. Schedulers may
// consult it to close the restart-duplication gap of the wall-clock
// guard; by default they do not.
type CheckpointRepository interface {
	// GetLastRun retrieves the last recorded run time of a job.
	// Returns the zero time when the job has never run.
	GetLastRun(ctx context.Context, job string) (time.Time, error)

	// PutLastRun records the run time of a job
	PutLastRun(ctx context.Context, job string, at time.Time) error
}
