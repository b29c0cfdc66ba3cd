package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/onramp/pkg/domain/interfaces"
	"github.com/secmon-lab/onramp/pkg/repository/memory"
)

func runCheckpointRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("GetLastRun returns zero time for unknown job", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		last, err := repo.Checkpoint().GetLastRun(ctx, "never-ran")
		gt.NoError(t, err).Required()
		gt.Bool(t, last.IsZero()).True()
	})

	t.Run("PutLastRun then GetLastRun round-trips", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
		gt.NoError(t, repo.Checkpoint().PutLastRun(ctx, "learning-plan", at)).Required()

		last, err := repo.Checkpoint().GetLastRun(ctx, "learning-plan")
		gt.NoError(t, err).Required()
		gt.Bool(t, last.Equal(at)).True()
	})

	t.Run("jobs are tracked independently", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		gt.NoError(t, repo.Checkpoint().PutLastRun(ctx, "survey", time.Now())).Required()

		last, err := repo.Checkpoint().GetLastRun(ctx, "pair-up")
		gt.NoError(t, err).Required()
		gt.Bool(t, last.IsZero()).True()
	})
}

func TestMemoryCheckpointRepository(t *testing.T) {
	runCheckpointRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func TestFirestoreCheckpointRepository(t *testing.T) {
	runCheckpointRepositoryTest(t, newFirestoreRepository)
}
