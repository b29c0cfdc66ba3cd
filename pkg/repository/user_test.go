package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/onramp/pkg/domain/interfaces"
	"github.com/secmon-lab/onramp/pkg/domain/model"
	"github.com/secmon-lab/onramp/pkg/domain/types"
	"github.com/secmon-lab/onramp/pkg/repository/memory"
)

func testUser(id string, role types.UserRole) *model.User {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &model.User{
		ID:                types.UserID(id),
		Role:              role,
		DisplayName:       "User " + id,
		UserPrincipalName: id + "@example.com",
		OptedIntoPairUps:  true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func runUserRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Get returns nil for unknown user", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		user, err := repo.User().Get(ctx, "no-such-user")
		gt.NoError(t, err).Required()
		gt.Value(t, user).Nil()
	})

	t.Run("Put then Get round-trips the record", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		user := testUser("u-1", types.UserRoleNewHire)
		user.Conversation = testConversation("conv-u-1")
		user.MarkInstalled(time.Now().UTC().Truncate(time.Millisecond))
		gt.NoError(t, repo.User().Put(ctx, user)).Required()

		got, err := repo.User().Get(ctx, user.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got).NotNil().Required()

		gt.Value(t, got.ID).Equal(user.ID)
		gt.Value(t, got.Role).Equal(types.UserRoleNewHire)
		gt.Value(t, got.DisplayName).Equal("User u-1")
		gt.Value(t, got.Conversation).Equal(user.Conversation)
		gt.Bool(t, got.IsActivated()).True()
	})

	t.Run("SaveMany persists a batch above the chunk size", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		users := make([]*model.User, 0, 150)
		for i := 0; i < 150; i++ {
			users = append(users, testUser(fmt.Sprintf("batch-%03d", i), types.UserRoleNewHire))
		}
		gt.NoError(t, repo.User().SaveMany(ctx, users)).Required()

		all, err := repo.User().GetAll(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, all).Length(150)

		got, err := repo.User().Get(ctx, "batch-149")
		gt.NoError(t, err).Required()
		gt.Value(t, got).NotNil()
	})

	t.Run("SaveMany surfaces an invalid user in the batch", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		users := []*model.User{
			testUser("ok-1", types.UserRoleNewHire),
			testUser("", types.UserRoleNewHire),
		}
		gt.Error(t, repo.User().SaveMany(ctx, users))
	})

	t.Run("ListByRole filters by role", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		gt.NoError(t, repo.User().Put(ctx, testUser("hire-1", types.UserRoleNewHire))).Required()
		gt.NoError(t, repo.User().Put(ctx, testUser("hire-2", types.UserRoleNewHire))).Required()
		gt.NoError(t, repo.User().Put(ctx, testUser("mgr-1", types.UserRoleHiringManager))).Required()

		hires, err := repo.User().ListByRole(ctx, types.UserRoleNewHire)
		gt.NoError(t, err).Required()
		gt.Array(t, hires).Length(2)

		managers, err := repo.User().ListByRole(ctx, types.UserRoleHiringManager)
		gt.NoError(t, err).Required()
		gt.Array(t, managers).Length(1)
		gt.Value(t, managers[0].ID).Equal(types.UserID("mgr-1"))
	})

	t.Run("ListActivated splits on installation state", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		active := testUser("active-1", types.UserRoleNewHire)
		active.MarkInstalled(time.Now())
		skeleton := testUser("skeleton-1", types.UserRoleNewHire)

		gt.NoError(t, repo.User().Put(ctx, active)).Required()
		gt.NoError(t, repo.User().Put(ctx, skeleton)).Required()

		activated, err := repo.User().ListActivated(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, activated).Length(1)
		gt.Value(t, activated[0].ID).Equal(types.UserID("active-1"))

		waiting, err := repo.User().ListNotActivated(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, waiting).Length(1)
		gt.Value(t, waiting[0].ID).Equal(types.UserID("skeleton-1"))
	})

	t.Run("Put keeps the stored record isolated from later mutation", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		user := testUser("mut-1", types.UserRoleNewHire)
		gt.NoError(t, repo.User().Put(ctx, user)).Required()

		user.DisplayName = "changed after put"

		got, err := repo.User().Get(ctx, "mut-1")
		gt.NoError(t, err).Required()
		gt.Value(t, got.DisplayName).Equal("User mut-1")
	})
}

func TestMemoryUserRepository(t *testing.T) {
	runUserRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func TestFirestoreUserRepository(t *testing.T) {
	runUserRepositoryTest(t, newFirestoreRepository)
}
