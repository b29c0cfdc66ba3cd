package matchmaker_test

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/onramp/pkg/domain/model"
	"github.com/secmon-lab/onramp/pkg/domain/types"
	"github.com/secmon-lab/onramp/pkg/service/matchmaker"
)

func userInstalledAgo(id string, ago time.Duration, now time.Time) *model.User {
	at := now.Add(-ago)
	return &model.User{
		ID:               types.UserID(id),
		Role:             types.UserRoleNewHire,
		OptedIntoPairUps: true,
		InstalledAt:      &at,
	}
}

func seededMatcher(seed int64, opts ...matchmaker.Option) *matchmaker.Matcher {
	opts = append(opts, matchmaker.WithRandSource(func() *rand.Rand {
		return rand.New(rand.NewSource(seed))
	}))
	return matchmaker.New(opts...)
}

func TestMatchCrossCohort(t *testing.T) {
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

	users := []*model.User{
		userInstalledAgo("tenured-1", 120*24*time.Hour, now),
		userInstalledAgo("tenured-2", 200*24*time.Hour, now),
		userInstalledAgo("recent-1", 10*24*time.Hour, now),
		userInstalledAgo("recent-2", 30*24*time.Hour, now),
	}

	// Every seed must produce one tenured plus one recent user
	for seed := int64(0); seed < 50; seed++ {
		pair := seededMatcher(seed).Match(users, now)
		gt.Value(t, pair).NotNil().Required()

		gt.Value(t, pair.A.Tenure(now) >= matchmaker.DefaultRetentionThreshold).Equal(true)
		gt.Value(t, pair.B.Tenure(now) < matchmaker.DefaultRetentionThreshold).Equal(true)
		gt.Value(t, pair.A.ID == pair.B.ID).Equal(false)
	}
}

func TestMatchFallbackToRecentPair(t *testing.T) {
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

	users := []*model.User{
		userInstalledAgo("recent-1", 5*24*time.Hour, now),
		userInstalledAgo("recent-2", 15*24*time.Hour, now),
		userInstalledAgo("recent-3", 25*24*time.Hour, now),
	}

	for seed := int64(0); seed < 50; seed++ {
		pair := seededMatcher(seed).Match(users, now)
		gt.Value(t, pair).NotNil().Required()
		gt.Value(t, pair.A.ID == pair.B.ID).Equal(false)
	}
}

func TestMatchNoPairPossible(t *testing.T) {
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

	t.Run("empty pool", func(t *testing.T) {
		gt.Value(t, seededMatcher(1).Match(nil, now)).Nil()
	})

	t.Run("single user", func(t *testing.T) {
		users := []*model.User{userInstalledAgo("recent-1", 5*24*time.Hour, now)}
		gt.Value(t, seededMatcher(1).Match(users, now)).Nil()
	})

	t.Run("tenured but nobody recent", func(t *testing.T) {
		users := []*model.User{
			userInstalledAgo("tenured-1", 120*24*time.Hour, now),
			userInstalledAgo("tenured-2", 150*24*time.Hour, now),
		}
		gt.Value(t, seededMatcher(1).Match(users, now)).Nil()
	})
}

func TestMatchSkipsIneligibleUsers(t *testing.T) {
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

	optedOut := userInstalledAgo("opted-out", 120*24*time.Hour, now)
	optedOut.OptedIntoPairUps = false
	skeleton := &model.User{ID: "skeleton", Role: types.UserRoleNewHire, OptedIntoPairUps: true}

	users := []*model.User{
		optedOut,
		skeleton,
		userInstalledAgo("recent-1", 5*24*time.Hour, now),
	}

	gt.Value(t, seededMatcher(1).Match(users, now)).Nil()
}

func TestMatchCustomThreshold(t *testing.T) {
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

	users := []*model.User{
		userInstalledAgo("a", 40*24*time.Hour, now),
		userInstalledAgo("b", 10*24*time.Hour, now),
	}

	m := seededMatcher(1, matchmaker.WithRetentionThreshold(30*24*time.Hour))
	pair := m.Match(users, now)
	gt.Value(t, pair).NotNil().Required()
	gt.Value(t, pair.A.ID).Equal(types.UserID("a"))
	gt.Value(t, pair.B.ID).Equal(types.UserID("b"))
}

func TestMatchCoversAllCandidates(t *testing.T) {
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

	users := []*model.User{
		userInstalledAgo("tenured-1", 120*24*time.Hour, now),
	}
	for i := 0; i < 5; i++ {
		users = append(users, userInstalledAgo(fmt.Sprintf("recent-%d", i), 10*24*time.Hour, now))
	}

	// Over many seeds the shuffle should select each recent hire at
	// least once
	picked := make(map[types.UserID]bool)
	for seed := int64(0); seed < 200; seed++ {
		pair := seededMatcher(seed).Match(users, now)
		gt.Value(t, pair).NotNil().Required()
		picked[pair.B.ID] = true
	}
	gt.Value(t, len(picked)).Equal(5)
}
