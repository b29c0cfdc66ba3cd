package worker

import (
	"context"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/onramp/pkg/domain/model"
	"github.com/secmon-lab/onramp/pkg/domain/types"
	"github.com/secmon-lab/onramp/pkg/repository/memory"
	"github.com/secmon-lab/onramp/pkg/service/matchmaker"
)

func fixedMatcher() *matchmaker.Matcher {
	return matchmaker.New(matchmaker.WithRandSource(func() *rand.Rand {
		return rand.New(rand.NewSource(1))
	}))
}

func TestPairUpNotifiesBothSides(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	notifier := &captureNotifier{}

	tenured := activatedAgo("tenured", 120*24*time.Hour, mondayMorning)
	tenured.DisplayName = "Taro Tenured"
	recent := activatedAgo("recent", 10*24*time.Hour, mondayMorning)
	recent.DisplayName = "Rei Recent"
	gt.NoError(t, repo.User().Put(ctx, tenured)).Required()
	gt.NoError(t, repo.User().Put(ctx, recent)).Required()

	w := NewPairUpWorker(repo, notifier, fixedMatcher(), "https://onramp.example.com",
		WithClock(func() time.Time { return mondayMorning }))

	gt.NoError(t, w.cycle(ctx)).Required()

	toTenured := notifier.sentTo("conv-tenured")
	gt.Array(t, toTenured).Length(1)
	gt.Value(t, toTenured[0].Msg.Kind).Equal(model.NotificationPairUp)
	gt.Value(t, toTenured[0].Msg.Fields[0].Value).Equal("Rei Recent")

	toRecent := notifier.sentTo("conv-recent")
	gt.Array(t, toRecent).Length(1)
	gt.Value(t, toRecent[0].Msg.Fields[0].Value).Equal("Taro Tenured")

	// Action links point at the application base URL
	gt.Array(t, toTenured[0].Msg.Actions).Length(3)
	gt.Value(t, strings.HasPrefix(toTenured[0].Msg.Actions[0].URL, "https://onramp.example.com/pairup/chat")).Equal(true)
}

func TestPairUpNoCandidatesIsQuiet(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	notifier := &captureNotifier{}

	w := NewPairUpWorker(repo, notifier, fixedMatcher(), "https://onramp.example.com",
		WithClock(func() time.Time { return mondayMorning }))

	gt.NoError(t, w.cycle(ctx)).Required()
	gt.Array(t, notifier.sent).Length(0)
}

func TestPairUpOneSideFailureDoesNotBlockOther(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	notifier := &captureNotifier{failFor: map[types.ConversationID]error{
		"conv-tenured": goerr.New("conversation gone"),
	}}

	gt.NoError(t, repo.User().Put(ctx, activatedAgo("tenured", 120*24*time.Hour, mondayMorning))).Required()
	gt.NoError(t, repo.User().Put(ctx, activatedAgo("recent", 10*24*time.Hour, mondayMorning))).Required()

	w := NewPairUpWorker(repo, notifier, fixedMatcher(), "https://onramp.example.com",
		WithClock(func() time.Time { return mondayMorning }))

	gt.NoError(t, w.cycle(ctx)).Required()
	gt.Array(t, notifier.sentTo("conv-recent")).Length(1)
}
