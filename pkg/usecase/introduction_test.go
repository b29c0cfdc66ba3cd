package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/onramp/pkg/domain/interfaces"
	"github.com/secmon-lab/onramp/pkg/domain/model"
	"github.com/secmon-lab/onramp/pkg/domain/types"
	"github.com/secmon-lab/onramp/pkg/repository/memory"
	"github.com/secmon-lab/onramp/pkg/usecase"
)

type fakeDirectory struct {
	managers     map[types.UserID]*interfaces.UserRef
	managerErrs  map[types.UserID]error
	groupMembers []types.UserID
	profileNotes map[types.UserID]string
	installed    []types.UserID
	installRes   []interfaces.InstallResult
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		managers:     make(map[types.UserID]*interfaces.UserRef),
		managerErrs:  make(map[types.UserID]error),
		profileNotes: make(map[types.UserID]string),
	}
}

func (d *fakeDirectory) ManagerOf(ctx context.Context, userID types.UserID) (*interfaces.UserRef, error) {
	if err := d.managerErrs[userID]; err != nil {
		return nil, err
	}
	return d.managers[userID], nil
}

func (d *fakeDirectory) GroupMembers(ctx context.Context, groupID types.GroupID) ([]types.UserID, error) {
	return d.groupMembers, nil
}

func (d *fakeDirectory) TeamsJoinedBy(ctx context.Context, userToken string) ([]model.Team, error) {
	return nil, nil
}

func (d *fakeDirectory) ChannelsOf(ctx context.Context, teamID types.TeamID) ([]model.Channel, error) {
	return nil, nil
}

func (d *fakeDirectory) PhotoOf(ctx context.Context, userID types.UserID) ([]byte, error) {
	return nil, nil
}

func (d *fakeDirectory) ProfileNoteOf(ctx context.Context, userID types.UserID) (string, error) {
	return d.profileNotes[userID], nil
}

func (d *fakeDirectory) InstallApp(ctx context.Context, userIDs []types.UserID, appID string) ([]interfaces.InstallResult, error) {
	d.installed = append(d.installed, userIDs...)
	if d.installRes != nil {
		return d.installRes, nil
	}
	results := make([]interfaces.InstallResult, len(userIDs))
	for i, id := range userIDs {
		results[i] = interfaces.InstallResult{UserID: id}
	}
	return results, nil
}

type sentNotification struct {
	Msg  *model.Notification
	Conv model.ConversationRef
}

type fakeNotifier struct {
	sent    []sentNotification
	sendErr error
}

func (n *fakeNotifier) Send(ctx context.Context, msg *model.Notification, conv model.ConversationRef) error {
	if n.sendErr != nil {
		return n.sendErr
	}
	n.sent = append(n.sent, sentNotification{Msg: msg, Conv: conv})
	return nil
}

func conv(id string) model.ConversationRef {
	return model.ConversationRef{ID: types.ConversationID(id), ServiceEndpoint: "https://chat.example.com/v3"}
}

func activatedUser(id string, role types.UserRole, now time.Time) *model.User {
	at := now.Add(-time.Hour)
	return &model.User{
		ID:               types.UserID(id),
		Role:             role,
		Conversation:     conv("conv-" + id),
		InstalledAt:      &at,
		OptedIntoPairUps: true,
		DisplayName:      "User " + id,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

type introFixture struct {
	repo     *memory.Memory
	dir      *fakeDirectory
	notifier *fakeNotifier
	uc       *usecase.UseCases
	now      time.Time
}

func newIntroFixture(t *testing.T) *introFixture {
	t.Helper()

	now := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	repo := memory.New()
	dir := newFakeDirectory()
	notifier := &fakeNotifier{}

	uc := usecase.New(repo,
		usecase.WithDirectory(dir),
		usecase.WithNotifier(notifier),
		usecase.WithQuestions([]string{"Where are you from?", "What do you enjoy?"}),
		usecase.WithClock(func() time.Time { return now }),
	)
	return &introFixture{repo: repo, dir: dir, notifier: notifier, uc: uc, now: now}
}

func (f *introFixture) withPair(t *testing.T, hireID, managerID string) {
	t.Helper()
	ctx := context.Background()

	f.dir.managers[types.UserID(hireID)] = &interfaces.UserRef{
		ID:          types.UserID(managerID),
		DisplayName: "Manager " + managerID,
	}
	gt.NoError(t, f.repo.User().Put(ctx, activatedUser(hireID, types.UserRoleNewHire, f.now))).Required()
	gt.NoError(t, f.repo.User().Put(ctx, activatedUser(managerID, types.UserRoleHiringManager, f.now))).Required()
}

func answers(values ...string) []model.QA {
	questions := []string{"Where are you from?", "What do you enjoy?"}
	qas := make([]model.QA, len(values))
	for i, v := range values {
		qas[i] = model.QA{Question: questions[i], Answer: v}
	}
	return qas
}

func TestStartOrResume(t *testing.T) {
	ctx := context.Background()

	t.Run("new pair gets a seeded pending card", func(t *testing.T) {
		f := newIntroFixture(t)
		f.withPair(t, "hire-1", "mgr-1")
		f.dir.profileNotes["hire-1"] = "I like mountains"

		res, err := f.uc.Introduction.StartOrResume(ctx, "hire-1")
		gt.NoError(t, err).Required()
		gt.Bool(t, res.ReadOnly).False()
		gt.Value(t, res.Introduction.Status).Equal(types.IntroStatusPendingApproval)
		gt.Array(t, res.Introduction.Questionnaire).Length(2)
		gt.Value(t, res.Introduction.Questionnaire[0].Question).Equal("Where are you from?")
		gt.Value(t, res.Introduction.ProfileNote).Equal("I like mountains")

		// Nothing persisted until submit
		stored, err := f.repo.Introduction().Get(ctx, res.Introduction.Key)
		gt.NoError(t, err).Required()
		gt.Value(t, stored).Nil()
	})

	t.Run("no manager assigned fails", func(t *testing.T) {
		f := newIntroFixture(t)

		_, err := f.uc.Introduction.StartOrResume(ctx, "orphan")
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, usecase.ErrManagerNotFound)).True()
	})

	t.Run("approved record comes back read-only", func(t *testing.T) {
		f := newIntroFixture(t)
		f.withPair(t, "hire-2", "mgr-2")

		sub, err := f.uc.Introduction.Submit(ctx, "hire-2", answers("Kyoto", "Cycling"), "Hello!")
		gt.NoError(t, err).Required()
		gt.Bool(t, sub.OK).True()

		app, err := f.uc.Introduction.Approve(ctx, sub.Introduction.Key, f.seedTeam(t, "team-1"))
		gt.NoError(t, err).Required()
		gt.Bool(t, app.OK).True()

		res, err := f.uc.Introduction.StartOrResume(ctx, "hire-2")
		gt.NoError(t, err).Required()
		gt.Bool(t, res.ReadOnly).True()
	})
}

func (f *introFixture) seedTeam(t *testing.T, id string) types.TeamID {
	t.Helper()
	team := &model.Team{
		ID:           types.TeamID(id),
		Name:         "Team " + id,
		Conversation: conv("conv-" + id),
		InstalledAt:  f.now,
	}
	gt.NoError(t, f.repo.Team().Put(context.Background(), team)).Required()
	return team.ID
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("missing profile note is rejected with a message", func(t *testing.T) {
		f := newIntroFixture(t)
		f.withPair(t, "hire-1", "mgr-1")

		res, err := f.uc.Introduction.Submit(ctx, "hire-1", answers("Kyoto", "Cycling"), "   ")
		gt.NoError(t, err).Required()
		gt.Bool(t, res.OK).False()
		gt.String(t, res.Message).NotEqual("")
		gt.Array(t, f.notifier.sent).Length(0)
	})

	t.Run("unanswered question is rejected with a message", func(t *testing.T) {
		f := newIntroFixture(t)
		f.withPair(t, "hire-1", "mgr-1")

		res, err := f.uc.Introduction.Submit(ctx, "hire-1", answers("Kyoto", ""), "Hello!")
		gt.NoError(t, err).Required()
		gt.Bool(t, res.OK).False()
		gt.String(t, res.Message).NotEqual("")
	})

	t.Run("valid submission persists and alerts the manager", func(t *testing.T) {
		f := newIntroFixture(t)
		f.withPair(t, "hire-1", "mgr-1")

		res, err := f.uc.Introduction.Submit(ctx, "hire-1", answers("Kyoto", "Cycling"), "Hello!")
		gt.NoError(t, err).Required()
		gt.Bool(t, res.OK).True()

		stored, err := f.repo.Introduction().Get(ctx, res.Introduction.Key)
		gt.NoError(t, err).Required()
		gt.Value(t, stored).NotNil().Required()
		gt.Value(t, stored.Status).Equal(types.IntroStatusPendingApproval)
		gt.Value(t, stored.ProfileNote).Equal("Hello!")

		gt.Array(t, f.notifier.sent).Length(1)
		gt.Value(t, f.notifier.sent[0].Msg.Kind).Equal(model.NotificationIntroSubmitted)
		gt.Value(t, f.notifier.sent[0].Conv).Equal(conv("conv-mgr-1"))
	})

	t.Run("manager without activation blocks submission", func(t *testing.T) {
		f := newIntroFixture(t)
		f.dir.managers["hire-1"] = &interfaces.UserRef{ID: "mgr-ghost"}
		gt.NoError(t, f.repo.User().Put(ctx, activatedUser("hire-1", types.UserRoleNewHire, f.now))).Required()

		_, err := f.uc.Introduction.Submit(ctx, "hire-1", answers("Kyoto", "Cycling"), "Hello!")
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, usecase.ErrManagerUnavailable)).True()

		// Nothing was persisted
		stored, err := f.repo.Introduction().Get(ctx, model.IntroductionKey{ManagerID: "mgr-ghost", NewHireID: "hire-1"})
		gt.NoError(t, err).Required()
		gt.Value(t, stored).Nil()
	})

	t.Run("new hire without activation blocks submission", func(t *testing.T) {
		f := newIntroFixture(t)
		f.dir.managers["hire-1"] = &interfaces.UserRef{ID: "mgr-1"}
		gt.NoError(t, f.repo.User().Put(ctx, activatedUser("mgr-1", types.UserRoleHiringManager, f.now))).Required()

		_, err := f.uc.Introduction.Submit(ctx, "hire-1", answers("Kyoto", "Cycling"), "Hello!")
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, usecase.ErrNewHireUnavailable)).True()
	})

	t.Run("notification failure does not unwind the stored record", func(t *testing.T) {
		f := newIntroFixture(t)
		f.withPair(t, "hire-1", "mgr-1")
		f.notifier.sendErr = goerr.New("chat service down")

		res, err := f.uc.Introduction.Submit(ctx, "hire-1", answers("Kyoto", "Cycling"), "Hello!")
		gt.NoError(t, err).Required()
		gt.Bool(t, res.OK).True()

		stored, err := f.repo.Introduction().Get(ctx, res.Introduction.Key)
		gt.NoError(t, err).Required()
		gt.Value(t, stored).NotNil()
	})
}

func TestRequestMoreInfo(t *testing.T) {
	ctx := context.Background()

	submit := func(t *testing.T, f *introFixture) model.IntroductionKey {
		t.Helper()
		res, err := f.uc.Introduction.Submit(ctx, "hire-1", answers("Kyoto", "Cycling"), "Hello!")
		gt.NoError(t, err).Required()
		gt.Bool(t, res.OK).True()
		return res.Introduction.Key
	}

	t.Run("blank comment is rejected with a message", func(t *testing.T) {
		f := newIntroFixture(t)
		f.withPair(t, "hire-1", "mgr-1")
		key := submit(t, f)

		res, err := f.uc.Introduction.RequestMoreInfo(ctx, key, "  ")
		gt.NoError(t, err).Required()
		gt.Bool(t, res.OK).False()
		gt.String(t, res.Message).NotEqual("")
	})

	t.Run("comment moves the record and alerts the hire", func(t *testing.T) {
		f := newIntroFixture(t)
		f.withPair(t, "hire-1", "mgr-1")
		key := submit(t, f)
		f.notifier.sent = nil

		res, err := f.uc.Introduction.RequestMoreInfo(ctx, key, "What was your last project?")
		gt.NoError(t, err).Required()
		gt.Bool(t, res.OK).True()

		stored, err := f.repo.Introduction().Get(ctx, key)
		gt.NoError(t, err).Required()
		gt.Value(t, stored.Status).Equal(types.IntroStatusTellMeMore)
		gt.Value(t, stored.Comments).Equal("What was your last project?")

		gt.Array(t, f.notifier.sent).Length(1)
		gt.Value(t, f.notifier.sent[0].Msg.Kind).Equal(model.NotificationTellMeMore)
		gt.Value(t, f.notifier.sent[0].Conv).Equal(conv("conv-hire-1"))
	})

	t.Run("re-submission returns the record to pending", func(t *testing.T) {
		f := newIntroFixture(t)
		f.withPair(t, "hire-1", "mgr-1")
		key := submit(t, f)

		_, err := f.uc.Introduction.RequestMoreInfo(ctx, key, "Tell me more please")
		gt.NoError(t, err).Required()

		res, err := f.uc.Introduction.Submit(ctx, "hire-1", answers("Kyoto", "Cycling and hiking"), "Hello again!")
		gt.NoError(t, err).Required()
		gt.Bool(t, res.OK).True()

		stored, err := f.repo.Introduction().Get(ctx, key)
		gt.NoError(t, err).Required()
		gt.Value(t, stored.Status).Equal(types.IntroStatusPendingApproval)
	})

	t.Run("unknown pair fails", func(t *testing.T) {
		f := newIntroFixture(t)

		_, err := f.uc.Introduction.RequestMoreInfo(ctx, model.IntroductionKey{ManagerID: "m", NewHireID: "h"}, "hello")
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, usecase.ErrIntroductionNotFound)).True()
	})
}

func TestApprove(t *testing.T) {
	ctx := context.Background()

	t.Run("no team selected prompts for a destination", func(t *testing.T) {
		f := newIntroFixture(t)
		f.withPair(t, "hire-1", "mgr-1")
		f.seedTeam(t, "team-1")
		f.seedTeam(t, "team-2")

		sub, err := f.uc.Introduction.Submit(ctx, "hire-1", answers("Kyoto", "Cycling"), "Hello!")
		gt.NoError(t, err).Required()

		res, err := f.uc.Introduction.Approve(ctx, sub.Introduction.Key, "")
		gt.NoError(t, err).Required()
		gt.Bool(t, res.OK).False()
		gt.Bool(t, res.NeedsTeamSelection).True()
		gt.Array(t, res.Teams).Length(2)
	})

	t.Run("approval is terminal and posts the public card", func(t *testing.T) {
		f := newIntroFixture(t)
		f.withPair(t, "hire-1", "mgr-1")
		teamID := f.seedTeam(t, "team-1")

		sub, err := f.uc.Introduction.Submit(ctx, "hire-1", answers("Kyoto", "Cycling"), "Hello!")
		gt.NoError(t, err).Required()
		f.notifier.sent = nil

		res, err := f.uc.Introduction.Approve(ctx, sub.Introduction.Key, teamID)
		gt.NoError(t, err).Required()
		gt.Bool(t, res.OK).True()

		stored, err := f.repo.Introduction().Get(ctx, sub.Introduction.Key)
		gt.NoError(t, err).Required()
		gt.Value(t, stored.Status).Equal(types.IntroStatusApproved)
		gt.Value(t, stored.ApprovedAt).NotNil()

		gt.Array(t, f.notifier.sent).Length(1)
		gt.Value(t, f.notifier.sent[0].Msg.Kind).Equal(model.NotificationIntroApproved)
		gt.Value(t, f.notifier.sent[0].Conv).Equal(conv("conv-team-1"))
	})

	t.Run("second approval is a harmless no-op", func(t *testing.T) {
		f := newIntroFixture(t)
		f.withPair(t, "hire-1", "mgr-1")
		teamID := f.seedTeam(t, "team-1")

		sub, err := f.uc.Introduction.Submit(ctx, "hire-1", answers("Kyoto", "Cycling"), "Hello!")
		gt.NoError(t, err).Required()

		first, err := f.uc.Introduction.Approve(ctx, sub.Introduction.Key, teamID)
		gt.NoError(t, err).Required()
		gt.Bool(t, first.OK).True()
		f.notifier.sent = nil

		second, err := f.uc.Introduction.Approve(ctx, sub.Introduction.Key, teamID)
		gt.NoError(t, err).Required()
		gt.Bool(t, second.OK).False()
		gt.String(t, second.Message).NotEqual("")
		gt.Array(t, f.notifier.sent).Length(0)
	})

	t.Run("unknown destination team fails", func(t *testing.T) {
		f := newIntroFixture(t)
		f.withPair(t, "hire-1", "mgr-1")

		sub, err := f.uc.Introduction.Submit(ctx, "hire-1", answers("Kyoto", "Cycling"), "Hello!")
		gt.NoError(t, err).Required()

		_, err = f.uc.Introduction.Approve(ctx, sub.Introduction.Key, "no-such-team")
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, usecase.ErrTeamNotFound)).True()
	})
}

func TestGetPendingIntroductions(t *testing.T) {
	ctx := context.Background()

	f := newIntroFixture(t)
	f.withPair(t, "hire-1", "mgr-1")
	f.withPair(t, "hire-2", "mgr-1")
	teamID := f.seedTeam(t, "team-1")

	sub1, err := f.uc.Introduction.Submit(ctx, "hire-1", answers("Kyoto", "Cycling"), "Hello!")
	gt.NoError(t, err).Required()
	_, err = f.uc.Introduction.Submit(ctx, "hire-2", answers("Nara", "Running"), "Hi there!")
	gt.NoError(t, err).Required()

	_, err = f.uc.Introduction.Approve(ctx, sub1.Introduction.Key, teamID)
	gt.NoError(t, err).Required()

	pending, err := f.uc.Introduction.GetPendingIntroductions(ctx, "mgr-1")
	gt.NoError(t, err).Required()
	gt.Array(t, pending).Length(1)
	gt.Value(t, pending[0].Key.NewHireID).Equal(types.UserID("hire-2"))
}
