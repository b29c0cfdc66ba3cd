package usecase

import (
	"time"

	"github.com/secmon-lab/onramp/pkg/domain/interfaces"
	"github.com/secmon-lab/onramp/pkg/service/avatar"
)

// UseCases bundles the workflow operations exposed to the bot layer
// and the roster reconciliation used by the sync path.
type UseCases struct {
	repo      interfaces.Repository
	directory interfaces.Directory
	notifier  interfaces.Notifier
	avatars   *avatar.Store
	questions []string
	now       func() time.Time

	Introduction *IntroductionUseCase
	Roster       *RosterUseCase
}

type Option func(*UseCases)

// WithDirectory sets the identity-graph resolver
func WithDirectory(d interfaces.Directory) Option {
	return func(uc *UseCases) {
		uc.directory = d
	}
}

// WithNotifier sets the notification sink
func WithNotifier(n interfaces.Notifier) Option {
	return func(uc *UseCases) {
		uc.notifier = n
	}
}

// WithAvatarStore enables profile-photo persistence
func WithAvatarStore(s *avatar.Store) Option {
	return func(uc *UseCases) {
		uc.avatars = s
	}
}

// WithQuestions sets the active question set seeded into new
// introductions
func WithQuestions(questions []string) Option {
	return func(uc *UseCases) {
		uc.questions = questions
	}
}

// WithClock overrides the time source, for tests
func WithClock(now func() time.Time) Option {
	return func(uc *UseCases) {
		uc.now = now
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo: repo,
		now:  time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Introduction = newIntroductionUseCase(uc)
	uc.Roster = newRosterUseCase(uc)

	return uc
}
