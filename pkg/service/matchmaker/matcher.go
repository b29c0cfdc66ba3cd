package matchmaker

import (
	"math/rand"
	"time"

	"github.com/secmon-lab/onramp/pkg/domain/model"
)

// DefaultRetentionThreshold splits tenured employees from recent hires
// by install age.
const DefaultRetentionThreshold = 90 * 24 * time.Hour

// Pair is one unordered cross-cohort match produced by a cycle
type Pair struct {
	A *model.User
	B *model.User
}

// Contains reports whether the pair includes the given user
func (p *Pair) Contains(id string) bool {
	return p.A.ID.String() == id || p.B.ID.String() == id
}

// Matcher selects one pair of users per scheduling cycle. It is
// stateless: each call shuffles with a fresh seed and no pair history
// is kept.
type Matcher struct {
	threshold time.Duration
	newRand   func() *rand.Rand
}

// Option is a functional option for Matcher configuration
type Option func(*Matcher)

// WithRetentionThreshold sets the tenured/recent split point
func WithRetentionThreshold(d time.Duration) Option {
	return func(m *Matcher) {
		m.threshold = d
	}
}

// WithRandSource overrides the per-call random source, for tests
func WithRandSource(f func() *rand.Rand) Option {
	return func(m *Matcher) {
		m.newRand = f
	}
}

// New creates a Matcher
func New(opts ...Option) *Matcher {
	m := &Matcher{
		threshold: DefaultRetentionThreshold,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match partitions the given users into tenured and recent cohorts and
// returns one cross-cohort pair, or nil when no pair can be formed.
// Callers pass opted-in users; records without an install timestamp are
// skipped. When no tenured user exists the matcher falls back to
// pairing two distinct recent hires.
func (m *Matcher) Match(users []*model.User, now time.Time) *Pair {
	var tenured, recent []*model.User
	for _, u := range users {
		if !u.IsActivated() || !u.OptedIntoPairUps {
			continue
		}
		if u.Tenure(now) >= m.threshold {
			tenured = append(tenured, u)
		} else {
			recent = append(recent, u)
		}
	}

	rng := m.newRand()

	if len(tenured) > 0 {
		if len(recent) == 0 {
			return nil
		}
		rng.Shuffle(len(tenured), func(i, j int) {
			tenured[i], tenured[j] = tenured[j], tenured[i]
		})
		rng.Shuffle(len(recent), func(i, j int) {
			recent[i], recent[j] = recent[j], recent[i]
		})
		return &Pair{A: tenured[0], B: recent[0]}
	}

	if len(recent) < 2 {
		return nil
	}
	rng.Shuffle(len(recent), func(i, j int) {
		recent[i], recent[j] = recent[j], recent[i]
	})
	// Shuffled slice entries are distinct users by construction
	return &Pair{A: recent[0], B: recent[1]}
}
