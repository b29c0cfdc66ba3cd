package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/onramp/pkg/domain/model"
	"github.com/secmon-lab/onramp/pkg/domain/types"
)

type introductionRepository struct {
	mu     sync.RWMutex
	intros map[string]*model.Introduction
}

func newIntroductionRepository() *introductionRepository {
	return &introductionRepository{
		intros: make(map[string]*model.Introduction),
	}
}

func copyIntro(src *model.Introduction) *model.Introduction {
	dst := *src
	dst.Questionnaire = make([]model.QA, len(src.Questionnaire))
	copy(dst.Questionnaire, src.Questionnaire)
	if src.ApprovedAt != nil {
		t := *src.ApprovedAt
		dst.ApprovedAt = &t
	}
	if src.SurveySentAt != nil {
		t := *src.SurveySentAt
		dst.SurveySentAt = &t
	}
	return &dst
}

// Get retrieves an introduction by composite key. Missing records are
// not an error.
func (r *introductionRepository) Get(ctx context.Context, key model.IntroductionKey) (*model.Introduction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	intro, ok := r.intros[key.DocID()]
	if !ok {
		return nil, nil
	}
	return copyIntro(intro), nil
}

// Put upserts an introduction after validating the persistability
// invariant.
func (r *introductionRepository) Put(ctx context.Context, intro *model.Introduction) error {
	if err := intro.Validate(); err != nil {
		return goerr.Wrap(err, "introduction is not persistable")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.intros[intro.Key.DocID()] = copyIntro(intro)
	return nil
}

// ListByManager retrieves all introductions in a manager's partition,
// newest first
func (r *introductionRepository) ListByManager(ctx context.Context, managerID types.UserID) ([]*model.Introduction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var intros []*model.Introduction
	for _, intro := range r.intros {
		if intro.Key.ManagerID == managerID {
			intros = append(intros, copyIntro(intro))
		}
	}
	sort.Slice(intros, func(i, j int) bool {
		return intros[i].CreatedAt.After(intros[j].CreatedAt)
	})
	return intros, nil
}

// ListByStatus retrieves introductions whose status is in the given set
func (r *introductionRepository) ListByStatus(ctx context.Context, statuses ...types.IntroStatus) ([]*model.Introduction, error) {
	wanted := make(map[types.IntroStatus]bool, len(statuses))
	for _, s := range statuses {
		wanted[s] = true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var intros []*model.Introduction
	for _, intro := range r.intros {
		if wanted[intro.Status] {
			intros = append(intros, copyIntro(intro))
		}
	}
	return intros, nil
}

// ListPendingSurvey retrieves approved introductions with an unsent
// feedback survey
func (r *introductionRepository) ListPendingSurvey(ctx context.Context) ([]*model.Introduction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var intros []*model.Introduction
	for _, intro := range r.intros {
		if intro.Status == types.IntroStatusApproved && intro.SurveyStatus.Normalize() == types.SurveyStatusPending {
			intros = append(intros, copyIntro(intro))
		}
	}
	return intros, nil
}
