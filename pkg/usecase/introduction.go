package usecase

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/onramp/pkg/domain/model"
	"github.com/secmon-lab/onramp/pkg/domain/types"
	"github.com/secmon-lab/onramp/pkg/utils/errutil"
)

// IntroductionUseCase drives the approval state machine for one
// new-hire/manager pair.
type IntroductionUseCase struct {
	uc *UseCases
}

func newIntroductionUseCase(uc *UseCases) *IntroductionUseCase {
	return &IntroductionUseCase{uc: uc}
}

// StartOrResumeResult is the view returned when a new hire opens the
// introduction card.
type StartOrResumeResult struct {
	Introduction *model.Introduction
	// ReadOnly is set when the introduction is already approved and may
	// only be displayed, not edited.
	ReadOnly bool
}

// StartOrResume resolves the hire's manager, then returns the existing
// introduction for display/edit, a read-only view when already
// approved, or a fresh pending record seeded with the active question
// set. Nothing is persisted here: persistence happens on Submit.
func (x *IntroductionUseCase) StartOrResume(ctx context.Context, newHireID types.UserID) (*StartOrResumeResult, error) {
	manager, err := x.uc.directory.ManagerOf(ctx, newHireID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve manager", goerr.V(NewHireIDKey, newHireID))
	}
	if manager == nil {
		return nil, goerr.Wrap(ErrManagerNotFound, "no manager assigned", goerr.V(NewHireIDKey, newHireID))
	}

	key := model.IntroductionKey{ManagerID: manager.ID, NewHireID: newHireID}
	intro, err := x.uc.repo.Introduction().Get(ctx, key)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load introduction", goerr.V("key", key.DocID()))
	}

	if intro != nil {
		return &StartOrResumeResult{
			Introduction: intro,
			ReadOnly:     intro.Status == types.IntroStatusApproved,
		}, nil
	}

	now := x.uc.now()
	qas := make([]model.QA, len(x.uc.questions))
	for i, q := range x.uc.questions {
		qas[i] = model.QA{Question: q}
	}

	intro = &model.Introduction{
		Key:           key,
		Questionnaire: qas,
		Status:        types.IntroStatusPendingApproval,
		SurveyStatus:  types.SurveyStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	// Profile enrichment is best effort: a missing photo or note never
	// blocks the card.
	if note, err := x.uc.directory.ProfileNoteOf(ctx, newHireID); err != nil {
		errutil.Handle(ctx, err, "failed to fetch profile note")
	} else {
		intro.ProfileNote = note
	}

	if x.uc.avatars != nil {
		if photo, err := x.uc.directory.PhotoOf(ctx, newHireID); err != nil {
			errutil.Handle(ctx, err, "failed to fetch profile photo")
		} else if len(photo) > 0 {
			if url, err := x.uc.avatars.Put(ctx, newHireID, photo); err != nil {
				errutil.Handle(ctx, err, "failed to store profile photo")
			} else {
				intro.ProfileImageURL = url
			}
		}
	}

	return &StartOrResumeResult{Introduction: intro}, nil
}

// SubmitResult reports the outcome of a submit action. A validation
// failure carries a user-facing message and leaves stored state
// unchanged.
type SubmitResult struct {
	OK           bool
	Message      string
	Introduction *model.Introduction
}

// Submit validates the hire's answers and persists the introduction for
// manager review. The manager is alerted only after a successful store
// write.
func (x *IntroductionUseCase) Submit(ctx context.Context, newHireID types.UserID, answers []model.QA, profileNote string) (*SubmitResult, error) {
	if strings.TrimSpace(profileNote) == "" {
		return &SubmitResult{Message: "Please add a short note about yourself before submitting."}, nil
	}
	for _, qa := range answers {
		if !qa.Answered() {
			return &SubmitResult{Message: "Please answer every question before submitting."}, nil
		}
	}

	manager, err := x.uc.directory.ManagerOf(ctx, newHireID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve manager", goerr.V(NewHireIDKey, newHireID))
	}
	if manager == nil {
		return nil, goerr.Wrap(ErrManagerNotFound, "no manager assigned", goerr.V(NewHireIDKey, newHireID))
	}

	hire, err := x.uc.repo.User().Get(ctx, newHireID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load new hire", goerr.V(NewHireIDKey, newHireID))
	}
	if hire == nil || hire.Conversation.IsZero() {
		return nil, goerr.Wrap(ErrNewHireUnavailable, "new hire has not activated the app", goerr.V(NewHireIDKey, newHireID))
	}

	managerUser, err := x.uc.repo.User().Get(ctx, manager.ID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load manager", goerr.V(ManagerIDKey, manager.ID))
	}
	if managerUser == nil || managerUser.Conversation.IsZero() {
		// The record is not persisted; the employee gets told their
		// manager cannot be reached yet.
		return nil, goerr.Wrap(ErrManagerUnavailable, "manager has not activated the app", goerr.V(ManagerIDKey, manager.ID))
	}

	key := model.IntroductionKey{ManagerID: manager.ID, NewHireID: newHireID}
	intro, err := x.uc.repo.Introduction().Get(ctx, key)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load introduction", goerr.V("key", key.DocID()))
	}

	now := x.uc.now()
	if intro == nil {
		intro = &model.Introduction{
			Key:          key,
			SurveyStatus: types.SurveyStatusPending,
			CreatedAt:    now,
		}
	} else if intro.Status == types.IntroStatusApproved {
		return &SubmitResult{Message: "This introduction is already approved.", Introduction: intro}, nil
	}

	intro.Questionnaire = answers
	intro.ProfileNote = profileNote
	intro.Status = types.IntroStatusPendingApproval
	intro.NewHireConversation = hire.Conversation
	intro.ManagerConversation = managerUser.Conversation
	intro.UpdatedAt = now

	if err := x.uc.repo.Introduction().Put(ctx, intro); err != nil {
		return nil, goerr.Wrap(err, "failed to persist introduction", goerr.V("key", key.DocID()))
	}

	// Notification strictly follows a successful write. A delivery
	// failure is logged, never unwound into the stored state.
	msg := &model.Notification{
		Kind:  model.NotificationIntroSubmitted,
		Title: "New introduction awaiting your review",
		Body:  hire.DisplayName + " submitted their introduction.",
		Fields: []model.NotificationField{
			{Label: "About", Value: profileNote},
		},
	}
	if err := x.uc.notifier.Send(ctx, msg, intro.ManagerConversation); err != nil {
		errutil.Handle(ctx, err, "failed to notify manager of submission")
	}

	return &SubmitResult{OK: true, Introduction: intro}, nil
}

// ActionResult reports the outcome of a manager action. Validation
// rejections and idempotent no-ops carry a user-facing message.
type ActionResult struct {
	OK      bool
	Message string
}

// RequestMoreInfo moves a pending introduction to TellMeMore, stores
// the manager's comment and alerts the new hire. A blank comment is a
// validation rejection; an approved record is a no-op.
func (x *IntroductionUseCase) RequestMoreInfo(ctx context.Context, key model.IntroductionKey, comment string) (*ActionResult, error) {
	if strings.TrimSpace(comment) == "" {
		return &ActionResult{Message: "Please add a comment describing what you would like to know."}, nil
	}

	intro, err := x.uc.repo.Introduction().Get(ctx, key)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load introduction", goerr.V("key", key.DocID()))
	}
	if intro == nil {
		return nil, goerr.Wrap(ErrIntroductionNotFound, "no introduction for pair", goerr.V("key", key.DocID()))
	}

	if intro.Status == types.IntroStatusApproved {
		return &ActionResult{Message: "This introduction is already approved."}, nil
	}

	intro.Status = types.IntroStatusTellMeMore
	intro.Comments = comment
	intro.UpdatedAt = x.uc.now()

	if err := x.uc.repo.Introduction().Put(ctx, intro); err != nil {
		return nil, goerr.Wrap(err, "failed to persist introduction", goerr.V("key", key.DocID()))
	}

	msg := &model.Notification{
		Kind:  model.NotificationTellMeMore,
		Title: "Your manager would like to know more",
		Body:  comment,
	}
	if err := x.uc.notifier.Send(ctx, msg, intro.NewHireConversation); err != nil {
		errutil.Handle(ctx, err, "failed to notify new hire of comment")
	}

	return &ActionResult{OK: true}, nil
}

// ApproveResult reports the outcome of an approve action. When no team
// was selected the caller is prompted with the available destinations.
type ApproveResult struct {
	OK                 bool
	Message            string
	NeedsTeamSelection bool
	Teams              []*model.Team
}

// Approve is the single authoritative terminal transition. Approving an
// already-approved introduction is a validation no-op, never an error:
// duplicate manager clicks must be harmless. The public channel post is
// strictly conditioned on a successful store write.
func (x *IntroductionUseCase) Approve(ctx context.Context, key model.IntroductionKey, teamID types.TeamID) (*ApproveResult, error) {
	intro, err := x.uc.repo.Introduction().Get(ctx, key)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load introduction", goerr.V("key", key.DocID()))
	}
	if intro == nil {
		return nil, goerr.Wrap(ErrIntroductionNotFound, "no introduction for pair", goerr.V("key", key.DocID()))
	}

	if intro.Status == types.IntroStatusApproved {
		return &ApproveResult{Message: "This introduction is already approved."}, nil
	}

	if teamID == "" {
		teams, err := x.uc.repo.Team().GetAll(ctx)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list teams")
		}
		return &ApproveResult{NeedsTeamSelection: true, Teams: teams}, nil
	}

	team, err := x.uc.repo.Team().Get(ctx, teamID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load team", goerr.V(TeamIDKey, teamID))
	}
	if team == nil {
		return nil, goerr.Wrap(ErrTeamNotFound, "unknown destination team", goerr.V(TeamIDKey, teamID))
	}

	if err := intro.Approve(x.uc.now()); err != nil {
		return nil, err
	}

	if err := x.uc.repo.Introduction().Put(ctx, intro); err != nil {
		// No notification on a failed write: the caller's retry owns
		// at-least-once, the engine never duplicates client-side.
		return nil, goerr.Wrap(err, "failed to persist approval", goerr.V("key", key.DocID()))
	}

	fields := make([]model.NotificationField, 0, len(intro.Questionnaire)+1)
	fields = append(fields, model.NotificationField{Label: "About", Value: intro.ProfileNote})
	for _, qa := range intro.Questionnaire {
		fields = append(fields, model.NotificationField{Label: qa.Question, Value: qa.Answer})
	}
	msg := &model.Notification{
		Kind:   model.NotificationIntroApproved,
		Title:  "Please welcome our new team member!",
		Fields: fields,
	}
	if err := x.uc.notifier.Send(ctx, msg, team.Conversation); err != nil {
		errutil.Handle(ctx, err, "failed to post public introduction")
	}

	return &ApproveResult{OK: true}, nil
}

// GetPendingIntroductions lists a manager's introductions that still
// need action (pending approval or waiting on more info).
func (x *IntroductionUseCase) GetPendingIntroductions(ctx context.Context, managerID types.UserID) ([]*model.Introduction, error) {
	intros, err := x.uc.repo.Introduction().ListByManager(ctx, managerID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list introductions", goerr.V(ManagerIDKey, managerID))
	}

	pending := make([]*model.Introduction, 0, len(intros))
	for _, intro := range intros {
		if intro.Status != types.IntroStatusApproved {
			pending = append(pending, intro)
		}
	}
	return pending, nil
}

// GetTeamMapping returns the teams visible to the user token together
// with their channels, for the approval destination picker. A channel
// listing failure for one team skips that team rather than failing the
// whole mapping.
func (x *IntroductionUseCase) GetTeamMapping(ctx context.Context, userToken string) ([]model.TeamMapping, error) {
	teams, err := x.uc.directory.TeamsJoinedBy(ctx, userToken)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list joined teams")
	}

	mappings := make([]model.TeamMapping, 0, len(teams))
	for _, team := range teams {
		channels, err := x.uc.directory.ChannelsOf(ctx, team.ID)
		if err != nil {
			errutil.Handle(ctx, err, "failed to list channels for team")
			continue
		}
		mappings = append(mappings, model.TeamMapping{Team: team, Channels: channels})
	}
	return mappings, nil
}
