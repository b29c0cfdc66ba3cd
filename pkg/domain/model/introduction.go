package model

import (
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/onramp/pkg/domain/types"
)

// IntroductionKey is the composite identity of an introduction record.
// The manager scopes the partition, the new hire the row: together they
// are unique and an introduction is never deleted.
type IntroductionKey struct {
	ManagerID types.UserID
	NewHireID types.UserID
}

// Validate checks if both sides of the key are present
func (k IntroductionKey) Validate() error {
	if err := k.ManagerID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid manager ID")
	}
	if err := k.NewHireID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid new hire ID")
	}
	return nil
}

// DocID returns the storage document ID for the key
func (k IntroductionKey) DocID() string {
	return k.ManagerID.String() + ":" + k.NewHireID.String()
}

// QA is one question/answer pair of the introduction questionnaire
type QA struct {
	Question string
	Answer   string
}

// Answered reports whether the pair carries a non-blank answer
func (q QA) Answered() bool {
	return strings.TrimSpace(q.Answer) != ""
}

// Introduction tracks a new hire's self-introduction and its
// manager-approval lifecycle.
type Introduction struct {
	Key                 IntroductionKey
	Questionnaire       []QA
	Status              types.IntroStatus
	Comments            string
	ProfileNote         string
	ProfileImageURL     string
	NewHireConversation ConversationRef
	ManagerConversation ConversationRef
	ApprovedAt          *time.Time
	SurveyStatus        types.SurveyStatus
	SurveySentAt        *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Validate enforces the persistability invariant: an introduction may
// only be stored with both participants, both conversation references
// and a non-empty questionnaire.
func (x *Introduction) Validate() error {
	if err := x.Key.Validate(); err != nil {
		return goerr.Wrap(err, "invalid introduction key")
	}
	if err := x.NewHireConversation.Validate(); err != nil {
		return goerr.Wrap(err, "invalid new hire conversation", goerr.V("key", x.Key.DocID()))
	}
	if err := x.ManagerConversation.Validate(); err != nil {
		return goerr.Wrap(err, "invalid manager conversation", goerr.V("key", x.Key.DocID()))
	}
	if len(x.Questionnaire) == 0 {
		return goerr.New("questionnaire is required", goerr.V("key", x.Key.DocID()))
	}
	if !x.Status.IsValid() {
		return goerr.New("invalid introduction status", goerr.V("status", x.Status))
	}
	return nil
}

// FullyAnswered reports whether every questionnaire entry has a
// non-blank answer and the profile note is present.
func (x *Introduction) FullyAnswered() bool {
	if strings.TrimSpace(x.ProfileNote) == "" {
		return false
	}
	for _, qa := range x.Questionnaire {
		if !qa.Answered() {
			return false
		}
	}
	return true
}

// Approve moves the introduction to its terminal state. It fails if the
// transition is not allowed from the current status.
func (x *Introduction) Approve(now time.Time) error {
	if !x.Status.CanTransitionTo(types.IntroStatusApproved) {
		return goerr.New("cannot approve introduction",
			goerr.V("key", x.Key.DocID()), goerr.V("status", x.Status))
	}
	x.Status = types.IntroStatusApproved
	x.ApprovedAt = &now
	x.UpdatedAt = now
	return nil
}

// MarkSurveySent flips the survey status to Sent. Only an approved
// introduction with a pending survey may be marked.
func (x *Introduction) MarkSurveySent(now time.Time) error {
	if x.Status != types.IntroStatusApproved {
		return goerr.New("survey can only be sent for an approved introduction",
			goerr.V("key", x.Key.DocID()), goerr.V("status", x.Status))
	}
	if x.SurveyStatus.Normalize() != types.SurveyStatusPending {
		return goerr.New("survey already sent", goerr.V("key", x.Key.DocID()))
	}
	x.SurveyStatus = types.SurveyStatusSent
	x.SurveySentAt = &now
	x.UpdatedAt = now
	return nil
}
