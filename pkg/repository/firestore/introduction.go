package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/onramp/pkg/domain/interfaces"
	"github.com/secmon-lab/onramp/pkg/domain/model"
	"github.com/secmon-lab/onramp/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const introductionsCollection = "introductions"

type introductionRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.IntroductionRepository = &introductionRepository{}

func newIntroductionRepository(client *firestore.Client) *introductionRepository {
	return &introductionRepository{
		client: client,
	}
}

// qaDoc is one questionnaire entry in the persistence model
type qaDoc struct {
	Question string `firestore:"question"`
	Answer   string `firestore:"answer"`
}

// introductionDoc is the Firestore persistence model
type introductionDoc struct {
	ManagerID              string     `firestore:"manager_id"`
	NewHireID              string     `firestore:"new_hire_id"`
	Questionnaire          []qaDoc    `firestore:"questionnaire"`
	Status                 string     `firestore:"status"`
	Comments               string     `firestore:"comments"`
	ProfileNote            string     `firestore:"profile_note"`
	ProfileImageURL        string     `firestore:"profile_image_url"`
	NewHireConversationID  string     `firestore:"new_hire_conversation_id"`
	NewHireServiceEndpoint string     `firestore:"new_hire_service_endpoint"`
	ManagerConversationID  string     `firestore:"manager_conversation_id"`
	ManagerServiceEndpoint string     `firestore:"manager_service_endpoint"`
	ApprovedAt             *time.Time `firestore:"approved_at"`
	SurveyStatus           string     `firestore:"survey_status"`
	SurveySentAt           *time.Time `firestore:"survey_sent_at"`
	CreatedAt              time.Time  `firestore:"created_at"`
	UpdatedAt              time.Time  `firestore:"updated_at"`
}

func (r *introductionRepository) collection() *firestore.CollectionRef {
	if r.collectionPrefix != "" {
		return r.client.Collection(r.collectionPrefix + "_" + introductionsCollection)
	}
	return r.client.Collection(introductionsCollection)
}

func (r *introductionRepository) toDoc(intro *model.Introduction) *introductionDoc {
	qas := make([]qaDoc, len(intro.Questionnaire))
	for i, qa := range intro.Questionnaire {
		qas[i] = qaDoc{Question: qa.Question, Answer: qa.Answer}
	}
	return &introductionDoc{
		ManagerID:              intro.Key.ManagerID.String(),
		NewHireID:              intro.Key.NewHireID.String(),
		Questionnaire:          qas,
		Status:                 intro.Status.String(),
		Comments:               intro.Comments,
		ProfileNote:            intro.ProfileNote,
		ProfileImageURL:        intro.ProfileImageURL,
		NewHireConversationID:  intro.NewHireConversation.ID.String(),
		NewHireServiceEndpoint: intro.NewHireConversation.ServiceEndpoint,
		ManagerConversationID:  intro.ManagerConversation.ID.String(),
		ManagerServiceEndpoint: intro.ManagerConversation.ServiceEndpoint,
		ApprovedAt:             intro.ApprovedAt,
		SurveyStatus:           intro.SurveyStatus.Normalize().String(),
		SurveySentAt:           intro.SurveySentAt,
		CreatedAt:              intro.CreatedAt,
		UpdatedAt:              intro.UpdatedAt,
	}
}

func (r *introductionRepository) fromDoc(doc *introductionDoc) *model.Introduction {
	qas := make([]model.QA, len(doc.Questionnaire))
	for i, qa := range doc.Questionnaire {
		qas[i] = model.QA{Question: qa.Question, Answer: qa.Answer}
	}
	return &model.Introduction{
		Key: model.IntroductionKey{
			ManagerID: types.UserID(doc.ManagerID),
			NewHireID: types.UserID(doc.NewHireID),
		},
		Questionnaire:   qas,
		Status:          types.IntroStatus(doc.Status),
		Comments:        doc.Comments,
		ProfileNote:     doc.ProfileNote,
		ProfileImageURL: doc.ProfileImageURL,
		NewHireConversation: model.ConversationRef{
			ID:              types.ConversationID(doc.NewHireConversationID),
			ServiceEndpoint: doc.NewHireServiceEndpoint,
		},
		ManagerConversation: model.ConversationRef{
			ID:              types.ConversationID(doc.ManagerConversationID),
			ServiceEndpoint: doc.ManagerServiceEndpoint,
		},
		ApprovedAt:   doc.ApprovedAt,
		SurveyStatus: types.SurveyStatus(doc.SurveyStatus),
		SurveySentAt: doc.SurveySentAt,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}
}

// Get retrieves an introduction by its composite key
func (r *introductionRepository) Get(ctx context.Context, key model.IntroductionKey) (*model.Introduction, error) {
	snap, err := r.collection().Doc(key.DocID()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to get introduction", goerr.V("key", key.DocID()))
	}

	var doc introductionDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal introduction", goerr.V("key", key.DocID()))
	}
	return r.fromDoc(&doc), nil
}

// Put upserts an introduction after validating the persistability
// invariant
func (r *introductionRepository) Put(ctx context.Context, intro *model.Introduction) error {
	if err := intro.Validate(); err != nil {
		return goerr.Wrap(err, "introduction is not persistable")
	}

	if _, err := r.collection().Doc(intro.Key.DocID()).Set(ctx, r.toDoc(intro)); err != nil {
		return goerr.Wrap(err, "failed to put introduction", goerr.V("key", intro.Key.DocID()))
	}
	return nil
}

func (r *introductionRepository) listByQuery(ctx context.Context, q firestore.Query) ([]*model.Introduction, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	var intros []*model.Introduction
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate introductions")
		}

		var doc introductionDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal introduction", goerr.V("docID", snap.Ref.ID))
		}
		intros = append(intros, r.fromDoc(&doc))
	}
	return intros, nil
}

// ListByManager retrieves all introductions in a manager's partition,
// newest first. Requires the composite index installed by the migrate
// command.
func (r *introductionRepository) ListByManager(ctx context.Context, managerID types.UserID) ([]*model.Introduction, error) {
	q := r.collection().
		Where("manager_id", "==", managerID.String()).
		OrderBy("created_at", firestore.Desc)
	return r.listByQuery(ctx, q)
}

// ListByStatus retrieves introductions whose status is in the given set
func (r *introductionRepository) ListByStatus(ctx context.Context, statuses ...types.IntroStatus) ([]*model.Introduction, error) {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = s.String()
	}
	return r.listByQuery(ctx, r.collection().Where("status", "in", values))
}

// ListPendingSurvey retrieves approved introductions with an unsent
// feedback survey. Requires the composite index installed by the
// migrate command.
func (r *introductionRepository) ListPendingSurvey(ctx context.Context) ([]*model.Introduction, error) {
	q := r.collection().
		Where("status", "==", types.IntroStatusApproved.String()).
		Where("survey_status", "==", types.SurveyStatusPending.String())
	return r.listByQuery(ctx, q)
}
