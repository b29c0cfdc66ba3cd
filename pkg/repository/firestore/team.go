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

const teamsCollection = "teams"

type teamRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.TeamRepository = &teamRepository{}

func newTeamRepository(client *firestore.Client) *teamRepository {
	return &teamRepository{
		client: client,
	}
}

// teamDoc is the Firestore persistence model
type teamDoc struct {
	ID              string    `firestore:"id"`
	Name            string    `firestore:"name"`
	ConversationID  string    `firestore:"conversation_id"`
	ServiceEndpoint string    `firestore:"service_endpoint"`
	InstalledAt     time.Time `firestore:"installed_at"`
}

func (r *teamRepository) collection() *firestore.CollectionRef {
	if r.collectionPrefix != "" {
		return r.client.Collection(r.collectionPrefix + "_" + teamsCollection)
	}
	return r.client.Collection(teamsCollection)
}

func (r *teamRepository) toDoc(team *model.Team) *teamDoc {
	return &teamDoc{
		ID:              team.ID.String(),
		Name:            team.Name,
		ConversationID:  team.Conversation.ID.String(),
		ServiceEndpoint: team.Conversation.ServiceEndpoint,
		InstalledAt:     team.InstalledAt,
	}
}

func (r *teamRepository) fromDoc(doc *teamDoc) *model.Team {
	return &model.Team{
		ID:   types.TeamID(doc.ID),
		Name: doc.Name,
		Conversation: model.ConversationRef{
			ID:              types.ConversationID(doc.ConversationID),
			ServiceEndpoint: doc.ServiceEndpoint,
		},
		InstalledAt: doc.InstalledAt,
	}
}

// Get retrieves a team by ID
func (r *teamRepository) Get(ctx context.Context, id types.TeamID) (*model.Team, error) {
	snap, err := r.collection().Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to get team", goerr.V("id", id))
	}

	var doc teamDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal team", goerr.V("id", id))
	}
	return r.fromDoc(&doc), nil
}

// Put upserts a team installation record
func (r *teamRepository) Put(ctx context.Context, team *model.Team) error {
	if err := team.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid team")
	}

	if _, err := r.collection().Doc(team.ID.String()).Set(ctx, r.toDoc(team)); err != nil {
		return goerr.Wrap(err, "failed to put team", goerr.V("id", team.ID))
	}
	return nil
}

// Delete removes a team record on uninstall
func (r *teamRepository) Delete(ctx context.Context, id types.TeamID) error {
	if _, err := r.collection().Doc(id.String()).Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete team", goerr.V("id", id))
	}
	return nil
}

// GetAll retrieves all team installation records
func (r *teamRepository) GetAll(ctx context.Context) ([]*model.Team, error) {
	iter := r.collection().Documents(ctx)
	defer iter.Stop()

	var teams []*model.Team
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate teams")
		}

		var doc teamDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal team", goerr.V("docID", snap.Ref.ID))
		}
		teams = append(teams, r.fromDoc(&doc))
	}
	return teams, nil
}
