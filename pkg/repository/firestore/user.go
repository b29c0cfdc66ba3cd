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

const usersCollection = "users"

type userRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.UserRepository = &userRepository{}

func newUserRepository(client *firestore.Client) *userRepository {
	return &userRepository{
		client: client,
	}
}

// userDoc is the Firestore persistence model. Installed mirrors
// InstalledAt as a bool so queries can filter on it without a range
// index.
type userDoc struct {
	ID                string     `firestore:"id"`
	Role              string     `firestore:"role"`
	ConversationID    string     `firestore:"conversation_id"`
	ServiceEndpoint   string     `firestore:"service_endpoint"`
	Installed         bool       `firestore:"installed"`
	InstalledAt       *time.Time `firestore:"installed_at"`
	OptedIntoPairUps  bool       `firestore:"opted_into_pair_ups"`
	DisplayName       string     `firestore:"display_name"`
	UserPrincipalName string     `firestore:"user_principal_name"`
	ProfileImageURL   string     `firestore:"profile_image_url"`
	CreatedAt         time.Time  `firestore:"created_at"`
	UpdatedAt         time.Time  `firestore:"updated_at"`
}

func (r *userRepository) collection() *firestore.CollectionRef {
	if r.collectionPrefix != "" {
		return r.client.Collection(r.collectionPrefix + "_" + usersCollection)
	}
	return r.client.Collection(usersCollection)
}

func (r *userRepository) toDoc(user *model.User) *userDoc {
	return &userDoc{
		ID:                user.ID.String(),
		Role:              user.Role.String(),
		ConversationID:    user.Conversation.ID.String(),
		ServiceEndpoint:   user.Conversation.ServiceEndpoint,
		Installed:         user.IsActivated(),
		InstalledAt:       user.InstalledAt,
		OptedIntoPairUps:  user.OptedIntoPairUps,
		DisplayName:       user.DisplayName,
		UserPrincipalName: user.UserPrincipalName,
		ProfileImageURL:   user.ProfileImageURL,
		CreatedAt:         user.CreatedAt,
		UpdatedAt:         user.UpdatedAt,
	}
}

func (r *userRepository) fromDoc(doc *userDoc) *model.User {
	return &model.User{
		ID:   types.UserID(doc.ID),
		Role: types.UserRole(doc.Role),
		Conversation: model.ConversationRef{
			ID:              types.ConversationID(doc.ConversationID),
			ServiceEndpoint: doc.ServiceEndpoint,
		},
		InstalledAt:       doc.InstalledAt,
		OptedIntoPairUps:  doc.OptedIntoPairUps,
		DisplayName:       doc.DisplayName,
		UserPrincipalName: doc.UserPrincipalName,
		ProfileImageURL:   doc.ProfileImageURL,
		CreatedAt:         doc.CreatedAt,
		UpdatedAt:         doc.UpdatedAt,
	}
}

// Get retrieves a user by directory ID
func (r *userRepository) Get(ctx context.Context, id types.UserID) (*model.User, error) {
	snap, err := r.collection().Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to get user", goerr.V("id", id))
	}

	var doc userDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal user", goerr.V("id", id))
	}
	return r.fromDoc(&doc), nil
}

// Put upserts a single user
func (r *userRepository) Put(ctx context.Context, user *model.User) error {
	if err := user.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid user")
	}

	if _, err := r.collection().Doc(user.ID.String()).Set(ctx, r.toDoc(user)); err != nil {
		return goerr.Wrap(err, "failed to put user", goerr.V("id", user.ID))
	}
	return nil
}

// SaveMany upserts users in chunks of batchPutLimit
func (r *userRepository) SaveMany(ctx context.Context, users []*model.User) error {
	for start := 0; start < len(users); start += batchPutLimit {
		end := start + batchPutLimit
		if end > len(users) {
			end = len(users)
		}

		chunk := users[start:end]
		bw := r.client.BulkWriter(ctx)
		jobs := make([]*firestore.BulkWriterJob, 0, len(chunk))
		for _, user := range chunk {
			if err := user.ID.Validate(); err != nil {
				return goerr.Wrap(err, "invalid user in batch")
			}
			job, err := bw.Set(r.collection().Doc(user.ID.String()), r.toDoc(user))
			if err != nil {
				return goerr.Wrap(err, "failed to enqueue user write", goerr.V("id", user.ID))
			}
			jobs = append(jobs, job)
		}
		bw.End()

		// End only flushes; per-write failures surface through the jobs.
		for i, job := range jobs {
			if _, err := job.Results(); err != nil {
				return goerr.Wrap(err, "failed to write user in batch", goerr.V("id", chunk[i].ID))
			}
		}
	}
	return nil
}

func (r *userRepository) listByQuery(ctx context.Context, q firestore.Query) ([]*model.User, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	var users []*model.User
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate users")
		}

		var doc userDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal user", goerr.V("docID", snap.Ref.ID))
		}
		users = append(users, r.fromDoc(&doc))
	}
	return users, nil
}

// GetAll retrieves all known users
func (r *userRepository) GetAll(ctx context.Context) ([]*model.User, error) {
	return r.listByQuery(ctx, r.collection().Query)
}

// ListByRole retrieves users with the given role
func (r *userRepository) ListByRole(ctx context.Context, role types.UserRole) ([]*model.User, error) {
	return r.listByQuery(ctx, r.collection().Where("role", "==", role.String()))
}

// ListActivated retrieves users with a recorded app installation
func (r *userRepository) ListActivated(ctx context.Context) ([]*model.User, error) {
	return r.listByQuery(ctx, r.collection().Where("installed", "==", true))
}

// ListNotActivated retrieves skeleton users still lacking installation
func (r *userRepository) ListNotActivated(ctx context.Context) ([]*model.User, error) {
	return r.listByQuery(ctx, r.collection().Where("installed", "==", false))
}
