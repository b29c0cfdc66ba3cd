package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/onramp/pkg/domain/interfaces"
)

// batchPutLimit is the store-level batch size for bulk upserts. Writes
// are chunked at this size regardless of the backend's own limit.
const batchPutLimit = 100

// Firestore is the production repository backend
type Firestore struct {
	client       *firestore.Client
	introduction *introductionRepository
	user         *userRepository
	team         *teamRepository
	checkpoint   *checkpointRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix namespaces all collections, mainly for tests
// sharing a database.
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.introduction.collectionPrefix = prefix
		f.user.collectionPrefix = prefix
		f.team.collectionPrefix = prefix
		f.checkpoint.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client", goerr.V("projectID", projectID))
	}

	f := &Firestore{
		client:       client,
		introduction: newIntroductionRepository(client),
		user:         newUserRepository(client),
		team:         newTeamRepository(client),
		checkpoint:   newCheckpointRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Introduction() interfaces.IntroductionRepository {
	return f.introduction
}

func (f *Firestore) User() interfaces.UserRepository {
	return f.user
}

func (f *Firestore) Team() interfaces.TeamRepository {
	return f.team
}

func (f *Firestore) Checkpoint() interfaces.CheckpointRepository {
	return f.checkpoint
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
