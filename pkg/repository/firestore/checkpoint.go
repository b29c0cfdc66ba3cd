package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/onramp/pkg/domain/interfaces"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const checkpointsCollection = "scheduler_checkpoints"

type checkpointRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.CheckpointRepository = &checkpointRepository{}

func newCheckpointRepository(client *firestore.Client) *checkpointRepository {
	return &checkpointRepository{
		client: client,
	}
}

type checkpointDoc struct {
	Job     string    `firestore:"job"`
	LastRun time.Time `firestore:"last_run"`
}

func (r *checkpointRepository) collection() *firestore.CollectionRef {
	if r.collectionPrefix != "" {
		return r.client.Collection(r.collectionPrefix + "_" + checkpointsCollection)
	}
	return r.client.Collection(checkpointsCollection)
}

// GetLastRun retrieves the last recorded run time of a job
func (r *checkpointRepository) GetLastRun(ctx context.Context, job string) (time.Time, error) {
	snap, err := r.collection().Doc(job).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return time.Time{}, nil
		}
		return time.Time{}, goerr.Wrap(err, "failed to get checkpoint", goerr.V("job", job))
	}

	var doc checkpointDoc
	if err := snap.DataTo(&doc); err != nil {
		return time.Time{}, goerr.Wrap(err, "failed to unmarshal checkpoint", goerr.V("job", job))
	}
	return doc.LastRun, nil
}

// PutLastRun records the run time of a job
func (r *checkpointRepository) PutLastRun(ctx context.Context, job string, at time.Time) error {
	doc := &checkpointDoc{Job: job, LastRun: at}
	if _, err := r.collection().Doc(job).Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to put checkpoint", goerr.V("job", job))
	}
	return nil
}
