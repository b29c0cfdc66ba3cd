package avatar

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/onramp/pkg/domain/types"
	"github.com/secmon-lab/onramp/pkg/utils/safe"
)

// Store keeps fetched profile photos in a GCS bucket so introduction
// cards can reference a stable URL instead of re-fetching from the
// directory.
type Store struct {
	client *storage.Client
	bucket string
}

// New creates an avatar store backed by the given bucket
func New(ctx context.Context, bucket string) (*Store, error) {
	if bucket == "" {
		return nil, goerr.New("avatar bucket name is required")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}

	return &Store{
		client: client,
		bucket: bucket,
	}, nil
}

// Put uploads a profile photo and returns its public object URL. Each
// upload gets a fresh object name so stale cached URLs keep resolving.
func (s *Store) Put(ctx context.Context, userID types.UserID, data []byte) (string, error) {
	object := fmt.Sprintf("avatars/%s/%s.jpg", userID, uuid.NewString())

	w := s.client.Bucket(s.bucket).Object(object).NewWriter(ctx)
	w.ContentType = "image/jpeg"
	if _, err := w.Write(data); err != nil {
		safe.Close(ctx, w)
		return "", goerr.Wrap(err, "failed to write avatar", goerr.V("object", object))
	}
	if err := w.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to finalize avatar upload", goerr.V("object", object))
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, object), nil
}

// Close releases the underlying storage client
func (s *Store) Close() error {
	return s.client.Close()
}
