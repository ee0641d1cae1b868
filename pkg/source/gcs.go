package source

import (
	"context"
	stderrors "errors"
	"io"

	"cloud.google.com/go/storage"
	"github.com/ajitpratap0/csvconf/pkg/compression"
	"github.com/ajitpratap0/csvconf/pkg/config"
	"github.com/ajitpratap0/csvconf/pkg/errors"
	"google.golang.org/api/option"
)

// ObjectOpener opens an object for reading.
type ObjectOpener func(ctx context.Context, bucket, object string) (io.ReadCloser, error)

// GCSLoader reads tables from Cloud Storage. Ids have the form "bucket/object".
type GCSLoader struct {
	open  ObjectOpener
	close func() error
}

// NewGCSLoader creates a loader around an opener.
func NewGCSLoader(open ObjectOpener) *GCSLoader {
	return &GCSLoader{open: open}
}

// DialGCS creates a Cloud Storage client. An empty credentials file uses
// application default credentials.
func DialGCS(ctx context.Context, cfg config.GCSConfig) (*GCSLoader, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to create GCS client")
	}
	l := NewGCSLoader(func(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
		return client.Bucket(bucket).Object(object).NewReader(ctx)
	})
	l.close = client.Close
	return l, nil
}

// Load fetches and decompresses the object named by id.
func (l *GCSLoader) Load(ctx context.Context, id string) (string, error) {
	bucket, object, err := splitObjectID(id)
	if err != nil {
		return "", err
	}

	r, err := l.open(ctx, bucket, object)
	if err != nil {
		if stderrors.Is(err, storage.ErrObjectNotExist) || stderrors.Is(err, storage.ErrBucketNotExist) {
			return "", errors.Wrap(err, errors.ErrorTypeNotFound, "object "+id+" not found")
		}
		return "", errors.Wrap(err, errors.ErrorTypeConnection, "failed to open object "+id)
	}
	defer r.Close()

	data, err := io.ReadAll(io.LimitReader(r, compression.DefaultMaxSize))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeConnection, "failed to read object "+id)
	}
	return decode(object, data)
}

// Close releases the underlying client, if any.
func (l *GCSLoader) Close() error {
	if l.close == nil {
		return nil
	}
	return l.close()
}
