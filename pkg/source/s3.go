package source

import (
	"context"
	stderrors "errors"
	"io"
	"strings"

	"github.com/ajitpratap0/csvconf/pkg/compression"
	"github.com/ajitpratap0/csvconf/pkg/config"
	"github.com/ajitpratap0/csvconf/pkg/errors"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3GetObjectAPI is the subset of the S3 client used by S3Loader.
type S3GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Loader reads tables from S3. Ids have the form "bucket/key".
type S3Loader struct {
	client S3GetObjectAPI
}

// NewS3Loader creates a loader around an existing client.
func NewS3Loader(client S3GetObjectAPI) *S3Loader {
	return &S3Loader{client: client}
}

// DialS3 creates an S3 client from the default credential chain.
func DialS3(ctx context.Context, cfg config.S3Config) (*S3Loader, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to load AWS config")
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewS3Loader(client), nil
}

// Load fetches and decompresses the object named by id.
func (l *S3Loader) Load(ctx context.Context, id string) (string, error) {
	bucket, key, err := splitObjectID(id)
	if err != nil {
		return "", err
	}

	out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if stderrors.As(err, &missing) {
			return "", errors.Wrap(err, errors.ErrorTypeNotFound, "object "+id+" not found")
		}
		return "", errors.Wrap(err, errors.ErrorTypeConnection, "failed to get object "+id)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, compression.DefaultMaxSize))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeConnection, "failed to read object "+id)
	}
	return decode(key, data)
}

// splitObjectID splits "bucket/key" ids used by object store loaders.
func splitObjectID(id string) (string, string, error) {
	bucket, key, ok := strings.Cut(strings.TrimPrefix(id, "/"), "/")
	if !ok || bucket == "" || key == "" {
		return "", "", errors.Newf(errors.ErrorTypeConfig, "object id %q must have the form bucket/key", id)
	}
	return bucket, key, nil
}
