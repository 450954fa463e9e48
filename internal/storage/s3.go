package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	appconfig "github.com/cleancity/cleancity-be/internal/config"
	"github.com/cleancity/cleancity-be/internal/errs"
	"github.com/cleancity/cleancity-be/internal/models"
)

// S3Store keeps blob bytes in an S3-compatible bucket (AWS, minio).
// Uploads are spooled to a local temp file first so the digest key is
// known before the object is written; nothing is ever stored under a
// provisional key.
type S3Store struct {
	db       *sql.DB
	client   *s3.Client
	bucket   string
	maxBytes int64
}

// NewS3Store creates an S3-backed blob store from the application config.
func NewS3Store(ctx context.Context, db *sql.DB, cfg *appconfig.Config, maxBytes int64) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKey,
			cfg.S3SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("could not load S3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{db: db, client: client, bucket: cfg.S3Bucket, maxBytes: maxBytes}, nil
}

func (s *S3Store) key(id string) string {
	return "images/" + id
}

// Put spools the upload locally, then writes the object under its digest
// key and records the metadata.
func (s *S3Store) Put(ctx context.Context, r io.Reader, contentType string) (models.Blob, error) {
	if !TypeAllowed(contentType) {
		return models.Blob{}, errs.ErrUnsupportedMedia
	}

	tmp, id, size, err := spool(os.TempDir(), r, s.maxBytes)
	if err != nil {
		return models.Blob{}, err
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(id)),
		Body:          tmp,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return models.Blob{}, fmt.Errorf("failed to store blob: %w", err)
	}

	return insertMeta(ctx, s.db, id, contentType, size)
}

// Get streams the object back from the bucket.
func (s *S3Store) Get(ctx context.Context, id string) (io.ReadCloser, models.Blob, error) {
	blob, err := getMeta(ctx, s.db, id)
	if err != nil {
		return nil, models.Blob{}, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, models.Blob{}, errs.ErrNotFound
		}
		return nil, models.Blob{}, err
	}
	return out.Body, blob, nil
}
