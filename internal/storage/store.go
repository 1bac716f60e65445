// Package storage keeps uploaded PDFs in an S3-compatible bucket.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ericksa/clauselens/internal/config"
	"github.com/ericksa/clauselens/internal/document"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	Scheme         = document.ObjectScheme
	pdfContentType = "application/pdf"
)

type Store struct {
	client *minio.Client
	bucket string
	now    func() time.Time
}

func New(cfg config.StorageConfig) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}
	return &Store{client: client, bucket: cfg.Bucket, now: time.Now}, nil
}

func (s *Store) Bucket() string { return s.bucket }

// EnsureBucket creates the upload bucket if it does not exist yet.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// PutPDF stores data under a fresh key and returns its s3:// URL.
func (s *Store) PutPDF(ctx context.Context, data []byte) (string, error) {
	key := s.newKey()
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: pdfContentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload: %w", err)
	}
	return ObjectURI(s.bucket, key), nil
}

// Get reads a whole object. Missing buckets and keys match
// document.ErrNotFound.
func (s *Store) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapError(err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, mapError(err)
	}
	return data, nil
}

func (s *Store) newKey() string {
	return fmt.Sprintf("pdf-%d-%s.pdf", s.now().UnixMilli(), uuid.NewString())
}

func mapError(err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("%w: %v", document.ErrNotFound, err)
	}
	return fmt.Errorf("failed to get object: %w", err)
}

func ObjectURI(bucket, key string) string {
	return Scheme + "://" + bucket + "/" + key
}
