// Package storage provides access to the MinIO blob store. Objects are
// content-addressed under raw/<content_hash> and treated as write-once:
// an existing object is never overwritten, so concurrent readers never race.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/config"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/pkg/log"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioClient is the global MinIO client instance.
var MinioClient *minio.Client

// InitMinIO initializes the MinIO client and ensures the bucket exists.
func InitMinIO(cfg config.MinIOConfig) {
	var err error

	MinioClient, err = minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		log.Fatal("failed to initialize MinIO client", err)
	}

	log.Info("MinIO client initialized successfully")

	ctx := context.Background()
	bucketName := cfg.BucketName
	exists, err := MinioClient.BucketExists(ctx, bucketName)
	if err != nil {
		log.Fatal("failed to check MinIO bucket", err)
	}

	if !exists {
		log.Infof("bucket '%s' does not exist, creating...", bucketName)
		err = MinioClient.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{})
		if err != nil {
			log.Fatal("failed to create MinIO bucket", err)
		}
		log.Infof("bucket '%s' created successfully", bucketName)
	} else {
		log.Infof("bucket '%s' already exists", bucketName)
	}
}

// BlobKey returns the content-addressed object name for a raw upload.
func BlobKey(contentHash string) string {
	return fmt.Sprintf("raw/%s", contentHash)
}

// MinIOStore wraps the global client for a single bucket so services can
// depend on a narrow Put/Get surface.
type MinIOStore struct {
	bucket string
}

// NewMinIOStore builds a MinIOStore over the configured bucket.
func NewMinIOStore(cfg config.MinIOConfig) *MinIOStore {
	return &MinIOStore{bucket: cfg.BucketName}
}

// Put stores data under key unless an object already exists there.
// Existing objects are left untouched (write-once semantics).
func (s *MinIOStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := MinioClient.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		// Content-addressed key already present, identical bytes.
		return nil
	}
	if resp := minio.ToErrorResponse(err); resp.Code != "NoSuchKey" && resp.StatusCode != 404 {
		return fmt.Errorf("failed to stat object %s: %w", key, err)
	}

	_, err = MinioClient.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return nil
}

// Get reads the full object stored under key.
func (s *MinIOStore) Get(ctx context.Context, key string) ([]byte, error) {
	object, err := MinioClient.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("failed to read object stream %s: %w", key, err)
	}
	return data, nil
}
