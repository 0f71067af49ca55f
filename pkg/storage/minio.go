package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/minio/minio-go/v7"
)

func NewMinioClient(logger *slog.Logger, bucket string, client *minio.Client) *MinioClient {
	return &MinioClient{
		logger: logger,
		bucket: bucket,
		client: client,
	}
}

// MinioClient stores objects in a single bucket of an S3 compatible server like MinIO.
type MinioClient struct {
	logger *slog.Logger
	bucket string
	client *minio.Client
}

// EnsureBucket creates the bucket unless it already exists.
func (m MinioClient) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("error checking bucket %q: %v", m.bucket, err)
	}
	if exists {
		return nil
	}

	m.logger.InfoContext(ctx, "Creating bucket", "bucket", m.bucket)
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("error creating bucket %q: %v", m.bucket, err)
	}
	return nil
}

func (m MinioClient) Upload(ctx context.Context, key string, body ReadAtSeeker, size int64, contentType string, progress ProgressFunc) error {
	m.logger.InfoContext(ctx, "Uploading", "bucket", m.bucket, "key", key, "size", size)

	_, err := m.client.PutObject(ctx, m.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
		Progress:    newProgressCounter(size, progress),
	})
	if err != nil {
		return fmt.Errorf("error uploading object to bucket %q using key %q: %v", m.bucket, key, err)
	}
	return nil
}

func (m MinioClient) Delete(ctx context.Context, key string) error {
	err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("error deleting object from bucket %q using key %q: %v", m.bucket, key, err)
	}
	return nil
}

func (m MinioClient) Download(ctx context.Context, key string, dst io.Writer, cb func(contentLength int64)) error {
	object, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return fmt.Errorf("error downloading object from bucket %q using key %q: %v", m.bucket, key, err)
	}
	defer object.Close()

	info, err := object.Stat()
	if err != nil {
		return fmt.Errorf("error reading object from bucket %q using key %q: %v", m.bucket, key, err)
	}

	if cb != nil {
		cb(info.Size)
	}

	_, err = io.Copy(dst, object)
	return err
}
