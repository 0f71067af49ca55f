package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

func NewS3Client(logger *slog.Logger, bucket string, client AWSS3Client, uploader AWSS3Uploader) *S3Client {
	return &S3Client{
		logger:   logger,
		bucket:   bucket,
		client:   client,
		uploader: uploader,
	}
}

// S3Client stores objects in a single AWS S3 bucket.
type S3Client struct {
	logger   *slog.Logger
	bucket   string
	client   AWSS3Client
	uploader AWSS3Uploader
}

type AWSS3Client interface {
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type AWSS3Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

func (s S3Client) Upload(ctx context.Context, key string, body ReadAtSeeker, size int64, contentType string, progress ProgressFunc) error {
	s.logger.InfoContext(ctx, "Uploading", "bucket", s.bucket, "key", key, "size", size)

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          newProgressReader(body, size, progress),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
		ACL:           types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return fmt.Errorf("error uploading object to bucket %q using key %q: %v", s.bucket, key, err)
	}
	return nil
}

func (s S3Client) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("error deleting object from bucket %q using key %q: %v", s.bucket, key, err)
	}
	return nil
}

func (s S3Client) Download(ctx context.Context, key string, dst io.Writer, cb func(contentLength int64)) error {
	object, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("error downloading object from bucket %q using key %q: %v", s.bucket, key, err)
	}
	defer object.Body.Close()

	if cb != nil && object.ContentLength != nil {
		cb(*object.ContentLength)
	}

	_, err = io.Copy(dst, object.Body)
	return err
}
