package store

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioAvatars keeps profile images as objects in a MinIO/S3 bucket.
type MinioAvatars struct {
	client *minio.Client
	bucket string
}

// NewMinioAvatars connects, creates the bucket if needed and seeds
// default.png when the bucket does not have it yet.
func NewMinioAvatars(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioAvatars, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
	}

	s := &MinioAvatars{client: client, bucket: bucket}
	if _, err := client.StatObject(ctx, bucket, DefaultAvatar, minio.StatObjectOptions{}); err != nil {
		if !isNoSuchKey(err) {
			return nil, fmt.Errorf("minio stat %s: %w", DefaultAvatar, err)
		}
		if err := s.Upload(ctx, DefaultAvatar, defaultAvatar, "image/png"); err != nil {
			return nil, fmt.Errorf("seed %s: %w", DefaultAvatar, err)
		}
	}
	return s, nil
}

// Upload stores bytes under the given object key.
func (s *MinioAvatars) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("minio put %s: %w", key, err)
	}
	return nil
}

// Copy duplicates src to dst server-side.
func (s *MinioAvatars) Copy(ctx context.Context, src, dst string) error {
	_, err := s.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: s.bucket, Object: dst},
		minio.CopySrcOptions{Bucket: s.bucket, Object: src},
	)
	if err != nil {
		return fmt.Errorf("minio copy %s -> %s: %w", src, dst, err)
	}
	return nil
}

// Download retrieves the object bytes and content type.
func (s *MinioAvatars) Download(ctx context.Context, key string) ([]byte, string, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("minio get %s: %w", key, err)
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		if isNoSuchKey(err) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("minio stat %s: %w", key, err)
	}

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, "", err
	}
	return data, info.ContentType, nil
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}
