package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const objectPrefix = "uploads/"

// MinIOStorage keeps assets as objects named uploads/<owner>/<name>.
type MinIOStorage struct {
	client *minio.Client
	bucket string
}

// NewMinIOStorage creates a new MinIO storage client and ensures the bucket exists.
func NewMinIOStorage(ctx context.Context, cfg *MinIOConfig) (*MinIOStorage, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio config missing")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}
	s := &MinIOStorage{client: mc, bucket: cfg.Bucket}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mc.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		// ignore "already exists" style errors
		exist, xerr := mc.BucketExists(ctx, s.bucket)
		if xerr != nil || !exist {
			return nil, fmt.Errorf("minio bucket ensure: %w", err)
		}
	}
	return s, nil
}

func objectKey(owner, name string) string {
	return objectPrefix + owner + "/" + name
}

func (s *MinIOStorage) Put(ctx context.Context, owner, name string, r io.Reader, size int64, contentType string) (string, error) {
	if !validSegment(owner) || !validSegment(name) {
		return "", fmt.Errorf("invalid asset path %q/%q", owner, name)
	}
	_, err := s.client.PutObject(ctx, s.bucket, objectKey(owner, name), r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("minio put: %w", err)
	}
	return Ref(owner, name), nil
}

// Remove deletes one object; S3 semantics already treat a missing key as success.
func (s *MinIOStorage) Remove(ctx context.Context, ref string) error {
	owner, name, ok := Split(ref)
	if !ok {
		return fmt.Errorf("not a local asset reference: %q", ref)
	}
	return s.client.RemoveObject(ctx, s.bucket, objectKey(owner, name), minio.RemoveObjectOptions{})
}

func (s *MinIOStorage) RemoveOwner(ctx context.Context, owner string) error {
	if !validSegment(owner) {
		return fmt.Errorf("invalid owner %q", owner)
	}
	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: objectPrefix + owner + "/", Recursive: true})
	for rerr := range s.client.RemoveObjects(ctx, s.bucket, objects, minio.RemoveObjectsOptions{}) {
		if rerr.Err != nil {
			return fmt.Errorf("minio remove %s: %w", rerr.ObjectName, rerr.Err)
		}
	}
	return nil
}

func (s *MinIOStorage) Owners(ctx context.Context) ([]string, error) {
	var out []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: objectPrefix}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		owner := strings.TrimSuffix(strings.TrimPrefix(obj.Key, objectPrefix), "/")
		if owner != "" && strings.HasSuffix(obj.Key, "/") {
			out = append(out, owner)
		}
	}
	return out, nil
}

// PresignedURL returns a presigned GET URL for ref valid for the given duration.
func (s *MinIOStorage) PresignedURL(ctx context.Context, ref string, expires time.Duration) (string, error) {
	owner, name, ok := Split(ref)
	if !ok {
		return "", fmt.Errorf("not a local asset reference: %q", ref)
	}
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey(owner, name), expires, make(url.Values))
	if err != nil {
		return "", err
	}
	return presigned.String(), nil
}
