package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/imamik/proxcli/internal/platform/s3"
)

// ObjectStore is the subset of the S3 client used by S3Backend.
type ObjectStore interface {
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
	PutObject(ctx context.Context, bucket, key string, data []byte) error
	DeleteObject(ctx context.Context, bucket, key string) error
	ListObjects(ctx context.Context, bucket, prefix string) ([]string, error)
}

// S3Backend stores keys as objects under an optional prefix in one bucket.
type S3Backend struct {
	client ObjectStore
	bucket string
	prefix string
}

// NewS3Backend returns a backend writing to bucket. A non-empty prefix is
// joined to every key with a slash.
func NewS3Backend(client ObjectStore, bucket, prefix string) *S3Backend {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &S3Backend{client: client, bucket: bucket, prefix: prefix}
}

// Location describes where objects are written, e.g. "s3://bucket/prefix/".
func (b *S3Backend) Location() string {
	return "s3://" + b.bucket + "/" + b.prefix
}

func (b *S3Backend) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := b.client.GetObject(ctx, b.bucket, b.prefix+key)
	if errors.Is(err, s3.ErrObjectNotFound) {
		return nil, fmt.Errorf("%s: %w", key, ErrNotExist)
	}
	return data, err
}

func (b *S3Backend) Write(ctx context.Context, key string, data []byte) error {
	return b.client.PutObject(ctx, b.bucket, b.prefix+key, data)
}

func (b *S3Backend) Delete(ctx context.Context, key string) error {
	return b.client.DeleteObject(ctx, b.bucket, b.prefix+key)
}

func (b *S3Backend) List(ctx context.Context) ([]string, error) {
	objects, err := b.client.ListObjects(ctx, b.bucket, b.prefix)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(objects))
	for _, o := range objects {
		k := strings.TrimPrefix(o, b.prefix)
		if k == "" || strings.Contains(k, "/") {
			continue
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}
