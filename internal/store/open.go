package store

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/imamik/proxcli/internal/config"
	"github.com/imamik/proxcli/internal/platform/s3"
)

// Environment variables selecting the S3 backend.
const (
	BucketEnv   = "PROXCLI_STATE_BUCKET"
	PrefixEnv   = "PROXCLI_STATE_PREFIX"
	EndpointEnv = "PROXCLI_S3_ENDPOINT"
	RegionEnv   = "PROXCLI_S3_REGION"
)

// Open returns a Store for the backend selected by the environment:
// an S3 bucket when PROXCLI_STATE_BUCKET is set, otherwise the local
// state directory.
func Open(ctx context.Context, logger zerolog.Logger) (*Store, error) {
	bucket := os.Getenv(BucketEnv)
	if bucket == "" {
		dir := config.DefaultStateDir()
		logger.Debug().Str("dir", dir).Msg("Using local state directory")
		return New(NewFileBackend(dir), WithLogger(logger)), nil
	}

	endpoint := os.Getenv(EndpointEnv)
	client, err := s3.NewClient(ctx, s3.Options{
		Endpoint:     endpoint,
		Region:       os.Getenv(RegionEnv),
		AccessKey:    os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretKey:    os.Getenv("AWS_SECRET_ACCESS_KEY"),
		UsePathStyle: endpoint != "",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("state bucket %s does not exist", bucket)
	}

	backend := NewS3Backend(client, bucket, os.Getenv(PrefixEnv))
	logger.Debug().Str("location", backend.Location()).Msg("Using S3 state backend")
	return New(backend, WithLogger(logger)), nil
}
