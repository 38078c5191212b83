// Package blob selects the photo blob backend from configuration.
package blob

import (
	"context"
	"fmt"

	"wasteportal/internal/blob/core"
	"wasteportal/internal/config"
	"wasteportal/internal/infra/blob/fs"
	"wasteportal/internal/infra/blob/memory"
	"wasteportal/internal/infra/blob/s3"
)

// Open returns the store named by cfg.Driver. The none driver yields a nil
// store, meaning photos are kept inline in the report record.
func Open(ctx context.Context, cfg config.Blob) (core.Store, error) {
	switch cfg.Driver {
	case config.BlobNone, "":
		return nil, nil
	case config.BlobMemory:
		return memory.New(), nil
	case config.BlobFilesystem:
		st, err := fs.New(cfg.FSRoot)
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.BlobS3:
		st, err := s3.New(ctx, s3.Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		})
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", cfg.Driver)
	}
}
