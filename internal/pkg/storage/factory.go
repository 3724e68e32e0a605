package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	DriverMemory = "memory"
	DriverS3     = "s3"
	DriverGCS    = "gcs"
	DriverMinIO  = "minio"
)

var ErrUnknownDriver = errors.New("storage: unknown driver")

// FactoryOptions carries the settings of every backend; only the one named
// by the driver is read.
type FactoryOptions struct {
	S3    S3Options
	GCS   GCSOptions
	MinIO MinIOOptions
}

// NewFromDriver builds the backend the audit export uploads to. An empty
// driver selects the in-process store.
func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (Storage, error) {
	d := strings.ToLower(strings.TrimSpace(driver))
	if d == "" || d == DriverMemory {
		return NewMemory(), nil
	}

	var (
		s   Storage
		err error
	)
	switch d {
	case DriverS3:
		s, err = NewS3(ctx, opts.S3)
	case DriverGCS:
		s, err = NewGCS(ctx, opts.GCS)
	case DriverMinIO:
		s, err = NewMinIO(opts.MinIO)
	default:
		return nil, fmt.Errorf("%w %q (want %s, %s, %s or %s)", ErrUnknownDriver, driver, DriverMemory, DriverS3, DriverGCS, DriverMinIO)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: init %s: %w", d, err)
	}
	return s, nil
}
