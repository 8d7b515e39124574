// Package blob re-exports the document storage abstraction and selects a
// backend from the environment.
package blob

import (
	"context"
	"fmt"
	"os"

	"assurecore/internal/blob/core"
	fsblob "assurecore/internal/infra/blob/fs"
	memblob "assurecore/internal/infra/blob/memory"
	s3blob "assurecore/internal/infra/blob/s3"
)

type (
	// Store aliases core.Store.
	Store = core.Store
	// Driver aliases core.Driver.
	Driver = core.Driver
	// Info aliases core.Info.
	Info = core.Info
	// PutOptions aliases core.PutOptions.
	PutOptions = core.PutOptions
	// SignedURLOptions aliases core.SignedURLOptions.
	SignedURLOptions = core.SignedURLOptions
)

// Driver identifiers re-exported for callers of Open.
const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

// Sentinel errors re-exported from core.
var (
	ErrUnsupported = core.ErrUnsupported
	ErrNotFound    = core.ErrNotFound
)

// NewMemory returns an in-memory document store.
func NewMemory() Store { return memblob.New() }

// NewFilesystem returns a filesystem document store rooted at path.
func NewFilesystem(root string) (Store, error) { return fsblob.New(root) }

// Open selects a Store implementation using environment variables.
//
//	ASSURECORE_BLOB_DRIVER:  fs|s3|memory (default fs)
//	ASSURECORE_BLOB_FS_ROOT: directory root when driver=fs (default ./evidence-data)
//	(S3 specific variables documented in the s3 package)
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("ASSURECORE_BLOB_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		return NewFilesystem(os.Getenv("ASSURECORE_BLOB_FS_ROOT"))
	case DriverS3:
		return s3blob.OpenFromEnv(ctx)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
