// Package storage provides blob storage for upload staging.
//
// Raw uploads are streamed to a Storage before the image pipeline reads them
// back, so the request body never has to be held in memory while it is being
// received. Implementations:
// - LocalStorage: File system storage for development
// - R2Storage: Cloudflare R2 (or any S3-compatible) storage for production
package storage

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Storage defines the interface for blob storage operations.
//
// All methods are context-aware for timeout and cancellation support.
type Storage interface {
	// Put stores data at the specified key with the given options.
	// Returns ErrKeyExists if the key already exists and opts.Overwrite is
	// false, and ErrTooLarge when opts.MaxSize is exceeded.
	Put(ctx context.Context, key string, data io.Reader, opts PutOptions) (ObjectInfo, error)

	// Get retrieves the data at the specified key.
	// The caller must close the returned reader. Returns ErrNotFound if the
	// key doesn't exist.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)

	// Delete removes the object at the specified key.
	// This operation is idempotent - no error is returned if the key doesn't exist.
	Delete(ctx context.Context, key string) error

	// Exists checks if an object exists at the specified key.
	Exists(ctx context.Context, key string) (bool, error)
}

// =============================================================================
// Data Types
// =============================================================================

// PutOptions configures how an object is stored.
type PutOptions struct {
	// ContentType specifies the MIME type of the object.
	// If empty, it is sniffed from the content.
	ContentType string

	// MaxSize specifies the maximum allowed size in bytes.
	// A value of 0 means no limit.
	MaxSize int64

	// Overwrite allows replacing an existing object at the same key.
	Overwrite bool
}

// ObjectInfo contains metadata about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	ETag         string
}

// =============================================================================
// Configuration Types
// =============================================================================

// LocalConfig holds configuration for local filesystem storage.
type LocalConfig struct {
	// BasePath is the root directory where files are stored.
	// Example: "./storage" or "/var/lib/flai/staging"
	BasePath string
}

// R2Config holds configuration for Cloudflare R2 storage.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string

	// Endpoint overrides the R2 endpoint derived from AccountID.
	// Set it to use another S3-compatible service.
	Endpoint string

	// Region is required by the AWS SDK. R2 accepts "auto".
	Region string
}

const (
	// ProviderLocal identifies the local filesystem storage provider.
	ProviderLocal = "local"

	// ProviderR2 identifies the Cloudflare R2 storage provider.
	ProviderR2 = "r2"
)

// =============================================================================
// Key Generation Helpers
// =============================================================================

// StagingPrefix is where raw uploads wait for processing.
const StagingPrefix = "staging"

// StagingKey generates a unique key for a raw upload.
// Format: staging/{purpose}/{uuid}{ext}
//
// Example: "staging/food/987fcdeb-51a2-43f1-b9c4-12345678abcd.jpg"
func StagingKey(purpose, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if len(ext) > 8 {
		ext = ""
	}
	if purpose == "" {
		purpose = "misc"
	}
	return path.Join(StagingPrefix, purpose, uuid.New().String()+ext)
}
