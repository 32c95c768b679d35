// Package asset handles binary asset storage and batch uploads for
// listing media.
package asset

import (
	"context"
	"errors"
)

// ErrAssetNotFound signals that no asset exists under the given key.
var ErrAssetNotFound = errors.New("asset: not found")

// File is an in-memory handle to a file pending upload. It exists only
// for the duration of a create workflow.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Store abstracts the asset storage provider. Put persists the bytes
// under key and returns a stable retrieval URL.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, key string) (data []byte, contentType string, err error)
	// Delete removes a stored asset. The create workflow does not call
	// it on failure today; it exists for the compensating-cleanup
	// hardening that orphan handling needs.
	Delete(ctx context.Context, key string) error
}
