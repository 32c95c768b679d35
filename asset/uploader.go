package asset

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrEmptyBatch signals that an upload batch contained no files.
var ErrEmptyBatch = errors.New("asset: upload batch must contain at least one file")

// UploadError reports which file in a batch failed and why.
type UploadError struct {
	File string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("asset: upload %s: %v", e.File, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// Uploader uploads batches of files for an owner.
type Uploader struct {
	store Store
	now   func() time.Time
}

// NewUploader creates an Uploader over the given store.
func NewUploader(store Store) *Uploader {
	return &Uploader{
		store: store,
		now:   time.Now,
	}
}

// UploadBatch uploads every file concurrently and returns the retrieval
// URLs in input order regardless of completion order. If any upload
// fails the whole batch fails with an UploadError; files that already
// made it to the store are left in place, there is no compensating
// delete.
func (u *Uploader) UploadBatch(ctx context.Context, ownerID string, files []File) ([]string, error) {
	if len(files) == 0 {
		return nil, ErrEmptyBatch
	}
	if ownerID == "" {
		return nil, fmt.Errorf("asset: owner id is required")
	}

	stamp := u.now().UnixNano()
	urls := make([]string, len(files))

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		key := batchKey(ownerID, stamp, i, f.Name)
		g.Go(func() error {
			url, err := u.store.Put(gctx, key, f.Data, f.ContentType)
			if err != nil {
				return &UploadError{File: f.Name, Err: err}
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return urls, nil
}

// batchKey derives the destination key from the owner, a per-batch
// monotonic timestamp, the file's position and its original name. The
// position disambiguates same-named files within a batch; the
// timestamp disambiguates concurrent batches by the same owner.
func batchKey(ownerID string, stamp int64, index int, name string) string {
	return fmt.Sprintf("properties/%s/%d_%d_%s", ownerID, stamp, index, name)
}
