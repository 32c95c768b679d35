package listing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"kejani/asset"
)

// Stage identifies where in the create workflow a failure happened.
// The workflow runs Drafting -> Uploading -> Persisting -> Committed;
// a failed create is not resumable and the caller must restart with a
// fresh draft.
type Stage string

const (
	StageUpload  Stage = "upload"
	StagePersist Stage = "persist"
)

// CreationError wraps an upload or persist failure of the create
// workflow.
type CreationError struct {
	Stage Stage
	Err   error
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("listing: create failed at %s: %v", e.Stage, e.Err)
}

func (e *CreationError) Unwrap() error { return e.Err }

// Uploader is the asset-upload dependency of the create workflow.
type Uploader interface {
	UploadBatch(ctx context.Context, ownerID string, files []asset.File) ([]string, error)
}

// Service owns the create-workflow orchestration and the query surface
// over listings.
type Service struct {
	repo     Repository
	uploader Uploader
	log      *slog.Logger
	now      func() time.Time
	idGen    func() string
}

// NewService builds a Service using the provided repository and
// uploader.
func NewService(repo Repository, uploader Uploader, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:     repo,
		uploader: uploader,
		log:      log,
		now:      time.Now,
		idGen:    func() string { return uuid.NewString() },
	}
}

// Create runs the two-phase create workflow: upload the draft's images,
// then persist the full record in one insert. The two phases are not a
// single transaction; if the persist fails, the uploaded assets stay
// behind with no record pointing at them. That orphan set is logged so
// an operator (or a future compensating cleanup) can find it.
//
// The caller is responsible for only invoking Create with an ownerID
// taken from an authenticated session; the route guard enforces that at
// the view boundary.
func (s *Service) Create(ctx context.Context, ownerID string, owner OwnerContact, draft Draft) (Listing, error) {
	if ownerID == "" {
		return Listing{}, fmt.Errorf("listing: owner id is required")
	}
	if err := draft.Validate(); err != nil {
		return Listing{}, err
	}

	// Uploading: strictly precedes the persist step.
	urls, err := s.uploader.UploadBatch(ctx, ownerID, draft.Images)
	if err != nil {
		return Listing{}, &CreationError{Stage: StageUpload, Err: err}
	}

	nowTime := s.now()
	record := Listing{
		ID:           s.idGen(),
		Title:        draft.Title,
		Description:  draft.Description,
		Price:        draft.Price,
		Type:         draft.Type,
		Bedrooms:     draft.Bedrooms,
		Bathrooms:    draft.Bathrooms,
		Location:     draft.Location,
		ImageURLs:    urls,
		Status:       StatusAvailable,
		OwnerID:      ownerID,
		OwnerContact: owner,
		CreatedAt:    nowTime,
		UpdatedAt:    nowTime,
	}

	// Persisting: a single insert, so the record is either fully
	// visible or absent.
	stored, err := s.repo.Insert(ctx, record)
	if err != nil {
		s.log.Error("listing create failed after upload; assets orphaned",
			"owner_id", ownerID,
			"image_urls", urls,
			"error", err,
		)
		return Listing{}, &CreationError{Stage: StagePersist, Err: err}
	}

	s.log.Info("listing created",
		"listing_id", stored.ID,
		"owner_id", stored.OwnerID,
		"images", len(stored.ImageURLs),
	)
	return stored, nil
}

// PublicFeed returns up to limit listings for the home feed, most
// recent first.
func (s *Service) PublicFeed(ctx context.Context, limit int) ([]Listing, error) {
	if limit < 1 {
		return nil, fmt.Errorf("listing: feed limit must be at least 1, got %d", limit)
	}
	return s.repo.PublicFeed(ctx, limit)
}

// ByOwner returns all listings owned by ownerID, most recent first.
func (s *Service) ByOwner(ctx context.Context, ownerID string) ([]Listing, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("listing: owner id is required")
	}
	return s.repo.ByOwner(ctx, ownerID)
}

// GetByID retrieves a single listing; ErrNotFound is a normal outcome.
func (s *Service) GetByID(ctx context.Context, id string) (Listing, error) {
	return s.repo.GetByID(ctx, id)
}

// SetStatus flips a listing's availability on behalf of its owner. This
// is the soft-deactivation path; listings are never hard-deleted.
func (s *Service) SetStatus(ctx context.Context, ownerID, id string, status Status) (Listing, error) {
	if status != StatusAvailable && status != StatusUnavailable {
		return Listing{}, fmt.Errorf("listing: unknown status %q", status)
	}
	updated, err := s.repo.SetStatus(ctx, ownerID, id, status)
	if err != nil {
		if errors.Is(err, ErrNotOwner) {
			s.log.Warn("rejected status change by non-owner", "listing_id", id, "caller_id", ownerID)
		}
		return Listing{}, err
	}
	return updated, nil
}
