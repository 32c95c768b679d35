package listing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"kejani/asset"
)

// fakeRepo is an in-memory stand-in for the Postgres repository. It
// applies the same record validation and ordering rules.
type fakeRepo struct {
	mu        sync.Mutex
	rows      []Listing
	insertErr error
}

func (f *fakeRepo) Insert(ctx context.Context, l Listing) (Listing, error) {
	if err := checkRecord(l); err != nil {
		return Listing{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return Listing{}, f.insertErr
	}
	f.rows = append(f.rows, l)
	return l, nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id string) (Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.rows {
		if l.ID == id {
			return l, nil
		}
	}
	return Listing{}, ErrNotFound
}

// ordered returns indices most-recent first, ties broken by insertion
// order, newest insertion first.
func (f *fakeRepo) ordered() []Listing {
	out := make([]Listing, len(f.rows))
	for i, l := range f.rows {
		out[len(f.rows)-1-i] = l // newest insertion first
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakeRepo) PublicFeed(ctx context.Context, limit int) ([]Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.ordered()
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepo) ByOwner(ctx context.Context, ownerID string) ([]Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Listing, 0, 4)
	for _, l := range f.ordered() {
		if l.OwnerID == ownerID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeRepo) SetStatus(ctx context.Context, ownerID, id string, status Status) (Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, l := range f.rows {
		if l.ID != id {
			continue
		}
		if l.OwnerID != ownerID {
			return Listing{}, ErrNotOwner
		}
		f.rows[i].Status = status
		f.rows[i].UpdatedAt = l.UpdatedAt.Add(time.Second)
		return f.rows[i], nil
	}
	return Listing{}, ErrNotFound
}

type fakeUploader struct {
	err     error
	batches int
}

func (f *fakeUploader) UploadBatch(ctx context.Context, ownerID string, files []asset.File) ([]string, error) {
	f.batches++
	if f.err != nil {
		return nil, f.err
	}
	urls := make([]string, len(files))
	for i, file := range files {
		urls[i] = fmt.Sprintf("https://assets.test/properties/%s/%s", ownerID, file.Name)
	}
	return urls, nil
}

func validDraft() Draft {
	return Draft{
		Title:       "Spacious 2-Bedroom in Kilimani",
		Description: "Light-filled apartment near Yaya Centre with secure parking.",
		Price:       75000,
		Type:        TypeApartment,
		Bedrooms:    2,
		Bathrooms:   2,
		Location: Location{
			County:  "Nairobi",
			City:    "Nairobi",
			Address: "Near Yaya Centre",
		},
		Images: []asset.File{
			{Name: "front.jpg", ContentType: "image/jpeg", Data: []byte{1}},
			{Name: "kitchen.jpg", ContentType: "image/jpeg", Data: []byte{2}},
		},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestService(repo Repository, up Uploader) *Service {
	svc := NewService(repo, up, discardLogger())
	return svc
}

func TestService_Create(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, &fakeUploader{})
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	owner := OwnerContact{Name: "Alice Agent", Phone: "+254700000001", Verified: true}
	created, err := svc.Create(context.Background(), "owner-1", owner, validDraft())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if created.ID == "" {
		t.Fatal("expected generated id")
	}
	if created.OwnerID != "owner-1" {
		t.Fatalf("expected owner-1, got %q", created.OwnerID)
	}
	if created.OwnerContact != owner {
		t.Fatalf("expected owner snapshot %+v, got %+v", owner, created.OwnerContact)
	}
	if created.Status != StatusAvailable {
		t.Fatalf("expected available status, got %s", created.Status)
	}
	if !created.CreatedAt.Equal(now) || !created.UpdatedAt.Equal(now) {
		t.Fatalf("expected created_at == updated_at == %s, got %s / %s", now, created.CreatedAt, created.UpdatedAt)
	}
	if len(created.ImageURLs) != 2 {
		t.Fatalf("expected 2 image urls, got %d", len(created.ImageURLs))
	}

	got, err := svc.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get by id after create: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("expected %q, got %q", created.ID, got.ID)
	}
}

func TestService_CreateUploadFailure(t *testing.T) {
	repo := &fakeRepo{}
	up := &fakeUploader{err: &asset.UploadError{File: "kitchen.jpg", Err: errors.New("connection reset")}}
	svc := newTestService(repo, up)

	_, err := svc.Create(context.Background(), "owner-1", OwnerContact{Name: "Alice"}, validDraft())

	var creationErr *CreationError
	if !errors.As(err, &creationErr) {
		t.Fatalf("expected CreationError, got %T: %v", err, err)
	}
	if creationErr.Stage != StageUpload {
		t.Fatalf("expected upload stage, got %s", creationErr.Stage)
	}

	// No record may be retrievable after a failed create.
	if len(repo.rows) != 0 {
		t.Fatalf("expected no persisted rows, got %d", len(repo.rows))
	}
}

func TestService_CreatePersistFailure(t *testing.T) {
	repo := &fakeRepo{insertErr: errors.New("connection lost")}
	svc := newTestService(repo, &fakeUploader{})

	_, err := svc.Create(context.Background(), "owner-1", OwnerContact{Name: "Alice"}, validDraft())

	var creationErr *CreationError
	if !errors.As(err, &creationErr) {
		t.Fatalf("expected CreationError, got %T: %v", err, err)
	}
	if creationErr.Stage != StagePersist {
		t.Fatalf("expected persist stage, got %s", creationErr.Stage)
	}
}

func TestService_CreateRejectsInvalidDraft(t *testing.T) {
	up := &fakeUploader{}
	svc := newTestService(&fakeRepo{}, up)

	cases := []struct {
		name   string
		mutate func(*Draft)
	}{
		{"short title", func(d *Draft) { d.Title = "Flat" }},
		{"short description", func(d *Draft) { d.Description = "Nice place" }},
		{"zero price", func(d *Draft) { d.Price = 0 }},
		{"unknown type", func(d *Draft) { d.Type = "Castle" }},
		{"no bedrooms", func(d *Draft) { d.Bedrooms = 0 }},
		{"no bathrooms", func(d *Draft) { d.Bathrooms = 0 }},
		{"missing county", func(d *Draft) { d.Location.County = "" }},
		{"missing city", func(d *Draft) { d.Location.City = "" }},
		{"vague address", func(d *Draft) { d.Location.Address = "here" }},
		{"no images", func(d *Draft) { d.Images = nil }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			draft := validDraft()
			tc.mutate(&draft)
			_, err := svc.Create(context.Background(), "owner-1", OwnerContact{Name: "A"}, draft)
			if !errors.Is(err, ErrInvalidDraft) {
				t.Fatalf("expected ErrInvalidDraft, got %v", err)
			}
		})
	}

	// Validation failures must never reach the uploader.
	if up.batches != 0 {
		t.Fatalf("expected no upload batches, got %d", up.batches)
	}
}

func TestService_FeedOrdering(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, &fakeUploader{})

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	times := []time.Time{base.Add(2 * time.Hour), base.Add(time.Hour), base}
	titles := []string{"Newest Townhouse Listing", "Middle Bungalow Listing", "Oldest Apartment Listing"}

	// Insert oldest first so creation order disagrees with feed order.
	for i := len(times) - 1; i >= 0; i-- {
		svc.now = func() time.Time { return times[i] }
		draft := validDraft()
		draft.Title = titles[i]
		if _, err := svc.Create(context.Background(), "owner-1", OwnerContact{Name: "A"}, draft); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	feed, err := svc.PublicFeed(context.Background(), 2)
	if err != nil {
		t.Fatalf("public feed: %v", err)
	}
	if len(feed) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(feed))
	}
	if feed[0].Title != titles[0] || feed[1].Title != titles[1] {
		t.Fatalf("expected [%q %q], got [%q %q]", titles[0], titles[1], feed[0].Title, feed[1].Title)
	}

	if _, err := svc.PublicFeed(context.Background(), 0); err == nil {
		t.Fatal("expected error for non-positive limit")
	}
}

func TestService_FeedTieBreakByInsertionOrder(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, &fakeUploader{})

	// Coarse clock: both listings share one timestamp.
	stamp := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return stamp }

	first := validDraft()
	first.Title = "Inserted First Listing"
	second := validDraft()
	second.Title = "Inserted Second Listing"

	if _, err := svc.Create(context.Background(), "owner-1", OwnerContact{Name: "A"}, first); err != nil {
		t.Fatalf("create first: %v", err)
	}
	if _, err := svc.Create(context.Background(), "owner-1", OwnerContact{Name: "A"}, second); err != nil {
		t.Fatalf("create second: %v", err)
	}

	feed, err := svc.PublicFeed(context.Background(), 10)
	if err != nil {
		t.Fatalf("public feed: %v", err)
	}
	if feed[0].Title != "Inserted Second Listing" {
		t.Fatalf("timestamp ties must favor later insertion, got %q first", feed[0].Title)
	}
}

func TestService_OwnershipIsolationUnderConcurrentCreates(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, &fakeUploader{})

	const perOwner = 20
	g, ctx := errgroup.WithContext(context.Background())
	for _, owner := range []string{"owner-a", "owner-b"} {
		g.Go(func() error {
			for i := 0; i < perOwner; i++ {
				draft := validDraft()
				draft.Title = fmt.Sprintf("%s listing %d", owner, i)
				if _, err := svc.Create(ctx, owner, OwnerContact{Name: owner}, draft); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent creates: %v", err)
	}

	for _, owner := range []string{"owner-a", "owner-b"} {
		listings, err := svc.ByOwner(context.Background(), owner)
		if err != nil {
			t.Fatalf("by owner %s: %v", owner, err)
		}
		if len(listings) != perOwner {
			t.Fatalf("expected %d listings for %s, got %d", perOwner, owner, len(listings))
		}
		for _, l := range listings {
			if l.OwnerID != owner {
				t.Fatalf("feed for %s contains foreign listing owned by %s", owner, l.OwnerID)
			}
		}
	}

	// Concurrent creates must produce distinct ids.
	seen := make(map[string]bool, 2*perOwner)
	for _, l := range repo.rows {
		if seen[l.ID] {
			t.Fatalf("duplicate listing id %s", l.ID)
		}
		seen[l.ID] = true
	}
}

func TestService_SetStatus(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, &fakeUploader{})

	created, err := svc.Create(context.Background(), "owner-1", OwnerContact{Name: "A"}, validDraft())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.SetStatus(context.Background(), "owner-1", created.ID, StatusUnavailable)
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if updated.Status != StatusUnavailable {
		t.Fatalf("expected unavailable, got %s", updated.Status)
	}

	if _, err := svc.SetStatus(context.Background(), "owner-2", created.ID, StatusAvailable); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner for foreign caller, got %v", err)
	}
	if _, err := svc.SetStatus(context.Background(), "owner-1", "missing", StatusAvailable); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.SetStatus(context.Background(), "owner-1", created.ID, "archived"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestRepositoryValidation_RejectsPartialRecords(t *testing.T) {
	repo := &fakeRepo{}

	partial := Listing{
		ID:        "l1",
		Type:      TypeApartment,
		Status:    StatusAvailable,
		OwnerID:   "owner-1",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if _, err := repo.Insert(context.Background(), partial); !errors.Is(err, ErrCorruptRecord) {
		t.Fatalf("expected ErrCorruptRecord for missing images, got %v", err)
	}

	partial.ImageURLs = []string{"https://assets.test/a.jpg"}
	partial.OwnerID = ""
	if _, err := repo.Insert(context.Background(), partial); !errors.Is(err, ErrCorruptRecord) {
		t.Fatalf("expected ErrCorruptRecord for missing owner, got %v", err)
	}
}
