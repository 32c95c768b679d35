package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"kejani/asset"
	"kejani/identity"
	"kejani/listing"
	"kejani/metrics"
)

// maxUploadBytes bounds a whole multipart create request.
const maxUploadBytes = 32 << 20

// ListingHandler exposes the listing operations over HTTP.
type ListingHandler struct {
	svc       *listing.Service
	sessions  *identity.Sessions
	store     asset.Store
	collector *metrics.Collector
	feedLimit int
}

// NewListingHandler creates the listing handler. feedLimit caps the
// public feed when the client does not ask for a smaller page.
func NewListingHandler(svc *listing.Service, sessions *identity.Sessions, store asset.Store, collector *metrics.Collector, feedLimit int) *ListingHandler {
	return &ListingHandler{
		svc:       svc,
		sessions:  sessions,
		store:     store,
		collector: collector,
		feedLimit: feedLimit,
	}
}

type listingResponse struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Type        string   `json:"type"`
	Bedrooms    int      `json:"bedrooms"`
	Bathrooms   int      `json:"bathrooms"`
	County      string   `json:"county"`
	City        string   `json:"city"`
	Address     string   `json:"address"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	ImageURLs   []string `json:"image_urls"`
	Status      string   `json:"status"`
	OwnerID     string   `json:"owner_id"`
	OwnerName   string   `json:"owner_name"`
	OwnerPhone  string   `json:"owner_phone"`
	OwnerVerif  bool     `json:"owner_verified"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

func toListingResponse(l listing.Listing) listingResponse {
	return listingResponse{
		ID:          l.ID,
		Title:       l.Title,
		Description: l.Description,
		Price:       l.Price,
		Type:        string(l.Type),
		Bedrooms:    l.Bedrooms,
		Bathrooms:   l.Bathrooms,
		County:      l.Location.County,
		City:        l.Location.City,
		Address:     l.Location.Address,
		Latitude:    l.Location.Latitude,
		Longitude:   l.Location.Longitude,
		ImageURLs:   l.ImageURLs,
		Status:      string(l.Status),
		OwnerID:     l.OwnerID,
		OwnerName:   l.OwnerContact.Name,
		OwnerPhone:  l.OwnerContact.Phone,
		OwnerVerif:  l.OwnerContact.Verified,
		CreatedAt:   l.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   l.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toListingResponses(listings []listing.Listing) []listingResponse {
	out := make([]listingResponse, 0, len(listings))
	for _, l := range listings {
		out = append(out, toListingResponse(l))
	}
	return out
}

// PublicFeed handles GET /listings.
func (h *ListingHandler) PublicFeed(w http.ResponseWriter, r *http.Request) {
	limit := h.feedLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if n < limit {
			limit = n
		}
	}

	h.collector.RecordFeedQuery("public")
	listings, err := h.svc.PublicFeed(r.Context(), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toListingResponses(listings))
}

// GetByID handles GET /listings/{id}.
func (h *ListingHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	l, err := h.svc.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingResponse(l))
}

// MyListings handles GET /my/listings. The guard middleware has already
// established a signed-in session.
func (h *ListingHandler) MyListings(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Current()
	if !s.SignedIn() {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	h.collector.RecordFeedQuery("owner")
	listings, err := h.svc.ByOwner(r.Context(), s.Identity.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toListingResponses(listings))
}

// Create handles POST /listings as a multipart form: the draft fields
// plus one or more "images" parts.
func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Current()
	if !s.SignedIn() {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	draft, err := parseDraft(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	owner := listing.OwnerContact{
		Name:     s.Identity.DisplayName,
		Phone:    "Not provided",
		Verified: s.Identity.Verified,
	}
	if s.Identity.Phone != nil {
		owner.Phone = *s.Identity.Phone
	}

	start := time.Now()
	created, err := h.svc.Create(r.Context(), s.Identity.ID, owner, draft)
	if err != nil {
		stage := "validate"
		var creationErr *listing.CreationError
		if errors.As(err, &creationErr) {
			stage = string(creationErr.Stage)
		}
		h.collector.RecordCreateFailure(stage)
		writeDomainError(w, err)
		return
	}
	h.collector.RecordUploadBatch(time.Since(start))
	h.collector.RecordListingCreated()

	writeJSON(w, http.StatusCreated, toListingResponse(created))
}

// SetStatus handles PATCH /my/listings/{id}/status.
func (h *ListingHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Current()
	if !s.SignedIn() {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.svc.SetStatus(r.Context(), s.Identity.ID, chi.URLParam(r, "id"), listing.Status(req.Status))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingResponse(updated))
}

// ServeAsset handles GET /assets/* and streams stored asset bytes.
func (h *ListingHandler) ServeAsset(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	data, contentType, err := h.store.Get(r.Context(), key)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(data)
}

func parseDraft(r *http.Request) (listing.Draft, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return listing.Draft{}, fmt.Errorf("parse multipart form: %w", err)
	}

	price, err := strconv.ParseFloat(r.FormValue("price"), 64)
	if err != nil {
		return listing.Draft{}, fmt.Errorf("price must be numeric")
	}
	bedrooms, err := strconv.Atoi(r.FormValue("bedrooms"))
	if err != nil {
		return listing.Draft{}, fmt.Errorf("bedrooms must be an integer")
	}
	bathrooms, err := strconv.Atoi(r.FormValue("bathrooms"))
	if err != nil {
		return listing.Draft{}, fmt.Errorf("bathrooms must be an integer")
	}

	draft := listing.Draft{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Price:       price,
		Type:        listing.PropertyType(r.FormValue("type")),
		Bedrooms:    bedrooms,
		Bathrooms:   bathrooms,
		Location: listing.Location{
			County:  r.FormValue("county"),
			City:    r.FormValue("city"),
			Address: r.FormValue("address"),
		},
	}

	for _, fh := range r.MultipartForm.File["images"] {
		f, err := fh.Open()
		if err != nil {
			return listing.Draft{}, fmt.Errorf("open image %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return listing.Draft{}, fmt.Errorf("read image %s: %w", fh.Filename, err)
		}
		contentType := fh.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		draft.Images = append(draft.Images, asset.File{
			Name:        fh.Filename,
			ContentType: contentType,
			Data:        data,
		})
	}

	return draft, nil
}
