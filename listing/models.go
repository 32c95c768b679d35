package listing

import (
	"errors"
	"fmt"
	"time"

	"kejani/asset"
)

// PropertyType enumerates the supported property categories.
type PropertyType string

const (
	TypeApartment  PropertyType = "Apartment"
	TypeBungalow   PropertyType = "Bungalow"
	TypeTownhouse  PropertyType = "Townhouse"
	TypeMaisonette PropertyType = "Maisonette"
)

// Status represents the availability of a listing. Listings are never
// hard-deleted; flipping to unavailable is the intended retirement path.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusUnavailable Status = "unavailable"
)

// Location pins a listing to a place. Coordinates default to zero until
// a geocoding step fills them in.
type Location struct {
	County    string
	City      string
	Address   string
	Latitude  float64
	Longitude float64
}

// OwnerContact is the denormalized snapshot of the creating identity,
// frozen at creation time so later profile edits don't rewrite history.
type OwnerContact struct {
	Name     string
	Phone    string
	Verified bool
}

// Listing is the domain representation of a rental property record.
// It mirrors the listings table and should not include JSON annotations
// so it can be reused by different presentation layers.
type Listing struct {
	ID           string
	Title        string
	Description  string
	Price        float64
	Type         PropertyType
	Bedrooms     int
	Bathrooms    int
	Location     Location
	ImageURLs    []string
	Status       Status
	OwnerID      string
	OwnerContact OwnerContact
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Draft is an unpersisted, user-entered candidate listing awaiting the
// upload and persist steps of the create workflow.
type Draft struct {
	Title       string
	Description string
	Price       float64
	Type        PropertyType
	Bedrooms    int
	Bathrooms   int
	Location    Location
	Images      []asset.File
}

// ErrInvalidDraft wraps all draft validation failures.
var ErrInvalidDraft = errors.New("listing: invalid draft")

// ErrCorruptRecord signals a stored row that violates the listing
// invariants; such rows are rejected rather than passed through.
var ErrCorruptRecord = errors.New("listing: corrupt stored record")

func validPropertyType(t PropertyType) bool {
	switch t {
	case TypeApartment, TypeBungalow, TypeTownhouse, TypeMaisonette:
		return true
	default:
		return false
	}
}

// Validate checks a draft against the submission rules before any
// upload is issued.
func (d Draft) Validate() error {
	switch {
	case len(d.Title) < 5:
		return fmt.Errorf("%w: title must be at least 5 characters", ErrInvalidDraft)
	case len(d.Description) < 20:
		return fmt.Errorf("%w: description must be at least 20 characters", ErrInvalidDraft)
	case d.Price <= 0:
		return fmt.Errorf("%w: price must be positive", ErrInvalidDraft)
	case !validPropertyType(d.Type):
		return fmt.Errorf("%w: unknown property type %q", ErrInvalidDraft, d.Type)
	case d.Bedrooms < 1:
		return fmt.Errorf("%w: must have at least 1 bedroom", ErrInvalidDraft)
	case d.Bathrooms < 1:
		return fmt.Errorf("%w: must have at least 1 bathroom", ErrInvalidDraft)
	case len(d.Location.County) < 3:
		return fmt.Errorf("%w: county is required", ErrInvalidDraft)
	case len(d.Location.City) < 3:
		return fmt.Errorf("%w: city is required", ErrInvalidDraft)
	case len(d.Location.Address) < 5:
		return fmt.Errorf("%w: a more specific address is required", ErrInvalidDraft)
	case len(d.Images) == 0:
		return fmt.Errorf("%w: at least one image is required", ErrInvalidDraft)
	}
	return nil
}

// checkRecord validates a fully formed listing as it crosses the
// repository boundary in either direction. The record store enforces no
// schema of its own, so every invariant lives here.
func checkRecord(l Listing) error {
	switch {
	case l.ID == "":
		return fmt.Errorf("%w: missing id", ErrCorruptRecord)
	case l.OwnerID == "":
		return fmt.Errorf("%w: missing owner id", ErrCorruptRecord)
	case len(l.ImageURLs) == 0:
		return fmt.Errorf("%w: no image urls", ErrCorruptRecord)
	case !validPropertyType(l.Type):
		return fmt.Errorf("%w: unknown property type %q", ErrCorruptRecord, l.Type)
	case l.Status != StatusAvailable && l.Status != StatusUnavailable:
		return fmt.Errorf("%w: unknown status %q", ErrCorruptRecord, l.Status)
	case l.UpdatedAt.Before(l.CreatedAt):
		return fmt.Errorf("%w: updated_at precedes created_at", ErrCorruptRecord)
	}
	return nil
}
