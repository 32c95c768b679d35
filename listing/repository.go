package listing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound signals that the listing does not exist. It is a
	// normal outcome, distinct from transient query failures which are
	// returned wrapped.
	ErrNotFound = errors.New("listing: not found")
	// ErrNotOwner signals a mutation attempted by someone other than
	// the record's owner.
	ErrNotOwner = errors.New("listing: not owned by caller")
)

// Repository handles data access for listings.
type Repository interface {
	Insert(ctx context.Context, l Listing) (Listing, error)
	GetByID(ctx context.Context, id string) (Listing, error)
	PublicFeed(ctx context.Context, limit int) ([]Listing, error)
	ByOwner(ctx context.Context, ownerID string) ([]Listing, error)
	SetStatus(ctx context.Context, ownerID, id string, status Status) (Listing, error)
}

const listingColumns = `
	id, title, description, price, property_type::text, bedrooms, bathrooms,
	county, city, address, latitude, longitude,
	image_urls, status::text, owner_id, owner_name, owner_phone, owner_verified,
	created_at, updated_at
`

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed listing repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Insert persists a fully formed listing as a single new row. The
// record is validated first so no reader can ever observe a partial
// listing.
func (r *PGRepository) Insert(ctx context.Context, l Listing) (Listing, error) {
	if err := checkRecord(l); err != nil {
		return Listing{}, err
	}

	const insertSQL = `
		INSERT INTO listings (
			id, title, description, price, property_type, bedrooms, bathrooms,
			county, city, address, latitude, longitude,
			image_urls, status, owner_id, owner_name, owner_phone, owner_verified,
			created_at, updated_at
		)
		VALUES (
			$1, $2, $3, $4, $5::property_type, $6, $7,
			$8, $9, $10, $11, $12,
			$13, $14::listing_status, $15, $16, $17, $18,
			$19, $20
		)
		RETURNING ` + listingColumns

	row := r.pool.QueryRow(ctx, insertSQL,
		l.ID, l.Title, l.Description, l.Price, l.Type, l.Bedrooms, l.Bathrooms,
		l.Location.County, l.Location.City, l.Location.Address, l.Location.Latitude, l.Location.Longitude,
		l.ImageURLs, l.Status, l.OwnerID, l.OwnerContact.Name, l.OwnerContact.Phone, l.OwnerContact.Verified,
		l.CreatedAt, l.UpdatedAt,
	)

	stored, err := scanListing(row)
	if err != nil {
		return Listing{}, fmt.Errorf("listing: insert: %w", err)
	}
	return stored, nil
}

// GetByID retrieves a single listing. An id that is not a UUID cannot
// match any row, so it reports ErrNotFound without a round trip.
func (r *PGRepository) GetByID(ctx context.Context, id string) (Listing, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Listing{}, ErrNotFound
	}

	const selectSQL = `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`

	l, err := scanListing(r.pool.QueryRow(ctx, selectSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Listing{}, ErrNotFound
		}
		return Listing{}, fmt.Errorf("listing: get by id: %w", err)
	}

	if err := checkRecord(l); err != nil {
		return Listing{}, err
	}
	return l, nil
}

// PublicFeed returns up to limit listings, most recently created first.
// The seq column carries insertion order and breaks timestamp ties, so
// the feed order is stable even at coarse clock resolution. No status
// filter is applied.
func (r *PGRepository) PublicFeed(ctx context.Context, limit int) ([]Listing, error) {
	const query = `
		SELECT ` + listingColumns + `
		FROM listings
		ORDER BY created_at DESC, seq DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing: public feed: %w", err)
	}
	defer rows.Close()

	return collectListings(rows, "public feed")
}

// ByOwner returns all listings owned by ownerID, most recent first. The
// scoping lives in the SQL equality filter, never in client-side
// post-filtering.
func (r *PGRepository) ByOwner(ctx context.Context, ownerID string) ([]Listing, error) {
	const query = `
		SELECT ` + listingColumns + `
		FROM listings
		WHERE owner_id = $1
		ORDER BY created_at DESC, seq DESC
	`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing: by owner: %w", err)
	}
	defer rows.Close()

	return collectListings(rows, "by owner")
}

// SetStatus flips the availability of a listing. The owner check is part
// of the UPDATE predicate so a forged caller cannot touch foreign rows.
func (r *PGRepository) SetStatus(ctx context.Context, ownerID, id string, status Status) (Listing, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Listing{}, ErrNotFound
	}

	const query = `
		UPDATE listings
		SET status = $3::listing_status, updated_at = now()
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + listingColumns

	l, err := scanListing(r.pool.QueryRow(ctx, query, id, ownerID, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Distinguish missing from foreign-owned for the caller.
			if _, getErr := r.GetByID(ctx, id); errors.Is(getErr, ErrNotFound) {
				return Listing{}, ErrNotFound
			}
			return Listing{}, ErrNotOwner
		}
		return Listing{}, fmt.Errorf("listing: set status: %w", err)
	}
	return l, nil
}

func collectListings(rows pgx.Rows, op string) ([]Listing, error) {
	out := make([]Listing, 0, 8)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("listing: scan %s: %w", op, err)
		}
		if err := checkRecord(l); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing: iterate %s: %w", op, err)
	}
	return out, nil
}

func scanListing(row pgx.Row) (Listing, error) {
	var l Listing
	err := row.Scan(
		&l.ID,
		&l.Title,
		&l.Description,
		&l.Price,
		&l.Type,
		&l.Bedrooms,
		&l.Bathrooms,
		&l.Location.County,
		&l.Location.City,
		&l.Location.Address,
		&l.Location.Latitude,
		&l.Location.Longitude,
		&l.ImageURLs,
		&l.Status,
		&l.OwnerID,
		&l.OwnerContact.Name,
		&l.OwnerContact.Phone,
		&l.OwnerContact.Verified,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return Listing{}, err
	}
	return l, nil
}
