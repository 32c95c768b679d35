package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrIdentityNotFound signals that the identity does not exist.
	ErrIdentityNotFound = errors.New("identity: not found")
	// ErrEmailInUse signals that the email is already registered.
	ErrEmailInUse = errors.New("identity: email already in use")
)

// Repository handles data access for identities.
type Repository interface {
	Create(ctx context.Context, params CreateRecordParams) (Identity, error)
	GetByEmail(ctx context.Context, email string) (Identity, PasswordHash, error)
	GetByID(ctx context.Context, id string) (Identity, error)
}

// PasswordHash is the stored credential digest, kept out of Identity so
// it never travels with the domain object.
type PasswordHash string

// CreateRecordParams contains write parameters for creating identities.
type CreateRecordParams struct {
	Email        string
	DisplayName  string
	Phone        *string
	PasswordHash string
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed identity repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Create inserts a new identity with hashed credentials.
func (r *PGRepository) Create(ctx context.Context, params CreateRecordParams) (Identity, error) {
	const insertSQL = `
		INSERT INTO identities (email, display_name, phone, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, display_name, phone, verified, created_at, updated_at
	`

	ident, err := scanIdentity(r.pool.QueryRow(ctx, insertSQL, params.Email, params.DisplayName, params.Phone, params.PasswordHash))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Identity{}, ErrEmailInUse
		}
		return Identity{}, fmt.Errorf("identity: create: %w", err)
	}

	return ident, nil
}

// GetByEmail retrieves an identity and its credential hash by email.
func (r *PGRepository) GetByEmail(ctx context.Context, email string) (Identity, PasswordHash, error) {
	const selectSQL = `
		SELECT id, email, display_name, phone, verified, created_at, updated_at, password_hash
		FROM identities
		WHERE email = $1
	`

	var (
		ident Identity
		phone *string
		hash  string
	)
	err := r.pool.QueryRow(ctx, selectSQL, email).Scan(
		&ident.ID,
		&ident.Email,
		&ident.DisplayName,
		&phone,
		&ident.Verified,
		&ident.CreatedAt,
		&ident.UpdatedAt,
		&hash,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Identity{}, "", ErrIdentityNotFound
		}
		return Identity{}, "", fmt.Errorf("identity: get by email: %w", err)
	}

	ident.Phone = phone
	return ident, PasswordHash(hash), nil
}

// GetByID retrieves an identity by ID.
func (r *PGRepository) GetByID(ctx context.Context, id string) (Identity, error) {
	const selectSQL = `
		SELECT id, email, display_name, phone, verified, created_at, updated_at
		FROM identities
		WHERE id = $1
	`

	ident, err := scanIdentity(r.pool.QueryRow(ctx, selectSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Identity{}, ErrIdentityNotFound
		}
		return Identity{}, fmt.Errorf("identity: get by id: %w", err)
	}

	return ident, nil
}

func scanIdentity(row pgx.Row) (Identity, error) {
	var (
		ident Identity
		phone *string
	)
	err := row.Scan(
		&ident.ID,
		&ident.Email,
		&ident.DisplayName,
		&phone,
		&ident.Verified,
		&ident.CreatedAt,
		&ident.UpdatedAt,
	)
	if err != nil {
		return Identity{}, err
	}

	ident.Phone = phone
	return ident, nil
}
