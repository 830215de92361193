//revive:disable-next-line:var-naming // legacy package name widely used across the project
package data

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	domainauth "github.com/loftsec/wicket/internal/domain/auth"
	"github.com/loftsec/wicket/internal/ports"
)

// ErrIdentifierExists is returned when inserting a user whose login
// identifier is already taken.
var ErrIdentifierExists = errors.New("identifier already exists")

var _ ports.UserStore = (*UserStore)(nil)

// UserStore provides database operations for user records. The auth core
// only reads from it; Insert exists for seeding and administration.
type UserStore struct {
	pool *pgxpool.Pool
}

// NewUserStore creates a new UserStore.
func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

// userRow mirrors the users table for pgx row collection.
type userRow struct {
	ID          string          `db:"id"`
	Identifier  string          `db:"identifier"`
	DisplayName string          `db:"display_name"`
	SecretHash  string          `db:"secret_hash"`
	Role        domainauth.Role `db:"role"`
	CreatedAt   time.Time       `db:"created_at"`
}

// FindByIdentifier returns the user record for a login identifier.
// Lookup is case-insensitive on the identifier.
func (s *UserStore) FindByIdentifier(ctx context.Context, identifier string) (domainauth.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, identifier, display_name, secret_hash, role, created_at
		FROM users
		WHERE lower(identifier) = lower($1)
	`, strings.TrimSpace(identifier))
	if err != nil {
		return domainauth.User{}, fmt.Errorf("query user: %w", err)
	}

	row, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[userRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domainauth.User{}, ports.ErrUserNotFound
		}
		return domainauth.User{}, fmt.Errorf("collect user: %w", err)
	}

	return row.user(), nil
}

// Insert creates a user record with a generated ID. A duplicate identifier
// maps to ErrIdentifierExists via the unique index on lower(identifier).
func (s *UserStore) Insert(ctx context.Context, user domainauth.User) (domainauth.User, error) {
	if strings.TrimSpace(user.Identifier) == "" {
		return domainauth.User{}, errors.New("identifier is required")
	}
	if user.SecretHash == "" {
		return domainauth.User{}, errors.New("secret hash is required")
	}
	if !user.Role.Valid() {
		return domainauth.User{}, fmt.Errorf("invalid role %q", user.Role)
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	rows, err := s.pool.Query(ctx, `
		INSERT INTO users (id, identifier, display_name, secret_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, identifier, display_name, secret_hash, role, created_at
	`, user.ID, strings.TrimSpace(user.Identifier), user.DisplayName, user.SecretHash, user.Role)
	if err != nil {
		return domainauth.User{}, fmt.Errorf("insert user: %w", err)
	}

	row, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[userRow])
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return domainauth.User{}, ErrIdentifierExists
		}
		return domainauth.User{}, fmt.Errorf("collect user: %w", err)
	}

	return row.user(), nil
}

func (r userRow) user() domainauth.User {
	return domainauth.User{
		ID:          r.ID,
		Identifier:  r.Identifier,
		DisplayName: r.DisplayName,
		SecretHash:  r.SecretHash,
		Role:        r.Role,
		CreatedAt:   r.CreatedAt,
	}
}
