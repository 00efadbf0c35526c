package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/noah-isme/pcnexus-api/internal/db"
)

var (
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("auth: user not found")
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("auth: email already registered")
	// ErrUsernameTaken is returned when registering a username that already exists.
	ErrUsernameTaken = errors.New("auth: username already taken")
	// ErrTokenNotFound is returned for unknown or revoked refresh tokens.
	ErrTokenNotFound = errors.New("auth: refresh token not found")
)

// Credentials is a user together with the stored password hash.
type Credentials struct {
	User
	PasswordHash string
}

// RefreshToken is a stored refresh token. Only the hash is persisted.
type RefreshToken struct {
	ID        string
	UserID    string
	Hash      string
	ExpiresAt time.Time
}

// Store persists users and refresh tokens.
type Store interface {
	CreateUser(ctx context.Context, u Credentials) (User, error)
	// CredentialsByLogin finds a user by username or email.
	CredentialsByLogin(ctx context.Context, login string) (Credentials, error)
	UserByID(ctx context.Context, id string) (User, error)
	CreateRefreshToken(ctx context.Context, t RefreshToken) error
	RefreshTokenByHash(ctx context.Context, hash string) (RefreshToken, error)
	RotateRefreshToken(ctx context.Context, id, newHash string, expiresAt time.Time) error
	RevokeRefreshToken(ctx context.Context, hash string) error
}

// PGStore implements Store on Postgres.
type PGStore struct {
	DB db.Querier
}

const userColumns = `id, username, email, phone, full_name, roles, created_at, updated_at`

func scanUser(row pgx.Row, extra ...any) (User, error) {
	var (
		u  User
		id uuid.UUID
	)
	dest := append([]any{&id, &u.Username, &u.Email, &u.Phone, &u.FullName, &u.Roles, &u.CreatedAt, &u.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	u.ID = id.String()
	return u, nil
}

func (s PGStore) CreateUser(ctx context.Context, c Credentials) (User, error) {
	id := uuid.New()
	row := s.DB.QueryRow(ctx, `INSERT INTO users (id, username, email, phone, full_name, password_hash, roles)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING `+userColumns,
		id, c.Username, c.Email, c.Phone, c.FullName, c.PasswordHash, c.Roles)
	u, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if db.IsUniqueViolation(err) && errors.As(err, &pgErr) {
			if strings.Contains(pgErr.ConstraintName, "username") {
				return User{}, ErrUsernameTaken
			}
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s PGStore) CredentialsByLogin(ctx context.Context, login string) (Credentials, error) {
	var c Credentials
	row := s.DB.QueryRow(ctx, `SELECT `+userColumns+`, password_hash FROM users
		WHERE lower(username) = lower($1) OR lower(email) = lower($1) LIMIT 1`, login)
	u, err := scanUser(row, &c.PasswordHash)
	if err != nil {
		return Credentials{}, err
	}
	c.User = u
	return c, nil
}

func (s PGStore) UserByID(ctx context.Context, id string) (User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return User{}, ErrUserNotFound
	}
	return scanUser(s.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, uid))
}

func (s PGStore) CreateRefreshToken(ctx context.Context, t RefreshToken) error {
	_, err := s.DB.Exec(ctx, `INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at) VALUES ($1, $2, $3, $4)`,
		uuid.MustParse(t.ID), uuid.MustParse(t.UserID), t.Hash, t.ExpiresAt)
	if err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

func (s PGStore) RefreshTokenByHash(ctx context.Context, hash string) (RefreshToken, error) {
	var (
		t       RefreshToken
		id, uid uuid.UUID
	)
	err := s.DB.QueryRow(ctx, `SELECT id, user_id, token_hash, expires_at FROM refresh_tokens
		WHERE token_hash = $1 AND revoked_at IS NULL`, hash).Scan(&id, &uid, &t.Hash, &t.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return RefreshToken{}, ErrTokenNotFound
	}
	if err != nil {
		return RefreshToken{}, fmt.Errorf("load refresh token: %w", err)
	}
	t.ID, t.UserID = id.String(), uid.String()
	return t, nil
}

func (s PGStore) RotateRefreshToken(ctx context.Context, id, newHash string, expiresAt time.Time) error {
	tag, err := s.DB.Exec(ctx, `UPDATE refresh_tokens SET token_hash = $2, expires_at = $3
		WHERE id = $1 AND revoked_at IS NULL`, uuid.MustParse(id), newHash, expiresAt)
	if err != nil {
		return fmt.Errorf("rotate refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTokenNotFound
	}
	return nil
}

func (s PGStore) RevokeRefreshToken(ctx context.Context, hash string) error {
	if _, err := s.DB.Exec(ctx, `UPDATE refresh_tokens SET revoked_at = now() WHERE token_hash = $1 AND revoked_at IS NULL`, hash); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}
