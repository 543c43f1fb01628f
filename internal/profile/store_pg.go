package profile

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// PGStore implements Store over database/sql (pgx stdlib driver).
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) (*PGStore, error) {
	if db == nil {
		return nil, errors.New("profile: db is required")
	}
	return &PGStore{db: db}, nil
}

func (s *PGStore) RoleOf(ctx context.Context, userID string) (string, error) {
	const q = `
SELECT role
FROM profiles
WHERE id = $1
`
	var role string
	if err := s.db.QueryRowContext(ctx, q, userID).Scan(&role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return role, nil
}

func (s *PGStore) GetByEmail(ctx context.Context, email string) (Profile, error) {
	const q = `
SELECT id, email, display_name, role, password_hash, created_at, updated_at
FROM profiles
WHERE email = $1
`
	email = strings.TrimSpace(strings.ToLower(email))
	var p Profile
	if err := s.db.QueryRowContext(ctx, q, email).Scan(
		&p.ID,
		&p.Email,
		&p.DisplayName,
		&p.Role,
		&p.PasswordHash,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, err
	}
	return p, nil
}

func (s *PGStore) SetRole(ctx context.Context, userID, role string) error {
	const q = `
UPDATE profiles
SET role = $2, updated_at = $3
WHERE id = $1
`
	res, err := s.db.ExecContext(ctx, q, userID, role, time.Now().UTC())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
