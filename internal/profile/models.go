package profile

import (
	"errors"
	"time"
)

// Profile mirrors the profiles table: one row per authenticated user.
// The role column is the single source of truth for authorization; token
// claims never carry it.
type Profile struct {
	ID           string
	Email        string
	DisplayName  string
	Role         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

var ErrNotFound = errors.New("profile: not found")
