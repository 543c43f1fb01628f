package profile

import "context"

// Store is the persistence contract for profiles.
//
// RoleOf returns ErrNotFound when no profile row exists; callers default
// missing roles to least privilege rather than failing.
type Store interface {
	RoleOf(ctx context.Context, userID string) (string, error)
	GetByEmail(ctx context.Context, email string) (Profile, error)
	SetRole(ctx context.Context, userID, role string) error
}
