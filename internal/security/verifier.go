package security

import (
	"context"
	"errors"
	"time"

	"shadi-recommendations/internal/auth"
	"shadi-recommendations/internal/profile"
	"shadi-recommendations/internal/session"
	"shadi-recommendations/pkg/logger"

	"github.com/gin-gonic/gin"
)

// VerifiedUser is the authenticated principal for the duration of one request.
// Constructed fresh on each verification; never persisted.
type VerifiedUser struct {
	ID           string
	Email        string
	Role         Role
	Permissions  []Permission
	SessionValid bool
	LastVerified time.Time
}

// HasPermission reports whether the permission set contains p.
func (u *VerifiedUser) HasPermission(p Permission) bool {
	if u == nil {
		return false
	}
	for _, have := range u.Permissions {
		if have == p {
			return true
		}
	}
	return false
}

// TokenSource extracts and verifies the caller's access credential.
type TokenSource interface {
	BearerClaims(c *gin.Context, now time.Time) (auth.Claims, error)
}

// SessionStore resolves and invalidates server-side sessions.
type SessionStore interface {
	Get(ctx context.Context, id string) (session.Session, error)
	Delete(ctx context.Context, id string) error
}

// RoleStore is the authoritative role lookup.
type RoleStore interface {
	RoleOf(ctx context.Context, userID string) (string, error)
}

// Verifier resolves the calling identity exactly once per request.
//
// Fail-closed: any collaborator failure yields nil (not authenticated);
// Verify never panics and never returns a partially populated identity.
type Verifier struct {
	tokens   TokenSource
	sessions SessionStore
	roles    RoleStore
	clock    func() time.Time
}

func NewVerifier(tokens TokenSource, sessions SessionStore, roles RoleStore) (*Verifier, error) {
	if tokens == nil || sessions == nil || roles == nil {
		return nil, errors.New("security: token source, session store and role store are required")
	}
	return &Verifier{
		tokens:   tokens,
		sessions: sessions,
		roles:    roles,
		clock:    time.Now,
	}, nil
}

// WithClock overrides the time source. Test use.
func (v *Verifier) WithClock(clock func() time.Time) *Verifier {
	v.clock = clock
	return v
}

const verifiedUserKey = "security_verified_user"

// Verify resolves the caller's identity, memoized on the gin context so the
// token check, session lookup and role lookup happen at most once per
// request. Returns nil when the caller is not authenticated.
func (v *Verifier) Verify(c *gin.Context) *VerifiedUser {
	if cached, ok := c.Get(verifiedUserKey); ok {
		u, _ := cached.(*VerifiedUser)
		return u
	}
	u := v.verify(c)
	// Cache nil results too: repeat calls must not repeat the round-trips.
	c.Set(verifiedUserKey, u)
	return u
}

func (v *Verifier) verify(c *gin.Context) *VerifiedUser {
	now := v.clock().UTC()
	ctx := c.Request.Context()

	claims, err := v.tokens.BearerClaims(c, now)
	if err != nil {
		return nil
	}

	sess, err := v.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		// Missing session and store failure both fail closed.
		return nil
	}
	if sess.UserID != claims.UserID {
		return nil
	}
	if now.After(sess.ExpiresAt) {
		// Proactively invalidate the expired session (sign-out side effect).
		if err := v.sessions.Delete(ctx, sess.ID); err != nil {
			logger.From(ctx).Warn("session invalidation failed", "session_id", sess.ID, "err", err)
		}
		return nil
	}

	var role Role
	persisted, err := v.roles.RoleOf(ctx, claims.UserID)
	switch {
	case err == nil:
		role = ParseRole(persisted)
	case errors.Is(err, profile.ErrNotFound):
		// No profile row: default to least privilege.
		role = RoleUser
	default:
		// Store failure: fail closed, not least-privilege.
		return nil
	}

	// Downstream handlers read identity from the request context, so they
	// never need to re-parse the credential.
	c.Request = c.Request.WithContext(auth.WithIdentity(ctx, claims.UserID, claims.Email, claims.SessionID))

	return &VerifiedUser{
		ID:           claims.UserID,
		Email:        claims.Email,
		Role:         role,
		Permissions:  PermissionsForRole(role),
		SessionValid: true,
		LastVerified: now,
	}
}
