package security

import (
	"context"
	"errors"
	"net/http"

	"shadi-recommendations/internal/audit"
	"shadi-recommendations/internal/obs"

	"github.com/gin-gonic/gin"
)

var errNilVerifier = errors.New("security: verifier is required")

// AuditRecorder is the slice of *audit.Logger the guard needs.
type AuditRecorder interface {
	SecurityEvent(ctx context.Context, action audit.Action, metadata map[string]any, userID string)
}

// Guard is the request-facing composition layer used by route handlers.
// It is the only component permitted to short-circuit a request; everything
// below it returns values.
type Guard struct {
	verifier *Verifier
	audit    AuditRecorder
	tracker  *Tracker
}

func NewGuard(verifier *Verifier, recorder AuditRecorder, tracker *Tracker) (*Guard, error) {
	if verifier == nil {
		return nil, errNilVerifier
	}
	return &Guard{verifier: verifier, audit: recorder, tracker: tracker}, nil
}

// RequireAuth verifies the session or redirects to redirectTarget.
// Denial emits one security_unauthorized audit entry.
func (g *Guard) RequireAuth(redirectTarget string) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := g.verifier.Verify(c)
		if u == nil {
			g.deny(c, redirectTarget, map[string]any{
				"reason":   "No valid session",
				"redirect": redirectTarget,
				"path":     c.Request.URL.Path,
			}, "")
			return
		}
		g.track(c, u.ID, "auth_check")
		c.Next()
	}
}

// RequirePermission verifies the session and the permission, or redirects.
func (g *Guard) RequirePermission(p Permission, redirectTarget string) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := g.verifier.Verify(c)
		if u == nil {
			g.deny(c, redirectTarget, map[string]any{
				"reason":   "No valid session",
				"redirect": redirectTarget,
				"path":     c.Request.URL.Path,
			}, "")
			return
		}
		if !u.HasPermission(p) {
			g.track(c, u.ID, "permission_check_failed")
			g.deny(c, redirectTarget, map[string]any{
				"reason":   "Insufficient permissions",
				"required": string(p),
				"userRole": string(u.Role),
				"redirect": redirectTarget,
				"path":     c.Request.URL.Path,
			}, u.ID)
			return
		}
		g.track(c, u.ID, "permission_check")
		c.Next()
	}
}

// CurrentUser returns the memoized identity for handlers running behind a
// Require* middleware.
func (g *Guard) CurrentUser(c *gin.Context) *VerifiedUser {
	return g.verifier.Verify(c)
}

// Verifier exposes the underlying verifier for handler-level checks
// (CheckAccess, CanAccessResource).
func (g *Guard) Verifier() *Verifier {
	return g.verifier
}

func (g *Guard) deny(c *gin.Context, redirectTarget string, metadata map[string]any, userID string) {
	if reason, ok := metadata["reason"].(string); ok {
		obs.AccessDenied(reason)
	}
	if g.audit != nil {
		g.audit.SecurityEvent(c.Request.Context(), audit.ActionSecurityUnauthorized, metadata, userID)
	}
	c.Redirect(http.StatusFound, redirectTarget)
	c.Abort()
}

func (g *Guard) track(c *gin.Context, userID, action string) {
	if g.tracker == nil {
		return
	}
	g.tracker.Track(c.Request.Context(), ActivityContext{
		UserID:    userID,
		Action:    action,
		IPAddress: c.ClientIP(),
	})
}
