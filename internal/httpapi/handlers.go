package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"shadi-recommendations/internal/audit"
	"shadi-recommendations/internal/auth"
	"shadi-recommendations/internal/profile"
	"shadi-recommendations/internal/restaurant"
	"shadi-recommendations/internal/security"
	"shadi-recommendations/internal/session"
	"shadi-recommendations/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionWriter is the slice of the session store the handlers need.
type SessionWriter interface {
	Put(ctx context.Context, sess session.Session) error
	Delete(ctx context.Context, id string) error
}

// AuditPurger deletes audit rows older than a cutoff. Implemented by the
// Postgres audit repository; kept off the Logger so the logging API stays
// append-only.
type AuditPurger interface {
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth        *auth.Manager
	Sessions    SessionWriter
	Profiles    profile.Store
	Audit       *audit.Logger
	Guard       *security.Guard
	Restaurants *restaurant.Service
	Purger      AuditPurger

	SessionTTL    time.Duration
	RetentionDays int

	// Now is overridable for tests; nil means time.Now.
	Now func() time.Time
}

func (h Handlers) clock() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// --- Auth ---

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login checks credentials against the profiles table, creates a Redis
// session and issues a token pair bound to it.
func (h Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Email == "" || req.Password == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "email and password required"})
		return
	}

	ctx := c.Request.Context()
	now := h.clock()

	p, err := h.Profiles.GetByEmail(ctx, req.Email)
	if err != nil || !profile.VerifyPassword(req.Password, p.PasswordHash) {
		h.Audit.UserAction(ctx, audit.ActionLoginFailed, p.ID,
			map[string]any{"email": req.Email}, false, "invalid credentials")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	sess := session.Session{
		ID:        uuid.NewString(),
		UserID:    p.ID,
		Email:     p.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(h.SessionTTL),
	}
	if err := h.Sessions.Put(ctx, sess); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session creation failed"})
		return
	}

	pair, err := h.Auth.IssuePair(now, p.ID, p.Email, sess.ID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}

	h.Audit.UserAction(ctx, audit.ActionLoginSuccess, p.ID, nil, true, "")
	c.JSON(http.StatusOK, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"expires_at":    sess.ExpiresAt,
	})
}

// Logout deletes the server-side session. The tokens become useless even
// though they remain structurally valid until expiry. Runs behind
// RequireAuth, which stamps the verified identity into the request context.
func (h Handlers) Logout(c *gin.Context) {
	ctx := c.Request.Context()

	sessionID, err := auth.SessionID(ctx)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	userID, _ := auth.UserID(ctx)
	email, _ := auth.Email(ctx)

	if err := h.Sessions.Delete(ctx, sessionID); err != nil && !errors.Is(err, session.ErrNotFound) {
		logger.FromGin(c).Error("session delete failed", "session_id", sessionID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}

	h.Audit.UserAction(ctx, audit.ActionLogout, userID, map[string]any{"email": email}, true, "")
	c.Status(http.StatusNoContent)
}

// --- Restaurants ---

func (h Handlers) ListRestaurants(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	out, err := h.Restaurants.ListRestaurants(c.Request.Context(), c.Query("city"), c.Query("cuisine"), limit)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "listing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurants": out})
}

func (h Handlers) GetRestaurant(c *gin.Context) {
	r, err := h.Restaurants.GetRestaurant(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, restaurant.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "restaurant not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h Handlers) CreateRestaurant(c *gin.Context) {
	user := h.Guard.CurrentUser(c)
	if user == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var in restaurant.CreateRestaurantInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	ctx := c.Request.Context()
	r, err := h.Restaurants.CreateRestaurant(ctx, user.ID, in)
	if err != nil {
		if errors.Is(err, restaurant.ErrInvalidArgument) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}

	h.Audit.DataModification(ctx, audit.ActionRestaurantCreate, user.ID,
		restaurant.ResourceRestaurants, r.ID, map[string]any{"city": r.City}, true)
	c.JSON(http.StatusCreated, r)
}

func (h Handlers) UpdateRestaurant(c *gin.Context) {
	id := c.Param("id")
	user, ok := h.requireResourceAccess(c, restaurant.ResourceRestaurants, id, security.ActionUpdate)
	if !ok {
		return
	}

	var in restaurant.UpdateRestaurantInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	ctx := c.Request.Context()
	r, err := h.Restaurants.UpdateRestaurant(ctx, id, in)
	if err != nil {
		switch {
		case errors.Is(err, restaurant.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "restaurant not found"})
		case errors.Is(err, restaurant.ErrInvalidArgument):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		}
		return
	}

	h.Audit.DataModification(ctx, audit.ActionRestaurantUpdate, user.ID,
		restaurant.ResourceRestaurants, id, nil, true)
	c.JSON(http.StatusOK, r)
}

func (h Handlers) DeleteRestaurant(c *gin.Context) {
	id := c.Param("id")
	user, ok := h.requireResourceAccess(c, restaurant.ResourceRestaurants, id, security.ActionDelete)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.Restaurants.DeleteRestaurant(ctx, id); err != nil {
		if errors.Is(err, restaurant.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "restaurant not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}

	h.Audit.DataModification(ctx, audit.ActionRestaurantDelete, user.ID,
		restaurant.ResourceRestaurants, id, nil, true)
	c.Status(http.StatusNoContent)
}

// --- Reviews ---

func (h Handlers) CreateReview(c *gin.Context) {
	user := h.Guard.CurrentUser(c)
	if user == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var in restaurant.CreateReviewInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	ctx := c.Request.Context()
	rv, err := h.Restaurants.CreateReview(ctx, user.ID, in)
	if err != nil {
		switch {
		case errors.Is(err, restaurant.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "restaurant not found"})
		case errors.Is(err, restaurant.ErrInvalidArgument):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		}
		return
	}

	h.Audit.DataModification(ctx, audit.ActionReviewCreate, user.ID,
		restaurant.ResourceReviews, rv.ID, map[string]any{"restaurant_id": rv.RestaurantID}, true)
	c.JSON(http.StatusCreated, rv)
}

func (h Handlers) UpdateReview(c *gin.Context) {
	id := c.Param("id")
	user, ok := h.requireResourceAccess(c, restaurant.ResourceReviews, id, security.ActionUpdate)
	if !ok {
		return
	}

	var in restaurant.UpdateReviewInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	ctx := c.Request.Context()
	rv, err := h.Restaurants.UpdateReview(ctx, id, in)
	if err != nil {
		switch {
		case errors.Is(err, restaurant.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "review not found"})
		case errors.Is(err, restaurant.ErrInvalidArgument):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		}
		return
	}

	h.Audit.DataModification(ctx, audit.ActionReviewUpdate, user.ID,
		restaurant.ResourceReviews, id, nil, true)
	c.JSON(http.StatusOK, rv)
}

func (h Handlers) DeleteReview(c *gin.Context) {
	id := c.Param("id")
	user, ok := h.requireResourceAccess(c, restaurant.ResourceReviews, id, security.ActionDelete)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.Restaurants.DeleteReview(ctx, id); err != nil {
		if errors.Is(err, restaurant.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "review not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}

	h.Audit.DataModification(ctx, audit.ActionReviewDelete, user.ID,
		restaurant.ResourceReviews, id, nil, true)
	c.Status(http.StatusNoContent)
}

// requireResourceAccess runs the ownership check and writes the denial
// response. Guards handle authentication and coarse permissions upstream;
// this is the per-row layer, so denials are JSON statuses, not redirects.
func (h Handlers) requireResourceAccess(c *gin.Context, resourceType, resourceID, action string) (*security.VerifiedUser, bool) {
	check := h.Guard.Verifier().CanAccessResource(c, h.Restaurants, resourceType, resourceID, action)
	if check.Allowed {
		return check.User, true
	}

	switch check.Reason {
	case security.ReasonResourceNotFound:
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "resource not found"})
	case security.ReasonNotAuthenticated:
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
	default:
		var userID string
		if check.User != nil {
			userID = check.User.ID
		}
		h.Audit.SecurityEvent(c.Request.Context(), audit.ActionSecurityBreachAttempt, map[string]any{
			"reason":        check.Reason,
			"resource_type": resourceType,
			"resource_id":   resourceID,
			"action":        action,
		}, userID)
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	}
	return nil, false
}

// --- Admin ---

type setRoleRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// AdminSetRole changes the authoritative role of a user. Effective from the
// target's next request; no token reissue needed since tokens carry no role.
func (h Handlers) AdminSetRole(c *gin.Context) {
	admin := h.Guard.CurrentUser(c)
	if admin == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req setRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id required"})
		return
	}
	role := security.ParseRole(req.Role)
	if string(role) != req.Role {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
		return
	}

	ctx := c.Request.Context()
	if err := h.Profiles.SetRole(ctx, req.UserID, string(role)); err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "role change failed"})
		return
	}

	h.Audit.AdminAction(ctx, audit.ActionAdminRoleChange, admin.ID, req.UserID,
		map[string]any{"new_role": string(role)})
	c.JSON(http.StatusOK, gin.H{"user_id": req.UserID, "role": string(role)})
}

// AdminPurgeAudit deletes audit rows past the retention horizon. Retention
// is the one sanctioned deletion path for the append-only log.
func (h Handlers) AdminPurgeAudit(c *gin.Context) {
	admin := h.Guard.CurrentUser(c)
	if admin == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	if h.Purger == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "purge not configured"})
		return
	}

	ctx := c.Request.Context()
	cutoff := h.clock().AddDate(0, 0, -h.RetentionDays)
	purged, err := h.Purger.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "purge failed"})
		return
	}

	h.Audit.AdminAction(ctx, audit.ActionAuditPurge, admin.ID, "",
		map[string]any{"cutoff": cutoff, "purged": purged})
	c.JSON(http.StatusOK, gin.H{"purged": purged, "cutoff": cutoff})
}
