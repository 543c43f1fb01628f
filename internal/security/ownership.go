package security

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
)

// ErrResourceNotFound is returned by OwnerStore implementations when the
// resource row does not exist.
var ErrResourceNotFound = errors.New("security: resource not found")

// OwnerStore resolves the owning user id of a resource row.
type OwnerStore interface {
	OwnerOf(ctx context.Context, resourceType, resourceID string) (string, error)
}

// Resource actions authorized by CanAccessResource.
const (
	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// CanAccessResource authorizes a per-row action against a specific resource.
//
// Rules, in order: unauthenticated denied; admin bypasses ownership; missing
// resource denied; read is permissive for any authenticated caller (public
// read model); update/delete require ownership or the moderator role;
// anything else is denied. Exactly one resource lookup per call, no caching:
// ownership can change between calls and must be re-verified.
func (v *Verifier) CanAccessResource(c *gin.Context, owners OwnerStore, resourceType, resourceID, action string) AccessCheck {
	u := v.Verify(c)
	if u == nil {
		return AccessCheck{Allowed: false, Reason: ReasonNotAuthenticated}
	}

	if u.Role == RoleAdmin {
		return AccessCheck{Allowed: true, User: u}
	}

	ownerID, err := owners.OwnerOf(c.Request.Context(), resourceType, resourceID)
	if err != nil {
		// Missing rows and store failures are indistinguishable to the
		// caller: both deny, neither ever allows.
		return AccessCheck{Allowed: false, Reason: ReasonResourceNotFound, User: u}
	}

	switch action {
	case ActionRead:
		return AccessCheck{Allowed: true, User: u}
	case ActionUpdate, ActionDelete:
		if ownerID == u.ID || u.Role == RoleModerator {
			return AccessCheck{Allowed: true, User: u}
		}
		return AccessCheck{Allowed: false, Reason: ReasonNotResourceOwner, User: u}
	default:
		return AccessCheck{Allowed: false, Reason: ReasonUnknownAction, User: u}
	}
}
