package security

import "github.com/gin-gonic/gin"

// AccessCheck is the non-throwing authorization result. Reason is populated
// only on denial.
type AccessCheck struct {
	Allowed bool
	Reason  string
	User    *VerifiedUser
}

// Denial reasons. Treated as part of the contract; tests and audit metadata
// depend on the exact strings.
const (
	ReasonNotAuthenticated        = "Not authenticated"
	ReasonInsufficientPermissions = "Insufficient permissions"
	ReasonResourceNotFound        = "Resource not found"
	ReasonNotResourceOwner        = "Not resource owner"
	ReasonUnknownAction           = "Unknown action"
)

// HasPermission reports whether the verified caller holds p.
// False when unauthenticated.
func (v *Verifier) HasPermission(c *gin.Context, p Permission) bool {
	return v.Verify(c).HasPermission(p)
}

// HasAnyPermission reports whether the verified caller holds at least one of perms.
func (v *Verifier) HasAnyPermission(c *gin.Context, perms ...Permission) bool {
	u := v.Verify(c)
	if u == nil {
		return false
	}
	for _, p := range perms {
		if u.HasPermission(p) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether the verified caller holds every one of perms.
func (v *Verifier) HasAllPermissions(c *gin.Context, perms ...Permission) bool {
	u := v.Verify(c)
	if u == nil {
		return false
	}
	for _, p := range perms {
		if !u.HasPermission(p) {
			return false
		}
	}
	return true
}

// CheckAccess is the non-throwing check. An empty permission checks
// authentication only.
func (v *Verifier) CheckAccess(c *gin.Context, p Permission) AccessCheck {
	u := v.Verify(c)
	if u == nil {
		return AccessCheck{Allowed: false, Reason: ReasonNotAuthenticated}
	}
	if p != "" && !u.HasPermission(p) {
		return AccessCheck{Allowed: false, Reason: ReasonInsufficientPermissions, User: u}
	}
	return AccessCheck{Allowed: true, User: u}
}
