package security

import "strings"

// Role is the closed, coarse-grained classification read from the profiles
// store. Role names are part of the auth contract; keep them stable.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// ParseRole maps a persisted role value onto the closed enumeration.
// Unrecognized values collapse to RoleUser: least privilege is the explicit,
// tested fallback, never an accident.
func ParseRole(v string) Role {
	switch Role(strings.TrimSpace(strings.ToLower(v))) {
	case RoleModerator:
		return RoleModerator
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleUser
	}
}

// Permission is a colon-delimited capability tag gating a specific action.
type Permission string

const (
	PermRestaurantsRead   Permission = "restaurants:read"
	PermRestaurantsCreate Permission = "restaurants:create"
	PermRestaurantsUpdate Permission = "restaurants:update"
	PermRestaurantsDelete Permission = "restaurants:delete"

	PermReviewsCreate    Permission = "reviews:create"
	PermReviewsUpdateOwn Permission = "reviews:update:own"
	PermReviewsDeleteOwn Permission = "reviews:delete:own"
	PermReviewsModerate  Permission = "reviews:moderate"

	PermUsersManage Permission = "users:manage"
	PermAuditRead   Permission = "audit:read"
)

// allPermissions is the full permission universe, in catalog order.
var allPermissions = []Permission{
	PermRestaurantsRead,
	PermRestaurantsCreate,
	PermRestaurantsUpdate,
	PermRestaurantsDelete,
	PermReviewsCreate,
	PermReviewsUpdateOwn,
	PermReviewsDeleteOwn,
	PermReviewsModerate,
	PermUsersManage,
	PermAuditRead,
}

var rolePermissions = map[Role][]Permission{
	RoleUser: {
		PermRestaurantsRead,
		PermReviewsCreate,
		PermReviewsUpdateOwn,
		PermReviewsDeleteOwn,
	},
	RoleModerator: {
		PermRestaurantsRead,
		PermRestaurantsCreate,
		PermRestaurantsUpdate,
		PermReviewsCreate,
		PermReviewsUpdateOwn,
		PermReviewsDeleteOwn,
		PermReviewsModerate,
	},
	RoleAdmin: allPermissions,
}

// PermissionsForRole returns the role's permission set.
// Pure, total, and deterministic; unknown roles get the least-privileged set.
func PermissionsForRole(role Role) []Permission {
	perms, ok := rolePermissions[role]
	if !ok {
		perms = rolePermissions[RoleUser]
	}
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}
