package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims are the only supported JWT claims shape for this service.
//
// Zero-trust invariant: claims deliberately do NOT carry a role. Roles can
// change after a token is issued, so the authoritative role is always read
// from the profiles store at verification time. The token only proves who
// the caller is and which server-side session it belongs to.
type Claims struct {
	jwt.RegisteredClaims

	UserID    string    `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	SessionID string    `json:"session_id"`
	TokenType TokenType `json:"token_type"`
}
