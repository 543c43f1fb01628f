package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const authorizationHeader = "Authorization"
const bearerPrefix = "Bearer "

var ErrNoBearerToken = errors.New("missing bearer token")

// BearerClaims extracts and verifies the access token on the current request.
// It performs no session or role checks; those belong to internal/security.
func (m *Manager) BearerClaims(c *gin.Context, now time.Time) (Claims, error) {
	raw := strings.TrimSpace(c.GetHeader(authorizationHeader))
	if raw == "" || !strings.HasPrefix(raw, bearerPrefix) {
		return Claims{}, ErrNoBearerToken
	}
	tok := strings.TrimPrefix(raw, bearerPrefix)
	return m.Verify(tok, TokenTypeAccess, now)
}
