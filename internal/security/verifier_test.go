package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shadi-recommendations/internal/auth"
	"shadi-recommendations/internal/session"

	"github.com/gin-gonic/gin"
)

func TestVerify_PopulatesIdentity(t *testing.T) {
	v, c := newVerifiedContext(t, "user-1", "moderator")

	u := v.Verify(c)
	if u == nil {
		t.Fatalf("expected identity")
	}
	if u.ID != "user-1" || u.Role != RoleModerator || !u.SessionValid {
		t.Fatalf("unexpected identity: %+v", u)
	}
	if !u.LastVerified.Equal(testNow) {
		t.Fatalf("expected LastVerified %s, got %s", testNow, u.LastVerified)
	}
	if !u.HasPermission(PermReviewsModerate) {
		t.Fatalf("moderator should hold reviews:moderate")
	}
}

func TestVerify_StampsIdentityIntoRequestContext(t *testing.T) {
	v, c := newVerifiedContext(t, "user-1", "user")

	if u := v.Verify(c); u == nil {
		t.Fatalf("expected identity")
	}

	ctx := c.Request.Context()
	if got, err := auth.UserID(ctx); err != nil || got != "user-1" {
		t.Fatalf("UserID = %q, %v; want user-1", got, err)
	}
	if got, err := auth.Email(ctx); err != nil || got != "user-1@example.com" {
		t.Fatalf("Email = %q, %v", got, err)
	}
	if got, err := auth.SessionID(ctx); err != nil || got != "sess-1" {
		t.Fatalf("SessionID = %q, %v; want sess-1", got, err)
	}
}

func TestVerify_NoIdentityInContextWhenAnonymous(t *testing.T) {
	v, c := newAnonymousContext(t)

	if u := v.Verify(c); u != nil {
		t.Fatalf("expected nil identity")
	}
	if _, err := auth.SessionID(c.Request.Context()); err == nil {
		t.Fatalf("anonymous request must carry no session id")
	}
}

func TestVerify_MemoizedPerRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tokens := &fakeTokens{claims: auth.Claims{UserID: "user-1", SessionID: "sess-1"}}
	sessions := &fakeSessions{sess: session.Session{ID: "sess-1", UserID: "user-1", ExpiresAt: testNow.Add(time.Hour)}}
	roles := &fakeRoles{role: "user"}
	v, _ := NewVerifier(tokens, sessions, roles)
	v.WithClock(func() time.Time { return testNow })

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

	first := v.Verify(c)
	second := v.Verify(c)
	if first == nil || first != second {
		t.Fatalf("expected the identical cached identity on repeat calls")
	}
	if tokens.calls != 1 {
		t.Fatalf("expected one token check, got %d", tokens.calls)
	}
}

func TestVerify_NilMemoizedToo(t *testing.T) {
	v, c := newAnonymousContext(t)

	if u := v.Verify(c); u != nil {
		t.Fatalf("expected nil identity")
	}
	// The failed result is cached; the token source must not be hit again.
	tokens := v.tokens.(*fakeTokens)
	if u := v.Verify(c); u != nil {
		t.Fatalf("expected nil identity on repeat")
	}
	if tokens.calls != 1 {
		t.Fatalf("expected one token check, got %d", tokens.calls)
	}
}

func TestVerify_FailClosedOnTokenError(t *testing.T) {
	v, c := newAnonymousContext(t)
	if u := v.Verify(c); u != nil {
		t.Fatalf("expected nil when the credential is missing")
	}
}

func TestVerify_FailClosedOnSessionStoreError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tokens := &fakeTokens{claims: auth.Claims{UserID: "user-1", SessionID: "sess-1"}}
	sessions := &fakeSessions{getErr: errBoom}
	roles := &fakeRoles{role: "admin"}
	v, _ := NewVerifier(tokens, sessions, roles)
	v.WithClock(func() time.Time { return testNow })

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

	if u := v.Verify(c); u != nil {
		t.Fatalf("expected nil on session store failure")
	}
}

func TestVerify_ExpiredSessionInvalidatedOnce(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tokens := &fakeTokens{claims: auth.Claims{UserID: "user-1", SessionID: "sess-1"}}
	sessions := &fakeSessions{sess: session.Session{ID: "sess-1", UserID: "user-1", ExpiresAt: testNow.Add(-time.Minute)}}
	roles := &fakeRoles{role: "user"}
	v, _ := NewVerifier(tokens, sessions, roles)
	v.WithClock(func() time.Time { return testNow })

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

	if u := v.Verify(c); u != nil {
		t.Fatalf("expected nil for expired session")
	}
	if sessions.deletes != 1 {
		t.Fatalf("expected exactly one sign-out side effect, got %d", sessions.deletes)
	}
}

func TestVerify_SessionUserMismatchRejected(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tokens := &fakeTokens{claims: auth.Claims{UserID: "user-1", SessionID: "sess-1"}}
	sessions := &fakeSessions{sess: session.Session{ID: "sess-1", UserID: "someone-else", ExpiresAt: testNow.Add(time.Hour)}}
	roles := &fakeRoles{role: "user"}
	v, _ := NewVerifier(tokens, sessions, roles)
	v.WithClock(func() time.Time { return testNow })

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

	if u := v.Verify(c); u != nil {
		t.Fatalf("expected nil when session belongs to a different user")
	}
}

func TestVerify_MissingProfileDefaultsToUser(t *testing.T) {
	v, c := newVerifiedContext(t, "user-1", "") // role store returns ErrNotFound
	u := v.Verify(c)
	if u == nil {
		t.Fatalf("expected identity")
	}
	if u.Role != RoleUser {
		t.Fatalf("expected least-privileged default, got %s", u.Role)
	}
}

func TestVerify_FailClosedOnRoleStoreError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tokens := &fakeTokens{claims: auth.Claims{UserID: "user-1", SessionID: "sess-1"}}
	sessions := &fakeSessions{sess: session.Session{ID: "sess-1", UserID: "user-1", ExpiresAt: testNow.Add(time.Hour)}}
	roles := &fakeRoles{err: errBoom}
	v, _ := NewVerifier(tokens, sessions, roles)
	v.WithClock(func() time.Time { return testNow })

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

	if u := v.Verify(c); u != nil {
		t.Fatalf("expected nil on role store failure")
	}
}
