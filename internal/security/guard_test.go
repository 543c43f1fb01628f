package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shadi-recommendations/internal/audit"
	"shadi-recommendations/internal/auth"
	"shadi-recommendations/internal/session"

	"github.com/gin-gonic/gin"
)

func newGuardRouter(t *testing.T, v *Verifier, sink *fakeSink, mw gin.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", mw, func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func authenticatedVerifier(t *testing.T, role string) *Verifier {
	t.Helper()
	tokens := &fakeTokens{claims: auth.Claims{UserID: "user-1", SessionID: "sess-1"}}
	sessions := &fakeSessions{sess: session.Session{ID: "sess-1", UserID: "user-1", ExpiresAt: testNow.Add(time.Hour)}}
	roles := &fakeRoles{role: role}
	v, err := NewVerifier(tokens, sessions, roles)
	if err != nil {
		t.Fatalf("verifier: %v", err)
	}
	return v.WithClock(func() time.Time { return testNow })
}

func anonymousVerifier(t *testing.T) *Verifier {
	t.Helper()
	tokens := &fakeTokens{err: auth.ErrNoBearerToken}
	v, err := NewVerifier(tokens, &fakeSessions{}, &fakeRoles{role: "user"})
	if err != nil {
		t.Fatalf("verifier: %v", err)
	}
	return v.WithClock(func() time.Time { return testNow })
}

func TestRequireAuth_RedirectAndAuditPairing(t *testing.T) {
	sink := &fakeSink{}
	v := anonymousVerifier(t)
	g, err := NewGuard(v, sink, nil)
	if err != nil {
		t.Fatalf("guard: %v", err)
	}
	r := newGuardRouter(t, v, sink, g.RequireAuth("/login"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Fatalf("expected redirect to /login, got %q", loc)
	}

	events := sink.Events()
	if len(events) != 1 {
		t.Fatalf("expected exactly one audit event, got %d", len(events))
	}
	if events[0].Action != audit.ActionSecurityUnauthorized {
		t.Fatalf("unexpected action: %s", events[0].Action)
	}
	if events[0].Metadata["reason"] != "No valid session" {
		t.Fatalf("unexpected reason: %v", events[0].Metadata["reason"])
	}
	if events[0].Metadata["redirect"] != "/login" {
		t.Fatalf("unexpected redirect metadata: %v", events[0].Metadata["redirect"])
	}
	if events[0].UserID != "" {
		t.Fatalf("anonymous denial must carry no user id")
	}
}

func TestRequireAuth_PassesVerifiedUser(t *testing.T) {
	sink := &fakeSink{}
	v := authenticatedVerifier(t, "user")
	g, _ := NewGuard(v, sink, nil)
	r := newGuardRouter(t, v, sink, g.RequireAuth("/login"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := len(sink.Events()); got != 0 {
		t.Fatalf("no audit events expected on success, got %d", got)
	}
}

func TestRequirePermission_EndToEndDenial(t *testing.T) {
	sink := &fakeSink{}
	v := authenticatedVerifier(t, "user")
	g, _ := NewGuard(v, sink, nil)
	r := newGuardRouter(t, v, sink, g.RequirePermission(PermUsersManage, "/unauthorized"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/unauthorized" {
		t.Fatalf("expected redirect to /unauthorized, got %q", loc)
	}

	events := sink.Events()
	if len(events) != 1 {
		t.Fatalf("expected exactly one audit event, got %d", len(events))
	}
	md := events[0].Metadata
	if md["reason"] != "Insufficient permissions" {
		t.Fatalf("unexpected reason: %v", md["reason"])
	}
	if md["required"] != "users:manage" {
		t.Fatalf("unexpected required: %v", md["required"])
	}
	if md["userRole"] != "user" {
		t.Fatalf("unexpected userRole: %v", md["userRole"])
	}
	if events[0].UserID != "user-1" {
		t.Fatalf("authenticated denial must carry the user id")
	}
}

func TestRequirePermission_AdminAllowed(t *testing.T) {
	sink := &fakeSink{}
	v := authenticatedVerifier(t, "admin")
	g, _ := NewGuard(v, sink, nil)
	r := newGuardRouter(t, v, sink, g.RequirePermission(PermUsersManage, "/unauthorized"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestGuard_TracksActivityOnGuardedRequests(t *testing.T) {
	sink := &fakeSink{}
	v := authenticatedVerifier(t, "user")
	tracker := NewTracker(nil, TrackerWithClock(func() time.Time { return testNow }))
	g, _ := NewGuard(v, sink, tracker)
	r := newGuardRouter(t, v, sink, g.RequireAuth("/login"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)

	if got := tracker.WindowSize("user-1"); got != 1 {
		t.Fatalf("expected one tracked activity, got %d", got)
	}
}
