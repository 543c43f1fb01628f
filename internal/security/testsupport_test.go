package security

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"shadi-recommendations/internal/audit"
	"shadi-recommendations/internal/auth"
	"shadi-recommendations/internal/profile"
	"shadi-recommendations/internal/session"

	"github.com/gin-gonic/gin"
)

var testNow = time.Unix(1700000000, 0).UTC()

type fakeTokens struct {
	claims auth.Claims
	err    error
	calls  int
}

func (f *fakeTokens) BearerClaims(c *gin.Context, now time.Time) (auth.Claims, error) {
	f.calls++
	return f.claims, f.err
}

type fakeSessions struct {
	mu      sync.Mutex
	sess    session.Session
	getErr  error
	deletes int
}

func (f *fakeSessions) Get(ctx context.Context, id string) (session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return session.Session{}, f.getErr
	}
	if f.sess.ID != id {
		return session.Session{}, session.ErrNotFound
	}
	return f.sess, nil
}

func (f *fakeSessions) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	return nil
}

type fakeRoles struct {
	role string
	err  error
}

func (f *fakeRoles) RoleOf(ctx context.Context, userID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.role, nil
}

type sinkEvent struct {
	Action   audit.Action
	Metadata map[string]any
	UserID   string
}

type fakeSink struct {
	mu     sync.Mutex
	events []sinkEvent
}

func (f *fakeSink) SecurityEvent(ctx context.Context, action audit.Action, metadata map[string]any, userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, sinkEvent{Action: action, Metadata: metadata, UserID: userID})
}

func (f *fakeSink) Events() []sinkEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sinkEvent, len(f.events))
	copy(out, f.events)
	return out
}

type fakeOwners struct {
	owners map[string]string // resourceType+"/"+resourceID -> owner user id
	err    error
}

func (f *fakeOwners) OwnerOf(ctx context.Context, resourceType, resourceID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	owner, ok := f.owners[resourceType+"/"+resourceID]
	if !ok {
		return "", ErrResourceNotFound
	}
	return owner, nil
}

// newVerifiedContext returns a verifier wired with fakes that authenticate
// as userID with the given persisted role, plus a fresh gin context.
func newVerifiedContext(t *testing.T, userID, role string) (*Verifier, *gin.Context) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens := &fakeTokens{claims: auth.Claims{UserID: userID, Email: userID + "@example.com", SessionID: "sess-1"}}
	sessions := &fakeSessions{sess: session.Session{ID: "sess-1", UserID: userID, ExpiresAt: testNow.Add(time.Hour)}}
	roles := &fakeRoles{role: role}
	if role == "" {
		roles.err = profile.ErrNotFound
	}

	v, err := NewVerifier(tokens, sessions, roles)
	if err != nil {
		t.Fatalf("verifier: %v", err)
	}
	v.WithClock(func() time.Time { return testNow })

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)
	return v, c
}

// newAnonymousContext returns a verifier whose token source rejects everything.
func newAnonymousContext(t *testing.T) (*Verifier, *gin.Context) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens := &fakeTokens{err: auth.ErrNoBearerToken}
	sessions := &fakeSessions{}
	roles := &fakeRoles{role: "user"}

	v, err := NewVerifier(tokens, sessions, roles)
	if err != nil {
		t.Fatalf("verifier: %v", err)
	}
	v.WithClock(func() time.Time { return testNow })

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)
	return v, c
}

var errBoom = errors.New("boom")
