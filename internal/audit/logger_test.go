package audit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestLogger(t *testing.T, repo *MemoryRepo, opts ...LoggerOption) *Logger {
	t.Helper()
	l, err := NewLogger(repo, nil, opts...)
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func TestSeverityForIsDeterministic(t *testing.T) {
	if SeverityFor(ActionAdminRoleChange) != SeverityCritical {
		t.Fatalf("expected critical for admin_role_change")
	}
	if SeverityFor(ActionSecurityUnauthorized) != SeverityWarning {
		t.Fatalf("expected warning for security_unauthorized")
	}
	if SeverityFor(Action("no_such_action")) != SeverityWarning {
		t.Fatalf("expected warning fallback for unknown action")
	}
}

func TestCriticalBypassesBuffer(t *testing.T) {
	repo := NewMemoryRepo()
	l := newTestLogger(t, repo, WithFlushInterval(time.Hour))

	// A buffered entry first; it should still be pending after the critical write.
	l.UserAction(context.Background(), ActionLoginSuccess, "u1", nil, true, "")
	l.AdminAction(context.Background(), ActionAdminRoleChange, "admin", "u1", map[string]any{"new_role": "moderator"})

	entries := repo.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected only the critical entry persisted, got %d", len(entries))
	}
	if entries[0].Action != ActionAdminRoleChange || entries[0].Severity != SeverityCritical {
		t.Fatalf("unexpected entry: %+v", entries[0])
	}

	l.Flush()
	if got := len(repo.Entries()); got != 2 {
		t.Fatalf("expected 2 entries after flush, got %d", got)
	}
}

func TestBufferFlushesAtCapacity(t *testing.T) {
	repo := NewMemoryRepo()
	l := newTestLogger(t, repo, WithFlushInterval(time.Hour))

	for i := 0; i < 10; i++ {
		l.UserAction(context.Background(), ActionLoginSuccess, "u1", nil, true, "")
	}

	if got := len(repo.Entries()); got != 10 {
		t.Fatalf("expected 10 entries flushed at capacity, got %d", got)
	}
	if repo.Batches() != 1 {
		t.Fatalf("expected exactly one batch write, got %d", repo.Batches())
	}
}

func TestBufferFlushesOnTimer(t *testing.T) {
	repo := NewMemoryRepo()
	l := newTestLogger(t, repo, WithFlushInterval(20*time.Millisecond))

	l.UserAction(context.Background(), ActionLoginSuccess, "u1", nil, true, "")
	l.UserAction(context.Background(), ActionLogout, "u1", nil, true, "")

	if got := len(repo.Entries()); got != 0 {
		t.Fatalf("expected nothing persisted before the timer, got %d", got)
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(repo.Entries()) < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("timer flush did not happen")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if repo.Batches() != 1 {
		t.Fatalf("expected one batch, got %d", repo.Batches())
	}
}

// failingRepo rejects every write so tests can observe that logging
// never propagates storage errors to callers.
type failingRepo struct{}

func (failingRepo) Insert(ctx context.Context, e Entry) error { return errors.New("insert refused") }

func (failingRepo) InsertBatch(ctx context.Context, entries []Entry) error {
	return errors.New("batch refused")
}

func TestLoggerSwallowsStorageFailures(t *testing.T) {
	l, err := NewLogger(failingRepo{}, nil, WithFlushInterval(time.Hour))
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	// None of these may panic or surface an error.
	l.AdminAction(context.Background(), ActionAdminUserDelete, "admin", "u1", nil)
	l.UserAction(context.Background(), ActionLoginFailed, "u1", nil, false, "bad password")
	l.SecurityEvent(context.Background(), ActionSecuritySuspicious, map[string]any{"reason": "Rapid request rate"}, "u1")
	l.Flush()
}

func TestEntriesCarryRequestProvenance(t *testing.T) {
	repo := NewMemoryRepo()
	l := newTestLogger(t, repo, WithFlushInterval(time.Hour))

	ctx := WithRequestMeta(context.Background(), "203.0.113.7", "test-agent/1.0")
	l.UserAction(ctx, ActionLoginSuccess, "u1", nil, true, "")
	l.Flush()

	entries := repo.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].IPAddress != "203.0.113.7" || entries[0].UserAgent != "test-agent/1.0" {
		t.Fatalf("provenance not captured: %+v", entries[0])
	}
}

func TestSecurityEventAlwaysFailure(t *testing.T) {
	repo := NewMemoryRepo()
	l := newTestLogger(t, repo, WithFlushInterval(time.Hour))

	l.SecurityEvent(context.Background(), ActionSecurityUnauthorized, nil, "")
	l.Flush()

	entries := repo.Entries()
	if len(entries) != 1 || entries[0].Success {
		t.Fatalf("expected a single success=false entry, got %+v", entries)
	}
	if entries[0].UserID != "" {
		t.Fatalf("expected anonymous user id, got %q", entries[0].UserID)
	}
}
