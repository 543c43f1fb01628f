package audit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"shadi-recommendations/internal/obs"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit entries.
//
// It MUST be append-only: no Update or Delete methods. Retention purging
// lives on concrete implementations, outside this contract.
type Repository interface {
	Insert(ctx context.Context, e Entry) error
	InsertBatch(ctx context.Context, entries []Entry) error
}

const (
	defaultBufferSize    = 10
	defaultFlushInterval = 5 * time.Second
	writeTimeout         = 10 * time.Second
)

// Logger records security-relevant events with tiered urgency.
//
// Critical entries are written to storage immediately; everything else is
// buffered and flushed when the buffer fills or a delayed-flush timer fires.
// Storage failures are swallowed (logged locally): audit is best-effort
// relative to the triggering request and must never abort it.
type Logger struct {
	repo          Repository
	log           *slog.Logger
	clock         func() time.Time
	bufferSize    int
	flushInterval time.Duration

	mu    sync.Mutex
	buf   []Entry
	timer *time.Timer
}

type LoggerOption func(*Logger)

// WithClock overrides the time source. Test use.
func WithClock(clock func() time.Time) LoggerOption {
	return func(l *Logger) { l.clock = clock }
}

// WithBufferSize overrides the size-based flush threshold.
func WithBufferSize(n int) LoggerOption {
	return func(l *Logger) {
		if n > 0 {
			l.bufferSize = n
		}
	}
}

// WithFlushInterval overrides the delayed-flush timer duration.
func WithFlushInterval(d time.Duration) LoggerOption {
	return func(l *Logger) {
		if d > 0 {
			l.flushInterval = d
		}
	}
}

func NewLogger(repo Repository, log *slog.Logger, opts ...LoggerOption) (*Logger, error) {
	if repo == nil {
		return nil, errors.New("audit: repository is required")
	}
	if log == nil {
		log = slog.Default()
	}
	l := &Logger{
		repo:          repo,
		log:           log,
		clock:         time.Now,
		bufferSize:    defaultBufferSize,
		flushInterval: defaultFlushInterval,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// UserAction records a user-initiated event (login, logout, profile changes).
func (l *Logger) UserAction(ctx context.Context, action Action, userID string, metadata map[string]any, success bool, errorMessage string) {
	l.record(ctx, Entry{
		Action:       action,
		UserID:       userID,
		Metadata:     metadata,
		Success:      success,
		ErrorMessage: errorMessage,
	})
}

// DataModification records a create/update/delete against a resource row.
func (l *Logger) DataModification(ctx context.Context, action Action, userID, targetType, targetID string, changes map[string]any, success bool) {
	l.record(ctx, Entry{
		Action:     action,
		UserID:     userID,
		TargetType: targetType,
		TargetID:   targetID,
		Metadata:   changes,
		Success:    success,
	})
}

// AdminAction records a privileged operation against another user.
func (l *Logger) AdminAction(ctx context.Context, action Action, adminUserID, targetUserID string, metadata map[string]any) {
	l.record(ctx, Entry{
		Action:     action,
		UserID:     adminUserID,
		TargetType: "user",
		TargetID:   targetUserID,
		Metadata:   metadata,
		Success:    true,
	})
}

// SecurityEvent records a denied or flagged condition. Always success=false.
// userID may be empty for anonymous events.
func (l *Logger) SecurityEvent(ctx context.Context, action Action, metadata map[string]any, userID string) {
	l.record(ctx, Entry{
		Action:   action,
		UserID:   userID,
		Metadata: metadata,
		Success:  false,
	})
}

func (l *Logger) record(ctx context.Context, e Entry) {
	meta := requestMetaFromContext(ctx)
	e.ID = uuid.NewString()
	e.Timestamp = l.clock().UTC()
	e.Severity = SeverityFor(e.Action)
	e.IPAddress = meta.IPAddress
	e.UserAgent = meta.UserAgent

	if e.Severity == SeverityCritical {
		// Critical entries must never be lost to a crash between buffering
		// and flush: write through immediately.
		l.write(e)
		return
	}

	l.mu.Lock()
	l.buf = append(l.buf, e)
	if len(l.buf) >= l.bufferSize {
		batch := l.takeBufferLocked()
		l.mu.Unlock()
		l.writeBatch(batch)
		return
	}
	if l.timer == nil {
		l.timer = time.AfterFunc(l.flushInterval, l.Flush)
	}
	l.mu.Unlock()
}

// Flush writes out everything currently buffered. Safe to call at any time.
func (l *Logger) Flush() {
	l.mu.Lock()
	batch := l.takeBufferLocked()
	l.mu.Unlock()
	l.writeBatch(batch)
}

// Close drains the buffer. Call on shutdown.
func (l *Logger) Close() {
	l.Flush()
}

// takeBufferLocked swaps out the buffer and clears any armed timer.
// Caller must hold l.mu.
func (l *Logger) takeBufferLocked() []Entry {
	batch := l.buf
	l.buf = nil
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	return batch
}

func (l *Logger) write(e Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := l.repo.Insert(ctx, e); err != nil {
		obs.AuditWrite("error")
		l.log.Error("audit write failed", "action", e.Action, "err", err)
		return
	}
	obs.AuditWrite("ok")
}

func (l *Logger) writeBatch(batch []Entry) {
	if len(batch) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := l.repo.InsertBatch(ctx, batch); err != nil {
		obs.AuditWrite("error")
		l.log.Error("audit batch write failed", "count", len(batch), "err", err)
		return
	}
	obs.AuditWrite("ok")
}
