package security

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"shadi-recommendations/internal/audit"
	"shadi-recommendations/internal/obs"
)

// ActivityContext is an ephemeral record of one attempted action, held only
// in the in-memory window and never persisted.
type ActivityContext struct {
	UserID    string
	Action    string
	IPAddress string
	Timestamp time.Time
}

// SecuritySink receives security_suspicious events. *audit.Logger satisfies it.
type SecuritySink interface {
	SecurityEvent(ctx context.Context, action audit.Action, metadata map[string]any, userID string)
}

const (
	defaultActivityCap      = 100
	defaultRateThreshold    = 50
	defaultFailureThreshold = 5
	defaultWindow           = 5 * time.Minute
)

// Tracker keeps a bounded per-user window of recent activity and flags
// rate- and failure-based anomalies.
//
// Process-wide mutable state: the map is shared across all requests and
// serialized by a mutex so interleaved appends cannot corrupt the FIFO
// invariant. In a multi-instance deployment each process sees only its own
// traffic; accurate global detection needs a shared store.
type Tracker struct {
	sink             SecuritySink
	clock            func() time.Time
	capacity         int
	rateThreshold    int
	failureThreshold int
	window           time.Duration

	mu     sync.Mutex
	byUser map[string][]ActivityContext
}

type TrackerOption func(*Tracker)

func TrackerWithClock(clock func() time.Time) TrackerOption {
	return func(t *Tracker) { t.clock = clock }
}

func TrackerWithLimits(capacity, rateThreshold, failureThreshold int, window time.Duration) TrackerOption {
	return func(t *Tracker) {
		if capacity > 0 {
			t.capacity = capacity
		}
		if rateThreshold > 0 {
			t.rateThreshold = rateThreshold
		}
		if failureThreshold > 0 {
			t.failureThreshold = failureThreshold
		}
		if window > 0 {
			t.window = window
		}
	}
}

func NewTracker(sink SecuritySink, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		sink:             sink,
		clock:            time.Now,
		capacity:         defaultActivityCap,
		rateThreshold:    defaultRateThreshold,
		failureThreshold: defaultFailureThreshold,
		window:           defaultWindow,
		byUser:           make(map[string][]ActivityContext),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Track appends the activity and evaluates the anomaly rules over the
// trailing window. Fire-and-forget for callers; internally synchronous.
func (t *Tracker) Track(ctx context.Context, ac ActivityContext) {
	if ac.UserID == "" {
		return
	}
	if ac.Timestamp.IsZero() {
		ac.Timestamp = t.clock().UTC()
	}

	t.mu.Lock()
	entries := t.byUser[ac.UserID]
	// FIFO eviction before append: oldest dropped first at capacity.
	if len(entries) >= t.capacity {
		entries = entries[len(entries)-t.capacity+1:]
	}
	entries = append(entries, ac)
	t.byUser[ac.UserID] = entries

	now := t.clock().UTC()
	cutoff := now.Add(-t.window)
	var recent, failed int
	for _, e := range entries {
		if e.Timestamp.Before(cutoff) {
			continue
		}
		recent++
		if strings.Contains(e.Action, "failed") {
			failed++
		}
	}
	t.mu.Unlock()

	if t.sink == nil {
		return
	}
	if recent > t.rateThreshold {
		obs.AnomalyEvent("rate")
		t.sink.SecurityEvent(ctx, audit.ActionSecuritySuspicious, map[string]any{
			"reason":       "Rapid request rate",
			"requestCount": recent,
			"timeWindow":   t.windowLabel(),
		}, ac.UserID)
	}
	if failed > t.failureThreshold {
		obs.AnomalyEvent("failures")
		t.sink.SecurityEvent(ctx, audit.ActionSecuritySuspicious, map[string]any{
			"reason":      "Multiple failed attempts",
			"failedCount": failed,
			"timeWindow":  t.windowLabel(),
		}, ac.UserID)
	}
}

func (t *Tracker) windowLabel() string {
	return fmt.Sprintf("%d minutes", int(t.window.Minutes()))
}

// WindowSize reports the current number of retained entries for a user.
func (t *Tracker) WindowSize(userID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byUser[userID])
}

// Oldest returns the oldest retained entry for a user, if any.
func (t *Tracker) Oldest(userID string) (ActivityContext, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entries := t.byUser[userID]
	if len(entries) == 0 {
		return ActivityContext{}, false
	}
	return entries[0], true
}
