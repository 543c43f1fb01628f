package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Session is the server-side record backing an issued token pair.
// Expiry here is authoritative: a structurally valid token whose session is
// gone or expired does not authenticate.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

var ErrNotFound = errors.New("session: not found")

// Store persists sessions in Redis keyed by session id.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) (*Store, error) {
	if rdb == nil {
		return nil, errors.New("session: redis client is required")
	}
	if ttl <= 0 {
		return nil, errors.New("session: ttl must be positive")
	}
	return &Store{rdb: rdb, ttl: ttl}, nil
}

func key(id string) string { return "session:" + id }

// Put stores the session with the configured TTL. The Redis TTL is a backstop;
// ExpiresAt on the record is what verification compares against.
func (s *Store) Put(ctx context.Context, sess Session) error {
	if sess.ID == "" || sess.UserID == "" {
		return errors.New("session: id and user_id are required")
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	return s.rdb.Set(ctx, key(sess.ID), data, s.ttl).Err()
}

func (s *Store) Get(ctx context.Context, id string) (Session, error) {
	if id == "" {
		return Session{}, ErrNotFound
	}
	data, err := s.rdb.Get(ctx, key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, fmt.Errorf("session: unmarshal: %w", err)
	}
	return sess, nil
}

// Delete is the sign-out side effect. Deleting a missing session is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.rdb.Del(ctx, key(id)).Err()
}
