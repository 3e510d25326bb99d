package shared

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound indicates the bearer token has no backing session.
var ErrSessionNotFound = errors.New("session not found")

// Session holds the authenticated actor for a request.
type Session struct {
	Token    string `json:"-"`
	UserID   int64  `json:"user_id"`
	FullName string `json:"full_name"`
}

// SessionStore keeps bearer-token sessions in Redis.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore constructs a SessionStore.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

// Create issues a new session token for the user.
func (s *SessionStore) Create(ctx context.Context, userID int64, fullName string) (*Session, error) {
	sess := &Session{
		Token:    uuid.NewString(),
		UserID:   userID,
		FullName: fullName,
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	if err := s.client.Set(ctx, s.key(sess.Token), payload, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("shared/session: store: %w", err)
	}
	return sess, nil
}

// Load resolves a bearer token into a session, refreshing its TTL.
func (s *SessionStore) Load(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}
	payload, err := s.client.Get(ctx, s.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("shared/session: load: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, err
	}
	sess.Token = token
	_ = s.client.Expire(ctx, s.key(token), s.ttl).Err()
	return &sess, nil
}

// Destroy removes the session, logging the user out.
func (s *SessionStore) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.client.Del(ctx, s.key(token)).Err()
}

func (s *SessionStore) key(token string) string {
	return "medrent:session:" + token
}

// BearerToken extracts the bearer token from the Authorization header.
func BearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}
