package shared

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionStore(client, time.Hour), mr
}

func TestSessionRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	sess, err := store.Create(ctx, 42, "Ravi Kumar")
	require.NoError(t, err)
	require.NotEmpty(t, sess.Token)

	loaded, err := store.Load(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), loaded.UserID)
	assert.Equal(t, "Ravi Kumar", loaded.FullName)
	assert.Equal(t, sess.Token, loaded.Token)
}

func TestLoadUnknownToken(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.Load(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = store.Load(context.Background(), "")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDestroyEndsSession(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	sess, err := store.Create(ctx, 7, "Ops Desk")
	require.NoError(t, err)
	require.NoError(t, store.Destroy(ctx, sess.Token))

	_, err = store.Load(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestLoadRefreshesTTL(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	sess, err := store.Create(ctx, 7, "Ops Desk")
	require.NoError(t, err)

	mr.FastForward(45 * time.Minute)
	_, err = store.Load(ctx, sess.Token)
	require.NoError(t, err)

	// The earlier load pushed expiry back out to a full hour.
	mr.FastForward(45 * time.Minute)
	_, err = store.Load(ctx, sess.Token)
	require.NoError(t, err)
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest("GET", "/orders", nil)
	assert.Equal(t, "", BearerToken(r))

	r.Header.Set("Authorization", "Basic abc")
	assert.Equal(t, "", BearerToken(r))

	r.Header.Set("Authorization", "Bearer tok-123")
	assert.Equal(t, "tok-123", BearerToken(r))
}
