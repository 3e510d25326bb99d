package orders

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	stored map[string]*Order
	locked bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{stored: map[string]*Order{}}
}

func (r *fakeRepo) Get(_ context.Context, name string) (*Order, error) {
	o, ok := r.stored[name]
	if !ok {
		return nil, ErrNotFound
	}
	return o, nil
}

func (r *fakeRepo) List(_ context.Context, _ ListOrdersRequest) ([]Order, int, error) {
	var out []Order
	for _, o := range r.stored {
		out = append(out, *o)
	}
	return out, len(out), nil
}

func (r *fakeRepo) Upsert(_ context.Context, o *Order) error {
	if r.locked {
		return ErrLocked
	}
	r.stored[o.Name] = o
	return nil
}

type fakeSource struct {
	order *Order
	err   error
	calls int
}

func (s *fakeSource) FetchOrder(_ context.Context, _ string) (*Order, error) {
	s.calls++
	return s.order, s.err
}

func TestGetPrefersMirror(t *testing.T) {
	repo := newFakeRepo()
	repo.stored["SO-1"] = &Order{Name: "SO-1", Status: StatusPending}
	source := &fakeSource{}
	svc := NewService(repo, source, slog.New(slog.DiscardHandler))

	o, err := svc.Get(context.Background(), "SO-1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, o.Status)
	assert.Zero(t, source.calls)
}

func TestGetSeedsMirrorOnMiss(t *testing.T) {
	repo := newFakeRepo()
	source := &fakeSource{order: &Order{Name: "SO-2", Status: StatusApproved}}
	svc := NewService(repo, source, slog.New(slog.DiscardHandler))

	o, err := svc.Get(context.Background(), "SO-2")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, o.Status)
	assert.Equal(t, 1, source.calls)
	assert.Contains(t, repo.stored, "SO-2")
}

func TestReloadReplacesMirror(t *testing.T) {
	repo := newFakeRepo()
	repo.stored["SO-3"] = &Order{Name: "SO-3", Status: StatusPending}
	source := &fakeSource{order: &Order{Name: "SO-3", Status: StatusApproved}}
	svc := NewService(repo, source, slog.New(slog.DiscardHandler))

	o, err := svc.Reload(context.Background(), "SO-3")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, o.Status)
	assert.Equal(t, StatusApproved, repo.stored["SO-3"].Status)
}

func TestReloadServesFetchedWhenMirrorLocked(t *testing.T) {
	repo := newFakeRepo()
	repo.locked = true
	source := &fakeSource{order: &Order{Name: "SO-4", Status: StatusActive}}
	svc := NewService(repo, source, slog.New(slog.DiscardHandler))

	o, err := svc.Reload(context.Background(), "SO-4")
	require.NoError(t, err)
	assert.Equal(t, StatusActive, o.Status)
}

func TestReloadPropagatesSourceFailure(t *testing.T) {
	repo := newFakeRepo()
	source := &fakeSource{err: errors.New("gateway down")}
	svc := NewService(repo, source, slog.New(slog.DiscardHandler))

	_, err := svc.Reload(context.Background(), "SO-5")
	require.Error(t, err)
}

func TestListRejectsOversizedPage(t *testing.T) {
	svc := NewService(newFakeRepo(), &fakeSource{}, slog.New(slog.DiscardHandler))
	_, _, err := svc.List(context.Background(), ListOrdersRequest{Limit: 5000})
	assert.Error(t, err)
}
