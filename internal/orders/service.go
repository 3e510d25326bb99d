package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
)

// DocumentSource fetches the canonical order record from the document server.
type DocumentSource interface {
	FetchOrder(ctx context.Context, name string) (*Order, error)
}

// Service reads orders from the local mirror and keeps it in sync with the
// document server.
type Service struct {
	repo     Repository
	source   DocumentSource
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService constructs the order service.
func NewService(repo Repository, source DocumentSource, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		source:   source,
		validate: validator.New(),
		logger:   logger,
	}
}

// Get returns the mirrored order. On a mirror miss it falls through to the
// document server and seeds the mirror.
func (s *Service) Get(ctx context.Context, name string) (*Order, error) {
	o, err := s.repo.Get(ctx, name)
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return s.Reload(ctx, name)
}

// List returns mirrored orders matching the filter.
func (s *Service) List(ctx context.Context, req ListOrdersRequest) ([]Order, int, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return s.repo.List(ctx, req)
}

// Reload fetches the canonical record and replaces the mirror copy. It is
// called after every workflow transition so the local state is always the
// server's, never a locally computed guess.
func (s *Service) Reload(ctx context.Context, name string) (*Order, error) {
	o, err := s.source.FetchOrder(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Upsert(ctx, o); err != nil {
		if errors.Is(err, ErrLocked) {
			// The mirror refuses to move a completed order backwards.
			// Serve the fetched record without persisting it.
			s.logger.Warn("mirror refused upsert for locked order", slog.String("order", name))
			return o, nil
		}
		return nil, err
	}
	return o, nil
}
