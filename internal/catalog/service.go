package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/billing-service/internal/billing"
	"github.com/noah-isme/billing-service/internal/cache"
)

// Service serves catalog reads through a Redis JSON cache.
type Service struct {
	store        billing.CatalogStore
	cache        *Cache
	logger       zerolog.Logger
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store        billing.CatalogStore
	Cache        *Cache
	Logger       zerolog.Logger
	DefaultLimit int
	MaxLimit     int
}

// NewService constructs a catalog service.
func NewService(cfg ServiceConfig) *Service {
	svc := &Service{
		store:        cfg.Store,
		cache:        cfg.Cache,
		logger:       cfg.Logger,
		defaultLimit: cfg.DefaultLimit,
		maxLimit:     cfg.MaxLimit,
	}
	if svc.defaultLimit <= 0 {
		svc.defaultLimit = 50
	}
	if svc.maxLimit <= 0 {
		svc.maxLimit = 200
	}
	return svc
}

// List returns every item of kind ordered by name.
func (s *Service) List(ctx context.Context, kind billing.Kind) ([]billing.Item, error) {
	if s == nil || s.store == nil {
		return nil, errors.New("catalog service not configured")
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown item kind %q: %w", kind, billing.ErrValidation)
	}
	return readThrough(ctx, s.cache, s.logger, cache.KeyCatalogList(kind), func(ctx context.Context) ([]billing.Item, error) {
		return s.store.ListByKind(ctx, kind)
	})
}

// Get returns a single item.
func (s *Service) Get(ctx context.Context, id string) (billing.Item, error) {
	if s == nil || s.store == nil {
		return billing.Item{}, errors.New("catalog service not configured")
	}
	if !billing.WellFormedRef(id) {
		return billing.Item{}, fmt.Errorf("item %s: %w", id, billing.ErrNotFound)
	}
	return readThrough(ctx, s.cache, s.logger, cache.KeyItem(id), func(ctx context.Context) (billing.Item, error) {
		return s.store.Resolve(ctx, id)
	})
}

// CreateInput is the payload for adding a catalog item.
type CreateInput struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Create adds an item and invalidates the cached listing of its kind.
func (s *Service) Create(ctx context.Context, kind billing.Kind, in CreateInput) (billing.Item, error) {
	if s == nil || s.store == nil {
		return billing.Item{}, errors.New("catalog service not configured")
	}
	item, err := s.store.Create(ctx, billing.Item{Kind: kind, Name: strings.TrimSpace(in.Name), Price: in.Price})
	if err != nil {
		return billing.Item{}, err
	}
	if err := s.cache.Invalidate(ctx, cache.KeyCatalogList(kind)); err != nil {
		s.logger.Warn().Err(err).Str("kind", string(kind)).Msg("catalog cache invalidate")
	}
	return item, nil
}
