package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gonzacha/nordia-pos/internal/cache"
	"github.com/gonzacha/nordia-pos/internal/domain"
	"github.com/gonzacha/nordia-pos/internal/repository"

	"go.uber.org/zap"
)

const (
	keyAll    = "products:all"
	keyPrefix = "products:*"
)

func productKey(id int64) string {
	return fmt.Sprintf("products:id:%d", id)
}

// Service is the product catalog. Reads go through the cache; every write
// goes to the inventory store and drops the cached entries.
type Service struct {
	inventory repository.InventoryStore
	cache     cache.Cache
	ttl       time.Duration
	logger    *zap.Logger
}

func NewService(inventory repository.InventoryStore, c cache.Cache, ttl time.Duration, logger *zap.Logger) *Service {
	return &Service{
		inventory: inventory,
		cache:     c,
		ttl:       ttl,
		logger:    logger,
	}
}

func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := cache.GetJSON(ctx, s.cache, keyAll, &products); err == nil {
		return products, nil
	}

	products, err := s.inventory.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := cache.SetJSON(ctx, s.cache, keyAll, products, s.ttl); err != nil {
		s.logger.Warn("Failed to cache product list", zap.Error(err))
	}
	return products, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Product, error) {
	var product domain.Product
	if err := cache.GetJSON(ctx, s.cache, productKey(id), &product); err == nil {
		return &product, nil
	}

	p, err := s.inventory.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := cache.SetJSON(ctx, s.cache, productKey(id), p, s.ttl); err != nil {
		s.logger.Warn("Failed to cache product", zap.Int64("product_id", id), zap.Error(err))
	}
	return p, nil
}

func (s *Service) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	created, err := s.inventory.Create(ctx, product)
	if err != nil {
		return nil, err
	}
	s.Invalidate(ctx)
	return created, nil
}

// SetStock replaces the stock level of a product (restock or count
// correction).
func (s *Service) SetStock(ctx context.Context, id int64, stock int) (*domain.Product, error) {
	p, err := s.inventory.SetStock(ctx, id, stock)
	if err != nil {
		return nil, err
	}
	s.Invalidate(ctx)
	return p, nil
}

// AdjustStock applies a relative change, e.g. a delivery (+) or shrinkage (-)
func (s *Service) AdjustStock(ctx context.Context, id int64, delta int) (*domain.Product, error) {
	if delta == 0 {
		return nil, domain.NewInvalidProduct("delta must not be zero")
	}
	p, err := s.inventory.AdjustStock(ctx, id, delta)
	if err != nil {
		return nil, err
	}
	s.Invalidate(ctx)
	return p, nil
}

// Invalidate drops every cached catalog entry. Failures are logged; the
// entries still expire after the TTL.
func (s *Service) Invalidate(ctx context.Context) {
	if err := s.cache.DeleteByPattern(ctx, keyPrefix); err != nil {
		s.logger.Warn("Failed to invalidate product cache", zap.Error(err))
	}
}

// IsNotFound reports whether err means the product does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrProductNotFound)
}
