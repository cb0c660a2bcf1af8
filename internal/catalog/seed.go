package catalog

import (
	"context"
	"fmt"

	"github.com/gonzacha/nordia-pos/internal/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type seedProduct struct {
	name     string
	price    int64
	stock    int
	barcode  string
	category string
}

// Starter catalog for a café
var defaultCatalog = []seedProduct{
	{"Café", 850, 100, "7798123456789", "Bebidas"},
	{"Medialunas", 450, 50, "7798123456790", "Panadería"},
	{"Tostado", 1200, 30, "7798123456791", "Sandwiches"},
	{"Jugo Natural", 600, 45, "7798123456792", "Bebidas"},
	{"Ensalada", 1500, 20, "7798123456793", "Comidas"},
}

// Seed loads the starter catalog when the store holds no products yet.
// It returns the number of products created.
func (s *Service) Seed(ctx context.Context) (int, error) {
	existing, err := s.inventory.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list products: %w", err)
	}
	if len(existing) > 0 {
		s.logger.Debug("Catalog already populated, skipping seed", zap.Int("products", len(existing)))
		return 0, nil
	}

	for _, sp := range defaultCatalog {
		p, err := domain.NewProduct(sp.name, decimal.NewFromInt(sp.price), sp.stock, sp.barcode, sp.category)
		if err != nil {
			return 0, err
		}
		if _, err := s.inventory.Create(ctx, p); err != nil {
			return 0, fmt.Errorf("failed to seed product %s: %w", sp.name, err)
		}
	}
	s.Invalidate(ctx)

	s.logger.Info("Catalog seeded", zap.Int("products", len(defaultCatalog)))
	return len(defaultCatalog), nil
}
