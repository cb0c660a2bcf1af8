package sales

import (
	"context"
	"errors"

	"github.com/gonzacha/nordia-pos/internal/domain"
	"github.com/gonzacha/nordia-pos/internal/repository"
)

// Validator checks a candidate sale against the current inventory. It never
// mutates anything.
type Validator struct {
	inventory    repository.InventoryStore
	strictTotals bool
}

// NewValidator creates a validator. With strictTotals the caller supplied
// subtotals and total must match quantity x unit price.
func NewValidator(inventory repository.InventoryStore, strictTotals bool) *Validator {
	return &Validator{inventory: inventory, strictTotals: strictTotals}
}

// Validate checks the sale-level fields, then walks the items left to right
// and returns the first failing line. A product appearing on several lines is
// checked against the running sum of its quantities.
func (v *Validator) Validate(ctx context.Context, sale *domain.Sale) error {
	if sale == nil {
		return domain.NewInvalidSale("missing sale")
	}
	if err := sale.CheckStructure(); err != nil {
		return err
	}
	if v.strictTotals {
		if err := sale.CheckTotal(); err != nil {
			return err
		}
	}

	requested := make(map[int64]int, len(sale.Items))
	products := make(map[int64]*domain.Product, len(sale.Items))
	for i, item := range sale.Items {
		if err := sale.CheckLine(i, v.strictTotals); err != nil {
			return err
		}

		product, ok := products[item.ProductID]
		if !ok {
			p, err := v.inventory.FindByID(ctx, item.ProductID)
			if err != nil {
				if errors.Is(err, domain.ErrProductNotFound) {
					return domain.NewProductNotFound(item.ProductID)
				}
				return err
			}
			product = p
			products[item.ProductID] = p
		}

		requested[item.ProductID] += item.Quantity
		if requested[item.ProductID] > product.Stock {
			return domain.NewInsufficientStock(product.ID, product.Name, requested[item.ProductID], product.Stock)
		}
	}
	return nil
}
