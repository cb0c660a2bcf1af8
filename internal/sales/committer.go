package sales

import (
	"context"
	"fmt"

	"github.com/gonzacha/nordia-pos/internal/domain"
	"github.com/gonzacha/nordia-pos/internal/repository"

	"go.uber.org/zap"
)

// committer applies a validated sale. It is only driven by the Engine, which
// holds the product locks for the whole call.
type committer struct {
	inventory repository.InventoryStore
	ledger    repository.SalesLedger
	logger    *zap.Logger
}

type appliedAdjustment struct {
	productID int64
	quantity  int
}

// commit deducts stock line by line and appends the sale. Any failure undoes
// the deductions already applied, in reverse order.
func (c *committer) commit(ctx context.Context, sale *domain.Sale) (*domain.Sale, error) {
	applied := make([]appliedAdjustment, 0, len(sale.Items))

	for _, item := range sale.Items {
		if _, err := c.inventory.AdjustStock(ctx, item.ProductID, -item.Quantity); err != nil {
			c.compensate(ctx, applied)
			return nil, &domain.ConflictError{ProductID: item.ProductID, Cause: err}
		}
		applied = append(applied, appliedAdjustment{productID: item.ProductID, quantity: item.Quantity})
	}

	completed := sale.Clone()
	completed.Status = domain.SaleStatusCompleted

	stored, err := c.ledger.Append(ctx, completed)
	if err != nil {
		c.compensate(ctx, applied)
		return nil, fmt.Errorf("failed to record sale: %w", err)
	}
	return stored, nil
}

func (c *committer) compensate(ctx context.Context, applied []appliedAdjustment) {
	for i := len(applied) - 1; i >= 0; i-- {
		a := applied[i]
		if _, err := c.inventory.AdjustStock(ctx, a.productID, a.quantity); err != nil {
			// Stock is now lower than it should be; needs a manual restock
			c.logger.Error("Failed to restore stock during rollback",
				zap.Int64("product_id", a.productID),
				zap.Int("quantity", a.quantity),
				zap.Error(err))
		}
	}
}
