package events

import (
	"context"
	"sync"
	"time"

	"github.com/gonzacha/nordia-pos/internal/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(ctx context.Context, event interface{}) error
	Close() error
}

// Stock adjustment reasons
const (
	ReasonRestock    = "restock"
	ReasonAdjustment = "adjustment"
)

// SaleCompletedEvent is emitted once per committed sale
type SaleCompletedEvent struct {
	SaleID        int64             `json:"sale_id"`
	Total         decimal.Decimal   `json:"total"`
	PaymentMethod string            `json:"payment_method"`
	Items         []domain.SaleItem `json:"items"`
	OccurredAt    time.Time         `json:"occurred_at"`
}

// StockAdjustedEvent is emitted for stock changes made outside a sale
// (restock or manual adjustment). Sale lines travel in SaleCompletedEvent.
type StockAdjustedEvent struct {
	ProductID  int64     `json:"product_id"`
	Delta      int       `json:"delta"`
	NewStock   int       `json:"new_stock"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewSaleCompletedEvent builds the event for a committed sale
func NewSaleCompletedEvent(sale *domain.Sale) SaleCompletedEvent {
	return SaleCompletedEvent{
		SaleID:        sale.ID,
		Total:         sale.Total,
		PaymentMethod: string(sale.PaymentMethod),
		Items:         sale.Items,
		OccurredAt:    sale.CreatedAt,
	}
}

// InMemoryEventPublisher keeps events in process. Used when Kafka is
// disabled or unreachable, and in tests.
type InMemoryEventPublisher struct {
	logger *zap.Logger
	mu     sync.Mutex
	events []interface{}
}

func NewInMemoryEventPublisher(logger *zap.Logger) *InMemoryEventPublisher {
	return &InMemoryEventPublisher{
		logger: logger,
		events: make([]interface{}, 0),
	}
}

func (p *InMemoryEventPublisher) Publish(ctx context.Context, event interface{}) error {
	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()

	p.logger.Debug("Event published (in-memory)", zap.String("event-type", eventType(event)))
	return nil
}

// Events returns a snapshot of everything published so far
func (p *InMemoryEventPublisher) Events() []interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]interface{}, len(p.events))
	copy(out, p.events)
	return out
}

func (p *InMemoryEventPublisher) Close() error { return nil }

// eventType returns the event type as string
func eventType(event interface{}) string {
	switch event.(type) {
	case SaleCompletedEvent:
		return "SaleCompleted"
	case StockAdjustedEvent:
		return "StockAdjusted"
	default:
		return "Unknown"
	}
}
