package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/gonzacha/nordia-pos/internal/repository"

	"github.com/shopspring/decimal"
)

// Summary aggregates committed sales over a period
type Summary struct {
	Date          string          `json:"date"`
	TotalSales    int             `json:"total_sales"`
	TotalRevenue  decimal.Decimal `json:"total_revenue" swaggertype:"number"`
	AverageTicket decimal.Decimal `json:"average_ticket" swaggertype:"number"`
}

// Service computes sales statistics from the ledger. It only reads.
type Service struct {
	ledger   repository.SalesLedger
	location *time.Location
	now      func() time.Time
}

// NewService reports "today" in loc, the store's local time zone
func NewService(ledger repository.SalesLedger, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{ledger: ledger, location: loc, now: time.Now}
}

// Today summarizes the sales made since local midnight
func (s *Service) Today(ctx context.Context) (*Summary, error) {
	now := s.now().In(s.location)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)
	return s.Range(ctx, start, start.AddDate(0, 0, 1))
}

// Range summarizes sales with start <= created_at < end. Date is the
// start day.
func (s *Service) Range(ctx context.Context, start, end time.Time) (*Summary, error) {
	sales, err := s.ledger.ListInRange(ctx, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to load sales: %w", err)
	}

	revenue := decimal.Zero
	for _, sale := range sales {
		revenue = revenue.Add(sale.Total)
	}

	average := decimal.Zero
	if len(sales) > 0 {
		average = revenue.Div(decimal.NewFromInt(int64(len(sales)))).Round(2)
	}

	return &Summary{
		Date:          start.In(s.location).Format("2006-01-02"),
		TotalSales:    len(sales),
		TotalRevenue:  revenue,
		AverageTicket: average,
	}, nil
}
