package sales

import (
	"context"

	"github.com/gonzacha/nordia-pos/internal/domain"
	"github.com/gonzacha/nordia-pos/internal/repository"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/gonzacha/nordia-pos/internal/sales"

// State is the lifecycle position of one Process call
type State int

const (
	StateReceived State = iota
	StateValidating
	StateRejected
	StateCommitting
	StateCommitted
	StateRolledBack
)

func (s State) String() string {
	switch s {
	case StateReceived:
		return "received"
	case StateValidating:
		return "validating"
	case StateRejected:
		return "rejected"
	case StateCommitting:
		return "committing"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled_back"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can happen
func (s State) Terminal() bool {
	return s == StateRejected || s == StateCommitted || s == StateRolledBack
}

// Outcome is the result of a Process call. Sale is set only when State is
// StateCommitted.
type Outcome struct {
	State State
	Sale  *domain.Sale
}

// Engine runs a candidate sale through validation and commit as one unit.
// Concurrent calls touching the same product are serialized; calls on
// disjoint products run in parallel.
type Engine struct {
	validator *Validator
	committer *committer
	locks     *lockSet
	logger    *zap.Logger

	tracer     trace.Tracer
	committed  metric.Int64Counter
	rejected   metric.Int64Counter
	rolledBack metric.Int64Counter
}

// NewEngine wires the engine over the given store
func NewEngine(store repository.Store, strictTotals bool, logger *zap.Logger) *Engine {
	meter := otel.Meter(instrumentationName)
	e := &Engine{
		validator: NewValidator(store.Inventory(), strictTotals),
		committer: &committer{
			inventory: store.Inventory(),
			ledger:    store.Ledger(),
			logger:    logger,
		},
		locks:  newLockSet(),
		logger: logger,
		tracer: otel.Tracer(instrumentationName),
	}

	var err error
	if e.committed, err = meter.Int64Counter("pos.sales.committed",
		metric.WithDescription("Sales committed to the ledger")); err != nil {
		logger.Warn("Failed to create counter", zap.String("name", "pos.sales.committed"), zap.Error(err))
	}
	if e.rejected, err = meter.Int64Counter("pos.sales.rejected",
		metric.WithDescription("Sales rejected during validation")); err != nil {
		logger.Warn("Failed to create counter", zap.String("name", "pos.sales.rejected"), zap.Error(err))
	}
	if e.rolledBack, err = meter.Int64Counter("pos.sales.rolled_back",
		metric.WithDescription("Sales rolled back during commit")); err != nil {
		logger.Warn("Failed to create counter", zap.String("name", "pos.sales.rolled_back"), zap.Error(err))
	}

	return e
}

// Process validates and commits candidate. It always ends in exactly one of
// StateRejected, StateCommitted or StateRolledBack; the error is nil only
// for StateCommitted. Once the product locks are held the call no longer
// observes ctx cancellation, so a caller timeout cannot leave a half-applied
// sale.
func (e *Engine) Process(ctx context.Context, candidate *domain.Sale) (Outcome, error) {
	ctx, span := e.tracer.Start(ctx, "sales.process")
	defer span.End()

	outcome := Outcome{State: StateReceived}
	if candidate == nil {
		return e.reject(ctx, span, outcome, domain.NewInvalidSale("missing sale"))
	}
	span.SetAttributes(
		attribute.Int("sale.items", len(candidate.Items)),
		attribute.String("sale.payment_method", string(candidate.PaymentMethod)),
	)

	ids := make([]int64, 0, len(candidate.Items))
	for _, item := range candidate.Items {
		ids = append(ids, item.ProductID)
	}
	release := e.locks.acquire(ids)
	defer release()

	ctx = context.WithoutCancel(ctx)

	outcome.State = StateValidating
	if err := e.validator.Validate(ctx, candidate); err != nil {
		return e.reject(ctx, span, outcome, err)
	}

	outcome.State = StateCommitting
	sale, err := e.committer.commit(ctx, candidate)
	if err != nil {
		outcome.State = StateRolledBack
		e.add(ctx, e.rolledBack)
		span.RecordError(err)
		span.SetStatus(codes.Error, "sale rolled back")
		e.logger.Warn("Sale rolled back",
			zap.Bool("retryable", domain.IsRetryable(err)),
			zap.Error(err))
		return outcome, err
	}

	outcome.State = StateCommitted
	outcome.Sale = sale
	e.add(ctx, e.committed)
	span.SetAttributes(attribute.Int64("sale.id", sale.ID))
	span.SetStatus(codes.Ok, "sale committed")
	e.logger.Info("Sale committed",
		zap.Int64("sale_id", sale.ID),
		zap.String("total", sale.Total.String()),
		zap.Int("items", len(sale.Items)))
	return outcome, nil
}

func (e *Engine) reject(ctx context.Context, span trace.Span, outcome Outcome, err error) (Outcome, error) {
	outcome.State = StateRejected
	e.add(ctx, e.rejected)
	span.RecordError(err)
	span.SetStatus(codes.Error, "sale rejected")
	e.logger.Info("Sale rejected", zap.Error(err))
	return outcome, err
}

func (e *Engine) add(ctx context.Context, counter metric.Int64Counter) {
	if counter != nil {
		counter.Add(ctx, 1)
	}
}
