package crash

import (
	"context"
	"fmt"

	"github.com/okian/mcreate/internal/domain/vehicle"
	"github.com/okian/mcreate/pkg/logger"
	"github.com/okian/mcreate/pkg/metrics"
	"github.com/okian/mcreate/pkg/settle"
)

// DefaultConcurrency bounds simultaneous crash lookups per request.
const DefaultConcurrency = 10

// Fetcher retrieves the raw crash rating document of one vehicle.
type Fetcher interface {
	CrashRating(ctx context.Context, vehicleID string) ([]byte, error)
}

// Aggregator looks up crash ratings for many vehicles at once.
type Aggregator struct {
	fetcher     Fetcher
	logger      logger.Logger
	concurrency int
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithConcurrency caps in-flight lookups. Zero means unbounded.
func WithConcurrency(n int) Option {
	return func(a *Aggregator) {
		if n >= 0 {
			a.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAggregator creates an Aggregator backed by fetcher.
func NewAggregator(fetcher Fetcher, opts ...Option) *Aggregator {
	a := &Aggregator{
		fetcher:     fetcher,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logger.Named("crash")
	}
	return a
}

// Collect fetches a rating for every id and returns the successes in input
// order. Failed lookups are dropped; the call itself never fails.
func (a *Aggregator) Collect(ctx context.Context, ids []vehicle.ID) List {
	results := settle.All(ctx, ids, a.concurrency, a.lookup)
	records := settle.Values(results)
	dropped := settle.Failed(results)

	for i, r := range results {
		if !r.Ok() {
			a.logger.Debug(ctx, "crash lookup dropped",
				logger.String("vehicleId", ids[i].String()),
				logger.Error(r.Err),
			)
		}
	}
	metrics.RecordCrashFanout(len(ids), dropped)

	return NewList(records)
}

func (a *Aggregator) lookup(ctx context.Context, id vehicle.ID) (Record, error) {
	if !id.Valid() {
		return Record{}, ErrInvalidID
	}
	body, err := a.fetcher.CrashRating(ctx, id.String())
	if err != nil {
		return Record{}, fmt.Errorf("crash rating %s: %w", id.String(), err)
	}
	return ParseRecord(body)
}
