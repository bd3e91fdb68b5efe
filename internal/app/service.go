// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/mcreate/internal/domain/crash"
	"github.com/okian/mcreate/internal/domain/vehicle"
	"github.com/okian/mcreate/pkg/logger"
)

// Upstream is the safety ratings API as seen by the service.
type Upstream interface {
	vehicle.Fetcher
	crash.Fetcher
}

// Service answers vehicle and crash rating queries.
type Service struct {
	mu sync.RWMutex

	// Core components
	upstream   Upstream
	lookup     *vehicle.Lookup
	aggregator *crash.Aggregator

	// Configuration
	crashConcurrency int

	// State
	started   bool
	startedAt time.Time

	// Counters exposed through GetStats
	vehicleLookups  atomic.Int64
	ratingLookups   atomic.Int64
	failedLookups   atomic.Int64
	ratingsReturned atomic.Int64
	ratingsDropped  atomic.Int64

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithCrashConcurrency caps simultaneous crash lookups per request. Zero
// means unbounded.
func WithCrashConcurrency(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.crashConcurrency = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service on top of the given upstream.
func New(upstream Upstream, opts ...Option) *Service {
	s := &Service{
		upstream:         upstream,
		crashConcurrency: crash.DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}

	s.lookup = vehicle.NewLookup(upstream, s.logger.Named("vehicle"))
	s.aggregator = crash.NewAggregator(upstream,
		crash.WithConcurrency(s.crashConcurrency),
		crash.WithLogger(s.logger.Named("crash")),
	)
	return s
}

// Start marks the service ready.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "vehicle service started",
		logger.Int("crashConcurrency", s.crashConcurrency),
	)
	return nil
}

// Stop marks the service stopped. In-flight lookups are bound to their
// request contexts and are not waited for here.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "vehicle service stopped",
		logger.Int("vehicleLookups", int(s.vehicleLookups.Load())),
		logger.Int("ratingLookups", int(s.ratingLookups.Load())),
	)
}

// Vehicles returns the reshaped vehicle list for q.
func (s *Service) Vehicles(ctx context.Context, q vehicle.Query) (vehicle.List, error) {
	s.vehicleLookups.Add(1)
	list, err := s.lookup.Find(ctx, q)
	if err != nil {
		s.failedLookups.Add(1)
		return vehicle.List{}, err
	}
	return list, nil
}

// VehiclesWithRatings looks up the vehicles for q and then the crash
// rating of each. Vehicles whose rating cannot be fetched are left out.
func (s *Service) VehiclesWithRatings(ctx context.Context, q vehicle.Query) (crash.List, error) {
	s.ratingLookups.Add(1)
	list, err := s.lookup.Find(ctx, q)
	if err != nil {
		s.failedLookups.Add(1)
		return crash.List{}, err
	}

	ids := list.IDs()
	ratings := s.aggregator.Collect(ctx, ids)
	s.ratingsReturned.Add(int64(ratings.Count))
	s.ratingsDropped.Add(int64(len(ids) - ratings.Count))
	s.logger.Debug(ctx, "crash ratings collected",
		logger.Int("vehicles", list.Len()),
		logger.Int("ratings", ratings.Count),
	)
	return ratings, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":          s.started,
		"crashConcurrency": s.crashConcurrency,
		"vehicleLookups":   s.vehicleLookups.Load(),
		"ratingLookups":    s.ratingLookups.Load(),
		"failedLookups":    s.failedLookups.Load(),
		"ratingsReturned":  s.ratingsReturned.Load(),
		"ratingsDropped":   s.ratingsDropped.Load(),
	}
	if s.started {
		stats["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())
	}
	return stats
}
