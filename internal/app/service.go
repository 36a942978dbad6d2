// Package service provides the comparison dispatcher and the catalog reads
// that back the HTTP API.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robostorm/robostorm/internal/adapters/repository"
	"github.com/robostorm/robostorm/internal/domain/dedupe"
	"github.com/robostorm/robostorm/pkg/errs"
	"github.com/robostorm/robostorm/pkg/logger"
	"github.com/robostorm/robostorm/pkg/metrics"
)

// Service implements the comparison dispatcher over a robot store, an
// interaction recorder and a news store.
type Service struct {
	mu sync.RWMutex

	robots   repository.RobotStore
	recorder repository.InteractionRecorder
	news     repository.NewsStore
	deduper  dedupe.Deduper

	// Configuration
	storeTimeout    time.Duration
	maxRandomCount  int
	maxPopularLimit int
	idempotencySize int

	now func() time.Time

	// State
	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRobotStore sets the robot store.
func WithRobotStore(store repository.RobotStore) Option {
	return func(s *Service) {
		s.robots = store
	}
}

// WithRecorder sets the interaction recorder.
func WithRecorder(rec repository.InteractionRecorder) Option {
	return func(s *Service) {
		s.recorder = rec
	}
}

// WithNewsStore sets the news store.
func WithNewsStore(store repository.NewsStore) Option {
	return func(s *Service) {
		s.news = store
	}
}

// WithStoreTimeout bounds every store call.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.storeTimeout = d
		}
	}
}

// WithMaxRandomCount caps the count accepted by getRandomRobots.
func WithMaxRandomCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxRandomCount = n
		}
	}
}

// WithMaxPopularLimit caps the limit accepted by getPopularComparisons.
func WithMaxPopularLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxPopularLimit = n
		}
	}
}

// WithIdempotencySize sets how many idempotency keys are remembered.
func WithIdempotencySize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.idempotencySize = n
		}
	}
}

// WithClock overrides the time source used for time ranges.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMemoryStore uses one in-memory store for robots, interactions and news.
func WithMemoryStore(store *repository.MemoryStore) Option {
	return func(s *Service) {
		s.robots = store
		s.recorder = store
		s.news = store
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		storeTimeout:    3 * time.Second,
		maxRandomCount:  50,
		maxPopularLimit: 100,
		idempotencySize: 100_000,
		now:             time.Now,
		logger:          logger.Nop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.idempotencySize))
	return s
}

// Start verifies the stores are wired and reachable.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.robots == nil || s.recorder == nil || s.news == nil {
		return errs.WrapKind("service.Start", ErrNotStarted, errors.New("robot store, recorder and news store are required"))
	}

	s.logger.Info(ctx, "starting comparison service...")

	if err := s.ping(ctx); err != nil {
		return errs.Wrap("service.Start", err)
	}
	if n, err := call(ctx, s, "CountRobots", s.robots.CountRobots); err == nil {
		metrics.UpdateRobotsTotal(n)
	}

	s.started = true
	s.logger.Info(ctx, "comparison service started",
		logger.Duration("store_timeout", s.storeTimeout),
		logger.Int("max_random_count", s.maxRandomCount),
		logger.Int("max_popular_limit", s.maxPopularLimit),
		logger.Int("idempotency_size", s.idempotencySize),
	)
	return nil
}

// Stop closes the stores that support it. Each distinct store is closed once.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping comparison service...")

	var closed []any
	for _, store := range []any{s.robots, s.recorder, s.news} {
		closer, ok := store.(interface{ Close() error })
		if !ok || contains(closed, store) {
			continue
		}
		closed = append(closed, store)
		if err := closer.Close(); err != nil {
			s.logger.Warn(context.Background(), "failed to close store", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(context.Background(), "comparison service stopped")
}

func contains(list []any, v any) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// Ping checks the robot store under the store timeout.
func (s *Service) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

func (s *Service) ping(ctx context.Context) error {
	_, err := call(ctx, s, "Ping", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.robots.Ping(ctx)
	})
	return err
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":         s.started,
		"storeTimeoutMs":  s.storeTimeout.Milliseconds(),
		"maxRandomCount":  s.maxRandomCount,
		"maxPopularLimit": s.maxPopularLimit,
		"idempotencySize": s.idempotencySize,
		"idempotencyKeys": s.deduper.Size(),
	}

	if s.started {
		n, err := call(context.Background(), s, "CountRobots", s.robots.CountRobots)
		if err == nil {
			stats["totalRobots"] = n
			metrics.UpdateRobotsTotal(n)
		}
	}
	return stats
}

// call runs fn under the store timeout, records its latency and maps store
// errors onto dispatcher kinds.
func call[T any](ctx context.Context, s *Service, op string, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	start := time.Now()
	v, err := fn(ctx)
	metrics.RecordStoreCall(op, float64(time.Since(start).Microseconds())/1000)
	if err == nil {
		return v, nil
	}

	var zero T
	storeOp := "store." + op
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrInvalidReference):
		return zero, errs.WrapKind(storeOp, ErrEntityNotFound, err)
	case errors.Is(err, context.DeadlineExceeded):
		metrics.RecordStoreError(op, "timeout")
		return zero, errs.WrapKind(storeOp, ErrDependencyTimeout, err)
	default:
		metrics.RecordStoreError(op, "error")
		return zero, errs.WrapKind(storeOp, ErrDependencyFailure, err)
	}
}
