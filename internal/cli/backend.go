package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/robostorm/robostorm/internal/adapters/fixtures"
	"github.com/robostorm/robostorm/internal/adapters/postgres"
	"github.com/robostorm/robostorm/internal/adapters/repository"
	service "github.com/robostorm/robostorm/internal/app"
	"github.com/robostorm/robostorm/internal/config"
	"github.com/robostorm/robostorm/pkg/logger"
)

// ErrPostgresRequired is returned by commands that only make sense against
// the PostgreSQL store.
var ErrPostgresRequired = errors.New("command requires store: postgres")

// backend bundles the store selected by configuration.
type backend struct {
	robots   repository.RobotStore
	recorder repository.InteractionRecorder
	news     repository.NewsStore

	pg     *postgres.Store
	memory *repository.MemoryStore
}

// openBackend opens the configured store. PostgreSQL migrations are applied
// first when migrate_on_start is set.
func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.Store {
	case config.StorePostgres:
		pg, err := postgres.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		if cfg.MigrateOnStart {
			applied, err := pg.MigrateUp()
			if err != nil {
				_ = pg.Close()
				return nil, err
			}
			logger.Get().Info(ctx, "migrations checked", logger.Bool("applied", applied))
		}
		return &backend{robots: pg, recorder: pg, news: pg, pg: pg}, nil
	case config.StoreMemory:
		mem := repository.NewMemoryStore(ctx)
		return &backend{robots: mem, recorder: mem, news: mem, memory: mem}, nil
	default:
		return nil, fmt.Errorf("%w: unknown store %q", config.ErrInvalidConfig, cfg.Store)
	}
}

// newService builds a Service over the backend with the configured limits.
func (b *backend) newService(cfg *config.Config) *service.Service {
	return service.New(
		service.WithLogger(logger.Named("service")),
		service.WithRobotStore(b.robots),
		service.WithRecorder(b.recorder),
		service.WithNewsStore(b.news),
		service.WithStoreTimeout(cfg.StoreTimeout()),
		service.WithMaxRandomCount(cfg.MaxRandomCount),
		service.WithMaxPopularLimit(cfg.MaxPopularLimit),
		service.WithIdempotencySize(cfg.IdempotencySize),
	)
}

func (b *backend) Close() error {
	if b.pg != nil {
		return b.pg.Close()
	}
	if b.memory != nil {
		return b.memory.Close()
	}
	return nil
}

// seedResult reports what a fixture file wrote.
type seedResult struct {
	fixtures.Summary
	News service.ImportSummary
}

// seed applies a fixture file: manufacturers and robots through the robot
// store, news through the service import.
func seed(ctx context.Context, b *backend, svc *service.Service, path string) (seedResult, error) {
	set, err := fixtures.LoadFile(path)
	if err != nil {
		return seedResult{}, err
	}
	sum, err := fixtures.Apply(ctx, b.robots, set)
	if err != nil {
		return seedResult{Summary: sum}, err
	}
	news, err := svc.ImportNews(ctx, set.News, "")
	if err != nil {
		return seedResult{Summary: sum}, err
	}
	return seedResult{Summary: sum, News: news}, nil
}
