// Package repository defines the entity store, interaction recorder and news
// store contracts, plus an in-memory implementation of all three.
package repository

import (
	"context"
	"time"

	"github.com/robostorm/robostorm/internal/domain/model"
)

// RobotFilter narrows robot queries. Empty fields do not filter.
type RobotFilter struct {
	Status         string
	Category       string
	ManufacturerID string
	ExcludeIDs     []string
}

// RobotStore provides read/write access to robots and manufacturers.
type RobotStore interface {
	// FindByID returns ErrNotFound if the robot is unknown.
	FindByID(ctx context.Context, id string, opts model.FetchOptions) (model.Robot, error)
	// FindBySlug returns ErrNotFound if the robot is unknown.
	FindBySlug(ctx context.Context, slug string, opts model.FetchOptions) (model.Robot, error)
	// FindMany returns up to limit robots matching f. When random is true
	// the result is a uniform random sample, otherwise it is ordered by name.
	FindMany(ctx context.Context, f RobotFilter, limit int, random bool) ([]model.Robot, error)

	UpsertManufacturer(ctx context.Context, m model.Manufacturer) (model.Manufacturer, error)
	// UpsertRobot inserts or replaces a robot keyed by slug. Returns
	// ErrInvalidReference when its manufacturer does not exist.
	UpsertRobot(ctx context.Context, r model.Robot) (model.Robot, error)

	CountRobots(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}

// InteractionRecorder is the append-only log of comparison interactions.
type InteractionRecorder interface {
	// Record appends ev and returns it with its assigned ID and timestamp.
	// Returns ErrInvalidReference when either robot does not exist.
	Record(ctx context.Context, ev model.InteractionEvent) (model.InteractionEvent, error)
	// AggregatePopular groups events into unordered pairs, optionally only
	// those at or after since, ranked with model.RankPairs.
	AggregatePopular(ctx context.Context, limit int, since *time.Time) ([]model.PairCount, error)
	// AggregateForEntity returns the grouped tallies for one robot.
	AggregateForEntity(ctx context.Context, robotID string) ([]model.InteractionTally, error)
}

// NewsFilter narrows news queries. Empty fields do not filter.
type NewsFilter struct {
	Category string
	Tag      string
}

// NewsStore holds curated industry news.
type NewsStore interface {
	// ListNews returns articles newest first.
	ListNews(ctx context.Context, f NewsFilter, limit int) ([]model.NewsArticle, error)
	NewsExists(ctx context.Context, title, sourceName string) (bool, error)
	InsertNews(ctx context.Context, a model.NewsArticle) (model.NewsArticle, error)
}
