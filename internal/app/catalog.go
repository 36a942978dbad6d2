package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/robostorm/robostorm/internal/adapters/repository"
	"github.com/robostorm/robostorm/internal/domain/model"
	"github.com/robostorm/robostorm/pkg/errs"
	"github.com/robostorm/robostorm/pkg/logger"
	"github.com/robostorm/robostorm/pkg/metrics"
)

// ListRobots browses the catalog ordered by name.
func (s *Service) ListRobots(ctx context.Context, f repository.RobotFilter, limit int) ([]model.Robot, error) {
	robots, err := call(ctx, s, "FindMany", func(ctx context.Context) ([]model.Robot, error) {
		return s.robots.FindMany(ctx, f, limit, false)
	})
	if err != nil {
		return nil, errs.Wrap("service.ListRobots", err)
	}
	if robots == nil {
		robots = []model.Robot{}
	}
	return robots, nil
}

// GetRobot loads a robot by id, falling back to its slug.
func (s *Service) GetRobot(ctx context.Context, key string, opts model.FetchOptions) (model.Robot, error) {
	const op = "service.GetRobot"

	r, err := call(ctx, s, "FindByID", func(ctx context.Context) (model.Robot, error) {
		return s.robots.FindByID(ctx, key, opts)
	})
	if errors.Is(err, ErrEntityNotFound) {
		r, err = call(ctx, s, "FindBySlug", func(ctx context.Context) (model.Robot, error) {
			return s.robots.FindBySlug(ctx, key, opts)
		})
	}
	if errors.Is(err, ErrEntityNotFound) {
		return model.Robot{}, errs.WrapKind(op, ErrEntityNotFound, fmt.Errorf("robot %s", key))
	}
	if err != nil {
		return model.Robot{}, errs.Wrap(op, err)
	}
	return r, nil
}

// ListNews returns curated articles newest first.
func (s *Service) ListNews(ctx context.Context, f repository.NewsFilter, limit int) ([]model.NewsArticle, error) {
	news, err := call(ctx, s, "ListNews", func(ctx context.Context) ([]model.NewsArticle, error) {
		return s.news.ListNews(ctx, f, limit)
	})
	if err != nil {
		return nil, errs.Wrap("service.ListNews", err)
	}
	if news == nil {
		news = []model.NewsArticle{}
	}
	return news, nil
}

// ImportSummary counts the outcome of a news import.
type ImportSummary struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// ImportNews stores articles, skipping any whose title already exists for
// the same source. A non-empty source overrides each article's source name.
func (s *Service) ImportNews(ctx context.Context, articles []model.NewsArticle, source string) (ImportSummary, error) {
	const op = "service.ImportNews"

	var sum ImportSummary
	for _, a := range articles {
		if source != "" {
			a.SourceName = source
		}
		a.Title = strings.TrimSpace(a.Title)
		if a.Title == "" {
			sum.Skipped++
			continue
		}

		exists, err := call(ctx, s, "NewsExists", func(ctx context.Context) (bool, error) {
			return s.news.NewsExists(ctx, a.Title, a.SourceName)
		})
		if err != nil {
			return sum, errs.Wrap(op, err)
		}
		if exists {
			sum.Skipped++
			continue
		}

		_, err = call(ctx, s, "InsertNews", func(ctx context.Context) (model.NewsArticle, error) {
			return s.news.InsertNews(ctx, a)
		})
		if err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				sum.Skipped++
				continue
			}
			return sum, errs.Wrap(op, err)
		}
		sum.Imported++
	}

	metrics.RecordNewsImported(sum.Imported)
	s.logger.Info(ctx, "news import finished",
		logger.Int("imported", sum.Imported),
		logger.Int("skipped", sum.Skipped),
	)
	return sum, nil
}
