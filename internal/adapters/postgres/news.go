package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/robostorm/robostorm/internal/adapters/repository"
	"github.com/robostorm/robostorm/internal/domain/model"
)

func (s *Store) ListNews(ctx context.Context, f repository.NewsFilter, limit int) ([]model.NewsArticle, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Category != "" {
		where = append(where, "lower(category) = lower("+arg(f.Category)+")")
	}
	if f.Tag != "" {
		where = append(where, "EXISTS (SELECT 1 FROM unnest(tags) t WHERE lower(t) = lower("+arg(f.Tag)+"))")
	}

	query := `
		SELECT id, title, summary, content, source_url, source_name, published_date,
		       category, tags, image_url, created_at
		FROM news_articles`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY published_date DESC NULLS LAST, created_at DESC"
	if limit > 0 {
		query += " LIMIT " + arg(limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query news: %w", err)
	}
	defer rows.Close()

	var out []model.NewsArticle
	for rows.Next() {
		var (
			a         model.NewsArticle
			published sql.NullTime
		)
		if err := rows.Scan(&a.ID, &a.Title, &a.Summary, &a.Content, &a.SourceURL, &a.SourceName,
			&published, &a.Category, pq.Array(&a.Tags), &a.ImageURL, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan news article: %w", err)
		}
		if published.Valid {
			t := published.Time
			a.PublishedDate = &t
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) NewsExists(ctx context.Context, title, sourceName string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM news_articles WHERE title = $1 AND source_name = $2)`,
		title, sourceName,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check news article: %w", err)
	}
	return exists, nil
}

func (s *Store) InsertNews(ctx context.Context, a model.NewsArticle) (model.NewsArticle, error) {
	var published any
	if a.PublishedDate != nil {
		published = *a.PublishedDate
	}
	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO news_articles (title, summary, content, source_url, source_name, published_date,
		                           category, tags, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`,
		a.Title, a.Summary, a.Content, a.SourceURL, a.SourceName, published,
		a.Category, pq.Array(tags), a.ImageURL,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return model.NewsArticle{}, fmt.Errorf("insert news article: %w", translate(err))
	}
	return a, nil
}
