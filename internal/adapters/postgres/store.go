// Package postgres implements the robot store, interaction recorder and news
// store on PostgreSQL using database/sql and lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/robostorm/robostorm/internal/adapters/repository"
)

// PostgreSQL error codes mapped to repository sentinels.
const (
	codeForeignKeyViolation  = "23503"
	codeUniqueViolation      = "23505"
	codeInvalidTextRepresent = "22P02"
)

// Store is a PostgreSQL-backed repository.
type Store struct {
	db *sql.DB
}

var (
	_ repository.RobotStore          = (*Store)(nil)
	_ repository.InteractionRecorder = (*Store)(nil)
	_ repository.NewsStore           = (*Store)(nil)
)

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return New(db), nil
}

// New wraps an existing connection pool.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying pool.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// translate maps driver errors onto repository sentinels for writes.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeForeignKeyViolation, codeInvalidTextRepresent:
			return fmt.Errorf("%w: %s", repository.ErrInvalidReference, pqErr.Message)
		case codeUniqueViolation:
			return fmt.Errorf("%w: %s", repository.ErrDuplicate, pqErr.Message)
		}
	}
	return err
}

// translateLookup is translate for reads by key, where a malformed id simply
// matches nothing.
func translateLookup(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == codeInvalidTextRepresent {
		return repository.ErrNotFound
	}
	return translate(err)
}
