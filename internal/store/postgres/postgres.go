// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/alfredjeanlab/litgraph/internal/model"
	"github.com/alfredjeanlab/litgraph/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Pool settings. The catalogue is read into memory at start-up, so the
// database sees mostly short write bursts from imports.
const (
	maxOpenConns    = 10
	maxIdleConns    = 2
	connMaxLifetime = 5 * time.Minute
)

// queries binds the article queries to one executor. PostgresStore and
// txStore both embed it, so they share every read and write method.
type queries struct {
	db executor
}

func (q queries) ListArticles(ctx context.Context) ([]*model.Article, error) {
	return queryListArticles(ctx, q.db)
}

func (q queries) GetArticle(ctx context.Context, id int) (*model.Article, error) {
	return queryGetArticle(ctx, q.db, id)
}

func (q queries) GetArticleByPMCID(ctx context.Context, pmcid string) (*model.Article, error) {
	return queryGetArticleByPMCID(ctx, q.db, pmcid)
}

func (q queries) UpsertArticle(ctx context.Context, a *model.Article) (bool, error) {
	return queryUpsertArticle(ctx, q.db, a)
}

func (q queries) DeleteArticle(ctx context.Context, id int) error {
	return queryDeleteArticle(ctx, q.db, id)
}

func (q queries) CountArticles(ctx context.Context) (int, error) {
	return queryCountArticles(ctx, q.db)
}

// PostgresStore is the article store over a connection pool.
type PostgresStore struct {
	queries
	pool *sql.DB
}

var _ store.Store = (*PostgresStore)(nil)

func newStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{queries: queries{db: db}, pool: db}
}

// New connects to databaseURL and applies pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return newStore(db), nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrations source: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: "litgraph_migrations"})
	if err != nil {
		return fmt.Errorf("migrations driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error { return s.pool.Close() }

// RunInTransaction runs fn against a store bound to one transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (s *PostgresStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	tx, err := s.pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(&txStore{queries{db: tx}}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// txStore is the store handed to RunInTransaction callbacks.
type txStore struct {
	queries
}

var _ store.Store = (*txStore)(nil)

// RunInTransaction joins the open transaction; there is no nesting.
func (s *txStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

// Close does nothing; the parent store owns the connection.
func (s *txStore) Close() error { return nil }
