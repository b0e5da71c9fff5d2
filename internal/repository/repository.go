// Package repository provides database access layer.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/notes/tarefas/internal/config"
)

// Dialect identifies the SQL engine behind a Repository.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// ErrUnsupportedDatabase is returned for DATABASE_URL schemes we cannot serve.
var ErrUnsupportedDatabase = errors.New("unsupported database URL")

// sqlite pragmas applied to file-backed databases.
const sqliteFilePragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Repository provides database access methods.
type Repository struct {
	db           *sqlx.DB
	dialect      Dialect
	queryTimeout time.Duration
}

// dataSource is a parsed DATABASE_URL.
type dataSource struct {
	driver  string
	dsn     string
	dialect Dialect
	memory  bool
}

// New opens a connection pool for databaseURL, verifies it and applies migrations.
func New(ctx context.Context, databaseURL string, pool config.DB) (*Repository, error) {
	src, err := parseDatabaseURL(databaseURL)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(src.driver, src.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	configurePool(db.DB, pool, src.memory)

	pingTimeout := pool.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	// Verify connection
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	r := &Repository{
		db:           db,
		dialect:      src.dialect,
		queryTimeout: pool.QueryTimeout,
	}

	if err := r.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return r, nil
}

// configurePool applies pool limits.
// An in-memory SQLite database exists only as long as its connection, so the
// pool is pinned to a single connection that is never recycled.
func configurePool(db *sql.DB, pool config.DB, memory bool) {
	if memory {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
		return
	}

	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)
}

// parseDatabaseURL maps a DATABASE_URL onto a driver and DSN.
func parseDatabaseURL(raw string) (dataSource, error) {
	raw = strings.TrimSpace(raw)

	switch {
	case raw == "", raw == ":memory:", raw == "sqlite::memory:", raw == "sqlite://:memory:":
		return dataSource{driver: "sqlite", dsn: ":memory:", dialect: DialectSQLite, memory: true}, nil

	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return dataSource{driver: "pgx", dsn: raw, dialect: DialectPostgres}, nil

	case strings.HasPrefix(raw, "file:"):
		return dataSource{
			driver:  "sqlite",
			dsn:     raw,
			dialect: DialectSQLite,
			memory:  strings.Contains(raw, "mode=memory"),
		}, nil

	case strings.HasPrefix(raw, "sqlite:"):
		path := strings.TrimPrefix(raw, "sqlite:")
		path = strings.TrimPrefix(path, "//")
		if path == "" {
			return dataSource{}, fmt.Errorf("%w: missing sqlite path", ErrUnsupportedDatabase)
		}
		return dataSource{
			driver:  "sqlite",
			dsn:     "file:" + path + "?" + sqliteFilePragmas,
			dialect: DialectSQLite,
		}, nil
	}

	return dataSource{}, fmt.Errorf("%w: %q", ErrUnsupportedDatabase, redactScheme(raw))
}

// redactScheme keeps only the scheme of a URL for error messages.
func redactScheme(raw string) string {
	if i := strings.Index(raw, "://"); i > 0 {
		return raw[:i] + "://..."
	}
	return "..."
}

// Dialect returns the SQL engine in use.
func (r *Repository) Dialect() Dialect {
	return r.dialect
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Stats returns connection pool statistics.
func (r *Repository) Stats() sql.DBStats {
	return r.db.Stats()
}

// Close closes the database connection pool.
func (r *Repository) Close() error {
	return r.db.Close()
}

// DB returns the underlying handle.
// Use sparingly - prefer adding methods to Repository.
func (r *Repository) DB() *sqlx.DB {
	return r.db
}

// withTimeout bounds a single statement, including the wait for a pooled connection.
func (r *Repository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.queryTimeout)
}
