// Package storage provides the SQLite primitives shared by the stores: a
// pooled database handle, transaction scopes, prepared queries and the
// idempotent schema manager.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/semaphore"
)

const (
	MaxOpenConns    = 10        // Maximum number of open connections
	MaxIdleConns    = 5         // Maximum number of idle connections
	MaxLifetimeConn = time.Hour // Maximum connection lifetime
	BusyTimeout     = 5000      // Milliseconds to wait on a locked database
)

const (
	DriverModernc = "sqlite"  // modernc.org/sqlite, pure Go
	DriverCgo     = "sqlite3" // github.com/mattn/go-sqlite3, linked in cgo builds
)

// Registered reports whether driver is available in this binary.
func Registered(driver string) bool {
	return slices.Contains(sql.Drivers(), driver)
}

// DB is one embedded database file. Scopes opened on the same DB are
// serialized.
type DB struct {
	X         *sqlx.DB
	path      string
	driver    string
	sem       *semaphore.Weighted
	closeOnce sync.Once
}

// Path returns the connection string the database was opened with.
func (d *DB) Path() string { return d.path }

// Driver returns the driver name.
func (d *DB) Driver() string { return d.driver }

// Close closes the database connection and logs any errors encountered.
func (d *DB) Close() {
	d.closeOnce.Do(func() {
		if err := d.X.Close(); err != nil {
			slog.Error("closing database", "path", d.path, "error", err)
		} else {
			slog.Debug("database closed", "path", d.path)
		}
	})
}

// Open opens (creating if absent) the database at path and verifies the
// connection.
func Open(ctx context.Context, driver, path string) (*DB, error) {
	if path == "" {
		return nil, ErrPathEmpty
	}

	if driver == "" {
		driver = DriverModernc
	}

	if !Registered(driver) {
		return nil, fmt.Errorf("%w: %q not linked", ErrDriverUnknown, driver)
	}

	dsn, err := buildDSN(driver, path)
	if err != nil {
		return nil, err
	}

	if !isMemory(path) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	slog.Debug("opening database", "driver", driver, "path", path)

	x, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, wrapErr("open", err)
	}

	// Connection pool tuning
	x.SetMaxOpenConns(MaxOpenConns)
	x.SetMaxIdleConns(MaxIdleConns)
	x.SetConnMaxLifetime(MaxLifetimeConn)

	if err := x.PingContext(ctx); err != nil {
		_ = x.Close()
		return nil, wrapErr("ping", err)
	}

	return &DB{
		X:      x,
		path:   path,
		driver: driver,
		sem:    semaphore.NewWeighted(1),
	}, nil
}

// buildDSN appends the per-driver pragma parameters to path: foreign keys
// on, WAL journal, busy timeout.
func buildDSN(driver, path string) (string, error) {
	q := url.Values{}

	switch driver {
	case DriverModernc:
		q.Add("_pragma", "foreign_keys(1)")
		q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", BusyTimeout))

		if !isMemory(path) {
			q.Add("_pragma", "journal_mode(WAL)")
			q.Add("_pragma", "synchronous(NORMAL)")
		}
	case DriverCgo:
		q.Add("_foreign_keys", "on")
		q.Add("_busy_timeout", fmt.Sprint(BusyTimeout))

		if !isMemory(path) {
			q.Add("_journal_mode", "WAL")
			q.Add("_synchronous", "NORMAL")
		}
	default:
		return "", fmt.Errorf("%w: %q", ErrDriverUnknown, driver)
	}

	separator := "?"
	if strings.Contains(path, "?") {
		separator = "&"
	}

	return path + separator + q.Encode(), nil
}

func isMemory(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}

// Registry caches one DB per connection string.
type Registry struct {
	mu     sync.Mutex
	driver string
	dbs    map[string]*DB
}

// NewRegistry returns an empty registry opening databases with driver.
func NewRegistry(driver string) *Registry {
	return &Registry{driver: driver, dbs: make(map[string]*DB)}
}

// Get returns the cached DB for path, opening it on first use.
func (r *Registry) Get(ctx context.Context, path string) (*DB, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.dbs == nil {
		return nil, ErrDBClosed
	}

	if db, ok := r.dbs[path]; ok {
		return db, nil
	}

	db, err := Open(ctx, r.driver, path)
	if err != nil {
		return nil, err
	}

	r.dbs[path] = db

	return db, nil
}

// Close closes every cached database. The registry is unusable afterwards.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, db := range r.dbs {
		db.Close()
	}

	r.dbs = nil
}
