package bookmark

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/mateconpizza/webstore/internal/storage"
)

// Store persists bookmarks, directories and tags in one database. It holds
// no data besides the database handle; every operation opens its own
// scope.
type Store struct {
	db          *storage.DB
	initialized atomic.Bool
}

// NewStore returns a store over db. Init must be called before any other
// operation.
func NewStore(db *storage.DB) *Store {
	return &Store{db: db}
}

// Init creates the tables and the root directory when missing. It is safe
// to call more than once.
func (s *Store) Init(ctx context.Context) error {
	if err := storage.InitSchemas(ctx, s.db, Schemas...); err != nil {
		return err
	}

	s.initialized.Store(true)
	slog.Debug("bookmark store initialized", "path", s.db.Path())

	return nil
}

// Initialized reports whether Init succeeded.
func (s *Store) Initialized() bool { return s.initialized.Load() }

func (s *Store) ready() error {
	if !s.initialized.Load() {
		return ErrNotInitialized
	}

	return nil
}

// logErr logs a storage failure with its engine code.
func logErr(op string, err error) {
	if errors.Is(err, ErrNotInitialized) {
		slog.Warn(op, "error", err)
		return
	}

	se := storage.AsError(err)
	slog.Error(op, "code", se.Code, "error", se.Msg)
}
