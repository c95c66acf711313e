// Package settings is a typed key/value store for application settings.
package settings

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/mateconpizza/webstore/internal/storage"
)

var (
	ErrNotInitialized = errors.New("settings store not initialized")
	ErrKeyEmpty       = errors.New("settings key cannot be empty")
)

const tableSettings = "SETTINGS"

// Schema is the SETTINGS table. A key holds one typed value at a time.
var Schema = storage.Schema{
	Name: tableSettings,
	SQL: `CREATE TABLE SETTINGS (
		KEY          TEXT PRIMARY KEY,
		VALUE_INT    INTEGER,
		VALUE_DOUBLE DOUBLE,
		VALUE_TEXT   TEXT
	)`,
}

// Kind tells which column of an entry holds its value.
type Kind int

const (
	KindNone Kind = iota
	KindInt
	KindDouble
	KindText
)

// Entry is one stored setting.
type Entry struct {
	Key    string
	Kind   Kind
	Int    int
	Double float64
	Text   string
}

// Store reads and writes settings.
type Store struct {
	db          *storage.DB
	initialized atomic.Bool
}

// NewStore returns a store over db. Init must be called before use.
func NewStore(db *storage.DB) *Store {
	return &Store{db: db}
}

// Init creates the SETTINGS table when missing.
func (s *Store) Init(ctx context.Context) error {
	if err := storage.InitSchemas(ctx, s.db, Schema); err != nil {
		return err
	}

	s.initialized.Store(true)

	return nil
}

func (s *Store) scope(ctx context.Context, op string, fn func(sc *storage.Scope) error) error {
	if !s.initialized.Load() {
		return ErrNotInitialized
	}

	if err := s.db.WithScope(ctx, fn); err != nil {
		se := storage.AsError(err)
		slog.Error(op, "code", se.Code, "error", se.Msg)

		return err
	}

	return nil
}

// get calls read when key holds a value in column col.
func (s *Store) get(ctx context.Context, col, key string, read func(q *storage.Query)) error {
	return s.scope(ctx, "get setting", func(sc *storage.Scope) error {
		q := sc.MustPrepare("SELECT " + col + " FROM SETTINGS WHERE KEY = ?")
		q.BindText(1, key)

		if err := q.Exec(); err != nil {
			return err
		}

		if q.HasNext() && !q.IsNull(0) {
			read(q)
		}

		return q.Err()
	})
}

// GetInt returns the integer stored under key, or def.
func (s *Store) GetInt(ctx context.Context, key string, def int) (int, error) {
	v := def
	err := s.get(ctx, "VALUE_INT", key, func(q *storage.Query) { v = q.GetInt(0) })

	return v, err
}

// GetDouble returns the float stored under key, or def.
func (s *Store) GetDouble(ctx context.Context, key string, def float64) (float64, error) {
	v := def
	err := s.get(ctx, "VALUE_DOUBLE", key, func(q *storage.Query) { v = q.GetDouble(0) })

	return v, err
}

// GetText returns the string stored under key, or def.
func (s *Store) GetText(ctx context.Context, key, def string) (string, error) {
	v := def
	err := s.get(ctx, "VALUE_TEXT", key, func(q *storage.Query) { v = q.GetString(0) })

	return v, err
}

func (s *Store) set(ctx context.Context, col, key string, bind func(q *storage.Query)) error {
	if key == "" {
		return ErrKeyEmpty
	}

	return s.scope(ctx, "set setting", func(sc *storage.Scope) error {
		q := sc.MustPrepare("INSERT OR REPLACE INTO SETTINGS (KEY, " + col + ") VALUES (?, ?)")
		q.BindText(1, key)
		bind(q)

		return q.Exec()
	})
}

// SetInt stores an integer under key, replacing any previous value.
func (s *Store) SetInt(ctx context.Context, key string, v int) error {
	return s.set(ctx, "VALUE_INT", key, func(q *storage.Query) { q.BindInt(2, v) })
}

// SetDouble stores a float under key, replacing any previous value.
func (s *Store) SetDouble(ctx context.Context, key string, v float64) error {
	return s.set(ctx, "VALUE_DOUBLE", key, func(q *storage.Query) { q.BindDouble(2, v) })
}

// SetText stores a string under key, replacing any previous value.
func (s *Store) SetText(ctx context.Context, key, v string) error {
	return s.set(ctx, "VALUE_TEXT", key, func(q *storage.Query) { q.BindText(2, v) })
}

// Has reports whether key is stored.
func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	var found bool

	err := s.scope(ctx, "has setting", func(sc *storage.Scope) error {
		q := sc.MustPrepare("SELECT KEY FROM SETTINGS WHERE KEY = ?")
		q.BindText(1, key)

		if err := q.Exec(); err != nil {
			return err
		}

		found = q.HasNext()

		return nil
	})

	return found, err
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.scope(ctx, "delete setting", func(sc *storage.Scope) error {
		q := sc.MustPrepare("DELETE FROM SETTINGS WHERE KEY = ?")
		q.BindText(1, key)

		return q.Exec()
	})
}

// DeleteAll removes every setting.
func (s *Store) DeleteAll(ctx context.Context) error {
	return s.scope(ctx, "delete settings", func(sc *storage.Scope) error {
		_, err := sc.Exec("DELETE FROM SETTINGS")
		return err
	})
}

// All returns every stored setting ordered by key.
func (s *Store) All(ctx context.Context) ([]Entry, error) {
	var entries []Entry

	err := s.scope(ctx, "list settings", func(sc *storage.Scope) error {
		q := sc.MustPrepare("SELECT KEY, VALUE_INT, VALUE_DOUBLE, VALUE_TEXT FROM SETTINGS ORDER BY KEY")
		if err := q.Exec(); err != nil {
			return err
		}

		for q.HasNext() {
			e := Entry{Key: q.GetString(0)}

			switch {
			case !q.IsNull(1):
				e.Kind, e.Int = KindInt, q.GetInt(1)
			case !q.IsNull(2):
				e.Kind, e.Double = KindDouble, q.GetDouble(2)
			case !q.IsNull(3):
				e.Kind, e.Text = KindText, q.GetString(3)
			}

			entries = append(entries, e)
			q.Next()
		}

		return q.Err()
	})

	return entries, err
}
