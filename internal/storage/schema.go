package storage

import (
	"context"
	"errors"
	"log/slog"
)

// Schema describes one table: its DDL, optional index DDL and an optional
// seed statement that must be idempotent (INSERT OR IGNORE).
type Schema struct {
	Name  string
	SQL   string
	Index string
	Seed  string
}

// CheckAndCreateTable creates the table described by sc when it does not
// exist yet, then runs its index and seed statements. It is safe to call
// on every start.
func CheckAndCreateTable(s *Scope, sc Schema) error {
	exists, err := tableExistsTx(s, sc.Name)
	if err != nil {
		return err
	}

	if !exists {
		slog.Debug("creating table", "name", sc.Name, "path", s.db.path)

		if _, err := s.Exec(sc.SQL); err != nil {
			return err
		}
	}

	if sc.Index != "" {
		if _, err := s.Exec(sc.Index); err != nil {
			return err
		}
	}

	if sc.Seed != "" {
		if _, err := s.Exec(sc.Seed); err != nil {
			return err
		}
	}

	return nil
}

// InitSchemas creates the given tables in order within one scope. Tables
// referenced by foreign keys must come before the tables referencing
// them. Any failure is reported as *InitError.
func InitSchemas(ctx context.Context, db *DB, schemas ...Schema) error {
	var table string

	err := db.WithScope(ctx, func(s *Scope) error {
		for _, sc := range schemas {
			table = sc.Name
			if err := CheckAndCreateTable(s, sc); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		se := AsError(err)
		slog.Error("cannot initialize database", "path", db.path, "table", table, "code", se.Code, "error", se.Msg)

		var ie *InitError
		if errors.As(err, &ie) {
			return ie
		}

		return &InitError{Table: table, Err: se}
	}

	return nil
}

// TableExists reports whether table name exists in db.
func TableExists(ctx context.Context, db *DB, name string) (bool, error) {
	var exists bool

	err := db.WithScope(ctx, func(s *Scope) error {
		var err error
		exists, err = tableExistsTx(s, name)

		return err
	})

	return exists, err
}

func tableExistsTx(s *Scope, name string) (bool, error) {
	var n int

	err := s.tx.GetContext(s.ctx, &n, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name)
	if err != nil {
		return false, wrapErr("table exists", err)
	}

	return n > 0, nil
}
