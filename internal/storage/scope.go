package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
)

// Scope is one logical unit of work on a DB. Every statement issued
// through a scope belongs to the same transaction.
type Scope struct {
	ctx     context.Context
	db      *DB
	tx      *sqlx.Tx
	queries []*Query
}

// Tx exposes the underlying transaction for the lifetime of the scope.
func (s *Scope) Tx() *sqlx.Tx { return s.tx }

// Context returns the context the scope was opened with.
func (s *Scope) Context() context.Context { return s.ctx }

// DB returns the database the scope belongs to.
func (s *Scope) DB() *DB { return s.db }

// WithScope runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back on error or panic. Scopes on the same DB
// never overlap.
func (d *DB) WithScope(ctx context.Context, fn func(s *Scope) error) error {
	if err := ctx.Err(); err != nil {
		return wrapErr("scope", err)
	}

	if err := d.sem.Acquire(ctx, 1); err != nil {
		return wrapErr("acquire scope", err)
	}
	defer d.sem.Release(1)

	tx, err := d.X.BeginTxx(ctx, nil)
	if err != nil {
		return wrapErr("begin transaction", err)
	}

	s := &Scope{ctx: ctx, db: d, tx: tx}

	defer func() {
		s.closeQueries()

		if p := recover(); p != nil {
			_ = tx.Rollback() // ensure rollback on panic

			panic(p) // re-throw the panic after rollback
		} else if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			slog.Error("rollback error", "path", d.path, "error", err)
		}
	}()

	if err := fn(s); err != nil {
		return err
	}

	// open cursors must be released before commit
	s.closeQueries()

	if err := tx.Commit(); err != nil {
		return wrapErr("commit", err)
	}

	return nil
}

// Exec runs a statement without parameters binding through a Query.
func (s *Scope) Exec(query string, args ...any) (sql.Result, error) {
	res, err := s.tx.ExecContext(s.ctx, query, args...)
	if err != nil {
		return nil, wrapErr(fmt.Sprintf("exec %q", oneLine(query)), err)
	}

	return res, nil
}

// LastInsertID returns the rowid of the last insert on the scope's
// connection.
func (s *Scope) LastInsertID() (int64, error) {
	var id int64
	if err := s.tx.QueryRowxContext(s.ctx, "SELECT last_insert_rowid()").Scan(&id); err != nil {
		return 0, wrapErr("last insert id", err)
	}

	return id, nil
}

// Prepare compiles query within the scope. The statement is released
// when the scope ends. The pure Go driver compiles lazily, so a syntax
// error may only surface at Exec.
func (s *Scope) Prepare(query string) (*Query, error) {
	stmt, err := s.tx.PreparexContext(s.ctx, query)
	if err != nil {
		return nil, wrapErr(fmt.Sprintf("prepare %q", oneLine(query)), err)
	}

	q := &Query{
		scope:    s,
		sql:      query,
		stmt:     stmt,
		withRows: returnsRows(query),
	}
	s.queries = append(s.queries, q)

	return q, nil
}

// MustPrepare is Prepare for statically known statements inside helpers
// that already return an error. A prepare failure is carried by the query
// and returned by its Exec.
func (s *Scope) MustPrepare(query string) *Query {
	q, err := s.Prepare(query)
	if err != nil {
		return &Query{scope: s, sql: query, err: err}
	}

	return q
}

func (s *Scope) closeQueries() {
	for _, q := range s.queries {
		q.Close()
	}

	s.queries = nil
}
