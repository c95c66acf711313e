package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// TimeLayout is the textual layout of DATETIME columns, as produced by
// SQLite's datetime() function.
const TimeLayout = "2006-01-02 15:04:05"

// Query is a prepared statement bound to a Scope.
//
// Parameters are bound by 1-based position and columns are read by
// 0-based index. Row-returning statements open a forward-only cursor on
// Exec; a fresh Exec is needed to iterate again.
//
// Bind and Get methods do not return errors: the first failure is kept
// and reported by Err and by the next Exec.
type Query struct {
	scope    *Scope
	sql      string
	stmt     *sqlx.Stmt
	withRows bool

	args   []any
	rows   *sqlx.Rows
	row    []any
	res    sql.Result
	err    error
	closed bool
}

func (q *Query) bind(pos int, v any) *Query {
	if q.err != nil {
		return q
	}

	if pos < 1 {
		q.err = &Error{Code: 25, Msg: fmt.Sprintf("position %d", pos), Op: "bind", Err: ErrBindPosition}
		return q
	}

	for len(q.args) < pos {
		q.args = append(q.args, nil)
	}

	q.args[pos-1] = v

	return q
}

// BindInt binds an integer at pos.
func (q *Query) BindInt(pos, v int) *Query { return q.bind(pos, int64(v)) }

// BindInt64 binds a 64-bit integer at pos.
func (q *Query) BindInt64(pos int, v int64) *Query { return q.bind(pos, v) }

// BindDouble binds a floating point value at pos.
func (q *Query) BindDouble(pos int, v float64) *Query { return q.bind(pos, v) }

// BindText binds a string at pos.
func (q *Query) BindText(pos int, v string) *Query { return q.bind(pos, v) }

// BindBlob binds a copy of b at pos. A nil slice binds a zero-length blob.
func (q *Query) BindBlob(pos int, b []byte) *Query {
	data := make([]byte, len(b))
	copy(data, b)

	return q.bind(pos, data)
}

// BindNull binds SQL NULL at pos.
func (q *Query) BindNull(pos int) *Query { return q.bind(pos, nil) }

// Exec runs the statement with the bound parameters.
func (q *Query) Exec() error {
	if q.closed {
		return &Error{Code: 21, Msg: q.sql, Op: "exec", Err: ErrQueryClosed}
	}

	if q.err != nil {
		return q.err
	}

	q.closeRows()
	q.res = nil

	ctx := q.scope.ctx
	if !q.withRows {
		res, err := q.stmt.ExecContext(ctx, q.args...)
		if err != nil {
			q.err = wrapErr(fmt.Sprintf("exec %q", oneLine(q.sql)), err)
			return q.err
		}

		q.res = res

		return nil
	}

	rows, err := q.stmt.QueryxContext(ctx, q.args...)
	if err != nil {
		q.err = wrapErr(fmt.Sprintf("query %q", oneLine(q.sql)), err)
		return q.err
	}

	q.rows = rows
	q.advance()

	return q.err
}

// HasNext reports whether the cursor is positioned on a row.
func (q *Query) HasNext() bool { return q.row != nil }

// Next moves the cursor one row forward and reports whether a row is
// available.
func (q *Query) Next() bool {
	if q.row == nil {
		return false
	}

	q.advance()

	return q.row != nil
}

func (q *Query) advance() {
	q.row = nil
	if q.rows == nil {
		return
	}

	if !q.rows.Next() {
		if err := q.rows.Err(); err != nil && q.err == nil {
			q.err = wrapErr("next row", err)
		}

		q.closeRows()

		return
	}

	row, err := q.rows.SliceScan()
	if err != nil {
		if q.err == nil {
			q.err = wrapErr("scan row", err)
		}

		q.closeRows()

		return
	}

	q.row = row
}

// Err returns the first bind, exec or extract error.
func (q *Query) Err() error { return q.err }

func (q *Query) column(col int) (any, bool) {
	if q.err != nil {
		return nil, false
	}

	if q.row == nil {
		q.err = &Error{Code: CodeUnknown, Msg: q.sql, Op: "get column", Err: ErrNoRow}
		return nil, false
	}

	if col < 0 || col >= len(q.row) {
		q.err = &Error{Code: 25, Msg: fmt.Sprintf("column %d of %d", col, len(q.row)), Op: "get column", Err: ErrColumnRange}
		return nil, false
	}

	return q.row[col], true
}

// IsNull reports whether column col of the current row is NULL.
func (q *Query) IsNull(col int) bool {
	v, ok := q.column(col)
	return ok && v == nil
}

// GetInt64 reads column col as an integer. NULL reads as 0.
func (q *Query) GetInt64(col int) int64 {
	v, ok := q.column(col)
	if !ok {
		return 0
	}

	switch x := v.(type) {
	case nil:
		return 0
	case int64:
		return x
	case float64:
		return int64(x)
	case bool:
		if x {
			return 1
		}

		return 0
	case []byte:
		return q.parseInt(string(x), col)
	case string:
		return q.parseInt(x, col)
	default:
		q.err = &Error{Code: 20, Msg: fmt.Sprintf("column %d: cannot read %T as integer", col, v), Op: "get int"}
		return 0
	}
}

func (q *Query) parseInt(s string, col int) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		q.err = &Error{Code: 20, Msg: fmt.Sprintf("column %d: %v", col, err), Op: "get int", Err: err}
		return 0
	}

	return n
}

// GetInt reads column col as an int.
func (q *Query) GetInt(col int) int { return int(q.GetInt64(col)) }

// GetDouble reads column col as a float64. NULL reads as 0.
func (q *Query) GetDouble(col int) float64 {
	v, ok := q.column(col)
	if !ok {
		return 0
	}

	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		return x
	case int64:
		return float64(x)
	case []byte, string:
		f, err := strconv.ParseFloat(strings.TrimSpace(toString(x)), 64)
		if err != nil {
			q.err = &Error{Code: 20, Msg: fmt.Sprintf("column %d: %v", col, err), Op: "get double", Err: err}
			return 0
		}

		return f
	default:
		q.err = &Error{Code: 20, Msg: fmt.Sprintf("column %d: cannot read %T as double", col, v), Op: "get double"}
		return 0
	}
}

// GetString reads column col as text. NULL reads as "".
func (q *Query) GetString(col int) string {
	v, ok := q.column(col)
	if !ok {
		return ""
	}

	return toString(v)
}

// GetBlob reads column col as bytes owned by the caller. NULL and
// zero-length blobs both read as nil.
func (q *Query) GetBlob(col int) []byte {
	v, ok := q.column(col)
	if !ok {
		return nil
	}

	var b []byte

	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		b = x
	case string:
		b = []byte(x)
	default:
		q.err = &Error{Code: 20, Msg: fmt.Sprintf("column %d: cannot read %T as blob", col, v), Op: "get blob"}
		return nil
	}

	if len(b) == 0 {
		return nil
	}

	out := make([]byte, len(b))
	copy(out, b)

	return out
}

// GetTime reads a DATETIME column holding local wall-clock time. Drivers
// that already decoded the value into time.Time have their clock
// reinterpreted in time.Local.
func (q *Query) GetTime(col int) time.Time {
	v, ok := q.column(col)
	if !ok {
		return time.Time{}
	}

	switch x := v.(type) {
	case nil:
		return time.Time{}
	case time.Time:
		return time.Date(x.Year(), x.Month(), x.Day(), x.Hour(), x.Minute(), x.Second(), x.Nanosecond(), time.Local)
	default:
		s := strings.TrimSpace(toString(x))
		for _, layout := range []string{TimeLayout, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
				return t
			}
		}

		q.err = &Error{Code: 20, Msg: fmt.Sprintf("column %d: cannot parse time %q", col, s), Op: "get time"}

		return time.Time{}
	}
}

// LastInsertID returns the rowid assigned by the last executed insert.
func (q *Query) LastInsertID() (int64, error) {
	if q.res == nil {
		return q.scope.LastInsertID()
	}

	id, err := q.res.LastInsertId()
	if err != nil {
		return 0, wrapErr("last insert id", err)
	}

	return id, nil
}

// RowsAffected returns the number of rows changed by the last exec.
func (q *Query) RowsAffected() int64 {
	if q.res == nil {
		return 0
	}

	n, err := q.res.RowsAffected()
	if err != nil {
		slog.Warn("rows affected", "error", err)
		return 0
	}

	return n
}

// Close releases the cursor and the statement. It is safe to call more
// than once.
func (q *Query) Close() {
	if q.closed {
		return
	}

	q.closed = true
	q.closeRows()

	if q.stmt != nil {
		if err := q.stmt.Close(); err != nil {
			slog.Error("closing stmt", "error", err)
		}
	}
}

func (q *Query) closeRows() {
	q.row = nil
	if q.rows == nil {
		return
	}

	if err := q.rows.Close(); err != nil {
		slog.Error("closing rows", "error", err)
	}

	q.rows = nil
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(TimeLayout)
	default:
		return fmt.Sprint(x)
	}
}

// returnsRows reports whether a statement opens a cursor.
func returnsRows(query string) bool {
	s := strings.ToUpper(strings.TrimLeft(query, " \t\r\n("))
	for _, kw := range []string{"SELECT", "WITH", "PRAGMA", "VALUES", "EXPLAIN"} {
		if strings.HasPrefix(s, kw) {
			return true
		}
	}

	return strings.Contains(s, " RETURNING ")
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
