package storage

import (
	"context"
	"errors"
	"fmt"

	"modernc.org/sqlite"
)

// CodeUnknown is reported when the driver error carries no engine code.
// It matches SQLITE_ERROR.
const CodeUnknown = 1

var (
	ErrInitialization = errors.New("storage initialization failed")
	ErrPathEmpty      = errors.New("database path is empty")
	ErrDriverUnknown  = errors.New("unknown database driver")
	ErrNoRow          = errors.New("no current row")
	ErrColumnRange    = errors.New("column index out of range")
	ErrBindPosition   = errors.New("bind position must be 1 or greater")
	ErrQueryClosed    = errors.New("query closed")
	ErrDBClosed       = errors.New("database closed")
	ErrBackupExists   = errors.New("backup already exists")
	ErrDBCorrupted    = errors.New("database corrupted")
)

// Error is a failed prepare, bind, exec or extract. Code is the SQLite
// engine result code when the driver exposes one.
type Error struct {
	Code int
	Msg  string
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("storage error (code = %d): %s", e.Code, e.Msg)
	}

	return fmt.Sprintf("%s: storage error (code = %d): %s", e.Op, e.Code, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// InitError marks a schema setup failure. It satisfies
// errors.Is(err, ErrInitialization).
type InitError struct {
	Table string
	Err   *Error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("initializing table %q: %v", e.Table, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

func (e *InitError) Is(target error) bool { return target == ErrInitialization }

// wrapErr converts a driver error into *Error. nil stays nil and an
// existing *Error is returned untouched.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}

	var se *Error
	if errors.As(err, &se) {
		return err
	}

	return &Error{Code: engineCode(err), Msg: err.Error(), Op: op, Err: err}
}

// AsError extracts the *Error from err, converting foreign errors on the
// way so callers can always log a code.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}

	var se *Error
	if errors.As(err, &se) {
		return se
	}

	return &Error{Code: engineCode(err), Msg: err.Error(), Err: err}
}

// Code returns the engine code carried by err, or CodeUnknown.
func Code(err error) int {
	if se := AsError(err); se != nil {
		return se.Code
	}

	return 0
}

type codeError interface {
	Code() int
}

func engineCode(err error) int {
	var me *sqlite.Error
	if errors.As(err, &me) {
		return me.Code()
	}

	if code, ok := cgoCode(err); ok {
		return code
	}

	// other drivers exposing a Code() method
	var ce codeError
	if errors.As(err, &ce) {
		return ce.Code()
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		// SQLITE_INTERRUPT
		return 9
	}

	return CodeUnknown
}
