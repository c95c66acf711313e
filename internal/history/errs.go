package history

import (
	"errors"
	"fmt"

	"github.com/mateconpizza/webstore/internal/storage"
)

var (
	ErrNotInitialized = errors.New("history store not initialized")
	ErrNotFound       = errors.New("no history item found")
	ErrURLEmpty       = errors.New("history url cannot be empty")
)

// Error is a history operation that failed in the storage engine.
type Error struct {
	Code int
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("SQLite error (code = %d; %s)", e.Code, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// wrap converts a storage failure into *Error. Sentinels of this package
// pass through unchanged.
func wrap(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrNotInitialized) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrURLEmpty) {
		return err
	}

	var he *Error
	if errors.As(err, &he) {
		return err
	}

	se := storage.AsError(err)

	return &Error{Code: se.Code, Msg: se.Msg, Err: se}
}
