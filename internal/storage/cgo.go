//go:build cgo

package storage

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

// cgoCode returns the extended result code of a go-sqlite3 error.
func cgoCode(err error) (int, bool) {
	var e sqlite3.Error
	if errors.As(err, &e) {
		return int(e.ExtendedCode), true
	}

	return 0, false
}
