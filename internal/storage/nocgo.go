//go:build !cgo

package storage

// cgoCode reports no code: go-sqlite3 is not linked without cgo.
func cgoCode(error) (int, bool) { return 0, false }
