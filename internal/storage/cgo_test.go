//go:build cgo

package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCgoEngineCode(t *testing.T) {
	t.Parallel()
	require.True(t, Registered(DriverCgo))

	db, err := Open(t.Context(), DriverCgo, filepath.Join(t.TempDir(), "cgo.db"))
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, InitSchemas(t.Context(), db, testSchema))

	err = db.WithScope(t.Context(), func(s *Scope) error {
		return s.MustPrepare("INSERT INTO ITEM (id, name) VALUES (0, 'dup')").Exec()
	})

	// SQLITE_CONSTRAINT_PRIMARYKEY
	assert.Equal(t, 1555, Code(err))
}
