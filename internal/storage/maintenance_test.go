package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackup(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := t.Context()

	_, err := db.X.Exec("INSERT INTO ITEM (name) VALUES ('a'), ('b')")
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "backup")
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local)

	dest, err := db.Backup(ctx, dir, now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "20240102-030405_test.db"), dest)
	assert.NoFileExists(t, dest+"-wal")
	assert.NoFileExists(t, dest+"-shm")

	cp, err := Open(ctx, DriverModernc, dest)
	require.NoError(t, err)
	t.Cleanup(cp.Close)

	var n int
	require.NoError(t, cp.X.Get(&n, "SELECT COUNT(*) FROM ITEM"))
	assert.Equal(t, 3, n)

	_, err = db.Backup(ctx, dir, now)
	require.ErrorIs(t, err, ErrBackupExists)
}

func TestVacuum(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	require.NoError(t, db.Vacuum(t.Context()))
}

func TestVerifyIntegrityCorrupted(t *testing.T) {
	t.Parallel()
	p := filepath.Join(t.TempDir(), "garbage.db")
	require.NoError(t, os.WriteFile(p, []byte("definitely not a sqlite database file, just text"), 0o644))

	err := VerifyIntegrity(t.Context(), DriverModernc, p)
	require.ErrorIs(t, err, ErrDBCorrupted)
}

func TestVerifyIntegrityMissing(t *testing.T) {
	t.Parallel()
	p := filepath.Join(t.TempDir(), "absent.db")

	require.ErrorIs(t, VerifyIntegrity(t.Context(), DriverModernc, p), os.ErrNotExist)
	assert.NoFileExists(t, p)
}
