package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mateconpizza/webstore/internal/storage"
)

func TestDefaultHonoursEnvHome(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvHome, dir)

	cfg, err := Default()
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Dir)
	assert.Equal(t, storage.DriverModernc, cfg.Driver)
	assert.Equal(t, filepath.Join(dir, "bookmarks.db"), cfg.Path(cfg.BookmarksDB))
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	t.Setenv(EnvHome, t.TempDir())

	want, err := Default()
	require.NoError(t, err)

	got, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDumpAndLoad(t *testing.T) {
	t.Setenv(EnvHome, t.TempDir())
	p := filepath.Join(t.TempDir(), "sub", DefaultFilename)

	cfg, err := Default()
	require.NoError(t, err)
	cfg.HistoryDB = "h.db"
	cfg.Driver = storage.DriverCgo

	require.NoError(t, cfg.Dump(p, false))
	require.ErrorIs(t, cfg.Dump(p, false), ErrConfigFileExists)
	require.NoError(t, cfg.Dump(p, true))

	got, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestLoadPartialFile(t *testing.T) {
	t.Setenv(EnvHome, t.TempDir())
	p := filepath.Join(t.TempDir(), DefaultFilename)
	require.NoError(t, os.WriteFile(p, []byte("session_db: tabs.db\n"), 0o644))

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "tabs.db", cfg.SessionDB)
	assert.Equal(t, "bookmarks.db", cfg.BookmarksDB)
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv(EnvHome, t.TempDir())

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "driver", content: "driver: postgres\n", wantErr: ErrUnknownDriver},
		{name: "empty name", content: "history_db: \"\"\n", wantErr: ErrDBNameEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := filepath.Join(t.TempDir(), DefaultFilename)
			require.NoError(t, os.WriteFile(p, []byte(tt.content), 0o644))

			_, err := Load(p)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	p := filepath.Join(t.TempDir(), DefaultFilename)
	require.NoError(t, os.WriteFile(p, []byte("dir: [\n"), 0o644))
	_, err := Load(p)
	require.Error(t, err)
}

func TestValidateCgoDriver(t *testing.T) {
	t.Setenv(EnvHome, t.TempDir())

	cfg, err := Default()
	require.NoError(t, err)
	cfg.Driver = storage.DriverCgo

	err = cfg.Validate()
	if storage.Registered(storage.DriverCgo) {
		require.NoError(t, err)
		return
	}

	require.ErrorIs(t, err, ErrUnknownDriver)
}
