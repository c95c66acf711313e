package settings

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mateconpizza/webstore/internal/storage"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := storage.Open(t.Context(), storage.DriverModernc, filepath.Join(t.TempDir(), "settings.db"))
	require.NoError(t, err)
	t.Cleanup(db.Close)

	s := NewStore(db)
	require.NoError(t, s.Init(t.Context()))

	return s
}

func TestDefaults(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	ctx := t.Context()

	i, err := s.GetInt(ctx, "missing", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, i)

	d, err := s.GetDouble(ctx, "missing", 1.5)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, d, 0)

	txt, err := s.GetText(ctx, "missing", "def")
	require.NoError(t, err)
	assert.Equal(t, "def", txt)
}

func TestSetGet(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	ctx := t.Context()

	require.NoError(t, s.SetInt(ctx, "zoom", 120))
	require.NoError(t, s.SetDouble(ctx, "ratio", 0.75))
	require.NoError(t, s.SetText(ctx, "home", "http://start.page"))

	i, err := s.GetInt(ctx, "zoom", 0)
	require.NoError(t, err)
	assert.Equal(t, 120, i)

	d, err := s.GetDouble(ctx, "ratio", 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, d, 1e-9)

	txt, err := s.GetText(ctx, "home", "")
	require.NoError(t, err)
	assert.Equal(t, "http://start.page", txt)

	require.NoError(t, s.SetInt(ctx, "zoom", 90))
	i, err = s.GetInt(ctx, "zoom", 0)
	require.NoError(t, err)
	assert.Equal(t, 90, i)
}

func TestTypeChangeReplaces(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	ctx := t.Context()

	require.NoError(t, s.SetInt(ctx, "k", 1))
	require.NoError(t, s.SetText(ctx, "k", "one"))

	i, err := s.GetInt(ctx, "k", -1)
	require.NoError(t, err)
	assert.Equal(t, -1, i, "int column cleared by the text write")

	entries, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, KindText, entries[0].Kind)
}

func TestHasDelete(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	ctx := t.Context()

	require.ErrorIs(t, s.SetInt(ctx, "", 1), ErrKeyEmpty)
	require.NoError(t, s.SetInt(ctx, "a", 1))
	require.NoError(t, s.SetInt(ctx, "b", 2))

	ok, err := s.Has(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Delete(ctx, "a"))
	ok, err = s.Has(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.DeleteAll(ctx))
	entries, err := s.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNotInitialized(t *testing.T) {
	t.Parallel()
	db, err := storage.Open(t.Context(), storage.DriverModernc, filepath.Join(t.TempDir(), "s.db"))
	require.NoError(t, err)
	t.Cleanup(db.Close)

	_, err = NewStore(db).GetInt(t.Context(), "x", 0)
	require.ErrorIs(t, err, ErrNotInitialized)
}

func TestImportINI(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	ctx := t.Context()

	src := `
; browser defaults
[int]
zoom = 110
javascript = 1

[double]
text_scale = 1.25

[text]
home = http://start.page

[ignored]
foo = bar
`
	n, err := s.ImportINI(ctx, strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	zoom, err := s.GetInt(ctx, "zoom", 0)
	require.NoError(t, err)
	assert.Equal(t, 110, zoom)

	scale, err := s.GetDouble(ctx, "text_scale", 0)
	require.NoError(t, err)
	assert.InDelta(t, 1.25, scale, 1e-9)

	home, err := s.GetText(ctx, "home", "")
	require.NoError(t, err)
	assert.Equal(t, "http://start.page", home)

	ok, err := s.Has(ctx, "foo")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestImportINIBadValue(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)

	_, err := s.ImportINI(t.Context(), strings.NewReader("[int]\nzoom = big\n"))
	require.Error(t, err)
}
