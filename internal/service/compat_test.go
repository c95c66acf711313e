//go:build cgo

package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mateconpizza/webstore/internal/bookmark"
	"github.com/mateconpizza/webstore/internal/history"
	"github.com/mateconpizza/webstore/internal/storage"
)

// TestCgoDriver runs the stores on github.com/mattn/go-sqlite3 against the
// same schema.
func TestCgoDriver(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.Driver = storage.DriverCgo

	s := New(cfg)
	t.Cleanup(s.Close)

	require.NoError(t, s.Init(t.Context(), true))

	ctx := t.Context()
	bs := s.Bookmarks()

	dir, err := bs.AddDirectory(ctx, "work", bookmark.RootID)
	require.NoError(t, err)

	b := bookmark.New("http://example.com", "Example", dir)
	require.NoError(t, bs.Upsert(ctx, b))

	got, err := bs.Find(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Example", got.Title)

	require.NoError(t, bs.RemoveDirectory(ctx, dir))
	_, err = bs.Find(ctx, b.ID)
	require.ErrorIs(t, err, bookmark.ErrNotFound)

	it := history.NewItem("http://example.com", "Example")
	require.NoError(t, s.InsertOrRefresh(ctx, it))
	require.NoError(t, s.InsertOrRefresh(ctx, it))

	n, err := s.GetVisitCounter(ctx, it.URL)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
