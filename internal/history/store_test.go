package history

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mateconpizza/webstore/internal/blob"
	"github.com/mateconpizza/webstore/internal/storage"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := storage.Open(t.Context(), storage.DriverModernc, filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(db.Close)

	s := NewStore(db)
	require.NoError(t, s.Init(t.Context()))

	return s
}

func testFavicon() *blob.Image {
	return &blob.Image{Width: 16, Height: 16, Type: blob.PNG, Data: []byte{0x89, 'P', 'N', 'G'}}
}

func TestNotInitialized(t *testing.T) {
	t.Parallel()
	db, err := storage.Open(t.Context(), storage.DriverModernc, filepath.Join(t.TempDir(), "h.db"))
	require.NoError(t, err)
	t.Cleanup(db.Close)

	s := NewStore(db)
	require.ErrorIs(t, s.Add(t.Context(), NewItem("http://a.com", "a")), ErrNotInitialized)
	_, err = s.GetVisitCounter(t.Context(), "http://a.com")
	require.ErrorIs(t, err, ErrNotInitialized)
	assert.Empty(t, s.GetItems(t.Context(), 10, 10))
}

func TestVisitCounterMonotonic(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	ctx := t.Context()

	const url = "http://example.com"
	for i := 1; i <= 5; i++ {
		require.NoError(t, s.InsertOrRefresh(ctx, NewItem(url, "Example")))
		n, err := s.GetVisitCounter(ctx, url)
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}

	count, err := s.GetCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAbsenceSentinels(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	ctx := t.Context()

	n, err := s.GetVisitCounter(ctx, "http://never.com")
	require.NoError(t, err)
	assert.Equal(t, -1, n)

	it, err := s.GetItem(ctx, "http://never.com")
	require.NoError(t, err)
	assert.Equal(t, "http://never.com", it.URL)
	assert.Empty(t, it.Title)
	assert.Zero(t, it.VisitCounter)
	assert.True(t, it.Favicon.IsEmpty())

	_, err = s.Find(ctx, "http://never.com")
	require.ErrorIs(t, err, ErrNotFound)

	fav, err := s.GetFavicon(ctx, "http://never.com")
	require.NoError(t, err)
	assert.True(t, fav.IsEmpty())
}

func TestAddWithFavicon(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	ctx := t.Context()

	it := NewItem("http://fav.com", "Fav")
	it.Favicon = testFavicon()
	require.NoError(t, s.InsertOrRefresh(ctx, it))

	fav, err := s.GetFavicon(ctx, it.URL)
	require.NoError(t, err)
	assert.Equal(t, testFavicon(), fav)

	got, err := s.GetItem(ctx, it.URL)
	require.NoError(t, err)
	assert.Equal(t, "Fav", got.Title)
	assert.Equal(t, 1, got.VisitCounter)
	assert.Equal(t, it.URL, got.FaviconURI)
	assert.Equal(t, testFavicon(), got.Favicon)
	assert.WithinDuration(t, time.Now(), got.LastVisit, 2*time.Minute)
}

func TestAddWithoutFavicon(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	ctx := t.Context()

	require.NoError(t, s.Add(ctx, NewItem("http://nofav.com", "No")))

	got, err := s.GetItem(ctx, "http://nofav.com")
	require.NoError(t, err)
	assert.Empty(t, got.FaviconURI)
	assert.True(t, got.Favicon.IsEmpty())
}

func TestAddReplaces(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	ctx := t.Context()

	const url = "http://replace.com"
	require.NoError(t, s.InsertOrRefresh(ctx, NewItem(url, "one")))
	require.NoError(t, s.InsertOrRefresh(ctx, NewItem(url, "one")))
	require.NoError(t, s.Add(ctx, NewItem(url, "two")))

	got, err := s.GetItem(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, "two", got.Title)
	assert.Equal(t, 1, got.VisitCounter)
}

func TestEmptyURL(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	require.ErrorIs(t, s.InsertOrRefresh(t.Context(), NewItem("", "x")), ErrURLEmpty)
	require.ErrorIs(t, s.Add(t.Context(), NewItem("", "x")), ErrURLEmpty)
}

func TestDelete(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	ctx := t.Context()

	it := NewItem("http://gone.com", "Gone")
	it.Favicon = testFavicon()
	require.NoError(t, s.Add(ctx, it))
	require.NoError(t, s.Add(ctx, NewItem("http://stay.com", "Stay")))
	require.Len(t, s.GetItems(ctx, 1, 10), 2)

	require.NoError(t, s.Delete(ctx, it.URL))
	n, err := s.GetVisitCounter(ctx, it.URL)
	require.NoError(t, err)
	assert.Equal(t, -1, n)
	assert.Len(t, s.Items(), 1)

	var favs int
	require.NoError(t, s.db.X.Get(&favs, "SELECT COUNT(*) FROM FAVICON"))
	assert.Zero(t, favs, "dangling favicon removed")
}

func TestDeleteAll(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	ctx := t.Context()

	for i := range 3 {
		it := NewItem(fmt.Sprintf("http://%d.com", i), "t")
		it.Favicon = testFavicon()
		require.NoError(t, s.Add(ctx, it))
	}

	s.GetItems(ctx, 1, 10)
	require.NoError(t, s.DeleteAll(ctx))

	n, err := s.GetCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, s.Items())

	var favs int
	require.NoError(t, s.db.X.Get(&favs, "SELECT COUNT(*) FROM FAVICON"))
	assert.Zero(t, favs)
}

func TestGetItems(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	ctx := t.Context()

	for i := range 5 {
		require.NoError(t, s.Add(ctx, NewItem(fmt.Sprintf("http://%d.com", i), "t")))
	}

	// age two rows and order the recent ones
	_, err := s.db.X.ExecContext(ctx,
		"UPDATE HISTORY SET visit_date = datetime('now', 'localtime', '-30 day') WHERE url IN ('http://0.com', 'http://1.com')")
	require.NoError(t, err)
	_, err = s.db.X.ExecContext(ctx,
		"UPDATE HISTORY SET visit_date = datetime('now', 'localtime', '-1 hour') WHERE url = 'http://2.com'")
	require.NoError(t, err)

	items := s.GetItems(ctx, 7, 10)
	require.Len(t, items, 3)
	assert.Equal(t, "http://2.com", items[2].URL, "oldest recent visit last")
	for i := 1; i < len(items); i++ {
		assert.False(t, items[i].LastVisit.After(items[i-1].LastVisit))
	}

	assert.Len(t, s.GetItems(ctx, 7, 2), 2)
	assert.Len(t, s.Items(), 2)
	assert.Len(t, s.GetItems(ctx, 60, 100), 5)

	today := s.GetItems(ctx, 0, 10)
	require.NotEmpty(t, today)
	assert.Equal(t, today, s.GetItems(ctx, -3, 10), "negative depth counts as today")
}

func TestItemsIsCopy(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	ctx := t.Context()

	it := NewItem("http://copy.com", "c")
	it.Favicon = testFavicon()
	require.NoError(t, s.Add(ctx, it))
	s.GetItems(ctx, 1, 1)

	a := s.Items()
	a[0].Favicon.Data[0] = 0
	b := s.Items()
	assert.Equal(t, byte(0x89), b[0].Favicon.Data[0])
}

func TestErrorFormat(t *testing.T) {
	t.Parallel()
	err := wrap(&storage.Error{Code: 5, Msg: "database is locked"})
	assert.Equal(t, "SQLite error (code = 5; database is locked)", err.Error())

	var se *storage.Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 5, se.Code)
	assert.NoError(t, wrap(nil))
	assert.ErrorIs(t, wrap(ErrNotInitialized), ErrNotInitialized)
}

func TestBrokenTable(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	ctx := t.Context()

	require.NoError(t, s.Add(ctx, NewItem("http://a.com", "a")))
	assert.Len(t, s.GetItems(ctx, 1, 10), 1)

	_, err := s.db.X.ExecContext(ctx, "DROP TABLE HISTORY")
	require.NoError(t, err)

	var items []Item
	require.NotPanics(t, func() { items = s.GetItems(ctx, 1, 10) })
	assert.NotNil(t, items)
	assert.Empty(t, items)
	assert.Empty(t, s.Items())

	n, err := s.GetVisitCounter(ctx, "http://a.com")
	var he *Error
	require.ErrorAs(t, err, &he)
	assert.Equal(t, -1, n)
}
