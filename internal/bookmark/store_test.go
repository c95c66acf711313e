package bookmark

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mateconpizza/webstore/internal/blob"
	"github.com/mateconpizza/webstore/internal/storage"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := storage.Open(t.Context(), storage.DriverModernc, filepath.Join(t.TempDir(), "bookmarks.db"))
	require.NoError(t, err)
	t.Cleanup(db.Close)

	s := NewStore(db)
	require.NoError(t, s.Init(t.Context()))

	return s
}

func testSingleBookmark() *Bookmark {
	return &Bookmark{
		URL:         "http://example.com",
		Title:       "Example",
		Note:        "an example page",
		DirectoryID: RootID,
	}
}

func TestNotInitialized(t *testing.T) {
	t.Parallel()
	db, err := storage.Open(t.Context(), storage.DriverModernc, filepath.Join(t.TempDir(), "b.db"))
	require.NoError(t, err)
	t.Cleanup(db.Close)

	s := NewStore(db)
	assert.False(t, s.Initialized())
	require.ErrorIs(t, s.Upsert(t.Context(), testSingleBookmark()), ErrNotInitialized)
	_, err = s.AddDirectory(t.Context(), "x", RootID)
	require.ErrorIs(t, err, ErrNotInitialized)
	assert.Empty(t, s.GetAll(t.Context()))
}

func TestInitIdempotent(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	require.NoError(t, s.Init(t.Context()))

	root, err := s.GetDirectory(t.Context(), RootID)
	require.NoError(t, err)
	assert.Equal(t, Directory{ID: 0, ParentID: 0, Name: "root"}, root)
}

func TestUpsertRoundTrip(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	ctx := t.Context()

	b := testSingleBookmark()
	b.Thumbnail = &blob.Image{Width: 2, Height: 3, Type: blob.PNG, Data: []byte{1, 2, 3}}
	require.NoError(t, s.Upsert(ctx, b))
	require.Positive(t, b.ID)

	got, err := s.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
	assert.Equal(t, b.URL, got.URL)
	assert.Equal(t, b.Title, got.Title)
	assert.Equal(t, b.Note, got.Note)
	assert.Equal(t, b.DirectoryID, got.DirectoryID)
	require.True(t, got.HasThumbnail())
	assert.Equal(t, b.Thumbnail, got.Thumbnail)

	plain := &Bookmark{URL: "http://plain.org", Title: "Plain"}
	require.NoError(t, s.Upsert(ctx, plain))
	got, err = s.GetByID(ctx, plain.ID)
	require.NoError(t, err)
	assert.False(t, got.HasThumbnail(), "empty thumbnail reads back as none")
}

func TestUpsertUpdate(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	ctx := t.Context()

	b := testSingleBookmark()
	require.NoError(t, s.Upsert(ctx, b))
	id := b.ID

	b.Title = "Changed"
	b.URL = "http://example.org"
	require.NoError(t, s.Upsert(ctx, b))
	assert.Equal(t, id, b.ID)

	got, err := s.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Changed", got.Title)
	assert.Equal(t, "http://example.org", got.URL)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUpsertStaleIDNoop(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	ctx := t.Context()

	b := testSingleBookmark()
	b.ID = 4242
	require.NoError(t, s.Upsert(ctx, b))
	assert.Equal(t, int64(4242), b.ID)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "stale id must not insert")
}

func TestUpsertInvalidDirectory(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)

	b := testSingleBookmark()
	b.DirectoryID = 999
	err := s.Upsert(t.Context(), b)
	require.Error(t, err)
	assert.Zero(t, b.ID, "failed insert leaves id untouched")

	var se *storage.Error
	require.ErrorAs(t, err, &se)
}

func TestDeleteScenario(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	ctx := t.Context()

	b := &Bookmark{URL: "http://example.com", Title: "Example", DirectoryID: RootID}
	require.NoError(t, s.Upsert(ctx, b))
	k := b.ID
	require.Positive(t, k)

	got, err := s.GetByID(ctx, k)
	require.NoError(t, err)
	assert.Equal(t, "http://example.com", got.URL)
	assert.Equal(t, "Example", got.Title)

	require.NoError(t, s.Delete(ctx, &Bookmark{ID: k}))
	got, err = s.GetByID(ctx, k)
	require.NoError(t, err)
	assert.Zero(t, got.ID)

	_, err = s.Find(ctx, k)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteUnsavedNoop(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	ctx := t.Context()

	require.NoError(t, s.Upsert(ctx, testSingleBookmark()))
	require.NoError(t, s.Delete(ctx, &Bookmark{}))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestClearAllKeepsDirsAndTags(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	ctx := t.Context()

	dir, err := s.AddDirectory(ctx, "Work", RootID)
	require.NoError(t, err)
	tag, err := s.AddTag(ctx, "go")
	require.NoError(t, err)

	b := testSingleBookmark()
	b.DirectoryID = dir
	b.Tags = []int64{tag}
	require.NoError(t, s.Upsert(ctx, b))

	require.NoError(t, s.ClearAll(ctx))
	assert.Empty(t, s.GetAll(ctx))

	_, err = s.GetDirectory(ctx, dir)
	require.NoError(t, err)
	tags, err := s.GetAllTags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 1)
}

func TestGetAllAndByDirectory(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	ctx := t.Context()

	dir, err := s.AddDirectory(ctx, "News", RootID)
	require.NoError(t, err)

	urls := []string{"http://a.com", "http://b.com", "http://c.com"}
	for i, u := range urls {
		b := &Bookmark{URL: u, Title: u}
		if i > 0 {
			b.DirectoryID = dir
		}
		require.NoError(t, s.Upsert(ctx, b))
	}

	all := s.GetAll(ctx)
	require.Len(t, all, 3)
	for i, b := range all {
		assert.Equal(t, urls[i], b.URL)
		assert.Equal(t, i, b.Order)
	}

	inDir := s.GetByDirectory(ctx, dir)
	assert.Len(t, inDir, 2)
	assert.Len(t, s.GetByDirectory(ctx, RootID), 1)
	assert.NotNil(t, s.GetByDirectory(ctx, 12345))
}

func TestGetDirectoryContents(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	ctx := t.Context()

	_, err := s.AddDirectory(ctx, "Folder", RootID)
	require.NoError(t, err)
	require.NoError(t, s.Upsert(ctx, testSingleBookmark()))

	items := s.GetDirectoryContents(ctx, RootID)
	require.Len(t, items, 2)
	assert.True(t, items[0].IsFolder)
	assert.Equal(t, "Folder", items[0].Title)
	assert.False(t, items[1].IsFolder)
	assert.Equal(t, 1, items[1].Order)
}

func TestListManyBookmarks(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	ctx := t.Context()

	const n = 33000
	_, err := s.db.X.ExecContext(ctx, `WITH RECURSIVE seq(i) AS (
			SELECT 1 UNION ALL SELECT i + 1 FROM seq WHERE i < ?
		)
		INSERT INTO BOOKMARK (url, title, dir_id)
		SELECT 'http://example.com/' || i, 'page ' || i, 0 FROM seq`, n)
	require.NoError(t, err)

	tagID, err := s.AddTag(ctx, "last")
	require.NoError(t, err)
	require.NoError(t, s.TagBookmark(ctx, tagID, n))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, n, count)

	all := s.GetAll(ctx)
	require.Len(t, all, n)
	assert.Equal(t, []int64{tagID}, all[n-1].Tags)
	assert.Empty(t, all[0].Tags)

	assert.Len(t, s.GetByDirectory(ctx, RootID), n)
}

func TestListBrokenTable(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	ctx := t.Context()

	tagID, err := s.AddTag(ctx, "go")
	require.NoError(t, err)

	_, err = s.db.X.ExecContext(ctx, "DROP TABLE BOOKMARK")
	require.NoError(t, err)

	tests := []struct {
		name string
		list func() []Bookmark
	}{
		{"all", func() []Bookmark { return s.GetAll(ctx) }},
		{"by directory", func() []Bookmark { return s.GetByDirectory(ctx, RootID) }},
		{"by tags", func() []Bookmark { return s.GetByTags(ctx, []int64{tagID}) }},
		{"directory contents", func() []Bookmark { return s.GetDirectoryContents(ctx, RootID) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []Bookmark
			require.NotPanics(t, func() { got = tt.list() })
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}
