package bookmark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddTagIdempotent(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	ctx := t.Context()

	for _, name := range []string{"go", "sqlite", "a tag with spaces"} {
		id1, err := s.AddTag(ctx, name)
		require.NoError(t, err)
		id2, err := s.AddTag(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, id1, id2)
	}

	tags, err := s.GetAllTags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 3)

	m := TagMap(tags)
	count := 0
	for _, n := range m {
		if n == "go" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestAddTagEmpty(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)

	id, err := s.AddTag(t.Context(), "")
	require.NoError(t, err)
	assert.Zero(t, id)

	tags, err := s.GetAllTags(t.Context())
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestGetTagName(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	ctx := t.Context()

	id, err := s.AddTag(ctx, "news")
	require.NoError(t, err)

	name, err := s.GetTagName(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "news", name)

	name, err = s.GetTagName(ctx, id+100)
	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestTagging(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	ctx := t.Context()

	goTag, err := s.AddTag(ctx, "go")
	require.NoError(t, err)
	dbTag, err := s.AddTag(ctx, "db")
	require.NoError(t, err)
	unused, err := s.AddTag(ctx, "unused")
	require.NoError(t, err)

	b1 := &Bookmark{URL: "http://go.dev", Title: "Go", Tags: []int64{goTag}}
	b2 := &Bookmark{URL: "http://sqlite.org", Title: "SQLite", Tags: []int64{dbTag, goTag}}
	b3 := &Bookmark{URL: "http://untagged.net", Title: "none"}
	for _, b := range []*Bookmark{b1, b2, b3} {
		require.NoError(t, s.Upsert(ctx, b))
	}

	ids, err := s.GetTagsForBookmark(ctx, b2.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{goTag, dbTag}, ids)

	got, err := s.GetByID(ctx, b2.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{goTag, dbTag}, got.Tags)

	byGo := s.GetByTags(ctx, []int64{goTag})
	assert.Len(t, byGo, 2)

	byBoth := s.GetByTags(ctx, []int64{goTag, dbTag})
	assert.Len(t, byBoth, 2, "bookmarks are returned once")

	assert.Empty(t, s.GetByTags(ctx, []int64{unused}))
	assert.Empty(t, s.GetByTags(ctx, nil))
	assert.NotNil(t, s.GetByTags(ctx, []int64{}))

	require.NoError(t, s.UntagBookmark(ctx, goTag, b1.ID))
	assert.Len(t, s.GetByTags(ctx, []int64{goTag}), 1)

	require.NoError(t, s.TagBookmark(ctx, unused, b3.ID))
	require.NoError(t, s.TagBookmark(ctx, unused, b3.ID))
	assert.Len(t, s.GetByTags(ctx, []int64{unused}), 1)
}

func TestDeleteTagCascades(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	ctx := t.Context()

	tag, err := s.AddTag(ctx, "tmp")
	require.NoError(t, err)
	b := &Bookmark{URL: "http://t.com", Tags: []int64{tag}}
	require.NoError(t, s.Upsert(ctx, b))

	require.NoError(t, s.DeleteTag(ctx, tag))
	ids, err := s.GetTagsForBookmark(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	got, err := s.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID, "bookmark survives tag deletion")
}

func TestDeleteBookmarkKeepsTags(t *testing.T) {
	t.Parallel()
	s := setupTestStore(t)
	ctx := t.Context()

	tag, err := s.AddTag(ctx, "keep")
	require.NoError(t, err)
	b := &Bookmark{URL: "http://k.com", Tags: []int64{tag}}
	require.NoError(t, s.Upsert(ctx, b))
	require.NoError(t, s.DeleteByID(ctx, b.ID))

	name, err := s.GetTagName(ctx, tag)
	require.NoError(t, err)
	assert.Equal(t, "keep", name)
}
