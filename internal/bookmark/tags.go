package bookmark

import (
	"context"
	"log/slog"
	"slices"

	"github.com/jmoiron/sqlx"

	"github.com/mateconpizza/webstore/internal/storage"
)

// tagLookupChunk bounds the bound variables of one tag lookup, well under
// the SQLite variable limit.
const tagLookupChunk = 500

// AddTag returns the id of the tag called name, creating it when absent.
// An empty name returns 0 without touching the database.
func (s *Store) AddTag(ctx context.Context, name string) (int64, error) {
	if name == "" {
		return 0, nil
	}

	if err := s.ready(); err != nil {
		return 0, err
	}

	var id int64

	err := s.db.WithScope(ctx, func(sc *storage.Scope) error {
		var err error
		id, err = getOrCreateTag(sc, name)

		return err
	})
	if err != nil {
		logErr("add tag", err)
		return 0, err
	}

	return id, nil
}

// getOrCreateTag returns the tag ID.
func getOrCreateTag(sc *storage.Scope, name string) (int64, error) {
	q := sc.MustPrepare("SELECT id FROM TAG WHERE name = ?")
	q.BindText(1, name)

	if err := q.Exec(); err != nil {
		return 0, err
	}

	if q.HasNext() {
		id := q.GetInt64(0)
		return id, q.Err()
	}

	ins := sc.MustPrepare("INSERT INTO TAG (name) VALUES (?)")
	ins.BindText(1, name)

	if err := ins.Exec(); err != nil {
		return 0, err
	}

	slog.Debug("tag created", "name", name)

	return ins.LastInsertID()
}

// GetAllTags returns every tag in storage order.
func (s *Store) GetAllTags(ctx context.Context) ([]Tag, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	var tags []Tag

	err := s.db.WithScope(ctx, func(sc *storage.Scope) error {
		q := sc.MustPrepare("SELECT id, name FROM TAG ORDER BY id")
		if err := q.Exec(); err != nil {
			return err
		}

		for q.HasNext() {
			tags = append(tags, Tag{ID: q.GetInt64(0), Name: q.GetString(1)})
			q.Next()
		}

		return q.Err()
	})
	if err != nil {
		logErr("get all tags", err)
		return nil, err
	}

	return tags, nil
}

// GetTagName returns the name of tag id, or "" when it does not exist.
func (s *Store) GetTagName(ctx context.Context, id int64) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}

	var name string

	err := s.db.WithScope(ctx, func(sc *storage.Scope) error {
		q := sc.MustPrepare("SELECT name FROM TAG WHERE id = ?")
		q.BindInt64(1, id)

		if err := q.Exec(); err != nil {
			return err
		}

		if q.HasNext() {
			name = q.GetString(0)
		}

		return q.Err()
	})
	if err != nil {
		logErr("get tag name", err)
		return "", err
	}

	return name, nil
}

// DeleteTag removes tag id and its bookmark associations.
func (s *Store) DeleteTag(ctx context.Context, id int64) error {
	return s.exec(ctx, "delete tag", "DELETE FROM TAG WHERE id = ?", id)
}

// TagBookmark associates tag tagID with bookmark bookmarkID. Repeated
// calls are no-ops.
func (s *Store) TagBookmark(ctx context.Context, tagID, bookmarkID int64) error {
	return s.exec(ctx, "tag bookmark",
		"INSERT OR IGNORE INTO TAG_BOOKMARK (tag_id, bookmark_id) VALUES (?, ?)", tagID, bookmarkID)
}

// UntagBookmark removes the association between tagID and bookmarkID.
func (s *Store) UntagBookmark(ctx context.Context, tagID, bookmarkID int64) error {
	return s.exec(ctx, "untag bookmark",
		"DELETE FROM TAG_BOOKMARK WHERE tag_id = ? AND bookmark_id = ?", tagID, bookmarkID)
}

// GetTagsForBookmark returns the tag ids associated with bookmarkID.
func (s *Store) GetTagsForBookmark(ctx context.Context, bookmarkID int64) ([]int64, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	var ids []int64

	err := s.db.WithScope(ctx, func(sc *storage.Scope) error {
		var err error
		ids, err = tagsForBookmark(sc, bookmarkID)

		return err
	})
	if err != nil {
		logErr("get tags for bookmark", err)
		return nil, err
	}

	return ids, nil
}

func tagsForBookmark(sc *storage.Scope, bookmarkID int64) ([]int64, error) {
	q := sc.MustPrepare("SELECT tag_id FROM TAG_BOOKMARK WHERE bookmark_id = ? ORDER BY tag_id")
	q.BindInt64(1, bookmarkID)

	if err := q.Exec(); err != nil {
		return nil, err
	}

	var ids []int64
	for q.HasNext() {
		ids = append(ids, q.GetInt64(0))
		q.Next()
	}

	return ids, q.Err()
}

// replaceTags sets the tag associations of bookmarkID to tagIDs.
func replaceTags(sc *storage.Scope, bookmarkID int64, tagIDs []int64) error {
	del := sc.MustPrepare("DELETE FROM TAG_BOOKMARK WHERE bookmark_id = ?")
	del.BindInt64(1, bookmarkID)

	if err := del.Exec(); err != nil {
		return err
	}

	ins := sc.MustPrepare("INSERT OR IGNORE INTO TAG_BOOKMARK (tag_id, bookmark_id) VALUES (?, ?)")
	for _, tagID := range tagIDs {
		ins.BindInt64(1, tagID).BindInt64(2, bookmarkID)

		if err := ins.Exec(); err != nil {
			return err
		}
	}

	return nil
}

// attachTags loads the tag ids of every bookmark in bs with one query.
func attachTags(sc *storage.Scope, bs []Bookmark) error {
	if len(bs) == 0 {
		return nil
	}

	ids := make([]int64, len(bs))
	for i := range bs {
		ids[i] = bs[i].ID
	}

	byBookmark := make(map[int64][]int64, len(bs))
	for chunk := range slices.Chunk(ids, tagLookupChunk) {
		if err := loadTags(sc, chunk, byBookmark); err != nil {
			return err
		}
	}

	for i := range bs {
		bs[i].Tags = byBookmark[bs[i].ID]
	}

	return nil
}

// loadTags adds the tag ids of the bookmarks in ids to byBookmark.
func loadTags(sc *storage.Scope, ids []int64, byBookmark map[int64][]int64) error {
	query, args, err := sqlx.In(`SELECT bookmark_id, tag_id FROM TAG_BOOKMARK
		WHERE bookmark_id IN (?) ORDER BY bookmark_id, tag_id`, ids)
	if err != nil {
		return err
	}

	q := sc.MustPrepare(query)
	for i, a := range args {
		v, _ := a.(int64)
		q.BindInt64(i+1, v)
	}

	if err := q.Exec(); err != nil {
		return err
	}

	for q.HasNext() {
		bid := q.GetInt64(0)
		byBookmark[bid] = append(byBookmark[bid], q.GetInt64(1))
		q.Next()
	}

	return q.Err()
}

// exec runs a single write statement in its own scope.
func (s *Store) exec(ctx context.Context, op, query string, args ...int64) error {
	if err := s.ready(); err != nil {
		return err
	}

	err := s.db.WithScope(ctx, func(sc *storage.Scope) error {
		q := sc.MustPrepare(query)
		for i, a := range args {
			q.BindInt64(i+1, a)
		}

		return q.Exec()
	})
	if err != nil {
		logErr(op, err)
		return err
	}

	return nil
}
