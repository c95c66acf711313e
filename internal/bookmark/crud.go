package bookmark

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/mateconpizza/webstore/internal/blob"
	"github.com/mateconpizza/webstore/internal/storage"
)

// Upsert updates the bookmark with b.ID, or inserts b when b.ID is 0 and
// writes the new id back to b. An update of an id missing from the table
// is logged and skipped. When b.Tags is not nil the bookmark's tag
// associations are replaced by it.
func (s *Store) Upsert(ctx context.Context, b *Bookmark) error {
	if err := s.ready(); err != nil {
		return err
	}

	var newID int64

	err := s.db.WithScope(ctx, func(sc *storage.Scope) error {
		id := b.ID
		if id != 0 {
			exists, err := bookmarkExists(sc, id)
			if err != nil {
				return err
			}

			if !exists {
				slog.Warn("bookmark not found, update skipped", "id", id)
				return nil
			}

			if err := updateBookmark(sc, b); err != nil {
				return err
			}
		} else {
			var err error
			if id, err = insertBookmark(sc, b); err != nil {
				return err
			}

			newID = id
		}

		if b.Tags != nil {
			return replaceTags(sc, id, b.Tags)
		}

		return nil
	})
	if err != nil {
		logErr("upsert bookmark", err)
		return err
	}

	if newID != 0 {
		b.ID = newID
		slog.Debug("bookmark inserted", "id", newID, "url", b.URL)
	}

	return nil
}

// thumbnailOf returns the image to persist for b, never nil.
func thumbnailOf(b *Bookmark) *blob.Image {
	if b.Thumbnail.IsEmpty() {
		return blob.Empty()
	}

	return b.Thumbnail
}

func insertBookmark(sc *storage.Scope, b *Bookmark) (int64, error) {
	th := thumbnailOf(b)
	q := sc.MustPrepare(`INSERT INTO BOOKMARK
		(url, title, note, thumbnail, width, height, image_type, dir_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	q.BindText(1, b.URL).
		BindText(2, b.Title).
		BindText(3, b.Note).
		BindBlob(4, th.Data).
		BindInt(5, th.Width).
		BindInt(6, th.Height).
		BindInt(7, int(th.Type)).
		BindInt64(8, b.DirectoryID)

	if err := q.Exec(); err != nil {
		return 0, err
	}

	return q.LastInsertID()
}

func updateBookmark(sc *storage.Scope, b *Bookmark) error {
	th := thumbnailOf(b)
	q := sc.MustPrepare(`UPDATE BOOKMARK SET
		url = ?, title = ?, note = ?, thumbnail = ?,
		width = ?, height = ?, image_type = ?, dir_id = ?
		WHERE id = ?`)
	q.BindText(1, b.URL).
		BindText(2, b.Title).
		BindText(3, b.Note).
		BindBlob(4, th.Data).
		BindInt(5, th.Width).
		BindInt(6, th.Height).
		BindInt(7, int(th.Type)).
		BindInt64(8, b.DirectoryID).
		BindInt64(9, b.ID)

	return q.Exec()
}

func bookmarkExists(sc *storage.Scope, id int64) (bool, error) {
	q := sc.MustPrepare("SELECT 1 FROM BOOKMARK WHERE id = ?")
	q.BindInt64(1, id)

	if err := q.Exec(); err != nil {
		return false, err
	}
	defer q.Close()

	return q.HasNext(), nil
}

// Delete removes b. Unsaved bookmarks are ignored.
func (s *Store) Delete(ctx context.Context, b *Bookmark) error {
	return s.DeleteByID(ctx, b.ID)
}

// DeleteByID removes the bookmark with id. Ids below 1 are ignored.
func (s *Store) DeleteByID(ctx context.Context, id int64) error {
	if err := s.ready(); err != nil {
		return err
	}

	if id <= 0 {
		return nil
	}

	err := s.db.WithScope(ctx, func(sc *storage.Scope) error {
		q := sc.MustPrepare("DELETE FROM BOOKMARK WHERE id = ?")
		q.BindInt64(1, id)

		return q.Exec()
	})
	if err != nil {
		logErr("delete bookmark", err)
		return err
	}

	slog.Debug("bookmark deleted", "id", id)

	return nil
}

// ClearAll deletes every bookmark. Directories and tags are kept.
func (s *Store) ClearAll(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}

	err := s.db.WithScope(ctx, func(sc *storage.Scope) error {
		_, err := sc.Exec("DELETE FROM BOOKMARK")
		return err
	})
	if err != nil {
		logErr("clear bookmarks", err)
		return err
	}

	return nil
}

// readBookmark maps the current row of q, laid out as bookmarkColumns,
// into a Bookmark. With no current row it returns the zero Bookmark.
func readBookmark(q *storage.Query) Bookmark {
	if !q.HasNext() {
		return Bookmark{}
	}

	b := Bookmark{
		ID:          q.GetInt64(0),
		URL:         q.GetString(1),
		Title:       q.GetString(2),
		Note:        q.GetString(7),
		DirectoryID: q.GetInt64(8),
	}

	if data := q.GetBlob(3); len(data) > 0 {
		b.Thumbnail = &blob.Image{
			Width:  q.GetInt(4),
			Height: q.GetInt(5),
			Type:   blob.ImageType(q.GetInt(6)),
			Data:   data,
		}
	}

	return b
}

// readBookmarks drains q.
func readBookmarks(q *storage.Query) ([]Bookmark, error) {
	var bs []Bookmark
	for q.HasNext() {
		b := readBookmark(q)
		if err := q.Err(); err != nil {
			return nil, err
		}

		b.Order = len(bs)
		bs = append(bs, b)
		q.Next()
	}

	return bs, q.Err()
}

// GetByID returns the bookmark with id, or the zero Bookmark (ID 0) when
// it does not exist. Only engine failures are returned as errors.
func (s *Store) GetByID(ctx context.Context, id int64) (Bookmark, error) {
	b, err := s.Find(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Bookmark{}, nil
	}

	return b, err
}

// Find returns the bookmark with id or ErrNotFound.
func (s *Store) Find(ctx context.Context, id int64) (Bookmark, error) {
	if err := s.ready(); err != nil {
		return Bookmark{}, err
	}

	if id == 0 {
		return Bookmark{}, ErrNotFound
	}

	var b Bookmark

	err := s.db.WithScope(ctx, func(sc *storage.Scope) error {
		q := sc.MustPrepare("SELECT " + bookmarkColumns + " FROM BOOKMARK WHERE id = ?")
		q.BindInt64(1, id)

		if err := q.Exec(); err != nil {
			return err
		}

		if !q.HasNext() {
			return fmt.Errorf("%w: id %d", ErrNotFound, id)
		}

		b = readBookmark(q)
		if err := q.Err(); err != nil {
			return err
		}

		q.Close()

		tags, err := tagsForBookmark(sc, id)
		b.Tags = tags

		return err
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logErr("get bookmark", err)
		}

		return Bookmark{}, err
	}

	return b, nil
}

// list runs a bookmark select. Failures are logged and yield an empty
// result.
func (s *Store) list(ctx context.Context, op, query string, args ...int64) []Bookmark {
	if err := s.ready(); err != nil {
		logErr(op, err)
		return []Bookmark{}
	}

	var bs []Bookmark

	err := s.db.WithScope(ctx, func(sc *storage.Scope) error {
		q := sc.MustPrepare(query)
		for i, a := range args {
			q.BindInt64(i+1, a)
		}

		if err := q.Exec(); err != nil {
			return err
		}

		var err error
		if bs, err = readBookmarks(q); err != nil {
			return err
		}

		return attachTags(sc, bs)
	})
	if err != nil {
		logErr(op, err)
		return []Bookmark{}
	}

	if bs == nil {
		return []Bookmark{}
	}

	return bs
}

// GetAll returns every bookmark ordered by id. A failed query yields an
// empty slice.
func (s *Store) GetAll(ctx context.Context) []Bookmark {
	return s.list(ctx, "get all bookmarks", "SELECT "+bookmarkColumns+" FROM BOOKMARK ORDER BY id")
}

// GetByDirectory returns the bookmarks in directory dirID. A failed query
// yields an empty slice.
func (s *Store) GetByDirectory(ctx context.Context, dirID int64) []Bookmark {
	return s.list(ctx, "get bookmarks by directory",
		"SELECT "+bookmarkColumns+" FROM BOOKMARK WHERE dir_id = ? ORDER BY id", dirID)
}

// GetByTags returns the bookmarks carrying any of tagIDs, each once. An
// empty list returns an empty slice without querying.
func (s *Store) GetByTags(ctx context.Context, tagIDs []int64) []Bookmark {
	if len(tagIDs) == 0 {
		return []Bookmark{}
	}

	query, args, err := sqlx.In(`SELECT DISTINCT b.id, b.url, b.title, b.thumbnail, b.width,
		b.height, b.image_type, b.note, b.dir_id
		FROM BOOKMARK b
		JOIN TAG_BOOKMARK tb ON tb.bookmark_id = b.id
		WHERE tb.tag_id IN (?)
		ORDER BY b.id`, tagIDs)
	if err != nil {
		logErr("get bookmarks by tags", err)
		return []Bookmark{}
	}

	ids := make([]int64, len(args))
	for i, a := range args {
		ids[i], _ = a.(int64)
	}

	return s.list(ctx, "get bookmarks by tags", query, ids...)
}

// GetDirectoryContents lists the subdirectories of dirID as folder entries
// followed by its bookmarks, with Order set to the listing position.
func (s *Store) GetDirectoryContents(ctx context.Context, dirID int64) []Bookmark {
	dirs := s.GetSubdirectories(ctx, dirID)
	bs := s.GetByDirectory(ctx, dirID)

	out := make([]Bookmark, 0, len(dirs)+len(bs))
	for _, d := range dirs {
		out = append(out, Bookmark{
			ID:          d.ID,
			Title:       d.Name,
			DirectoryID: d.ParentID,
			IsFolder:    true,
		})
	}

	out = append(out, bs...)
	for i := range out {
		out[i].Order = i
	}

	return out
}

// Count returns the number of bookmarks.
func (s *Store) Count(ctx context.Context) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}

	var n int

	err := s.db.WithScope(ctx, func(sc *storage.Scope) error {
		q := sc.MustPrepare("SELECT COUNT(*) FROM BOOKMARK")
		if err := q.Exec(); err != nil {
			return err
		}

		n = q.GetInt(0)

		return q.Err()
	})
	if err != nil {
		logErr("count bookmarks", err)
		return 0, err
	}

	return n, nil
}
