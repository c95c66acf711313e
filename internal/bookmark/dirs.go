package bookmark

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mateconpizza/webstore/internal/storage"
)

// MaxDirectoryDepth bounds the parent walk of GetDirectoryPath.
const MaxDirectoryDepth = 256

// AddDirectory creates a directory called name under parentID and returns
// its id. Names are not unique within a parent.
func (s *Store) AddDirectory(ctx context.Context, name string, parentID int64) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}

	var id int64

	err := s.db.WithScope(ctx, func(sc *storage.Scope) error {
		q := sc.MustPrepare("INSERT INTO DIR (parent_id, name) VALUES (?, ?)")
		q.BindInt64(1, parentID).BindText(2, name)

		if err := q.Exec(); err != nil {
			return err
		}

		var err error
		id, err = q.LastInsertID()

		return err
	})
	if err != nil {
		logErr("add directory", err)
		return 0, err
	}

	slog.Debug("directory created", "id", id, "parent", parentID, "name", name)

	return id, nil
}

// RemoveDirectory deletes directory id together with its subdirectories
// and the bookmarks they contain.
func (s *Store) RemoveDirectory(ctx context.Context, id int64) error {
	if id == RootID {
		return ErrRootDirectory
	}

	return s.exec(ctx, "remove directory", "DELETE FROM DIR WHERE id = ?", id)
}

// RenameDirectory sets the name of directory id.
func (s *Store) RenameDirectory(ctx context.Context, id int64, name string) error {
	if id == RootID {
		return ErrRootDirectory
	}

	if err := s.ready(); err != nil {
		return err
	}

	err := s.db.WithScope(ctx, func(sc *storage.Scope) error {
		q := sc.MustPrepare("UPDATE DIR SET name = ? WHERE id = ?")
		q.BindText(1, name).BindInt64(2, id)

		if err := q.Exec(); err != nil {
			return err
		}

		if q.RowsAffected() == 0 {
			return fmt.Errorf("%w: id %d", ErrDirNotFound, id)
		}

		return nil
	})
	if err != nil {
		logErr("rename directory", err)
		return err
	}

	return nil
}

// GetDirectory returns directory id or ErrDirNotFound.
func (s *Store) GetDirectory(ctx context.Context, id int64) (Directory, error) {
	if err := s.ready(); err != nil {
		return Directory{}, err
	}

	var d Directory

	err := s.db.WithScope(ctx, func(sc *storage.Scope) error {
		var err error
		d, err = getDir(sc, id)

		return err
	})

	return d, err
}

func getDir(sc *storage.Scope, id int64) (Directory, error) {
	q := sc.MustPrepare("SELECT id, parent_id, name FROM DIR WHERE id = ?")
	q.BindInt64(1, id)

	if err := q.Exec(); err != nil {
		return Directory{}, err
	}

	if !q.HasNext() {
		return Directory{}, fmt.Errorf("%w: id %d", ErrDirNotFound, id)
	}

	d := Directory{ID: q.GetInt64(0), ParentID: q.GetInt64(1), Name: q.GetString(2)}
	q.Close()

	return d, q.Err()
}

// GetDirectoryPath returns the directories from the root down to id. A
// parent chain that loops or exceeds MaxDirectoryDepth fails with
// ErrDirectoryCycle.
func (s *Store) GetDirectoryPath(ctx context.Context, id int64) ([]Directory, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	var path []Directory

	err := s.db.WithScope(ctx, func(sc *storage.Scope) error {
		var err error
		path, err = walkToRoot(sc, id)

		return err
	})
	if err != nil {
		logErr("get directory path", err)
		return nil, err
	}

	return path, nil
}

// walkToRoot follows parent_id from id up to the root and returns the
// chain root first.
func walkToRoot(sc *storage.Scope, id int64) ([]Directory, error) {
	seen := make(map[int64]bool)

	var rev []Directory

	cur := id
	for {
		if seen[cur] {
			return nil, fmt.Errorf("%w: directory %d visited twice", ErrDirectoryCycle, cur)
		}

		if len(rev) >= MaxDirectoryDepth {
			return nil, fmt.Errorf("%w: more than %d levels", ErrDirectoryTooDeep, MaxDirectoryDepth)
		}

		seen[cur] = true

		d, err := getDir(sc, cur)
		if err != nil {
			return nil, err
		}

		rev = append(rev, d)
		if d.IsRoot() {
			break
		}

		cur = d.ParentID
	}

	path := make([]Directory, len(rev))
	for i, d := range rev {
		path[len(rev)-1-i] = d
	}

	return path, nil
}

// MoveDirectory makes newParentID the parent of id. Moving a directory
// under itself or one of its descendants fails with ErrDirectoryCycle.
func (s *Store) MoveDirectory(ctx context.Context, id, newParentID int64) error {
	if id == RootID {
		return ErrRootDirectory
	}

	if err := s.ready(); err != nil {
		return err
	}

	err := s.db.WithScope(ctx, func(sc *storage.Scope) error {
		if _, err := getDir(sc, id); err != nil {
			return err
		}

		ancestors, err := walkToRoot(sc, newParentID)
		if err != nil {
			return err
		}

		for _, a := range ancestors {
			if a.ID == id {
				return fmt.Errorf("%w: %d is an ancestor of %d", ErrDirectoryCycle, id, newParentID)
			}
		}

		q := sc.MustPrepare("UPDATE DIR SET parent_id = ? WHERE id = ?")
		q.BindInt64(1, newParentID).BindInt64(2, id)

		return q.Exec()
	})
	if err != nil {
		logErr("move directory", err)
		return err
	}

	return nil
}

// GetSubdirectories returns the direct children of parentID ordered by
// name. A failed query yields an empty slice.
func (s *Store) GetSubdirectories(ctx context.Context, parentID int64) []Directory {
	dirs := []Directory{}

	if err := s.ready(); err != nil {
		logErr("get subdirectories", err)
		return dirs
	}

	err := s.db.WithScope(ctx, func(sc *storage.Scope) error {
		q := sc.MustPrepare(`SELECT id, parent_id, name FROM DIR
			WHERE parent_id = ? AND id != 0 ORDER BY name, id`)
		q.BindInt64(1, parentID)

		if err := q.Exec(); err != nil {
			return err
		}

		for q.HasNext() {
			dirs = append(dirs, Directory{ID: q.GetInt64(0), ParentID: q.GetInt64(1), Name: q.GetString(2)})
			q.Next()
		}

		return q.Err()
	})
	if err != nil {
		logErr("get subdirectories", err)
		return []Directory{}
	}

	return dirs
}
