// Package bookmark stores bookmarks, their directory tree and tags.
package bookmark

import (
	"strings"

	"github.com/mateconpizza/webstore/internal/blob"
)

// RootID is the id of the root directory, present in every database.
const RootID int64 = 0

// Bookmark represents one saved page, or a folder when listed through
// GetDirectoryContents.
type Bookmark struct {
	ID          int64 // 0 means not persisted
	URL         string
	Title       string
	Note        string
	DirectoryID int64
	Order       int
	IsFolder    bool
	Thumbnail   *blob.Image
	Favicon     *blob.Image
	Tags        []int64
}

// New returns an unsaved bookmark in directory dirID.
func New(url, title string, dirID int64) *Bookmark {
	return &Bookmark{URL: url, Title: title, DirectoryID: dirID}
}

// IsSaved reports whether b was assigned an id by the store.
func (b *Bookmark) IsSaved() bool { return b.ID != 0 }

// HasThumbnail reports whether b carries a non-empty thumbnail.
func (b *Bookmark) HasThumbnail() bool { return !b.Thumbnail.IsEmpty() }

// Directory is a folder node. The root has ID and ParentID 0.
type Directory struct {
	ID       int64
	ParentID int64
	Name     string
}

// IsRoot reports whether d is the root directory.
func (d Directory) IsRoot() bool { return d.ID == RootID }

// Tag is a named label.
type Tag struct {
	ID   int64
	Name string
}

// TagMap indexes tags by id.
func TagMap(tags []Tag) map[int64]string {
	m := make(map[int64]string, len(tags))
	for _, t := range tags {
		m[t.ID] = t.Name
	}

	return m
}

// PathString joins directory names, skipping the root.
func PathString(path []Directory) string {
	names := make([]string, 0, len(path))
	for _, d := range path {
		if d.IsRoot() {
			continue
		}

		names = append(names, d.Name)
	}

	return "/" + strings.Join(names, "/")
}
