package bookmark

import "github.com/mateconpizza/webstore/internal/storage"

const (
	tableDir         = "DIR"
	tableBookmark    = "BOOKMARK"
	tableTag         = "TAG"
	tableTagBookmark = "TAG_BOOKMARK"
)

// the column order is relied upon by readBookmark.
const bookmarkColumns = "id, url, title, thumbnail, width, height, image_type, note, dir_id"

var (
	dirSchema = storage.Schema{
		Name: tableDir,
		SQL: `CREATE TABLE DIR (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			parent_id INTEGER DEFAULT 0,
			name      TEXT,
			CONSTRAINT FK_parent_id FOREIGN KEY (parent_id) REFERENCES DIR(id)
				ON DELETE CASCADE ON UPDATE CASCADE
		)`,
		Seed: `INSERT OR IGNORE INTO DIR (id, parent_id, name) VALUES (0, 0, 'root')`,
	}

	bookmarkSchema = storage.Schema{
		Name: tableBookmark,
		SQL: `CREATE TABLE BOOKMARK (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			url        TEXT,
			title      TEXT,
			thumbnail  BLOB,
			width      INTEGER DEFAULT 0,
			height     INTEGER DEFAULT 0,
			image_type INTEGER DEFAULT 0,
			note       TEXT,
			dir_id     INTEGER,
			CONSTRAINT FK_bookmark_dir_id FOREIGN KEY (dir_id) REFERENCES DIR(id)
				ON DELETE CASCADE ON UPDATE CASCADE
		)`,
		Index: `CREATE INDEX IF NOT EXISTS idx_bookmark_dir_id ON BOOKMARK(dir_id)`,
	}

	tagSchema = storage.Schema{
		Name: tableTag,
		SQL: `CREATE TABLE TAG (
			id   INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT,
			CONSTRAINT UK_tag_name UNIQUE (name)
		)`,
	}

	tagBookmarkSchema = storage.Schema{
		Name: tableTagBookmark,
		SQL: `CREATE TABLE TAG_BOOKMARK (
			tag_id      INTEGER,
			bookmark_id INTEGER,
			CONSTRAINT FK_tag_id FOREIGN KEY (tag_id) REFERENCES TAG(id)
				ON UPDATE CASCADE ON DELETE CASCADE,
			CONSTRAINT FK_bookmark_id FOREIGN KEY (bookmark_id) REFERENCES BOOKMARK(id)
				ON UPDATE CASCADE ON DELETE CASCADE,
			PRIMARY KEY (tag_id, bookmark_id)
		)`,
		Index: `CREATE INDEX IF NOT EXISTS idx_tag_bookmark_bookmark_id ON TAG_BOOKMARK(bookmark_id)`,
	}
)

// Schemas lists the bookmark tables in creation order.
var Schemas = []storage.Schema{dirSchema, bookmarkSchema, tagSchema, tagBookmarkSchema}
