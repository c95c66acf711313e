package history

import "github.com/mateconpizza/webstore/internal/storage"

const (
	tableFavicon = "FAVICON"
	tableHistory = "HISTORY"
)

var (
	faviconSchema = storage.Schema{
		Name: tableFavicon,
		SQL: `CREATE TABLE FAVICON (
			uri        TEXT PRIMARY KEY,
			width      INTEGER DEFAULT 0,
			height     INTEGER DEFAULT 0,
			image_type INTEGER DEFAULT 0,
			fav_icon   BLOB
		)`,
	}

	historySchema = storage.Schema{
		Name: tableHistory,
		SQL: `CREATE TABLE HISTORY (
			url           TEXT PRIMARY KEY,
			title         TEXT,
			visit_date    DATETIME DEFAULT (datetime('now', 'localtime')),
			visit_counter INTEGER DEFAULT 1,
			uri_fk        TEXT REFERENCES FAVICON(uri) DEFERRABLE INITIALLY DEFERRED
		)`,
		Index: `CREATE INDEX IF NOT EXISTS idx_history_visit_date ON HISTORY(visit_date)`,
	}
)

// Schemas lists the history tables in creation order.
var Schemas = []storage.Schema{faviconSchema, historySchema}

// column layout read by readItem.
const selectFullRow = `SELECT f.fav_icon, f.width, f.height, f.image_type,
	h.url, h.title, h.visit_date, h.visit_counter, h.uri_fk
	FROM HISTORY h LEFT OUTER JOIN FAVICON f ON f.uri = h.uri_fk`

const (
	colFavicon = iota
	colFaviconWidth
	colFaviconHeight
	colFaviconType
	colURL
	colTitle
	colVisitDate
	colVisitCounter
	colURIFK
)
