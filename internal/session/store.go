// Package session saves the open tabs of the browser between runs.
package session

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"sync/atomic"
	"time"

	"github.com/mateconpizza/webstore/internal/storage"
)

var (
	ErrNotInitialized = errors.New("session store not initialized")
	ErrInvalid        = errors.New("session not saved")
)

var (
	sessionSchema = storage.Schema{
		Name: "SESSION_TABLE",
		SQL: `CREATE TABLE SESSION_TABLE (
			id                INTEGER PRIMARY KEY,
			modification_date DATETIME NOT NULL,
			name              TEXT
		)`,
		Index: `CREATE INDEX IF NOT EXISTS SESSION_MODIFICATION_INDEX ON SESSION_TABLE (modification_date)`,
	}

	urlSchema = storage.Schema{
		Name: "URL_TABLE",
		SQL: `CREATE TABLE URL_TABLE (
			session_id INTEGER,
			position   TEXT,
			url        TEXT,
			title      TEXT,
			CONSTRAINT URL_TABLE_PK PRIMARY KEY (session_id, position) ON CONFLICT REPLACE,
			CONSTRAINT URL_TABLE_session_id_FK FOREIGN KEY (session_id)
				REFERENCES SESSION_TABLE (id) ON DELETE CASCADE
		)`,
	}
)

// Schemas lists the session tables in creation order.
var Schemas = []storage.Schema{sessionSchema, urlSchema}

// Tab is one open page of a session.
type Tab struct {
	URL   string
	Title string
}

// Session is a named set of tabs keyed by tab id. A Session with ID 0 was
// never stored.
type Session struct {
	ID       int64
	Name     string
	Modified time.Time
	Tabs     map[string]Tab
}

// IsValid reports whether s exists in storage.
func (s *Session) IsValid() bool { return s != nil && s.ID != 0 }

// TabIDs returns the tab ids of s in order.
func (s *Session) TabIDs() []string {
	return slices.Sorted(maps.Keys(s.Tabs))
}

// Store persists sessions.
type Store struct {
	db          *storage.DB
	initialized atomic.Bool
	now         func() time.Time
}

// NewStore returns a store over db. Init must be called before use.
func NewStore(db *storage.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Init creates the session tables when missing.
func (st *Store) Init(ctx context.Context) error {
	if err := storage.InitSchemas(ctx, st.db, Schemas...); err != nil {
		return err
	}

	st.initialized.Store(true)

	return nil
}

func (st *Store) scope(ctx context.Context, op string, fn func(sc *storage.Scope) error) error {
	if !st.initialized.Load() {
		return ErrNotInitialized
	}

	if err := st.db.WithScope(ctx, fn); err != nil {
		se := storage.AsError(err)
		slog.Error(op, "code", se.Code, "error", se.Msg)

		return err
	}

	return nil
}

func (st *Store) stamp() time.Time {
	return st.now().Truncate(time.Second)
}

// CreateSession stores a new empty session. An empty name defaults to the
// creation time.
func (st *Store) CreateSession(ctx context.Context, name string) (*Session, error) {
	now := st.stamp()
	if name == "" {
		name = now.Format("20060102T150405")
	}

	s := &Session{Name: name, Modified: now, Tabs: map[string]Tab{}}

	err := st.scope(ctx, "create session", func(sc *storage.Scope) error {
		q := sc.MustPrepare("INSERT INTO SESSION_TABLE (modification_date, name) VALUES (?, ?)")
		q.BindText(1, now.Format(storage.TimeLayout)).BindText(2, name)

		if err := q.Exec(); err != nil {
			return err
		}

		var err error
		s.ID, err = q.LastInsertID()

		return err
	})
	if err != nil {
		return nil, err
	}

	return s, nil
}

// LastSession returns the most recently modified session, or nil when
// none is stored.
func (st *Store) LastSession(ctx context.Context) (*Session, error) {
	var s *Session

	err := st.scope(ctx, "last session", func(sc *storage.Scope) error {
		q := sc.MustPrepare(`SELECT id, name, modification_date FROM SESSION_TABLE
			ORDER BY modification_date DESC, id DESC LIMIT 1`)
		if err := q.Exec(); err != nil {
			return err
		}

		if !q.HasNext() {
			return nil
		}

		s = &Session{ID: q.GetInt64(0), Name: q.GetString(1), Modified: q.GetTime(2)}
		if err := q.Err(); err != nil {
			return err
		}

		q.Close()

		return readTabs(sc, s)
	})
	if err != nil {
		return nil, err
	}

	return s, nil
}

// AllSessions returns every session with its tabs, newest first.
func (st *Store) AllSessions(ctx context.Context) ([]Session, error) {
	var out []Session

	err := st.scope(ctx, "all sessions", func(sc *storage.Scope) error {
		q := sc.MustPrepare(`SELECT id, name, modification_date FROM SESSION_TABLE
			ORDER BY modification_date DESC, id DESC`)
		if err := q.Exec(); err != nil {
			return err
		}

		for q.HasNext() {
			out = append(out, Session{ID: q.GetInt64(0), Name: q.GetString(1), Modified: q.GetTime(2)})
			q.Next()
		}

		if err := q.Err(); err != nil {
			return err
		}

		for i := range out {
			if err := readTabs(sc, &out[i]); err != nil {
				return err
			}
		}

		return nil
	})

	return out, err
}

func readTabs(sc *storage.Scope, s *Session) error {
	q := sc.MustPrepare("SELECT position, url, title FROM URL_TABLE WHERE session_id = ?")
	q.BindInt64(1, s.ID)

	if err := q.Exec(); err != nil {
		return err
	}

	s.Tabs = map[string]Tab{}
	for q.HasNext() {
		s.Tabs[q.GetString(0)] = Tab{URL: q.GetString(1), Title: q.GetString(2)}
		q.Next()
	}

	return q.Err()
}

// Save replaces the stored tabs of s with s.Tabs and refreshes its
// modification time.
func (st *Store) Save(ctx context.Context, s *Session) error {
	if !s.IsValid() {
		return ErrInvalid
	}

	now := st.stamp()

	err := st.scope(ctx, "save session", func(sc *storage.Scope) error {
		del := sc.MustPrepare("DELETE FROM URL_TABLE WHERE session_id = ?")
		del.BindInt64(1, s.ID)

		if err := del.Exec(); err != nil {
			return err
		}

		for _, id := range s.TabIDs() {
			if err := putTab(sc, s.ID, id, s.Tabs[id]); err != nil {
				return err
			}
		}

		return touch(sc, s.ID, now)
	})
	if err != nil {
		return err
	}

	s.Modified = now

	return nil
}

// UpdateItem adds or replaces one tab of s and stores it.
func (st *Store) UpdateItem(ctx context.Context, s *Session, tabID string, tab Tab) error {
	if !s.IsValid() {
		return ErrInvalid
	}

	now := st.stamp()

	err := st.scope(ctx, "update session item", func(sc *storage.Scope) error {
		if err := putTab(sc, s.ID, tabID, tab); err != nil {
			return err
		}

		return touch(sc, s.ID, now)
	})
	if err != nil {
		return err
	}

	if s.Tabs == nil {
		s.Tabs = map[string]Tab{}
	}

	s.Tabs[tabID] = tab
	s.Modified = now

	return nil
}

// RemoveItem deletes tab tabID from s.
func (st *Store) RemoveItem(ctx context.Context, s *Session, tabID string) error {
	if !s.IsValid() {
		return ErrInvalid
	}

	now := st.stamp()

	err := st.scope(ctx, "remove session item", func(sc *storage.Scope) error {
		q := sc.MustPrepare("DELETE FROM URL_TABLE WHERE session_id = ? AND position = ?")
		q.BindInt64(1, s.ID).BindText(2, tabID)

		if err := q.Exec(); err != nil {
			return err
		}

		return touch(sc, s.ID, now)
	})
	if err != nil {
		return err
	}

	delete(s.Tabs, tabID)
	s.Modified = now

	return nil
}

// Rename changes the name of s.
func (st *Store) Rename(ctx context.Context, s *Session, name string) error {
	if !s.IsValid() {
		return ErrInvalid
	}

	err := st.scope(ctx, "rename session", func(sc *storage.Scope) error {
		q := sc.MustPrepare("UPDATE SESSION_TABLE SET name = ? WHERE id = ?")
		q.BindText(1, name).BindInt64(2, s.ID)

		return q.Exec()
	})
	if err != nil {
		return err
	}

	s.Name = name

	return nil
}

// DeleteSession removes s and its tabs.
func (st *Store) DeleteSession(ctx context.Context, s *Session) error {
	if !s.IsValid() {
		return ErrInvalid
	}

	return st.scope(ctx, "delete session", func(sc *storage.Scope) error {
		q := sc.MustPrepare("DELETE FROM SESSION_TABLE WHERE id = ?")
		q.BindInt64(1, s.ID)

		return q.Exec()
	})
}

// DeleteAll removes every session.
func (st *Store) DeleteAll(ctx context.Context) error {
	return st.scope(ctx, "delete sessions", func(sc *storage.Scope) error {
		_, err := sc.Exec("DELETE FROM SESSION_TABLE")
		return err
	})
}

// GetURLTitle returns the title stored for url in any session, or "".
func (st *Store) GetURLTitle(ctx context.Context, url string) (string, error) {
	var title string

	err := st.scope(ctx, "get url title", func(sc *storage.Scope) error {
		q := sc.MustPrepare("SELECT title FROM URL_TABLE WHERE url = ? LIMIT 1")
		q.BindText(1, url)

		if err := q.Exec(); err != nil {
			return err
		}

		if q.HasNext() {
			title = q.GetString(0)
		}

		return q.Err()
	})

	return title, err
}

func putTab(sc *storage.Scope, sessionID int64, tabID string, tab Tab) error {
	q := sc.MustPrepare("INSERT OR REPLACE INTO URL_TABLE (session_id, position, url, title) VALUES (?, ?, ?, ?)")
	q.BindInt64(1, sessionID).BindText(2, tabID).BindText(3, tab.URL).BindText(4, tab.Title)

	return q.Exec()
}

func touch(sc *storage.Scope, sessionID int64, t time.Time) error {
	q := sc.MustPrepare("UPDATE SESSION_TABLE SET modification_date = ? WHERE id = ?")
	q.BindText(1, t.Format(storage.TimeLayout)).BindInt64(2, sessionID)

	return q.Exec()
}
