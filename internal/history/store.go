package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/mateconpizza/webstore/internal/blob"
	"github.com/mateconpizza/webstore/internal/storage"
)

// Store persists history items and favicons.
type Store struct {
	db          *storage.DB
	initialized atomic.Bool

	mu    sync.Mutex
	items []Item // result of the last GetItems
}

// NewStore returns a store over db. Init must be called before use.
func NewStore(db *storage.DB) *Store {
	return &Store{db: db}
}

// Init creates the FAVICON and HISTORY tables when missing.
func (s *Store) Init(ctx context.Context) error {
	if err := storage.InitSchemas(ctx, s.db, Schemas...); err != nil {
		return err
	}

	s.initialized.Store(true)
	slog.Debug("history store initialized", "path", s.db.Path())

	return nil
}

// Initialized reports whether Init succeeded.
func (s *Store) Initialized() bool { return s.initialized.Load() }

// scope runs fn in a scope after the init check, converting failures into
// *Error.
func (s *Store) scope(ctx context.Context, op string, fn func(sc *storage.Scope) error) error {
	if !s.initialized.Load() {
		return ErrNotInitialized
	}

	if err := s.db.WithScope(ctx, fn); err != nil {
		err = wrap(err)

		var he *Error
		if errors.As(err, &he) {
			slog.Error(op, "code", he.Code, "error", he.Msg)
		}

		return err
	}

	return nil
}

// InsertOrRefresh records a visit of it.URL: an existing row has its
// counter incremented and its date set to now, otherwise it is added.
func (s *Store) InsertOrRefresh(ctx context.Context, it *Item) error {
	if it.URL == "" {
		return ErrURLEmpty
	}

	return s.scope(ctx, "insert or refresh history", func(sc *storage.Scope) error {
		sel := sc.MustPrepare("SELECT visit_counter FROM HISTORY WHERE url = ?")
		sel.BindText(1, it.URL)

		if err := sel.Exec(); err != nil {
			return err
		}

		found := sel.HasNext()
		sel.Close()

		if !found {
			return addItem(sc, it)
		}

		upd := sc.MustPrepare(`UPDATE HISTORY
			SET visit_counter = visit_counter + 1, visit_date = (datetime('now', 'localtime'))
			WHERE url = ?`)
		upd.BindText(1, it.URL)

		return upd.Exec()
	})
}

// Add inserts it, replacing any row with the same url. The favicon, when
// present, is stored under the url unless one is stored already.
func (s *Store) Add(ctx context.Context, it *Item) error {
	if it.URL == "" {
		return ErrURLEmpty
	}

	return s.scope(ctx, "add history item", func(sc *storage.Scope) error {
		return addItem(sc, it)
	})
}

func addItem(sc *storage.Scope, it *Item) error {
	sel := sc.MustPrepare("SELECT uri FROM FAVICON WHERE uri = ?")
	sel.BindText(1, it.URL)

	if err := sel.Exec(); err != nil {
		return err
	}

	hasFavicon := sel.HasNext()
	sel.Close()

	if !hasFavicon && !it.Favicon.IsEmpty() {
		ins := sc.MustPrepare(`INSERT INTO FAVICON (uri, width, height, image_type, fav_icon)
			VALUES (?, ?, ?, ?, ?)`)
		ins.BindText(1, it.URL).
			BindInt(2, it.Favicon.Width).
			BindInt(3, it.Favicon.Height).
			BindInt(4, int(it.Favicon.Type)).
			BindBlob(5, it.Favicon.Data)

		if err := ins.Exec(); err != nil {
			return err
		}

		hasFavicon = true
	}

	q := sc.MustPrepare("INSERT OR REPLACE INTO HISTORY (url, title, uri_fk) VALUES (?, ?, ?)")
	q.BindText(1, it.URL).BindText(2, it.Title)

	// the reference is deferred-checked: leave it NULL without a favicon row
	if hasFavicon {
		q.BindText(3, it.URL)
	} else {
		q.BindNull(3)
	}

	return q.Exec()
}

// GetFavicon returns the favicon stored for url, or the empty placeholder
// when there is none.
func (s *Store) GetFavicon(ctx context.Context, url string) (*blob.Image, error) {
	img := blob.Empty()

	err := s.scope(ctx, "get favicon", func(sc *storage.Scope) error {
		q := sc.MustPrepare(`SELECT f.fav_icon, f.width, f.height, f.image_type
			FROM FAVICON f, HISTORY h
			WHERE f.uri = h.uri_fk AND h.url = ?`)
		q.BindText(1, url)

		if err := q.Exec(); err != nil {
			return err
		}

		if !q.HasNext() {
			return nil
		}

		if data := q.GetBlob(0); len(data) > 0 {
			img = &blob.Image{
				Width:  q.GetInt(1),
				Height: q.GetInt(2),
				Type:   blob.ImageType(q.GetInt(3)),
				Data:   data,
			}
		}

		return q.Err()
	})
	if err != nil {
		return nil, err
	}

	return img, nil
}

// Delete removes the history row of url and its favicon when no other row
// references it.
func (s *Store) Delete(ctx context.Context, url string) error {
	err := s.scope(ctx, "delete history item", func(sc *storage.Scope) error {
		q := sc.MustPrepare("DELETE FROM HISTORY WHERE url = ?")
		q.BindText(1, url)

		if err := q.Exec(); err != nil {
			return err
		}

		fav := sc.MustPrepare(`DELETE FROM FAVICON WHERE uri = ?
			AND NOT EXISTS (SELECT 1 FROM HISTORY WHERE uri_fk = ?)`)
		fav.BindText(1, url).BindText(2, url)

		return fav.Exec()
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	for i := range s.items {
		if s.items[i].URL == url {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	return nil
}

// DeleteAll clears history and favicons together.
func (s *Store) DeleteAll(ctx context.Context) error {
	err := s.scope(ctx, "delete history", func(sc *storage.Scope) error {
		if _, err := sc.Exec("DELETE FROM HISTORY"); err != nil {
			return err
		}

		_, err := sc.Exec("DELETE FROM FAVICON")

		return err
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()

	return nil
}

// readItem maps the current row, laid out as selectFullRow, into an Item.
// A missing or empty favicon yields the placeholder image.
func readItem(q *storage.Query) Item {
	it := Item{
		URL:          q.GetString(colURL),
		Title:        q.GetString(colTitle),
		LastVisit:    q.GetTime(colVisitDate),
		VisitCounter: q.GetInt(colVisitCounter),
		FaviconURI:   q.GetString(colURIFK),
		Favicon:      blob.Empty(),
	}

	if data := q.GetBlob(colFavicon); len(data) > 0 {
		it.Favicon = &blob.Image{
			Width:  q.GetInt(colFaviconWidth),
			Height: q.GetInt(colFaviconHeight),
			Type:   blob.ImageType(q.GetInt(colFaviconType)),
			Data:   data,
		}
	}

	return it
}

// Find returns the history item of url or ErrNotFound.
func (s *Store) Find(ctx context.Context, url string) (Item, error) {
	var it Item

	err := s.scope(ctx, "get history item", func(sc *storage.Scope) error {
		q := sc.MustPrepare(selectFullRow + " WHERE h.url = ?")
		q.BindText(1, url)

		if err := q.Exec(); err != nil {
			return err
		}

		if !q.HasNext() {
			return fmt.Errorf("%w: %q", ErrNotFound, url)
		}

		it = readItem(q)

		return q.Err()
	})
	if err != nil {
		return Item{}, err
	}

	return it, nil
}

// GetItem returns the history item of url. A url without history yields
// an item carrying only the url, with an empty title and no visits.
func (s *Store) GetItem(ctx context.Context, url string) (Item, error) {
	it, err := s.Find(ctx, url)
	if errors.Is(err, ErrNotFound) {
		return absent(url), nil
	}

	return it, err
}

// GetItems returns up to maxItems items visited within the last depthDays
// days, most recent first. The result replaces the buffer returned by
// Items. A failed query is logged and yields an empty slice.
func (s *Store) GetItems(ctx context.Context, depthDays, maxItems int) []Item {
	var items []Item

	err := s.scope(ctx, "get history items", func(sc *storage.Scope) error {
		q := sc.MustPrepare(selectFullRow + `
			WHERE h.visit_date >= date('now', 'localtime', ?)
			ORDER BY h.visit_date DESC
			LIMIT ?`)
		q.BindText(1, fmt.Sprintf("-%d day", max(depthDays, 0))).BindInt(2, maxItems)

		if err := q.Exec(); err != nil {
			return err
		}

		for q.HasNext() {
			items = append(items, readItem(q))
			q.Next()
		}

		return q.Err()
	})
	if err != nil {
		if errors.Is(err, ErrNotInitialized) {
			slog.Warn("get history items", "error", err)
		}

		items = nil
	}

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()

	if items == nil {
		return []Item{}
	}

	out := make([]Item, len(items))
	for i := range items {
		out[i] = items[i].clone()
	}

	return out
}

// Items returns a copy of the result of the last GetItems call.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Item, len(s.items))
	for i := range s.items {
		out[i] = s.items[i].clone()
	}

	return out
}

// GetCount returns the number of history rows.
func (s *Store) GetCount(ctx context.Context) (int, error) {
	var n int

	err := s.scope(ctx, "count history", func(sc *storage.Scope) error {
		q := sc.MustPrepare("SELECT COUNT(*) FROM HISTORY")
		if err := q.Exec(); err != nil {
			return err
		}

		n = q.GetInt(0)

		return q.Err()
	})

	return n, err
}

// GetVisitCounter returns the visit counter of url, or -1 when url has no
// history row.
func (s *Store) GetVisitCounter(ctx context.Context, url string) (int, error) {
	n := -1

	err := s.scope(ctx, "get visit counter", func(sc *storage.Scope) error {
		q := sc.MustPrepare("SELECT visit_counter FROM HISTORY WHERE url = ?")
		q.BindText(1, url)

		if err := q.Exec(); err != nil {
			return err
		}

		if q.HasNext() {
			n = q.GetInt(0)
		}

		return q.Err()
	})
	if err != nil {
		return -1, err
	}

	return n, nil
}
