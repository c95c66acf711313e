// Package service is the single entry point to the browser storage. It
// owns the database handles and the stores built on them.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mateconpizza/webstore/internal/blob"
	"github.com/mateconpizza/webstore/internal/bookmark"
	"github.com/mateconpizza/webstore/internal/config"
	"github.com/mateconpizza/webstore/internal/history"
	"github.com/mateconpizza/webstore/internal/session"
	"github.com/mateconpizza/webstore/internal/settings"
	"github.com/mateconpizza/webstore/internal/storage"
)

var (
	ErrNotInitialized = errors.New("storage service not initialized")
	ErrClosed         = errors.New("storage service closed")
)

// Service composes the bookmark, history, settings and session stores.
type Service struct {
	cfg *config.Config
	reg *storage.Registry

	mu        sync.RWMutex
	closed    bool
	bookmarks *bookmark.Store
	history   *history.Store
	settings  *settings.Store
	sessions  *session.Store
	dbs       []*storage.DB
}

// New returns a service over the files named in cfg. Init must be called
// before use.
func New(cfg *config.Config) *Service {
	return &Service{cfg: cfg, reg: storage.NewRegistry(cfg.Driver)}
}

// Init opens every database and creates missing tables. In test mode the
// history and settings use their test files; bookmarks and sessions keep
// their location. Calling Init again is a no-op.
func (s *Service) Init(ctx context.Context, testMode bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	if s.bookmarks != nil {
		return nil
	}

	historyDB, settingsDB := s.cfg.HistoryDB, s.cfg.SettingsDB
	if testMode {
		historyDB, settingsDB = s.cfg.HistoryTestDB, s.cfg.SettingsTestDB
	}

	dbs := make([]*storage.DB, 4)

	var (
		bs *bookmark.Store
		hs *history.Store
		ss *settings.Store
		se *session.Store
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		db, err := s.reg.Get(gctx, s.cfg.Path(s.cfg.BookmarksDB))
		if err != nil {
			return fmt.Errorf("bookmarks: %w", err)
		}

		dbs[0] = db
		bs = bookmark.NewStore(db)

		return bs.Init(gctx)
	})
	g.Go(func() error {
		db, err := s.reg.Get(gctx, s.cfg.Path(historyDB))
		if err != nil {
			return fmt.Errorf("history: %w", err)
		}

		dbs[1] = db
		hs = history.NewStore(db)

		return hs.Init(gctx)
	})
	g.Go(func() error {
		db, err := s.reg.Get(gctx, s.cfg.Path(settingsDB))
		if err != nil {
			return fmt.Errorf("settings: %w", err)
		}

		dbs[2] = db
		ss = settings.NewStore(db)

		return ss.Init(gctx)
	})
	g.Go(func() error {
		db, err := s.reg.Get(gctx, s.cfg.Path(s.cfg.SessionDB))
		if err != nil {
			return fmt.Errorf("session: %w", err)
		}

		dbs[3] = db
		se = session.NewStore(db)

		return se.Init(gctx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("storage init", "error", err)
		return err
	}

	s.bookmarks, s.history, s.settings, s.sessions = bs, hs, ss, se
	s.dbs = dbs
	slog.Debug("storage initialized", "dir", s.cfg.Dir, "test", testMode)

	return nil
}

// Close closes every database. The service is unusable afterwards.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.reg.Close()
}

// Backup copies every database into dir and returns the paths of the
// copies.
func (s *Service) Backup(ctx context.Context, dir string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	if s.dbs == nil {
		return nil, ErrNotInitialized
	}

	now := time.Now()
	paths := make([]string, 0, len(s.dbs))

	for _, db := range s.dbs {
		p, err := db.Backup(ctx, dir, now)
		if err != nil {
			return paths, err
		}

		paths = append(paths, p)
	}

	return paths, nil
}

// Bookmarks returns the bookmark store, or nil before Init.
func (s *Service) Bookmarks() *bookmark.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.bookmarks
}

// Settings returns the settings store, or nil before Init.
func (s *Service) Settings() *settings.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.settings
}

// Sessions returns the session store, or nil before Init.
func (s *Service) Sessions() *session.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sessions
}

func (s *Service) hist() (*history.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	if s.history == nil {
		return nil, ErrNotInitialized
	}

	return s.history, nil
}

func (s *Service) conf() (*settings.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	if s.settings == nil {
		return nil, ErrNotInitialized
	}

	return s.settings, nil
}

// DecorateFavicons fills the Favicon of each bookmark from the history
// favicon stored for its URL. Bookmarks without one get an empty image.
func (s *Service) DecorateFavicons(ctx context.Context, bs []bookmark.Bookmark) error {
	h, err := s.hist()
	if err != nil {
		return err
	}

	for i := range bs {
		if bs[i].IsFolder || bs[i].URL == "" {
			continue
		}

		img, err := h.GetFavicon(ctx, bs[i].URL)
		if err != nil {
			return err
		}

		bs[i].Favicon = img
	}

	return nil
}

// Favicon returns the favicon stored for url.
func (s *Service) Favicon(ctx context.Context, url string) (*blob.Image, error) {
	h, err := s.hist()
	if err != nil {
		return nil, err
	}

	return h.GetFavicon(ctx, url)
}
