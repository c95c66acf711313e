package service

import (
	"context"

	"github.com/mateconpizza/webstore/internal/history"
)

// InsertOrRefresh records a visit of it.URL.
func (s *Service) InsertOrRefresh(ctx context.Context, it *history.Item) error {
	h, err := s.hist()
	if err != nil {
		return err
	}

	return h.InsertOrRefresh(ctx, it)
}

// AddHistoryItem inserts it, replacing any item with the same url.
func (s *Service) AddHistoryItem(ctx context.Context, it *history.Item) error {
	h, err := s.hist()
	if err != nil {
		return err
	}

	return h.Add(ctx, it)
}

// DeleteHistoryItem removes the history of url.
func (s *Service) DeleteHistoryItem(ctx context.Context, url string) error {
	h, err := s.hist()
	if err != nil {
		return err
	}

	return h.Delete(ctx, url)
}

// DeleteAllHistory clears the history and its favicons.
func (s *Service) DeleteAllHistory(ctx context.Context) error {
	h, err := s.hist()
	if err != nil {
		return err
	}

	return h.DeleteAll(ctx)
}

// GetHistoryItem returns the history of url, or an item with no visits.
func (s *Service) GetHistoryItem(ctx context.Context, url string) (history.Item, error) {
	h, err := s.hist()
	if err != nil {
		return history.Item{}, err
	}

	return h.GetItem(ctx, url)
}

// GetHistoryItems returns up to maxItems items visited in the last
// depthDays days.
func (s *Service) GetHistoryItems(ctx context.Context, depthDays, maxItems int) []history.Item {
	h, err := s.hist()
	if err != nil {
		return []history.Item{}
	}

	return h.GetItems(ctx, depthDays, maxItems)
}

// HistoryItems returns the result of the last GetHistoryItems call.
func (s *Service) HistoryItems() []history.Item {
	h, err := s.hist()
	if err != nil {
		return []history.Item{}
	}

	return h.Items()
}

// GetHistoryCount returns the number of history items.
func (s *Service) GetHistoryCount(ctx context.Context) (int, error) {
	h, err := s.hist()
	if err != nil {
		return 0, err
	}

	return h.GetCount(ctx)
}

// GetVisitCounter returns the visit counter of url, or -1.
func (s *Service) GetVisitCounter(ctx context.Context, url string) (int, error) {
	h, err := s.hist()
	if err != nil {
		return -1, err
	}

	return h.GetVisitCounter(ctx, url)
}

// GetInt returns the integer setting key, or def.
func (s *Service) GetInt(ctx context.Context, key string, def int) (int, error) {
	st, err := s.conf()
	if err != nil {
		return def, err
	}

	return st.GetInt(ctx, key, def)
}

// GetDouble returns the float setting key, or def.
func (s *Service) GetDouble(ctx context.Context, key string, def float64) (float64, error) {
	st, err := s.conf()
	if err != nil {
		return def, err
	}

	return st.GetDouble(ctx, key, def)
}

// GetText returns the string setting key, or def.
func (s *Service) GetText(ctx context.Context, key, def string) (string, error) {
	st, err := s.conf()
	if err != nil {
		return def, err
	}

	return st.GetText(ctx, key, def)
}

func (s *Service) SetInt(ctx context.Context, key string, v int) error {
	st, err := s.conf()
	if err != nil {
		return err
	}

	return st.SetInt(ctx, key, v)
}

func (s *Service) SetDouble(ctx context.Context, key string, v float64) error {
	st, err := s.conf()
	if err != nil {
		return err
	}

	return st.SetDouble(ctx, key, v)
}

func (s *Service) SetText(ctx context.Context, key, v string) error {
	st, err := s.conf()
	if err != nil {
		return err
	}

	return st.SetText(ctx, key, v)
}
