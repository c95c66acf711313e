package settings

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/ini.v1"
)

// Sections of an INI settings file. Keys are stored with the type of the
// section they appear in.
const (
	SectionInt    = "int"
	SectionDouble = "double"
	SectionText   = "text"
)

// ImportINI stores every key of the [int], [double] and [text] sections of
// r. Other sections are ignored. It returns the number of keys stored.
func (s *Store) ImportINI(ctx context.Context, r io.Reader) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("reading settings: %w", err)
	}

	f, err := ini.Load(data)
	if err != nil {
		return 0, fmt.Errorf("parsing settings: %w", err)
	}

	var n int

	for _, sec := range f.Sections() {
		for _, k := range sec.Keys() {
			switch sec.Name() {
			case SectionInt:
				v, err := k.Int()
				if err != nil {
					return n, fmt.Errorf("key %q: %w", k.Name(), err)
				}

				if err := s.SetInt(ctx, k.Name(), v); err != nil {
					return n, err
				}
			case SectionDouble:
				v, err := k.Float64()
				if err != nil {
					return n, fmt.Errorf("key %q: %w", k.Name(), err)
				}

				if err := s.SetDouble(ctx, k.Name(), v); err != nil {
					return n, err
				}
			case SectionText:
				if err := s.SetText(ctx, k.Name(), k.String()); err != nil {
					return n, err
				}
			default:
				slog.Debug("settings import: section skipped", "section", sec.Name(), "key", k.Name())
				continue
			}

			n++
		}
	}

	slog.Info("settings imported", "count", n)

	return n, nil
}
