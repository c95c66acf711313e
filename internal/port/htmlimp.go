// Package port imports and exports bookmarks in the Netscape bookmark file
// format used by most browsers.
package port

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/mateconpizza/webstore/internal/blob"
	"github.com/mateconpizza/webstore/internal/bookmark"
)

var ErrNoNetscapeFile = errors.New("file does not appear to be a valid Netscape bookmark file")

const netscapeDoctype = "NETSCAPE-Bookmark-file-1"

// Target receives imported folders and bookmarks.
type Target interface {
	AddDirectory(ctx context.Context, name string, parentID int64) (int64, error)
	AddTag(ctx context.Context, name string) (int64, error)
	Upsert(ctx context.Context, b *bookmark.Bookmark) error
}

// Stats counts what an import created.
type Stats struct {
	Directories int
	Bookmarks   int
	Skipped     int
}

type importer struct {
	ctx    context.Context
	target Target
	tags   map[string]int64
	stats  Stats
}

// ImportNetscape reads a Netscape bookmark file from r into target below
// directory parentID. Folders become directories, links become bookmarks
// and the TAGS attribute becomes tags. Links without a URL are skipped.
func ImportNetscape(ctx context.Context, r io.Reader, target Target, parentID int64) (Stats, error) {
	node, err := html.Parse(r)
	if err != nil {
		return Stats{}, fmt.Errorf("error parsing HTML: %w", err)
	}

	if !IsNetscape(node) {
		return Stats{}, ErrNoNetscapeFile
	}

	root := goquery.NewDocumentFromNode(node).Find("dl").First()
	if root.Length() == 0 {
		return Stats{}, nil
	}

	im := &importer{ctx: ctx, target: target, tags: make(map[string]int64)}
	if err := im.walkList(root, parentID); err != nil {
		return im.stats, err
	}

	slog.Info("netscape import done",
		"directories", im.stats.Directories, "bookmarks", im.stats.Bookmarks, "skipped", im.stats.Skipped)

	return im.stats, nil
}

// IsNetscape reports whether doc carries the Netscape bookmark doctype.
func IsNetscape(doc *html.Node) bool {
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.DoctypeNode {
			return strings.EqualFold(c.Data, netscapeDoctype)
		}
	}

	return false
}

// walkList imports the entries of list dl into directory parentID.
func (im *importer) walkList(dl *goquery.Selection, parentID int64) error {
	entries := dl.Find("dt").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.Closest("dl").IsSelection(dl)
	})

	var err error

	entries.EachWithBreak(func(_ int, dt *goquery.Selection) bool {
		if err = im.ctx.Err(); err != nil {
			return false
		}

		if h3 := dt.ChildrenFiltered("h3").First(); h3.Length() > 0 {
			err = im.folder(dt, h3, parentID)
		} else if a := dt.ChildrenFiltered("a").First(); a.Length() > 0 {
			err = im.link(dt, a, parentID)
		}

		return err == nil
	})

	return err
}

func (im *importer) folder(dt, h3 *goquery.Selection, parentID int64) error {
	name := strings.TrimSpace(h3.Text())

	id, err := im.target.AddDirectory(im.ctx, name, parentID)
	if err != nil {
		return fmt.Errorf("creating directory %q: %w", name, err)
	}

	im.stats.Directories++

	sub := dt.ChildrenFiltered("dl").First()
	if sub.Length() == 0 {
		// some exporters close the DT before the nested list
		if next := dt.Next(); next.Is("dl") {
			sub = next
		}
	}

	if sub.Length() == 0 {
		return nil
	}

	return im.walkList(sub, id)
}

func (im *importer) link(dt, a *goquery.Selection, parentID int64) error {
	href, _ := a.Attr("href")
	if href == "" {
		im.stats.Skipped++
		return nil
	}

	b := bookmark.New(href, strings.TrimSpace(a.Text()), parentID)

	if dd := dt.Next(); dd.Is("dd") {
		b.Note = strings.TrimSpace(dd.Text())
	}

	if icon, ok := a.Attr("icon"); ok {
		b.Thumbnail = decodeDataURI(icon)
	}

	if raw, ok := a.Attr("tags"); ok {
		ids, err := im.tagIDs(raw)
		if err != nil {
			return err
		}

		b.Tags = ids
	}

	if err := im.target.Upsert(im.ctx, b); err != nil {
		return fmt.Errorf("importing %q: %w", href, err)
	}

	im.stats.Bookmarks++

	return nil
}

func (im *importer) tagIDs(raw string) ([]int64, error) {
	var ids []int64

	for t := range strings.SplitSeq(raw, ",") {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}

		id, ok := im.tags[t]
		if !ok {
			var err error
			if id, err = im.target.AddTag(im.ctx, t); err != nil {
				return nil, fmt.Errorf("creating tag %q: %w", t, err)
			}

			im.tags[t] = id
		}

		ids = append(ids, id)
	}

	return ids, nil
}

// decodeDataURI turns an ICON attribute holding a base64 data URI into an
// image. Anything else yields nil.
func decodeDataURI(s string) *blob.Image {
	const marker = ";base64,"

	if !strings.HasPrefix(s, "data:") {
		return nil
	}

	i := strings.Index(s, marker)
	if i < 0 {
		return nil
	}

	data, err := base64.StdEncoding.DecodeString(s[i+len(marker):])
	if err != nil {
		slog.Debug("skipping icon", "error", err)
		return nil
	}

	img, err := blob.Decode(data)
	if err != nil {
		slog.Debug("skipping icon", "error", err)
		return nil
	}

	return img
}
