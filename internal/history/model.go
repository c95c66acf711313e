// Package history records visited pages with their visit counters and
// favicons.
package history

import (
	"time"

	"github.com/mateconpizza/webstore/internal/blob"
)

// Item is the browsing record of one URL.
type Item struct {
	URL          string
	Title        string
	LastVisit    time.Time
	VisitCounter int
	FaviconURI   string
	Favicon      *blob.Image
}

// NewItem returns an item for url with no visits recorded.
func NewItem(url, title string) *Item {
	return &Item{URL: url, Title: title, Favicon: blob.Empty()}
}

// absent is the item returned for a url with no history row.
func absent(url string) Item {
	return Item{URL: url, Favicon: blob.Empty()}
}

// clone returns a copy of it owning its favicon bytes.
func (it Item) clone() Item {
	c := it
	c.Favicon = it.Favicon.Clone()

	return c
}
