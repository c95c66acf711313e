package port

import (
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/mateconpizza/webstore/internal/blob"
	"github.com/mateconpizza/webstore/internal/bookmark"
)

// Source provides the directory tree to export.
type Source interface {
	GetSubdirectories(ctx context.Context, parentID int64) []bookmark.Directory
	GetByDirectory(ctx context.Context, dirID int64) []bookmark.Bookmark
	GetAllTags(ctx context.Context) ([]bookmark.Tag, error)
}

const netscapeHeader = `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<!-- This is an automatically generated file.
     It will be read and overwritten.
     DO NOT EDIT! -->
<META HTTP-EQUIV="Content-Type" CONTENT="text/html; charset=UTF-8">
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
<DL><p>
`

type exporter struct {
	ctx  context.Context
	src  Source
	w    io.Writer
	tags map[int64]string
}

// ExportNetscape writes the tree below directory rootID to w as a Netscape
// bookmark file. Directories become folders.
func ExportNetscape(ctx context.Context, w io.Writer, src Source, rootID int64) error {
	tags, err := src.GetAllTags(ctx)
	if err != nil {
		return fmt.Errorf("loading tags: %w", err)
	}

	ex := &exporter{ctx: ctx, src: src, w: w, tags: bookmark.TagMap(tags)}

	if _, err := io.WriteString(w, netscapeHeader); err != nil {
		return err
	}

	if err := ex.writeDir(rootID, 1); err != nil {
		return err
	}

	_, err = io.WriteString(w, "</DL><p>\n")

	return err
}

func (ex *exporter) writeDir(dirID int64, depth int) error {
	if err := ex.ctx.Err(); err != nil {
		return err
	}

	indent := strings.Repeat("    ", depth)

	for _, d := range ex.src.GetSubdirectories(ex.ctx, dirID) {
		_, err := fmt.Fprintf(ex.w, "%s<DT><H3>%s</H3>\n%s<DL><p>\n", indent, html.EscapeString(d.Name), indent)
		if err != nil {
			return err
		}

		if err := ex.writeDir(d.ID, depth+1); err != nil {
			return err
		}

		if _, err := fmt.Fprintf(ex.w, "%s</DL><p>\n", indent); err != nil {
			return err
		}
	}

	for _, b := range ex.src.GetByDirectory(ex.ctx, dirID) {
		if err := ex.writeBookmark(&b, indent); err != nil {
			return err
		}
	}

	return nil
}

// writeBookmark writes a single bookmark entry.
func (ex *exporter) writeBookmark(b *bookmark.Bookmark, indent string) error {
	var attrs strings.Builder

	if uri := dataURI(b.Thumbnail); uri != "" {
		fmt.Fprintf(&attrs, ` ICON=%q`, uri)
	}

	if len(b.Tags) > 0 {
		names := make([]string, 0, len(b.Tags))
		for _, id := range b.Tags {
			if n, ok := ex.tags[id]; ok {
				names = append(names, n)
			}
		}

		if len(names) > 0 {
			fmt.Fprintf(&attrs, ` TAGS=%q`, html.EscapeString(strings.Join(names, ",")))
		}
	}

	_, err := fmt.Fprintf(ex.w, "%s<DT><A HREF=%q%s>%s</A>\n",
		indent, html.EscapeString(b.URL), attrs.String(), html.EscapeString(b.Title))
	if err != nil {
		return err
	}

	if b.Note != "" {
		if _, err := fmt.Fprintf(ex.w, "%s<DD>%s\n", indent, html.EscapeString(b.Note)); err != nil {
			return err
		}
	}

	return nil
}

func dataURI(img *blob.Image) string {
	if img.IsEmpty() || img.Type == blob.Raw {
		return ""
	}

	return "data:image/" + img.Type.String() + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}
