// Package htmlstats reads stat sheets published as HTML tables.
package htmlstats

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/fortuna/frisbee/internal/ingest"
)

// ErrNoStatTable is returned when no table carries the stat columns.
var ErrNoStatTable = errors.New("no stat table found")

// Parse finds the first table whose header row names the stat columns and
// reads its body rows.
func Parse(r io.Reader, opts ingest.Options) (*ingest.Result, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	return ParseDocument(doc, opts)
}

// ParseDocument is Parse over an already loaded document.
func ParseDocument(doc *goquery.Document, opts ingest.Options) (*ingest.Result, error) {
	var (
		res     *ingest.Result
		lastErr error
	)

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		rows := table.Find("tr")
		if rows.Length() == 0 {
			return true
		}

		cols, err := ingest.NewColumns(cellTexts(rows.First()))
		if err != nil {
			lastErr = err
			return true
		}

		out := &ingest.Result{}
		rows.Slice(1, goquery.ToEnd).EachWithBreak(func(i int, tr *goquery.Selection) bool {
			cells := cellTexts(tr)
			if len(cells) == 0 {
				return true
			}
			// Line numbers count the header as row 1.
			if err := cols.Append(out, cells, i+2, opts); err != nil {
				lastErr = err
				out = nil
				return false
			}
			return true
		})
		if out == nil {
			return false
		}
		res = out
		return false
	})

	if res != nil {
		return res, nil
	}
	if lastErr != nil && !errors.Is(lastErr, ingest.ErrMissingColumn) {
		return nil, lastErr
	}
	return nil, ErrNoStatTable
}

func cellTexts(tr *goquery.Selection) []string {
	var cells []string
	tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
		cells = append(cells, strings.TrimSpace(cell.Text()))
	})
	return cells
}
