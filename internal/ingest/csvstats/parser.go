// Package csvstats reads the per-game stat sheet exported as CSV.
package csvstats

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/fortuna/frisbee/internal/ingest"
)

// Parse reads a header row followed by one row per player per game.
// Column order is free; names are matched case-insensitively.
func Parse(r io.Reader, opts ingest.Options) (*ingest.Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var (
		cols *ingest.Columns
		res  = &ingest.Result{}
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}
		line, _ := reader.FieldPos(0)

		if cols == nil {
			if ingest.IsBlank(record) {
				continue
			}
			if cols, err = ingest.NewColumns(record); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			continue
		}

		if err := cols.Append(res, record, line, opts); err != nil {
			return nil, err
		}
	}

	if cols == nil {
		return nil, fmt.Errorf("csv has no header row: %w", ingest.ErrMissingColumn)
	}
	return res, nil
}
