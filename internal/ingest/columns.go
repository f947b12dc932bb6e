// Package ingest turns stat sheets into fantasy.StatRow values.
package ingest

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fortuna/frisbee/internal/fantasy"
)

var (
	ErrMissingColumn = errors.New("missing required column")
	ErrBadValue      = errors.New("bad value")
)

// Column names recognized in a stat sheet header.
const (
	ColTimestamp  = "timestamp"
	ColPlayerName = "player_name"
	ColPlayerTeam = "player_team"
	ColGame       = "game_played"
	ColTournament = "tournament_played"
	ColGoals      = "goals"
	ColAssists    = "assists"
	ColDrops      = "drops"
	ColThrowaways = "throwaways"
	ColDs         = "ds"
)

var requiredColumns = []string{
	ColPlayerName, ColGame, ColTournament,
	ColGoals, ColAssists, ColDrops, ColThrowaways, ColDs,
}

// Options controls how rows are built.
type Options struct {
	// DefaultTeam fills player_team when the sheet has no such column or
	// the cell is empty.
	DefaultTeam string
}

// Result is the outcome of parsing one sheet.
type Result struct {
	Rows []fantasy.StatRow
	// NegativeValues counts counting-stat cells below zero. They are kept
	// as-is and reported.
	NegativeValues int
	SkippedBlank   int
}

// Teams returns the distinct teams present in the result.
func (r *Result) Teams() []string {
	seen := make(map[string]struct{})
	var teams []string
	for _, row := range r.Rows {
		if _, ok := seen[row.PlayerTeam]; ok {
			continue
		}
		seen[row.PlayerTeam] = struct{}{}
		teams = append(teams, row.PlayerTeam)
	}
	return teams
}

// Columns maps header names to cell positions.
type Columns struct {
	index map[string]int
}

// NormalizeHeader lowercases a header cell and folds spaces and hyphens
// into underscores so "Player Name" matches player_name.
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(h)
}

// NewColumns indexes a header row. Every required column must be present.
func NewColumns(header []string) (*Columns, error) {
	c := &Columns{index: make(map[string]int, len(header))}
	for i, h := range header {
		name := NormalizeHeader(h)
		if _, dup := c.index[name]; !dup {
			c.index[name] = i
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := c.index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return c, nil
}

// Has reports whether the header carried col.
func (c *Columns) Has(col string) bool {
	_, ok := c.index[col]
	return ok
}

func (c *Columns) cell(cells []string, col string) string {
	i, ok := c.index[col]
	if !ok || i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}

// IsBlank reports whether every cell is empty.
func IsBlank(cells []string) bool {
	for _, s := range cells {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}

// Append builds a row from cells and adds it to res. line is used in errors.
func (c *Columns) Append(res *Result, cells []string, line int, opts Options) error {
	if IsBlank(cells) {
		res.SkippedBlank++
		return nil
	}

	row := fantasy.StatRow{
		PlayerName: c.cell(cells, ColPlayerName),
		PlayerTeam: c.cell(cells, ColPlayerTeam),
		Tournament: c.cell(cells, ColTournament),
		Game:       c.cell(cells, ColGame),
		Timestamp:  c.cell(cells, ColTimestamp),
	}
	if row.PlayerTeam == "" {
		row.PlayerTeam = opts.DefaultTeam
	}
	if row.PlayerName == "" {
		return fmt.Errorf("line %d: %w: empty %s", line, ErrBadValue, ColPlayerName)
	}
	if row.Tournament == "" {
		return fmt.Errorf("line %d: %w: empty %s", line, ErrBadValue, ColTournament)
	}

	counts := []struct {
		col string
		dst *int
	}{
		{ColGoals, &row.Stats.Goals},
		{ColAssists, &row.Stats.Assists},
		{ColDs, &row.Stats.Ds},
		{ColDrops, &row.Stats.Drops},
		{ColThrowaways, &row.Stats.Throwaways},
	}
	for _, f := range counts {
		raw := c.cell(cells, f.col)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("line %d: %w: %s=%q is not an integer", line, ErrBadValue, f.col, raw)
		}
		if n < 0 {
			res.NegativeValues++
		}
		*f.dst = n
	}

	res.Rows = append(res.Rows, row)
	return nil
}
