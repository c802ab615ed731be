package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Slots is the number of roster-member slots a team fields per round.
const Slots = 3

// Fixed category labels used by the categorical classifier.
const (
	LabelNoDebuffer = "No Debuffer"
	LabelMixed      = "Mixed"
)

var (
	ErrNilTable        = errors.New("nil table")
	ErrEmptyHeader     = errors.New("empty header")
	ErrDuplicateColumn = errors.New("duplicate column")
	ErrRaggedRow       = errors.New("row length does not match header")
)

// Tag is a debuff-type tag assigned by the classification table.
type Tag string

const (
	TagSpeed   Tag = "Speed"
	TagStamina Tag = "Stamina"
	TagOther   Tag = "Other"
)

// ParseTag validates a tag string. Matching is case-insensitive.
func ParseTag(s string) (Tag, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "speed":
		return TagSpeed, nil
	case "stamina":
		return TagStamina, nil
	case "other":
		return TagOther, nil
	}
	return "", fmt.Errorf("unknown debuff type %q (want Speed, Stamina or Other)", s)
}

// ---- Column naming ----

// SlotColumn returns the roster-member column for slot i (1-based) of a round.
func SlotColumn(round string, i int) string {
	return fmt.Sprintf("%s - Uma %d", round, i)
}

// RoleColumn returns the free-text role column for slot i of a round.
func RoleColumn(round string, i int) string {
	return fmt.Sprintf("%s - Uma %d Role", round, i)
}

// StyleColumn returns the free-text running-style column for slot i of a round.
func StyleColumn(round string, i int) string {
	return fmt.Sprintf("%s - Uma %d Style", round, i)
}

func WinsColumn(round string) string  { return round + " - No. of wins" }
func RacesColumn(round string) string { return round + " - No. of races played" }

// ---- Tabular input ----

// Row maps a column name to its raw cell text. Absent keys are missing cells.
type Row map[string]string

// Get returns the cell for col and whether it holds a value. Blank cells
// count as missing.
func (r Row) Get(col string) (string, bool) {
	v, ok := r[col]
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// Number coerces the cell for col to a float. Missing or unparseable cells
// report ok=false.
func (r Row) Number(col string) (float64, bool) {
	v, ok := r.Get(col)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// Table is row-oriented tabular data with an ordered header.
type Table struct {
	Columns []string
	Rows    []Row
	index   map[string]int
}

// UnnamedColumn is the name given to a blank header cell at index i (0-based).
func UnnamedColumn(i int) string {
	return fmt.Sprintf("Unnamed: %d", i)
}

// NewTable builds a Table from a header and records. Every record must have
// exactly one cell per header column; blank cells are stored as missing.
// Blank header cells are named with UnnamedColumn; repeated non-blank names
// are an error.
func NewTable(header []string, records [][]string) (*Table, error) {
	if len(header) == 0 {
		return nil, ErrEmptyHeader
	}
	t := &Table{
		Columns: make([]string, len(header)),
		index:   make(map[string]int, len(header)),
	}
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = UnnamedColumn(i)
		}
		if _, dup := t.index[h]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, h)
		}
		t.index[h] = i
		t.Columns[i] = h
	}
	t.Rows = make([]Row, 0, len(records))
	for n, rec := range records {
		if len(rec) != len(header) {
			return nil, fmt.Errorf("%w: record %d has %d cells, header has %d", ErrRaggedRow, n+1, len(rec), len(header))
		}
		row := make(Row, len(rec))
		for i, v := range rec {
			if strings.TrimSpace(v) == "" {
				continue
			}
			row[t.Columns[i]] = v
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// HasColumn reports whether col is part of the header.
func (t *Table) HasColumn(col string) bool {
	if t == nil {
		return false
	}
	if t.index == nil {
		for _, c := range t.Columns {
			if c == col {
				return true
			}
		}
		return false
	}
	_, ok := t.index[col]
	return ok
}

// ---- Rates ----

// Rate is a percentage that may be undefined (zero denominator, no data).
// The zero value is undefined.
type Rate struct {
	Value float64
	Valid bool
}

// Percent returns 100*num/den rounded to two decimals, or an undefined Rate
// when den is not positive.
func Percent(num, den float64) Rate {
	if den <= 0 || math.IsNaN(num) || math.IsNaN(den) {
		return Rate{}
	}
	return Rate{Value: Round2(num / den * 100), Valid: true}
}

// Round2 rounds v to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// String formats the rate with two decimals, or "—" when undefined.
func (r Rate) String() string {
	if !r.Valid {
		return "—"
	}
	return strconv.FormatFloat(r.Value, 'f', 2, 64)
}

// ---- Classification results ----

// DebuffCounts holds role-gated debuffer counts per tag for one team.
type DebuffCounts struct {
	Speed, Stamina, Other int
}

// Dimension names the category column a view groups by.
type Dimension string

const (
	DimHasDebuffer  Dimension = "HasDebuffer"
	DimDebufferType Dimension = "DebufferType"
	DimSpeedCount   Dimension = "Speed_Count"
	DimStaminaCount Dimension = "Stamina_Count"
	DimOtherCount   Dimension = "Other_Count"
	// DimDebuffCounts groups by the (speed, stamina) count pair.
	DimDebuffCounts Dimension = "DebuffCounts"
)

// Dimensions lists every supported dimension in display order.
var Dimensions = []Dimension{
	DimHasDebuffer, DimDebufferType, DimSpeedCount, DimStaminaCount, DimOtherCount, DimDebuffCounts,
}

// ParseDimension accepts the column name or a short CLI alias.
func ParseDimension(s string) (Dimension, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hasdebuffer", "has-debuffer", "has":
		return DimHasDebuffer, nil
	case "debuffertype", "debuffer-type", "type":
		return DimDebufferType, nil
	case "speed_count", "speed-count", "speed":
		return DimSpeedCount, nil
	case "stamina_count", "stamina-count", "stamina":
		return DimStaminaCount, nil
	case "other_count", "other-count", "other":
		return DimOtherCount, nil
	case "debuffcounts", "debuff-counts", "counts":
		return DimDebuffCounts, nil
	}
	return "", fmt.Errorf("unknown dimension %q", s)
}

// IsCount reports whether the dimension is derived from role-gated counts.
func (d Dimension) IsCount() bool {
	switch d {
	case DimSpeedCount, DimStaminaCount, DimOtherCount, DimDebuffCounts:
		return true
	}
	return false
}

// Category is a group key within a Dimension. Label is the display value;
// Counts carries the count coordinates for count dimensions.
type Category struct {
	Label  string
	Counts DebuffCounts
}

// Less orders categories for stable output: counts ascending, then label.
func (c Category) Less(o Category) bool {
	if c.Counts.Speed != o.Counts.Speed {
		return c.Counts.Speed < o.Counts.Speed
	}
	if c.Counts.Stamina != o.Counts.Stamina {
		return c.Counts.Stamina < o.Counts.Stamina
	}
	if c.Counts.Other != o.Counts.Other {
		return c.Counts.Other < o.Counts.Other
	}
	return c.Label < o.Label
}

// ---- Aggregated results ----

// GroupStats is one (Round, Category) aggregate of team results.
type GroupStats struct {
	Round     string
	Dimension Dimension
	Category  Category
	Teams     int
	Wins      float64
	Races     float64
	WinRate   Rate
}

// ReconciledRow reports a category, optionally scoped to a round, with both
// the mean of per-group win rates and the pooled win rate.
type ReconciledRow struct {
	Round      string // empty for rows merged across rounds
	Dimension  Dimension
	Category   Category
	AvgWR      Rate
	Teams      int // groups contributing a defined win rate
	TotalWins  float64
	TotalRaces float64
	PooledWR   Rate
}

// ---- Stored runs ----

// RunSummary describes one stored analysis run.
type RunSummary struct {
	ID        string
	CreatedAt time.Time
	Source    string // input file the run was computed from
	Dimension Dimension
	Rounds    []string
	Skipped   []string
}
