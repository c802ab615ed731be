// Package matrix pivots reconciled count categories into dense 2D grids.
package matrix

import (
	"errors"
	"fmt"
	"sort"

	"github.com/pable/go-cm-stats/internal/model"
)

// ErrDuplicateCell is returned when two input rows land on the same cell.
var ErrDuplicateCell = errors.New("duplicate matrix cell")

// Axis selects a count coordinate from a category.
type Axis string

const (
	SpeedCount   Axis = "Speed_Count"
	StaminaCount Axis = "Stamina_Count"
	OtherCount   Axis = "Other_Count"
)

func (a Axis) of(c model.Category) (int, error) {
	switch a {
	case SpeedCount:
		return c.Counts.Speed, nil
	case StaminaCount:
		return c.Counts.Stamina, nil
	case OtherCount:
		return c.Counts.Other, nil
	}
	return 0, fmt.Errorf("unknown axis %q", a)
}

// Value selects which rate fills the cells.
type Value string

const (
	PooledWR Value = "PooledWR"
	AvgWR    Value = "AvgWR"
)

// ParseValue accepts "pooled" or "avg" (or the column names).
func ParseValue(s string) (Value, error) {
	switch s {
	case "pooled", "PooledWR", "":
		return PooledWR, nil
	case "avg", "AvgWR":
		return AvgWR, nil
	}
	return "", fmt.Errorf("unknown matrix value %q (want pooled or avg)", s)
}

func (v Value) of(r model.ReconciledRow) (model.Rate, error) {
	switch v {
	case PooledWR:
		return r.PooledWR, nil
	case AvgWR:
		return r.AvgWR, nil
	}
	return model.Rate{}, fmt.Errorf("unknown matrix value %q", v)
}

// Matrix is a dense grid of rates. Rows are ordered by descending key and
// columns by ascending key; cells with no input row are undefined.
type Matrix struct {
	Round   string // set by BuildPerRound
	RowAxis Axis
	ColAxis Axis
	Value   Value
	RowKeys []int
	ColKeys []int
	Cells   [][]model.Rate // Cells[i][j] is (RowKeys[i], ColKeys[j])
}

// At returns the cell for the given row and column keys.
func (m *Matrix) At(rowKey, colKey int) (model.Rate, bool) {
	for i, rk := range m.RowKeys {
		if rk != rowKey {
			continue
		}
		for j, ck := range m.ColKeys {
			if ck == colKey {
				return m.Cells[i][j], true
			}
		}
	}
	return model.Rate{}, false
}

// Build pivots rows into a matrix indexed by rowAxis x colAxis. Only keys
// that occur in rows become axis entries.
func Build(rows []model.ReconciledRow, rowAxis, colAxis Axis, value Value) (*Matrix, error) {
	if rowAxis == colAxis {
		return nil, fmt.Errorf("row and column axis are both %s", rowAxis)
	}
	type cellKey struct{ r, c int }
	cells := make(map[cellKey]model.Rate, len(rows))
	rowSet := make(map[int]struct{})
	colSet := make(map[int]struct{})
	for _, row := range rows {
		rk, err := rowAxis.of(row.Category)
		if err != nil {
			return nil, err
		}
		ck, err := colAxis.of(row.Category)
		if err != nil {
			return nil, err
		}
		v, err := value.of(row)
		if err != nil {
			return nil, err
		}
		k := cellKey{rk, ck}
		if _, dup := cells[k]; dup {
			return nil, fmt.Errorf("%w: %s=%d, %s=%d", ErrDuplicateCell, rowAxis, rk, colAxis, ck)
		}
		cells[k] = v
		rowSet[rk] = struct{}{}
		colSet[ck] = struct{}{}
	}

	m := &Matrix{
		RowAxis: rowAxis,
		ColAxis: colAxis,
		Value:   value,
		RowKeys: sortedKeys(rowSet),
		ColKeys: sortedKeys(colSet),
	}
	sort.Sort(sort.Reverse(sort.IntSlice(m.RowKeys)))
	m.Cells = make([][]model.Rate, len(m.RowKeys))
	for i, rk := range m.RowKeys {
		m.Cells[i] = make([]model.Rate, len(m.ColKeys))
		for j, ck := range m.ColKeys {
			m.Cells[i][j] = cells[cellKey{rk, ck}]
		}
	}
	return m, nil
}

// BuildPerRound builds one matrix per round from by-round reconciled rows,
// ordered by round.
func BuildPerRound(rows []model.ReconciledRow, rowAxis, colAxis Axis, value Value) ([]*Matrix, error) {
	byRound := make(map[string][]model.ReconciledRow)
	var rounds []string
	for _, r := range rows {
		if _, seen := byRound[r.Round]; !seen {
			rounds = append(rounds, r.Round)
		}
		byRound[r.Round] = append(byRound[r.Round], r)
	}
	sort.Strings(rounds)

	out := make([]*Matrix, 0, len(rounds))
	for _, round := range rounds {
		m, err := Build(byRound[round], rowAxis, colAxis, value)
		if err != nil {
			return nil, fmt.Errorf("round %s: %w", round, err)
		}
		m.Round = round
		out = append(out, m)
	}
	return out, nil
}

func sortedKeys(set map[int]struct{}) []int {
	keys := make([]int, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
