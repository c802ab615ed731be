package aggregator

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/pable/go-cm-stats/internal/classify"
	"github.com/pable/go-cm-stats/internal/model"
)

// Categorizer assigns a team row to a category within one round.
type Categorizer func(row model.Row, round string) model.Category

// Aggregate groups the round's teams by category and sums their results.
//
// If the round has no wins or no races column the result is an empty slice
// and a nil error. Missing or non-numeric wins/races cells are left out of
// the sums but the team is still counted. WinRate is undefined for groups
// whose races sum to zero.
func Aggregate(t *model.Table, round string, dim model.Dimension, categorize Categorizer) ([]model.GroupStats, error) {
	if t == nil {
		return nil, model.ErrNilTable
	}
	if categorize == nil {
		return nil, fmt.Errorf("aggregate %s: nil categorizer", round)
	}
	winCol, raceCol := model.WinsColumn(round), model.RacesColumn(round)
	if !t.HasColumn(winCol) || !t.HasColumn(raceCol) {
		return []model.GroupStats{}, nil
	}

	type accum struct {
		teams       int
		wins, races float64
	}
	accums := make(map[model.Category]*accum)
	for _, row := range t.Rows {
		cat := categorize(row, round)
		acc := accums[cat]
		if acc == nil {
			acc = &accum{}
			accums[cat] = acc
		}
		acc.teams++
		if w, ok := row.Number(winCol); ok {
			acc.wins += w
		}
		if r, ok := row.Number(raceCol); ok {
			acc.races += r
		}
	}

	out := make([]model.GroupStats, 0, len(accums))
	for cat, acc := range accums {
		out = append(out, model.GroupStats{
			Round:     round,
			Dimension: dim,
			Category:  cat,
			Teams:     acc.teams,
			Wins:      acc.wins,
			Races:     acc.races,
			WinRate:   model.Percent(acc.wins, acc.races),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Category.Less(out[j].Category)
	})
	return out, nil
}

// CategorizerFor returns the categorizer that implements dim against table.
func CategorizerFor(dim model.Dimension, table *classify.Table) (Categorizer, error) {
	switch dim {
	case model.DimHasDebuffer:
		return func(row model.Row, round string) model.Category {
			return model.Category{Label: strconv.FormatBool(classify.HasDebuffer(row, round, table))}
		}, nil
	case model.DimDebufferType:
		return func(row model.Row, round string) model.Category {
			return model.Category{Label: classify.TeamDebufferType(row, round, table)}
		}, nil
	case model.DimSpeedCount:
		return func(row model.Row, round string) model.Category {
			n := classify.CountDebuffers(row, round, table).Speed
			return model.Category{Label: strconv.Itoa(n), Counts: model.DebuffCounts{Speed: n}}
		}, nil
	case model.DimStaminaCount:
		return func(row model.Row, round string) model.Category {
			n := classify.CountDebuffers(row, round, table).Stamina
			return model.Category{Label: strconv.Itoa(n), Counts: model.DebuffCounts{Stamina: n}}
		}, nil
	case model.DimOtherCount:
		return func(row model.Row, round string) model.Category {
			n := classify.CountDebuffers(row, round, table).Other
			return model.Category{Label: strconv.Itoa(n), Counts: model.DebuffCounts{Other: n}}
		}, nil
	case model.DimDebuffCounts:
		return func(row model.Row, round string) model.Category {
			c := classify.CountDebuffers(row, round, table)
			return model.Category{
				Label:  fmt.Sprintf("%d/%d", c.Speed, c.Stamina),
				Counts: model.DebuffCounts{Speed: c.Speed, Stamina: c.Stamina},
			}
		}, nil
	}
	return nil, fmt.Errorf("unsupported dimension %q", dim)
}

// ByDimension aggregates one round grouped by dim.
func ByDimension(t *model.Table, round string, dim model.Dimension, table *classify.Table) ([]model.GroupStats, error) {
	categorize, err := CategorizerFor(dim, table)
	if err != nil {
		return nil, err
	}
	return Aggregate(t, round, dim, categorize)
}
