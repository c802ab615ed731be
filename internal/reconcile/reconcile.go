// Package reconcile combines per-round aggregates into cross-round views.
//
// Every output row carries two rates that answer different questions:
// AvgWR is the unweighted mean of the contributing groups' win rates, so a
// group with two races weighs as much as one with two hundred; PooledWR is
// total wins over total races. They agree only when every group raced the
// same number of times.
package reconcile

import (
	"sort"

	"github.com/pable/go-cm-stats/internal/model"
)

type key struct {
	round     string
	dimension model.Dimension
	category  model.Category
}

type accum struct {
	rateSum     float64
	rateCount   int
	wins, races float64
}

// Reconcile groups aggregates by (Round, Category) when byRound is set, or by
// Category alone across all rounds otherwise. Groups with an undefined win
// rate still pool their wins and races but do not enter AvgWR or Teams.
func Reconcile(groups []model.GroupStats, byRound bool) []model.ReconciledRow {
	accums := make(map[key]*accum)
	for _, g := range groups {
		k := key{dimension: g.Dimension, category: g.Category}
		if byRound {
			k.round = g.Round
		}
		acc := accums[k]
		if acc == nil {
			acc = &accum{}
			accums[k] = acc
		}
		if g.WinRate.Valid {
			acc.rateSum += g.WinRate.Value
			acc.rateCount++
		}
		acc.wins += g.Wins
		acc.races += g.Races
	}

	out := make([]model.ReconciledRow, 0, len(accums))
	for k, acc := range accums {
		row := model.ReconciledRow{
			Round:      k.round,
			Dimension:  k.dimension,
			Category:   k.category,
			Teams:      acc.rateCount,
			TotalWins:  acc.wins,
			TotalRaces: acc.races,
			PooledWR:   model.Percent(acc.wins, acc.races),
		}
		if acc.rateCount > 0 {
			row.AvgWR = model.Rate{Value: acc.rateSum / float64(acc.rateCount), Valid: true}
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Round != b.Round {
			return a.Round < b.Round
		}
		if a.Dimension != b.Dimension {
			return a.Dimension < b.Dimension
		}
		return a.Category.Less(b.Category)
	})
	return out
}

// ByRound is Reconcile(groups, true).
func ByRound(groups []model.GroupStats) []model.ReconciledRow {
	return Reconcile(groups, true)
}

// Merged is Reconcile(groups, false).
func Merged(groups []model.GroupStats) []model.ReconciledRow {
	return Reconcile(groups, false)
}
