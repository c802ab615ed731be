// Package analysis runs the classification and aggregation engine over a
// table for a set of rounds.
package analysis

import (
	"fmt"
	"strings"

	"github.com/pable/go-cm-stats/internal/aggregator"
	"github.com/pable/go-cm-stats/internal/classify"
	"github.com/pable/go-cm-stats/internal/model"
	"github.com/pable/go-cm-stats/internal/reconcile"
)

// Options selects what Run computes.
type Options struct {
	Rounds     []string // empty: detect from the header
	Dimension  model.Dimension
	Table      *classify.Table
	Categorize aggregator.Categorizer // overrides the dimension's default
}

// Result holds every view of one analysis run.
type Result struct {
	Dimension model.Dimension
	Rounds    []string // rounds that were aggregated
	Skipped   []string // rounds without wins/races columns
	PerRound  []model.GroupStats
	ByRound   []model.ReconciledRow
	Merged    []model.ReconciledRow
}

// Run aggregates each round and reconciles the results.
func Run(t *model.Table, opts Options) (*Result, error) {
	if t == nil {
		return nil, model.ErrNilTable
	}
	if opts.Table == nil {
		return nil, fmt.Errorf("no classification table")
	}
	dim := opts.Dimension
	if dim == "" {
		dim = model.DimDebufferType
	}
	categorize := opts.Categorize
	if categorize == nil {
		var err error
		if categorize, err = aggregator.CategorizerFor(dim, opts.Table); err != nil {
			return nil, err
		}
	}
	rounds := dedupe(opts.Rounds)
	if len(rounds) == 0 {
		rounds = DetectRounds(t)
	}

	res := &Result{Dimension: dim, PerRound: []model.GroupStats{}}
	for _, round := range rounds {
		if !t.HasColumn(model.WinsColumn(round)) || !t.HasColumn(model.RacesColumn(round)) {
			res.Skipped = append(res.Skipped, round)
			continue
		}
		groups, err := aggregator.Aggregate(t, round, dim, categorize)
		if err != nil {
			return nil, fmt.Errorf("round %s: %w", round, err)
		}
		res.Rounds = append(res.Rounds, round)
		res.PerRound = append(res.PerRound, groups...)
	}
	res.ByRound = reconcile.ByRound(res.PerRound)
	res.Merged = reconcile.Merged(res.PerRound)
	return res, nil
}

// dedupe drops repeated and blank rounds, keeping first-seen order.
func dedupe(rounds []string) []string {
	seen := make(map[string]struct{}, len(rounds))
	out := make([]string, 0, len(rounds))
	for _, r := range rounds {
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

// roundSuffixes identify round-scoped columns; the text before them is the round.
var roundSuffixes = []string{
	" - No. of wins",
	" - No. of races played",
	" - Uma 1",
}

// DetectRounds returns the distinct round prefixes found in the header, in
// order of first appearance.
func DetectRounds(t *model.Table) []string {
	if t == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var rounds []string
	for _, col := range t.Columns {
		for _, suffix := range roundSuffixes {
			if !strings.HasSuffix(col, suffix) {
				continue
			}
			round := strings.TrimSuffix(col, suffix)
			if round == "" {
				continue
			}
			if _, ok := seen[round]; !ok {
				seen[round] = struct{}{}
				rounds = append(rounds, round)
			}
		}
	}
	return rounds
}

// RoundInfo describes one detected round of a table.
type RoundInfo struct {
	Round      string
	Teams      int  // rows with at least one filled slot
	HasResults bool // both wins and races columns exist
	Unknown    []string
}

// Survey describes every detected round without aggregating it.
func Survey(t *model.Table, table *classify.Table) []RoundInfo {
	rounds := DetectRounds(t)
	out := make([]RoundInfo, 0, len(rounds))
	for _, round := range rounds {
		info := RoundInfo{
			Round:      round,
			HasResults: t.HasColumn(model.WinsColumn(round)) && t.HasColumn(model.RacesColumn(round)),
			Unknown:    classify.UnknownIdentifiers(t.Rows, round, table),
		}
		for _, row := range t.Rows {
			for i := 1; i <= model.Slots; i++ {
				if _, ok := row.Get(model.SlotColumn(round, i)); ok {
					info.Teams++
					break
				}
			}
		}
		out = append(out, info)
	}
	return out
}
