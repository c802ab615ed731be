package analysis

import (
	"sort"

	"github.com/pable/go-cm-stats/internal/classify"
	"github.com/pable/go-cm-stats/internal/model"
	"github.com/pable/go-cm-stats/internal/normalize"
)

// RosterEntry summarises how one identifier was fielded in a round.
type RosterEntry struct {
	Identifier string
	Tag        model.Tag // empty when the table does not know the identifier
	Known      bool
	Fielded    int
	// Roles counts normalized role classes; slots without role text are
	// counted under "".
	Roles map[string]int
	// Gated counts slots whose role passes the debuffer gate.
	Gated int
	// Styles counts normalized running styles. Slots without style text
	// are not counted, so it stays empty for tables with no style columns.
	Styles map[string]int
}

// RosterBreakdown lists every identifier fielded in the round, most fielded
// first. It reads the same cells as the classifier but changes no rule.
func RosterBreakdown(t *model.Table, round string, table *classify.Table) ([]RosterEntry, error) {
	if t == nil {
		return nil, model.ErrNilTable
	}
	entries := make(map[string]*RosterEntry)
	for _, row := range t.Rows {
		for i := 1; i <= model.Slots; i++ {
			id, ok := normalizeSlot(row, round, i)
			if !ok {
				continue
			}
			e := entries[id]
			if e == nil {
				tag, known := table.Lookup(id)
				e = &RosterEntry{Identifier: id, Tag: tag, Known: known, Roles: make(map[string]int), Styles: make(map[string]int)}
				entries[id] = e
			}
			e.Fielded++
			roleText, hasRole := row.Get(model.RoleColumn(round, i))
			e.Roles[roleClass(roleText, hasRole)]++
			if hasRole && classify.IsDebuffRole(roleText) {
				e.Gated++
			}
			if sc, ok := normalize.Style(row.Get(model.StyleColumn(round, i))); ok {
				e.Styles[string(sc)]++
			}
		}
	}

	out := make([]RosterEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Fielded != out[j].Fielded {
			return out[i].Fielded > out[j].Fielded
		}
		return out[i].Identifier < out[j].Identifier
	})
	return out, nil
}

func normalizeSlot(row model.Row, round string, i int) (string, bool) {
	return normalize.Identifier(row.Get(model.SlotColumn(round, i)))
}

func roleClass(text string, present bool) string {
	rc, ok := normalize.Role(text, present)
	if !ok {
		return ""
	}
	return string(rc)
}

// TeamResult is the classification of one team row in a round.
type TeamResult struct {
	Index int // 0-based row index in the table
	classify.Classification
	Wins, Races       float64
	HasWins, HasRaces bool
}

// ClassifyRound classifies every row of the table for one round.
func ClassifyRound(t *model.Table, round string, table *classify.Table) ([]TeamResult, error) {
	if t == nil {
		return nil, model.ErrNilTable
	}
	out := make([]TeamResult, 0, len(t.Rows))
	for i, row := range t.Rows {
		tr := TeamResult{Index: i, Classification: classify.Classify(row, round, table)}
		tr.Wins, tr.HasWins = row.Number(model.WinsColumn(round))
		tr.Races, tr.HasRaces = row.Number(model.RacesColumn(round))
		out = append(out, tr)
	}
	return out, nil
}
