// Package classify decides the debuffer composition of a team for one round.
//
// Unknown identifiers are treated differently by the two detailed modes:
// TeamDebufferType drops them, while CountDebuffers books a role-flagged
// unknown under Other. Both behaviours are relied on by existing reports and
// must stay as they are.
package classify

import (
	"sort"
	"strings"

	"github.com/pable/go-cm-stats/internal/model"
	"github.com/pable/go-cm-stats/internal/normalize"
)

// debuffRoleStems are the role substrings that make a slot count in
// CountDebuffers. "domin" matches dominant/domination roles.
var debuffRoleStems = []string{"debuffer", "hybrid", "domin"}

// slotIdentifier returns the canonical identifier in slot i of round.
func slotIdentifier(row model.Row, round string, i int) (string, bool) {
	return normalize.Identifier(row.Get(model.SlotColumn(round, i)))
}

// HasDebuffer reports whether any slot of the round holds an identifier
// present in the table.
func HasDebuffer(row model.Row, round string, table *Table) bool {
	for i := 1; i <= model.Slots; i++ {
		id, ok := slotIdentifier(row, round, i)
		if !ok {
			continue
		}
		if _, known := table.Lookup(id); known {
			return true
		}
	}
	return false
}

// TeamDebufferType returns "No Debuffer" when no slot is a known debuffer,
// the shared tag when every known debuffer has the same tag, and "Mixed"
// otherwise. Identifiers missing from the table are ignored.
func TeamDebufferType(row model.Row, round string, table *Table) string {
	tags := make(map[model.Tag]struct{}, model.Slots)
	for i := 1; i <= model.Slots; i++ {
		id, ok := slotIdentifier(row, round, i)
		if !ok {
			continue
		}
		if tag, known := table.Lookup(id); known {
			tags[tag] = struct{}{}
		}
	}
	switch len(tags) {
	case 0:
		return model.LabelNoDebuffer
	case 1:
		for tag := range tags {
			return string(tag)
		}
	}
	return model.LabelMixed
}

// IsDebuffRole reports whether role text marks a slot as debuffing.
func IsDebuffRole(role string) bool {
	s := strings.ToLower(role)
	for _, stem := range debuffRoleStems {
		if strings.Contains(s, stem) {
			return true
		}
	}
	return false
}

// CountDebuffers counts role-flagged slots per tag. A slot only counts when
// its role text matches IsDebuffRole; among those, an identifier that is
// unknown to the table (or missing) is counted as Other.
func CountDebuffers(row model.Row, round string, table *Table) model.DebuffCounts {
	var c model.DebuffCounts
	for i := 1; i <= model.Slots; i++ {
		role, ok := row.Get(model.RoleColumn(round, i))
		if !ok || !IsDebuffRole(role) {
			continue
		}
		id, _ := slotIdentifier(row, round, i)
		tag, _ := table.Lookup(id)
		switch tag {
		case model.TagSpeed:
			c.Speed++
		case model.TagStamina:
			c.Stamina++
		default:
			c.Other++
		}
	}
	return c
}

// Classification is the full per-round classification of one team.
type Classification struct {
	HasDebuffer  bool
	DebufferType string
	Counts       model.DebuffCounts
}

// Classify runs all three modes for a row.
func Classify(row model.Row, round string, table *Table) Classification {
	return Classification{
		HasDebuffer:  HasDebuffer(row, round, table),
		DebufferType: TeamDebufferType(row, round, table),
		Counts:       CountDebuffers(row, round, table),
	}
}

// UnknownIdentifiers returns the sorted, de-duplicated identifiers fielded in
// the round that the table does not know.
func UnknownIdentifiers(rows []model.Row, round string, table *Table) []string {
	seen := make(map[string]struct{})
	for _, row := range rows {
		for i := 1; i <= model.Slots; i++ {
			id, ok := slotIdentifier(row, round, i)
			if !ok {
				continue
			}
			if _, known := table.Lookup(id); !known {
				seen[id] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
