package aggregator

import (
	"errors"
	"testing"

	"github.com/pable/go-cm-stats/internal/classify"
	"github.com/pable/go-cm-stats/internal/model"
)

// header is the full column set for round R1.
var header = []string{
	"Team",
	"R1 - Uma 1", "R1 - Uma 1 Role",
	"R1 - Uma 2", "R1 - Uma 2 Role",
	"R1 - Uma 3", "R1 - Uma 3 Role",
	"R1 - No. of wins", "R1 - No. of races played",
}

// makeTable builds a table for round R1 from records matching header.
func makeTable(t *testing.T, records ...[]string) *model.Table {
	t.Helper()
	tbl, err := model.NewTable(header, records)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return tbl
}

func testTable(t *testing.T) *classify.Table {
	t.Helper()
	tbl, err := classify.NewTable(map[string]model.Tag{
		"Grass Wonder": model.TagSpeed,
		"Nice Nature":  model.TagStamina,
	})
	if err != nil {
		t.Fatalf("classify.NewTable: %v", err)
	}
	return tbl
}

// find returns the group with the given label or fails the test.
func find(t *testing.T, groups []model.GroupStats, label string) model.GroupStats {
	t.Helper()
	for _, g := range groups {
		if g.Category.Label == label {
			return g
		}
	}
	t.Fatalf("no group with label %q in %+v", label, groups)
	return model.GroupStats{}
}

func TestAggregate_HasDebuffer(t *testing.T) {
	tbl := makeTable(t,
		[]string{"a", "Grass Wonder", "Debuffer", "Special Week", "Ace", "", "", "3", "10"},
		[]string{"b", "nice nature", "Debuffer", "", "", "", "", "1", "2"},
		[]string{"c", "Special Week", "Ace", "Gold Ship", "Runner", "", "", "5", "10"},
	)
	groups, err := ByDimension(tbl, "R1", model.DimHasDebuffer, testTable(t))
	if err != nil {
		t.Fatalf("ByDimension: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	// false sorts before true.
	if groups[0].Category.Label != "false" || groups[1].Category.Label != "true" {
		t.Errorf("unexpected order: %q, %q", groups[0].Category.Label, groups[1].Category.Label)
	}

	with := find(t, groups, "true")
	if with.Teams != 2 || with.Wins != 4 || with.Races != 12 {
		t.Errorf("with debuffer: teams=%d wins=%v races=%v", with.Teams, with.Wins, with.Races)
	}
	if !with.WinRate.Valid || with.WinRate.Value != 33.33 {
		t.Errorf("with debuffer WinRate = %v, want 33.33", with.WinRate)
	}
	if with.Round != "R1" || with.Dimension != model.DimHasDebuffer {
		t.Errorf("labels: round=%q dim=%q", with.Round, with.Dimension)
	}

	without := find(t, groups, "false")
	if without.Teams != 1 || without.WinRate.Value != 50 {
		t.Errorf("without debuffer: %+v", without)
	}
}

func TestAggregate_DebufferType(t *testing.T) {
	tbl := makeTable(t,
		[]string{"a", "Grass Wonder", "", "Nice Nature", "", "", "", "2", "4"},
		[]string{"b", "Grass Wonder", "", "", "", "", "", "1", "4"},
		[]string{"c", "Special Week", "", "", "", "", "", "0", "4"},
	)
	groups, err := ByDimension(tbl, "R1", model.DimDebufferType, testTable(t))
	if err != nil {
		t.Fatalf("ByDimension: %v", err)
	}
	want := []string{"Mixed", "No Debuffer", "Speed"}
	if len(groups) != len(want) {
		t.Fatalf("got %d groups, want %d", len(groups), len(want))
	}
	for i, label := range want {
		if groups[i].Category.Label != label {
			t.Errorf("group %d = %q, want %q", i, groups[i].Category.Label, label)
		}
	}
	if none := find(t, groups, "No Debuffer"); !none.WinRate.Valid || none.WinRate.Value != 0 {
		t.Errorf("0 wins of 4 races should be a defined 0%%, got %v", none.WinRate)
	}
}

func TestAggregate_MissingResultColumns(t *testing.T) {
	tbl, err := model.NewTable([]string{"R2 - Uma 1", "R2 - No. of wins"}, [][]string{{"Grass Wonder", "3"}})
	if err != nil {
		t.Fatal(err)
	}
	groups, err := ByDimension(tbl, "R2", model.DimHasDebuffer, testTable(t))
	if err != nil {
		t.Fatalf("missing races column must not error: %v", err)
	}
	if groups == nil || len(groups) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", groups)
	}

	groups, err = ByDimension(tbl, "R9", model.DimDebufferType, testTable(t))
	if err != nil || len(groups) != 0 {
		t.Errorf("unknown round: groups=%v err=%v", groups, err)
	}
}

func TestAggregate_NonNumericAndZeroRaces(t *testing.T) {
	tbl := makeTable(t,
		[]string{"a", "Grass Wonder", "", "", "", "", "", "n/a", "abc"},
		[]string{"b", "Grass Wonder", "", "", "", "", "", "", ""},
		[]string{"c", "Special Week", "", "", "", "", "", "2", "5"},
	)
	groups, err := ByDimension(tbl, "R1", model.DimHasDebuffer, testTable(t))
	if err != nil {
		t.Fatalf("ByDimension: %v", err)
	}
	with := find(t, groups, "true")
	if with.Teams != 2 {
		t.Errorf("teams with unparseable results are still counted: got %d", with.Teams)
	}
	if with.Wins != 0 || with.Races != 0 {
		t.Errorf("sums should exclude missing values: wins=%v races=%v", with.Wins, with.Races)
	}
	if with.WinRate.Valid {
		t.Errorf("zero races must give an undefined win rate, got %v", with.WinRate)
	}
}

func TestAggregate_WinsAboveRacesTolerated(t *testing.T) {
	tbl := makeTable(t, []string{"a", "", "", "", "", "", "", "6", "4"})
	groups, err := ByDimension(tbl, "R1", model.DimHasDebuffer, testTable(t))
	if err != nil {
		t.Fatalf("ByDimension: %v", err)
	}
	if g := find(t, groups, "false"); g.WinRate.Value != 150 {
		t.Errorf("WinRate = %v, want 150.00", g.WinRate)
	}
}

func TestAggregate_CountDimensions(t *testing.T) {
	tbl := makeTable(t,
		[]string{"a", "Grass Wonder", "Debuffer", "Nice Nature", "Debuffer", "", "", "1", "10"},
		[]string{"b", "Grass Wonder", "Debuffer", "Special Week", "Hybrid", "", "", "3", "10"},
		[]string{"c", "Grass Wonder", "Ace", "", "", "", "", "5", "10"},
	)
	pairs, err := ByDimension(tbl, "R1", model.DimDebuffCounts, testTable(t))
	if err != nil {
		t.Fatalf("ByDimension: %v", err)
	}
	// Teams b (unknown hybrid -> Other) and c both have zero stamina; b has one speed.
	labels := []string{"0/0", "1/0", "1/1"}
	if len(pairs) != len(labels) {
		t.Fatalf("got %d groups, want %d: %+v", len(pairs), len(labels), pairs)
	}
	for i, l := range labels {
		if pairs[i].Category.Label != l {
			t.Errorf("group %d = %q, want %q", i, pairs[i].Category.Label, l)
		}
	}
	if g := find(t, pairs, "1/1"); g.Category.Counts != (model.DebuffCounts{Speed: 1, Stamina: 1}) {
		t.Errorf("counts = %+v", g.Category.Counts)
	}

	other, err := ByDimension(tbl, "R1", model.DimOtherCount, testTable(t))
	if err != nil {
		t.Fatalf("ByDimension: %v", err)
	}
	if g := find(t, other, "1"); g.Teams != 1 || g.Wins != 3 {
		t.Errorf("other=1 group: %+v", g)
	}
	if g := find(t, other, "0"); g.Teams != 2 {
		t.Errorf("other=0 group: %+v", g)
	}
}

func TestAggregate_Errors(t *testing.T) {
	if _, err := ByDimension(nil, "R1", model.DimHasDebuffer, testTable(t)); !errors.Is(err, model.ErrNilTable) {
		t.Errorf("nil table: got %v, want ErrNilTable", err)
	}
	tbl := makeTable(t)
	if _, err := ByDimension(tbl, "R1", model.Dimension("Bogus"), testTable(t)); err == nil {
		t.Error("expected error for unknown dimension")
	}
	if _, err := Aggregate(tbl, "R1", model.DimHasDebuffer, nil); err == nil {
		t.Error("expected error for nil categorizer")
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	tbl := makeTable(t,
		[]string{"a", "Grass Wonder", "Debuffer", "", "", "", "", "3", "10"},
		[]string{"b", "Special Week", "", "", "", "", "", "1", "2"},
	)
	first, _ := ByDimension(tbl, "R1", model.DimDebufferType, testTable(t))
	second, _ := ByDimension(tbl, "R1", model.DimDebufferType, testTable(t))
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("group %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}
