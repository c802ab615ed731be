package storage

import (
	"errors"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/pable/go-cm-stats/internal/model"
)

func openMemDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleGroups() []model.GroupStats {
	return []model.GroupStats{
		{Round: "R1", Dimension: model.DimDebuffCounts,
			Category: model.Category{Label: "0/0"}, Teams: 2, Wins: 3, Races: 10, WinRate: model.Percent(3, 10)},
		{Round: "R1", Dimension: model.DimDebuffCounts,
			Category: model.Category{Label: "1/0", Counts: model.DebuffCounts{Speed: 1}}, Teams: 1, Wins: 0, Races: 0},
	}
}

func sampleRows() []model.ReconciledRow {
	return []model.ReconciledRow{
		{Round: "R1", Dimension: model.DimDebuffCounts, Category: model.Category{Label: "0/0"},
			AvgWR: model.Rate{Value: 30, Valid: true}, Teams: 1, TotalWins: 3, TotalRaces: 10, PooledWR: model.Percent(3, 10)},
		{Round: "R1", Dimension: model.DimDebuffCounts, Category: model.Category{Label: "1/0", Counts: model.DebuffCounts{Speed: 1}}},
		{Dimension: model.DimDebuffCounts, Category: model.Category{Label: "0/0"},
			AvgWR: model.Rate{Value: 30, Valid: true}, Teams: 1, TotalWins: 3, TotalRaces: 10, PooledWR: model.Percent(3, 10)},
	}
}

func TestInsertRunAndGet(t *testing.T) {
	db := openMemDB(t)

	run := model.RunSummary{
		Source:    "teams.csv",
		Dimension: model.DimDebuffCounts,
		Rounds:    []string{"R1"},
		Skipped:   []string{"R2", "R3"},
	}
	id, err := db.InsertRun(run, sampleGroups(), sampleRows())
	if err != nil {
		t.Fatalf("InsertRun: %v", err)
	}
	if len(id) != 36 {
		t.Errorf("expected a generated UUID, got %q", id)
	}

	got, err := db.GetRunByPrefix(id[:8])
	if err != nil {
		t.Fatalf("GetRunByPrefix: %v", err)
	}
	if got == nil {
		t.Fatal("run not found by prefix")
	}
	if got.ID != id || got.Source != "teams.csv" || got.Dimension != model.DimDebuffCounts {
		t.Errorf("run = %+v", got)
	}
	if len(got.Skipped) != 2 || got.Skipped[1] != "R3" {
		t.Errorf("skipped = %v", got.Skipped)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}

	missing, err := db.GetRunByPrefix("zzzz")
	if err != nil || missing != nil {
		t.Errorf("unknown prefix: run=%v err=%v", missing, err)
	}
}

func TestUndefinedRatesRoundTripAsNull(t *testing.T) {
	db := openMemDB(t)
	id, err := db.InsertRun(model.RunSummary{Dimension: model.DimDebuffCounts}, sampleGroups(), sampleRows())
	if err != nil {
		t.Fatalf("InsertRun: %v", err)
	}

	groups, err := db.GetGroupStats(id)
	if err != nil {
		t.Fatalf("GetGroupStats: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if !groups[0].WinRate.Valid || groups[0].WinRate.Value != 30 {
		t.Errorf("defined rate lost: %v", groups[0].WinRate)
	}
	if groups[1].WinRate.Valid {
		t.Errorf("undefined rate came back as %v", groups[1].WinRate)
	}
	if groups[1].Category.Counts.Speed != 1 || groups[1].Dimension != model.DimDebuffCounts {
		t.Errorf("category not restored: %+v", groups[1])
	}

	_, rows, err := db.QueryRaw(`SELECT win_rate FROM group_stats WHERE category = '1/0'`)
	if err != nil {
		t.Fatalf("QueryRaw: %v", err)
	}
	if len(rows) != 1 || rows[0][0] != "NULL" {
		t.Errorf("expected NULL win_rate, got %v", rows)
	}
}

func TestReconciledViews(t *testing.T) {
	db := openMemDB(t)
	id, err := db.InsertRun(model.RunSummary{Dimension: model.DimDebuffCounts}, nil, sampleRows())
	if err != nil {
		t.Fatalf("InsertRun: %v", err)
	}

	byRound, err := db.GetReconciledRows(id, true)
	if err != nil {
		t.Fatalf("GetReconciledRows: %v", err)
	}
	if len(byRound) != 2 {
		t.Fatalf("by-round rows = %d, want 2", len(byRound))
	}
	if byRound[1].AvgWR.Valid || byRound[1].PooledWR.Valid {
		t.Errorf("undefined rates should stay undefined: %+v", byRound[1])
	}

	merged, err := db.GetReconciledRows(id, false)
	if err != nil {
		t.Fatalf("GetReconciledRows: %v", err)
	}
	if len(merged) != 1 || merged[0].Round != "" || merged[0].PooledWR.Value != 30 {
		t.Errorf("merged = %+v", merged)
	}
}

func TestListAndDeleteRuns(t *testing.T) {
	db := openMemDB(t)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	old, err := db.InsertRun(model.RunSummary{CreatedAt: base, Dimension: model.DimHasDebuffer}, sampleGroups(), nil)
	if err != nil {
		t.Fatalf("InsertRun: %v", err)
	}
	recent, err := db.InsertRun(model.RunSummary{CreatedAt: base.Add(time.Hour), Dimension: model.DimDebufferType}, nil, nil)
	if err != nil {
		t.Fatalf("InsertRun: %v", err)
	}

	runs, err := db.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != recent || runs[1].ID != old {
		t.Fatalf("expected newest first, got %+v", runs)
	}

	if err := db.DeleteRun(old); err != nil {
		t.Fatalf("DeleteRun: %v", err)
	}
	_, rows, err := db.QueryRaw(`SELECT COUNT(*) FROM group_stats`)
	if err != nil {
		t.Fatalf("QueryRaw: %v", err)
	}
	if rows[0][0] != "0" {
		t.Errorf("group_stats should cascade on delete, %s rows left", rows[0][0])
	}
	runs, _ = db.ListRuns()
	if len(runs) != 1 {
		t.Errorf("expected 1 run after delete, got %d", len(runs))
	}
}

func TestQueryRawError(t *testing.T) {
	db := openMemDB(t)
	if _, _, err := db.QueryRaw("SELECT * FROM no_such_table"); err == nil {
		t.Error("expected error for unknown table")
	}
}

func TestGetRunByPrefix_EmptyAndAmbiguous(t *testing.T) {
	db := openMemDB(t)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"abc-111", "abc-222"} {
		run := model.RunSummary{ID: id, CreatedAt: base.Add(time.Duration(i) * time.Hour), Dimension: model.DimHasDebuffer}
		if _, err := db.InsertRun(run, nil, nil); err != nil {
			t.Fatalf("InsertRun: %v", err)
		}
	}

	if _, err := db.GetRunByPrefix(""); !errors.Is(err, ErrEmptyPrefix) {
		t.Errorf("empty prefix: err = %v, want ErrEmptyPrefix", err)
	}
	if _, err := db.GetRunByPrefix("abc"); !errors.Is(err, ErrAmbiguousPrefix) {
		t.Errorf("shared prefix: err = %v, want ErrAmbiguousPrefix", err)
	}
	got, err := db.GetRunByPrefix("abc-2")
	if err != nil || got == nil || got.ID != "abc-222" {
		t.Errorf("unique prefix: run=%v err=%v", got, err)
	}
	// LIKE wildcards in the prefix are matched literally.
	if got, err := db.GetRunByPrefix("%"); err != nil || got != nil {
		t.Errorf("wildcard prefix: run=%v err=%v", got, err)
	}

	runs, _ := db.ListRuns()
	if len(runs) != 2 {
		t.Errorf("lookups must not delete anything, %d runs left", len(runs))
	}
}

func TestOpen_MigratesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	id, err := db.InsertRun(model.RunSummary{Dimension: model.DimDebufferType}, sampleGroups(), nil)
	if err != nil {
		t.Fatalf("InsertRun: %v", err)
	}
	db.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	_, rows, err := db.QueryRaw(`PRAGMA user_version`)
	if err != nil {
		t.Fatalf("QueryRaw: %v", err)
	}
	if rows[0][0] != strconv.Itoa(SchemaVersion()) {
		t.Errorf("user_version = %s, want %d", rows[0][0], SchemaVersion())
	}
	if run, err := db.GetRunByPrefix(id); err != nil || run == nil {
		t.Errorf("run lost across reopen: run=%v err=%v", run, err)
	}
}
