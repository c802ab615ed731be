package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/pable/go-cm-stats/internal/analysis"
	"github.com/pable/go-cm-stats/internal/matrix"
	"github.com/pable/go-cm-stats/internal/model"
)

func init() {
	color.NoColor = true
}

func reconciled() []model.ReconciledRow {
	return []model.ReconciledRow{
		{Round: "R1", Dimension: model.DimDebufferType, Category: model.Category{Label: "Speed"},
			AvgWR: model.Rate{Value: 41.666666, Valid: true}, Teams: 2, TotalWins: 5, TotalRaces: 12, PooledWR: model.Percent(5, 12)},
		{Round: "R1", Dimension: model.DimDebufferType, Category: model.Category{Label: "Mixed"},
			Teams: 0, TotalWins: 0, TotalRaces: 0},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, reconciled(), true); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines:\n%s", len(lines), buf.String())
	}
	if want := "Round,DebufferType,AvgWR,Teams,TotalWins,TotalRaces,PooledWR(%)"; lines[0] != want {
		t.Errorf("header = %q, want %q", lines[0], want)
	}
	if want := "R1,Speed,41.666666,2,5,12,41.67"; lines[1] != want {
		t.Errorf("row = %q, want %q", lines[1], want)
	}
	if want := "R1,Mixed,,0,0,0,"; lines[2] != want {
		t.Errorf("undefined rates should be blank: %q, want %q", lines[2], want)
	}
}

func TestWriteCSV_Merged(t *testing.T) {
	var buf bytes.Buffer
	rows := reconciled()[:1]
	rows[0].Round = ""
	if err := WriteCSV(&buf, rows, false); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "DebufferType,AvgWR,") {
		t.Errorf("merged view should not have a Round column:\n%s", buf.String())
	}
}

func TestPrintReconciledTable(t *testing.T) {
	var buf bytes.Buffer
	PrintReconciledTable(&buf, reconciled(), true)
	out := buf.String()
	for _, want := range []string{"Speed", "41.67", "Mixed", "—"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	PrintReconciledTable(&buf, nil, false)
	if !strings.Contains(buf.String(), "No groups") {
		t.Errorf("empty input: %q", buf.String())
	}
}

func TestPrintGroupTable(t *testing.T) {
	var buf bytes.Buffer
	PrintGroupTable(&buf, []model.GroupStats{
		{Round: "R1", Dimension: model.DimHasDebuffer, Category: model.Category{Label: "true"},
			Teams: 3, Wins: 4, Races: 12, WinRate: model.Percent(4, 12)},
	})
	out := buf.String()
	for _, want := range []string{"R1", "true", "33.33", "12"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func testMatrix(t *testing.T) *matrix.Matrix {
	t.Helper()
	rows := []model.ReconciledRow{
		{Category: model.Category{Counts: model.DebuffCounts{Speed: 0, Stamina: 0}}, PooledWR: model.Rate{Value: 25, Valid: true}},
		{Category: model.Category{Counts: model.DebuffCounts{Speed: 1, Stamina: 2}}, PooledWR: model.Rate{Value: 60, Valid: true}},
	}
	m, err := matrix.Build(rows, matrix.SpeedCount, matrix.StaminaCount, matrix.PooledWR)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return m
}

func TestWriteMatrixJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMatrixJSON(&buf, []*matrix.Matrix{testMatrix(t)}); err != nil {
		t.Fatalf("WriteMatrixJSON: %v", err)
	}
	var got []struct {
		RowAxis string       `json:"row_axis"`
		ColAxis string       `json:"col_axis"`
		Rows    []int        `json:"rows"`
		Cols    []int        `json:"cols"`
		Cells   [][]*float64 `json:"cells"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, buf.String())
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 matrix, got %d", len(got))
	}
	m := got[0]
	if m.RowAxis != "Speed_Count" || m.ColAxis != "Stamina_Count" {
		t.Errorf("axes = %s, %s", m.RowAxis, m.ColAxis)
	}
	// Rows descend: [1 0]; cols ascend: [0 2].
	if len(m.Rows) != 2 || m.Rows[0] != 1 || m.Cols[1] != 2 {
		t.Errorf("keys rows=%v cols=%v", m.Rows, m.Cols)
	}
	if m.Cells[0][0] != nil {
		t.Errorf("missing combination should be null, got %v", *m.Cells[0][0])
	}
	if m.Cells[0][1] == nil || *m.Cells[0][1] != 60 {
		t.Errorf("cell (1,2) = %v, want 60", m.Cells[0][1])
	}
}

func TestPrintMatrix(t *testing.T) {
	var buf bytes.Buffer
	PrintMatrix(&buf, testMatrix(t))
	out := buf.String()
	for _, want := range []string{"60.00", "25.00", "—"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintRosterAndTeams(t *testing.T) {
	var buf bytes.Buffer
	PrintRoster(&buf, []analysis.RosterEntry{
		{Identifier: "Grass Wonder", Tag: model.TagSpeed, Known: true, Fielded: 3, Gated: 2,
			Roles: map[string]int{"Debuffer": 2, "": 1}, Styles: map[string]int{"Pace Chaser": 2}},
		{Identifier: "Mystery Horse", Fielded: 1, Roles: map[string]int{"Ace": 1}},
	})
	out := buf.String()
	for _, want := range []string{"Grass Wonder", "Debuffer:2 none:1", "unknown", "STYLES", "Pace Chaser:2"} {
		if !strings.Contains(out, want) {
			t.Errorf("roster output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	team := analysis.TeamResult{Index: 0, Wins: 3, HasWins: true}
	team.DebufferType = model.LabelNoDebuffer
	PrintTeams(&buf, []analysis.TeamResult{team})
	if !strings.Contains(buf.String(), "No Debuffer") {
		t.Errorf("teams output:\n%s", buf.String())
	}
}

func TestFormatRoles(t *testing.T) {
	got := formatRoles(map[string]int{"Ace": 1, "Debuffer": 1, "Other": 4})
	if want := "Other:4 Ace:1 Debuffer:1"; got != want {
		t.Errorf("formatRoles = %q, want %q", got, want)
	}
}

func TestShortID(t *testing.T) {
	if got := ShortID("0123456789abcdef"); got != "01234567" {
		t.Errorf("ShortID = %q", got)
	}
	if got := ShortID("abc"); got != "abc" {
		t.Errorf("ShortID short = %q", got)
	}
}
