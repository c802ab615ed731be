package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/go-cm-stats/internal/analysis"
	"github.com/pable/go-cm-stats/internal/matrix"
	"github.com/pable/go-cm-stats/internal/model"
)

var cSection = color.New(color.FgCyan, color.Bold)

// Section prints a colored section title followed by a blank line.
func Section(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w)
	cSection.Fprintf(w, format, args...)
	fmt.Fprintln(w)
}

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

func anys(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// num formats a wins/races sum; whole numbers print without decimals.
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func dimensionHeader(d model.Dimension) string {
	if d == "" {
		return "Category"
	}
	return string(d)
}

// PrintGroupTable prints per-round aggregates.
// Columns: Round | <dimension> | Teams | Wins | Races | WinRate
func PrintGroupTable(w io.Writer, groups []model.GroupStats) {
	if len(groups) == 0 {
		fmt.Fprintln(w, "No groups.")
		return
	}
	table := newTable(w)
	table.Header("Round", dimensionHeader(groups[0].Dimension), "Teams", "Wins", "Races", "WinRate")
	for _, g := range groups {
		table.Append(
			g.Round,
			g.Category.Label,
			strconv.Itoa(g.Teams),
			num(g.Wins),
			num(g.Races),
			g.WinRate.String(),
		)
	}
	table.Render()
}

// PrintReconciledTable prints reconciled rows. The Round column is shown
// only for the by-round view.
func PrintReconciledTable(w io.Writer, rows []model.ReconciledRow, byRound bool) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No groups.")
		return
	}
	table := newTable(w)
	table.Header(anys(reconciledHeader(rows[0].Dimension, byRound))...)
	for _, r := range rows {
		table.Append(anys(reconciledRecord(r, byRound, model.Rate.String))...)
	}
	table.Render()
}

// reconciledHeader returns the fixed column names used for reconciled output.
func reconciledHeader(d model.Dimension, byRound bool) []string {
	cols := []string{dimensionHeader(d), "AvgWR", "Teams", "TotalWins", "TotalRaces", "PooledWR(%)"}
	if byRound {
		cols = append([]string{"Round"}, cols...)
	}
	return cols
}

func reconciledRecord(r model.ReconciledRow, byRound bool, rate func(model.Rate) string) []string {
	rec := []string{
		r.Category.Label,
		rate(r.AvgWR),
		strconv.Itoa(r.Teams),
		num(r.TotalWins),
		num(r.TotalRaces),
		rate(r.PooledWR),
	}
	if byRound {
		rec = append([]string{r.Round}, rec...)
	}
	return rec
}

// csvRate leaves undefined rates empty so spreadsheets read them as blank.
// AvgWR keeps full precision.
func csvRate(r model.Rate) string {
	if !r.Valid {
		return ""
	}
	return strconv.FormatFloat(r.Value, 'f', -1, 64)
}

// WriteCSV writes reconciled rows with the same columns as the terminal table.
func WriteCSV(w io.Writer, rows []model.ReconciledRow, byRound bool) error {
	dim := model.Dimension("")
	if len(rows) > 0 {
		dim = rows[0].Dimension
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(reconciledHeader(dim, byRound)); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(reconciledRecord(r, byRound, csvRate)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// PrintMatrix prints a matrix with row keys down the side and column keys
// across the top. Undefined cells print as "—".
func PrintMatrix(w io.Writer, m *matrix.Matrix) {
	if len(m.RowKeys) == 0 {
		fmt.Fprintln(w, "Empty matrix.")
		return
	}
	table := newTable(w)
	header := []string{fmt.Sprintf("%s \\ %s", m.RowAxis, m.ColAxis)}
	for _, ck := range m.ColKeys {
		header = append(header, strconv.Itoa(ck))
	}
	table.Header(anys(header)...)
	for i, rk := range m.RowKeys {
		rec := []string{strconv.Itoa(rk)}
		for j := range m.ColKeys {
			rec = append(rec, m.Cells[i][j].String())
		}
		table.Append(anys(rec)...)
	}
	table.Render()
}

// jsonMatrix is the export shape of a matrix; undefined cells are null.
type jsonMatrix struct {
	Round   string       `json:"round,omitempty"`
	Value   string       `json:"value"`
	RowAxis string       `json:"row_axis"`
	ColAxis string       `json:"col_axis"`
	Rows    []int        `json:"rows"`
	Cols    []int        `json:"cols"`
	Cells   [][]*float64 `json:"cells"`
}

// WriteMatrixJSON writes the matrices as an indented JSON array.
func WriteMatrixJSON(w io.Writer, ms []*matrix.Matrix) error {
	out := make([]jsonMatrix, 0, len(ms))
	for _, m := range ms {
		jm := jsonMatrix{
			Round:   m.Round,
			Value:   string(m.Value),
			RowAxis: string(m.RowAxis),
			ColAxis: string(m.ColAxis),
			Rows:    m.RowKeys,
			Cols:    m.ColKeys,
			Cells:   make([][]*float64, len(m.Cells)),
		}
		for i, row := range m.Cells {
			jm.Cells[i] = make([]*float64, len(row))
			for j, c := range row {
				if c.Valid {
					v := c.Value
					jm.Cells[i][j] = &v
				}
			}
		}
		out = append(out, jm)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// PrintRoster prints the identifier breakdown for one round.
// Columns: IDENTIFIER | TAG | FIELDED | GATED | ROLES | STYLES
func PrintRoster(w io.Writer, entries []analysis.RosterEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No identifiers fielded.")
		return
	}
	table := newTable(w)
	table.Header("IDENTIFIER", "TAG", "FIELDED", "GATED", "ROLES", "STYLES")
	for _, e := range entries {
		tag := string(e.Tag)
		if !e.Known {
			tag = "unknown"
		}
		table.Append(e.Identifier, tag, strconv.Itoa(e.Fielded), strconv.Itoa(e.Gated), formatRoles(e.Roles), formatRoles(e.Styles))
	}
	table.Render()
}

// formatRoles renders role counts as "Debuffer:3 Ace:1", most used first.
func formatRoles(roles map[string]int) string {
	keys := make([]string, 0, len(roles))
	for k := range roles {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if roles[keys[i]] != roles[keys[j]] {
			return roles[keys[i]] > roles[keys[j]]
		}
		return keys[i] < keys[j]
	})
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		name := k
		if name == "" {
			name = "none"
		}
		parts = append(parts, fmt.Sprintf("%s:%d", name, roles[k]))
	}
	return strings.Join(parts, " ")
}

// PrintTeams prints the per-team classification of one round.
// Columns: ROW | HAS_DEBUFFER | TYPE | SPD | STA | OTH | WINS | RACES
func PrintTeams(w io.Writer, teams []analysis.TeamResult) {
	if len(teams) == 0 {
		fmt.Fprintln(w, "No teams.")
		return
	}
	table := newTable(w)
	table.Header("ROW", "HAS_DEBUFFER", "TYPE", "SPD", "STA", "OTH", "WINS", "RACES")
	for _, t := range teams {
		wins, races := "—", "—"
		if t.HasWins {
			wins = num(t.Wins)
		}
		if t.HasRaces {
			races = num(t.Races)
		}
		table.Append(
			strconv.Itoa(t.Index+1),
			strconv.FormatBool(t.HasDebuffer),
			t.DebufferType,
			strconv.Itoa(t.Counts.Speed),
			strconv.Itoa(t.Counts.Stamina),
			strconv.Itoa(t.Counts.Other),
			wins,
			races,
		)
	}
	table.Render()
}

// PrintRuns prints stored runs, newest first.
// Columns: ID | CREATED | DIMENSION | ROUNDS | SOURCE
func PrintRuns(w io.Writer, runs []model.RunSummary) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs stored yet.")
		return
	}
	table := newTable(w)
	table.Header("ID", "CREATED", "DIMENSION", "ROUNDS", "SOURCE")
	for _, r := range runs {
		table.Append(
			ShortID(r.ID),
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			string(r.Dimension),
			strings.Join(r.Rounds, ","),
			r.Source,
		)
	}
	table.Render()
}

// PrintRaw prints the result of an arbitrary query.
func PrintRaw(w io.Writer, cols []string, rows [][]string) {
	table := newTable(w)
	table.Header(anys(cols)...)
	for _, r := range rows {
		table.Append(anys(r)...)
	}
	table.Render()
	fmt.Fprintf(w, "(%d rows)\n", len(rows))
}

// ShortID truncates a run ID for display.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// PrintRounds prints the detected rounds of an input file.
// Columns: ROUND | TEAMS | RESULTS | UNKNOWN
func PrintRounds(w io.Writer, infos []analysis.RoundInfo) {
	if len(infos) == 0 {
		fmt.Fprintln(w, "No rounds detected.")
		return
	}
	table := newTable(w)
	table.Header("ROUND", "TEAMS", "RESULTS", "UNKNOWN")
	for _, in := range infos {
		results := "yes"
		if !in.HasResults {
			results = "no"
		}
		table.Append(in.Round, strconv.Itoa(in.Teams), results, strings.Join(in.Unknown, ", "))
	}
	table.Render()
}
