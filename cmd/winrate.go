package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pable/go-cm-stats/internal/analysis"
	"github.com/pable/go-cm-stats/internal/model"
	"github.com/pable/go-cm-stats/internal/report"
)

var (
	winrateGroups bool
	winrateSave   bool
	winrateCSV    string
)

// winrateCmd aggregates a results file by one classification dimension.
var winrateCmd = &cobra.Command{
	Use:   "winrate <file>",
	Short: "Win rates grouped by debuffer composition",
	Long: `Classify every team in every round and report win rates per category.

Dimensions (--by):
  has      HasDebuffer     team fields at least one known debuffer
  type     DebufferType    Speed, Stamina, Other, Mixed or No Debuffer
  speed    Speed_Count     role-flagged speed debuffers
  stamina  Stamina_Count   role-flagged stamina debuffers
  other    Other_Count     role-flagged debuffers that are not speed or stamina
  counts   DebuffCounts    (speed, stamina) count pair

Both reconciled rates are reported: AvgWR is the mean of per-round group
rates, PooledWR(%) is total wins over total races.`,
	Args: cobra.ExactArgs(1),
	RunE: runWinrate,
}

func init() {
	f := winrateCmd.Flags()
	f.String("by", "type", "dimension to group by")
	f.StringSlice("round", nil, "rounds to aggregate (default: detect from header)")
	f.BoolVar(&winrateGroups, "groups", false, "also print the per-round group table")
	f.BoolVar(&winrateSave, "save", false, "store the run in the results database")
	f.StringVar(&winrateCSV, "csv", "", "write the reconciled rows to this CSV file instead of printing")
}

func runWinrate(cmd *cobra.Command, args []string) error {
	dim, err := model.ParseDimension(cfg.Dimension)
	if err != nil {
		return err
	}
	res, err := analyze(args[0], dim, analysis.Options{})
	if err != nil {
		return err
	}

	if winrateSave {
		if err := saveRun(args[0], res); err != nil {
			return err
		}
	}

	if winrateCSV != "" {
		return writeCSVFile(winrateCSV, res)
	}

	out := os.Stdout
	if winrateGroups {
		report.Section(out, "Per-round groups (%s)", res.Dimension)
		report.PrintGroupTable(out, res.PerRound)
	}
	report.Section(out, "By round (%s)", res.Dimension)
	report.PrintReconciledTable(out, res.ByRound, true)
	report.Section(out, "All rounds (%s)", res.Dimension)
	report.PrintReconciledTable(out, res.Merged, false)
	return nil
}

// writeCSVFile writes the merged view to path and the by-round view next to
// it with a ".rounds" suffix.
func writeCSVFile(path string, res *analysis.Result) error {
	ext := filepath.Ext(path)
	roundsPath := path[:len(path)-len(ext)] + ".rounds" + ext

	for _, out := range []struct {
		path    string
		rows    []model.ReconciledRow
		byRound bool
	}{
		{path, res.Merged, false},
		{roundsPath, res.ByRound, true},
	} {
		f, err := os.Create(out.path)
		if err != nil {
			return fmt.Errorf("create %s: %w", out.path, err)
		}
		if err := report.WriteCSV(f, out.rows, out.byRound); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", out.path, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		log.Info().Str("file", out.path).Int("rows", len(out.rows)).Msg("wrote csv")
	}
	return nil
}

func saveRun(source string, res *analysis.Result) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	rows := make([]model.ReconciledRow, 0, len(res.ByRound)+len(res.Merged))
	rows = append(rows, res.ByRound...)
	rows = append(rows, res.Merged...)
	abs, err := filepath.Abs(source)
	if err != nil {
		abs = source
	}
	id, err := db.InsertRun(model.RunSummary{
		Source:    abs,
		Dimension: res.Dimension,
		Rounds:    res.Rounds,
		Skipped:   res.Skipped,
	}, res.PerRound, rows)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	log.Info().Str("run", id).Msg("stored")
	return nil
}
