package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-cm-stats/internal/analysis"
	"github.com/pable/go-cm-stats/internal/matrix"
	"github.com/pable/go-cm-stats/internal/model"
	"github.com/pable/go-cm-stats/internal/report"
)

var (
	heatmapRows     string
	heatmapCols     string
	heatmapPerRound bool
	heatmapJSON     bool
)

// heatmapCmd pivots role-gated counts into a win-rate matrix.
var heatmapCmd = &cobra.Command{
	Use:   "heatmap <file>",
	Short: "Win-rate matrix over two debuffer counts",
	Long: `Group teams by two role-gated debuffer counts and print the win rate of
each (row, column) combination. Rows run from the highest count down, columns
from the lowest up. Combinations no team fielded are shown as "—".`,
	Args: cobra.ExactArgs(1),
	RunE: runHeatmap,
}

func init() {
	f := heatmapCmd.Flags()
	f.StringVar(&heatmapRows, "rows", "speed", "row axis: speed, stamina or other")
	f.StringVar(&heatmapCols, "cols", "stamina", "column axis: speed, stamina or other")
	f.String("value", "pooled", "cell value: pooled or avg")
	f.StringSlice("round", nil, "rounds to aggregate (default: detect from header)")
	f.BoolVar(&heatmapPerRound, "per-round", false, "one matrix per round instead of all rounds merged")
	f.BoolVar(&heatmapJSON, "json", false, "write matrices as JSON to stdout")
}

func runHeatmap(cmd *cobra.Command, args []string) error {
	rowAxis, err := matrix.ParseAxis(heatmapRows)
	if err != nil {
		return err
	}
	colAxis, err := matrix.ParseAxis(heatmapCols)
	if err != nil {
		return err
	}
	value, err := matrix.ParseValue(cfg.Value)
	if err != nil {
		return err
	}

	table, err := classificationTable()
	if err != nil {
		return err
	}
	categorize, err := matrix.Categorizer(table, rowAxis, colAxis)
	if err != nil {
		return err
	}
	res, err := analyze(args[0], model.DimDebuffCounts, analysis.Options{Table: table, Categorize: categorize})
	if err != nil {
		return err
	}

	var ms []*matrix.Matrix
	if heatmapPerRound {
		ms, err = matrix.BuildPerRound(res.ByRound, rowAxis, colAxis, value)
	} else {
		var m *matrix.Matrix
		m, err = matrix.Build(res.Merged, rowAxis, colAxis, value)
		ms = []*matrix.Matrix{m}
	}
	if err != nil {
		return err
	}

	if heatmapJSON {
		return report.WriteMatrixJSON(os.Stdout, ms)
	}
	for _, m := range ms {
		title := "All rounds"
		if m.Round != "" {
			title = "Round " + m.Round
		}
		report.Section(os.Stdout, "%s: %s by %s (%s)", title, m.RowAxis, m.ColAxis, m.Value)
		report.PrintMatrix(os.Stdout, m)
	}
	return nil
}
