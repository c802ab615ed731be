package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-cm-stats/internal/analysis"
	"github.com/pable/go-cm-stats/internal/report"
)

// roundsCmd lists the rounds found in a results file.
var roundsCmd = &cobra.Command{
	Use:   "rounds <file>",
	Short: "List the rounds detected in a results file",
	Long: `List every round prefix found in the header, how many teams fielded a
roster in it, whether it has wins/races columns, and which fielded identifiers
the classification table does not know.`,
	Args: cobra.ExactArgs(1),
	RunE: runRounds,
}

func runRounds(cmd *cobra.Command, args []string) error {
	t, err := loadInput(args[0])
	if err != nil {
		return err
	}
	table, err := classificationTable()
	if err != nil {
		return err
	}
	report.PrintRounds(os.Stdout, analysis.Survey(t, table))
	return nil
}
