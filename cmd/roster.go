package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-cm-stats/internal/analysis"
	"github.com/pable/go-cm-stats/internal/report"
)

var rosterTeams bool

// rosterCmd shows which identifiers were fielded in a round and how.
var rosterCmd = &cobra.Command{
	Use:   "roster <file> <round>",
	Short: "Identifiers fielded in one round, with tags and roles",
	Long: `List every identifier fielded in the round, most fielded first, with its
classification tag ("unknown" when the table lacks it), how many of its slots
passed the debuffer role check, and the role classes it was fielded under.

With --teams, also print how each team row was classified.`,
	Args: cobra.ExactArgs(2),
	RunE: runRoster,
}

func init() {
	rosterCmd.Flags().BoolVar(&rosterTeams, "teams", false, "also print per-team classification")
}

func runRoster(cmd *cobra.Command, args []string) error {
	round := args[1]
	t, err := loadInput(args[0])
	if err != nil {
		return err
	}
	table, err := classificationTable()
	if err != nil {
		return err
	}

	entries, err := analysis.RosterBreakdown(t, round, table)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		log.Warn().Str("round", round).Msg("no identifiers fielded; check the round name with 'cmstats rounds'")
	}
	report.Section(os.Stdout, "Roster: round %s", round)
	report.PrintRoster(os.Stdout, entries)

	if rosterTeams {
		teams, err := analysis.ClassifyRound(t, round, table)
		if err != nil {
			return err
		}
		report.Section(os.Stdout, "Teams: round %s", round)
		report.PrintTeams(os.Stdout, teams)
	}
	return nil
}
