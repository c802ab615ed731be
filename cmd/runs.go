package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-cm-stats/internal/report"
	"github.com/pable/go-cm-stats/internal/storage"
)

var runsShowGroups bool

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Stored analysis runs (saved with 'winrate --save')",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <id-prefix>",
	Short: "Print a stored run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <id-prefix>",
	Short: "Delete a stored run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsDelete,
}

func init() {
	runsShowCmd.Flags().BoolVar(&runsShowGroups, "groups", false, "also print the per-round group table")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsDeleteCmd)
}

func runRunsList(cmd *cobra.Command, _ []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.ListRuns()
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	report.PrintRuns(os.Stdout, runs)
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()
	return showRun(db, args[0], runsShowGroups)
}

// showRun prints a stored run in the same layout as the winrate command.
func showRun(db *storage.DB, prefix string, groups bool) error {
	run, err := db.GetRunByPrefix(prefix)
	if err != nil {
		return fmt.Errorf("query run: %w", err)
	}
	if run == nil {
		return fmt.Errorf("no run found with prefix %q", prefix)
	}

	out := os.Stdout
	fmt.Fprintf(out, "\nRun: %s  |  %s  |  %s  |  Rounds: %s\n",
		run.ID, run.CreatedAt.Local().Format("2006-01-02 15:04"), run.Source, strings.Join(run.Rounds, ","))
	if len(run.Skipped) > 0 {
		fmt.Fprintf(out, "Skipped (no results): %s\n", strings.Join(run.Skipped, ","))
	}

	if groups {
		gs, err := db.GetGroupStats(run.ID)
		if err != nil {
			return fmt.Errorf("group stats: %w", err)
		}
		report.Section(out, "Per-round groups (%s)", run.Dimension)
		report.PrintGroupTable(out, gs)
	}
	byRound, err := db.GetReconciledRows(run.ID, true)
	if err != nil {
		return fmt.Errorf("reconciled rows: %w", err)
	}
	merged, err := db.GetReconciledRows(run.ID, false)
	if err != nil {
		return fmt.Errorf("reconciled rows: %w", err)
	}
	report.Section(out, "By round (%s)", run.Dimension)
	report.PrintReconciledTable(out, byRound, true)
	report.Section(out, "All rounds (%s)", run.Dimension)
	report.PrintReconciledTable(out, merged, false)
	return nil
}

func runRunsDelete(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := db.GetRunByPrefix(args[0])
	if err != nil {
		return fmt.Errorf("query run: %w", err)
	}
	if run == nil {
		return fmt.Errorf("no run found with prefix %q", args[0])
	}
	if err := db.DeleteRun(run.ID); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	log.Info().Str("run", run.ID).Msg("deleted")
	return nil
}
