package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-cm-stats/internal/report"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the results database",
	Long: `Run an arbitrary SQL query against the results database and print results as a table.

Schema overview:
  runs(id, created_at, source, dimension, rounds, skipped)
  group_stats(run_id, round, category, speed, stamina, other, teams, wins, races, win_rate)
  reconciled_rows(run_id, round, category, speed, stamina, other,
    avg_wr, teams, total_wins, total_races, pooled_wr)

Undefined rates are NULL. Merged rows in reconciled_rows have round = ''.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	cols, rows, err := db.QueryRaw(strings.Join(args, " "))
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("(no rows)")
		return nil
	}
	report.PrintRaw(os.Stdout, cols, rows)
	return nil
}
