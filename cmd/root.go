package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pable/go-cm-stats/internal/analysis"
	"github.com/pable/go-cm-stats/internal/classify"
	"github.com/pable/go-cm-stats/internal/config"
	"github.com/pable/go-cm-stats/internal/loader"
	"github.com/pable/go-cm-stats/internal/logging"
	"github.com/pable/go-cm-stats/internal/model"
	"github.com/pable/go-cm-stats/internal/storage"
)

var (
	cfgFile string
	cfg     *config.Config
	log     = logging.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "cmstats",
	Short: "Debuffer composition win-rate tool",
	Long: `Classify team rosters by the debuffers they field and report win rates
per round and across rounds, as a mean of group rates and as a pooled rate.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default ./cmstats.yaml or ~/.cmstats/cmstats.yaml)")
	pf.String("db", "", "path to SQLite results database (default ~/.cmstats/results.db)")
	pf.String("table", "", "classification table YAML (default: built-in table)")
	pf.BoolP("verbose", "v", false, "debug logging")

	rootCmd.AddCommand(roundsCmd)
	rootCmd.AddCommand(winrateCmd)
	rootCmd.AddCommand(heatmapCmd)
	rootCmd.AddCommand(rosterCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(dropCmd)
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	cfg = c
	log = logging.New(os.Stderr, c.Verbose)
	log.Debug().Str("db", c.DBPath).Str("table", c.TablePath).Msg("config loaded")
	return nil
}

// classificationTable returns the configured table, or the built-in one.
func classificationTable() (*classify.Table, error) {
	if cfg.TablePath == "" {
		return classify.DefaultTable(), nil
	}
	t, err := classify.LoadTable(cfg.TablePath)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("path", cfg.TablePath).Int("entries", t.Len()).Msg("classification table loaded")
	return t, nil
}

// loadInput reads a results file and logs its shape.
func loadInput(path string) (*model.Table, error) {
	t, err := loader.Load(path)
	if err != nil {
		return nil, err
	}
	log.Info().Str("file", path).Int("teams", len(t.Rows)).Int("columns", len(t.Columns)).Msg("loaded")
	return t, nil
}

// analyze loads path and runs the engine over the configured rounds. The
// configured classification table is used unless opts already carries one.
func analyze(path string, dim model.Dimension, opts analysis.Options) (*analysis.Result, error) {
	t, err := loadInput(path)
	if err != nil {
		return nil, err
	}
	if opts.Table == nil {
		if opts.Table, err = classificationTable(); err != nil {
			return nil, err
		}
	}
	opts.Dimension = dim
	opts.Rounds = cfg.Rounds
	res, err := analysis.Run(t, opts)
	if err != nil {
		return nil, err
	}
	logResult(t, opts.Table, res)
	return res, nil
}

func logResult(t *model.Table, table *classify.Table, res *analysis.Result) {
	if len(res.Rounds) == 0 {
		log.Warn().Msg("no rounds with wins and races columns")
	}
	for _, r := range res.Skipped {
		log.Warn().Str("round", r).Msg("no result columns, skipped")
	}
	for _, r := range res.Rounds {
		unknown := classify.UnknownIdentifiers(t.Rows, r, table)
		if len(unknown) == 0 {
			continue
		}
		log.Debug().Str("round", r).Strs("identifiers", unknown).Msg("not in classification table")
	}
	log.Debug().Strs("rounds", res.Rounds).Int("groups", len(res.PerRound)).Msg("aggregated")
}

func openDB() (*storage.DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return db, nil
}
