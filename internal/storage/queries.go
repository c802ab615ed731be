package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pable/go-cm-stats/internal/model"
)

var (
	ErrEmptyPrefix     = errors.New("empty run id prefix")
	ErrAmbiguousPrefix = errors.New("run id prefix matches more than one run")
)

// InsertRun stores a run with its per-round groups and reconciled rows in one
// transaction. A new ID is assigned when run.ID is empty; the stored ID is
// returned.
func (db *DB) InsertRun(run model.RunSummary, groups []model.GroupStats, rows []model.ReconciledRow) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs(id, created_at, source, dimension, rounds, skipped)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.UTC().Format(time.RFC3339Nano), run.Source, string(run.Dimension),
		strings.Join(run.Rounds, "\n"), strings.Join(run.Skipped, "\n"),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	gstmt, err := tx.Prepare(`
		INSERT INTO group_stats(run_id, round, category, speed, stamina, other, teams, wins, races, win_rate)
		VALUES (?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return "", err
	}
	defer gstmt.Close()
	for _, g := range groups {
		c := g.Category
		_, err = gstmt.Exec(run.ID, g.Round, c.Label, c.Counts.Speed, c.Counts.Stamina, c.Counts.Other,
			g.Teams, g.Wins, g.Races, nullRate(g.WinRate))
		if err != nil {
			return "", fmt.Errorf("insert group_stats %s/%s: %w", g.Round, c.Label, err)
		}
	}

	rstmt, err := tx.Prepare(`
		INSERT INTO reconciled_rows(run_id, round, category, speed, stamina, other,
			avg_wr, teams, total_wins, total_races, pooled_wr)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return "", err
	}
	defer rstmt.Close()
	for _, r := range rows {
		c := r.Category
		_, err = rstmt.Exec(run.ID, r.Round, c.Label, c.Counts.Speed, c.Counts.Stamina, c.Counts.Other,
			nullRate(r.AvgWR), r.Teams, r.TotalWins, r.TotalRaces, nullRate(r.PooledWR))
		if err != nil {
			return "", fmt.Errorf("insert reconciled_rows %s/%s: %w", r.Round, c.Label, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return run.ID, nil
}

// ListRuns returns all stored runs, newest first.
func (db *DB) ListRuns() ([]model.RunSummary, error) {
	rows, err := db.conn.Query(`
		SELECT id, created_at, source, dimension, rounds, skipped
		FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RunSummary
	for rows.Next() {
		s, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetRunByPrefix finds the run whose ID starts with prefix, or nil when none
// does. An empty prefix returns ErrEmptyPrefix; a prefix shared by several
// runs returns ErrAmbiguousPrefix.
func (db *DB) GetRunByPrefix(prefix string) (*model.RunSummary, error) {
	if prefix == "" {
		return nil, ErrEmptyPrefix
	}
	rows, err := db.conn.Query(`
		SELECT id, created_at, source, dimension, rounds, skipped
		FROM runs WHERE substr(id, 1, length(?)) = ?
		ORDER BY created_at DESC LIMIT 2`, prefix, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var found []model.RunSummary
	for rows.Next() {
		s, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		found = append(found, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(found) {
	case 0:
		return nil, nil
	case 1:
		return &found[0], nil
	}
	return nil, fmt.Errorf("%w: %q", ErrAmbiguousPrefix, prefix)
}

// DeleteRun removes a run and its rows. Deleting an unknown ID is not an error.
func (db *DB) DeleteRun(id string) error {
	_, err := db.conn.Exec(`DELETE FROM runs WHERE id = ?`, id)
	return err
}

// GetGroupStats returns the per-round groups of a run ordered by round.
func (db *DB) GetGroupStats(runID string) ([]model.GroupStats, error) {
	run, err := db.GetRunByPrefix(runID)
	if err != nil || run == nil {
		return nil, err
	}
	rows, err := db.conn.Query(`
		SELECT round, category, speed, stamina, other, teams, wins, races, win_rate
		FROM group_stats WHERE run_id = ?
		ORDER BY round, speed, stamina, other, category`, run.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.GroupStats
	for rows.Next() {
		g := model.GroupStats{Dimension: run.Dimension}
		var wr sql.NullFloat64
		if err := rows.Scan(&g.Round, &g.Category.Label, &g.Category.Counts.Speed,
			&g.Category.Counts.Stamina, &g.Category.Counts.Other,
			&g.Teams, &g.Wins, &g.Races, &wr); err != nil {
			return nil, err
		}
		g.WinRate = rateFrom(wr)
		out = append(out, g)
	}
	return out, rows.Err()
}

// GetReconciledRows returns a run's reconciled rows. byRound selects the
// per-round view; otherwise the rows merged across rounds are returned.
func (db *DB) GetReconciledRows(runID string, byRound bool) ([]model.ReconciledRow, error) {
	run, err := db.GetRunByPrefix(runID)
	if err != nil || run == nil {
		return nil, err
	}
	filter := "round = ''"
	if byRound {
		filter = "round <> ''"
	}
	rows, err := db.conn.Query(`
		SELECT round, category, speed, stamina, other, avg_wr, teams, total_wins, total_races, pooled_wr
		FROM reconciled_rows WHERE run_id = ? AND `+filter+`
		ORDER BY round, speed, stamina, other, category`, run.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ReconciledRow
	for rows.Next() {
		r := model.ReconciledRow{Dimension: run.Dimension}
		var avg, pooled sql.NullFloat64
		if err := rows.Scan(&r.Round, &r.Category.Label, &r.Category.Counts.Speed,
			&r.Category.Counts.Stamina, &r.Category.Counts.Other,
			&avg, &r.Teams, &r.TotalWins, &r.TotalRaces, &pooled); err != nil {
			return nil, err
		}
		r.AvgWR, r.PooledWR = rateFrom(avg), rateFrom(pooled)
		out = append(out, r)
	}
	return out, rows.Err()
}

// QueryRaw runs an arbitrary query and returns column names and stringified rows.
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var out [][]string
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		rec := make([]string, len(cols))
		for i, v := range vals {
			switch x := v.(type) {
			case nil:
				rec[i] = "NULL"
			case []byte:
				rec[i] = string(x)
			default:
				rec[i] = fmt.Sprint(x)
			}
		}
		out = append(out, rec)
	}
	return cols, out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (model.RunSummary, error) {
	var r model.RunSummary
	var created, dim, rounds, skipped string
	if err := s.Scan(&r.ID, &created, &r.Source, &dim, &rounds, &skipped); err != nil {
		return r, err
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return r, fmt.Errorf("run %s: bad created_at %q: %w", r.ID, created, err)
	}
	r.CreatedAt = t
	r.Dimension = model.Dimension(dim)
	r.Rounds = splitList(rounds)
	r.Skipped = splitList(skipped)
	return r, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// nullRate maps an undefined rate to SQL NULL.
func nullRate(r model.Rate) sql.NullFloat64 {
	return sql.NullFloat64{Float64: r.Value, Valid: r.Valid}
}

func rateFrom(n sql.NullFloat64) model.Rate {
	return model.Rate{Value: n.Float64, Valid: n.Valid}
}
