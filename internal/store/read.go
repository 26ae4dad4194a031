package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/keepmark/internal/report"
)

// ErrRunNotFound is returned when a run id is not in the store.
var ErrRunNotFound = errors.New("run not found")

// ErrNodeNotFound is returned when a node is not part of a stored run.
var ErrNodeNotFound = errors.New("node not found")

// Mark is the stored verdict on one node.
type Mark struct {
	Kind  string `json:"kind" yaml:"kind"`
	Node  string `json:"node" yaml:"node"`
	Owner string `json:"owner,omitempty" yaml:"owner,omitempty"`
	State string `json:"state" yaml:"state"`
}

// ReadRun retrieves a run by id.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT seq, id, policy, explained, stats
		FROM runs
		WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", id, ErrRunNotFound)
	}
	return run, err
}

// LatestRun retrieves the most recently written run.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT seq, id, policy, explained, stats
		FROM runs
		ORDER BY seq DESC
		LIMIT 1
	`)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("latest run: %w", ErrRunNotFound)
	}
	return run, err
}

// ListRuns returns every run in insertion order. Returns an empty slice
// (not nil) for an empty store.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, policy, explained, stats
		FROM runs
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadMarks returns the verdicts of a run ordered by kind, then node.
func (s *Store) ReadMarks(ctx context.Context, runID string) ([]Mark, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, node, owner, state
		FROM marks
		WHERE run_id = ?
		ORDER BY kind ASC, node COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query marks: %w", err)
	}
	return collectMarks(rows)
}

// ReadKeptBy returns the nodes of a run whose own mark names class as
// the cause: the nodes class keeps directly.
func (s *Store) ReadKeptBy(ctx context.Context, runID, class string) ([]Mark, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.kind, m.node, m.owner, m.state
		FROM marks m
		JOIN hops h ON h.run_id = m.run_id AND h.kind = m.kind AND h.node = m.node
		WHERE m.run_id = ? AND h.position = 0 AND h.class = ?
		ORDER BY m.kind ASC, m.node COLLATE BINARY ASC
	`, runID, class)
	if err != nil {
		return nil, fmt.Errorf("query kept-by: %w", err)
	}
	return collectMarks(rows)
}

// CountStates counts the nodes of one kind per state.
func (s *Store) CountStates(ctx context.Context, runID, kind string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT state, COUNT(*)
		FROM marks
		WHERE run_id = ? AND kind = ?
		GROUP BY state
	`, runID, kind)
	if err != nil {
		return nil, fmt.Errorf("query state counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var state string
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return nil, fmt.Errorf("scan state count: %w", err)
		}
		counts[state] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate state counts: %w", err)
	}
	return counts, nil
}

// ReadExplanation retrieves the verdict on node with its stored chain.
// Names are unique per kind; when a class and a resource share a name the
// class wins.
func (s *Store) ReadExplanation(ctx context.Context, runID, node string) (report.Explanation, error) {
	var x report.Explanation
	err := s.db.QueryRowContext(ctx, `
		SELECT kind, node, state
		FROM marks
		WHERE run_id = ? AND node = ?
		ORDER BY kind ASC
		LIMIT 1
	`, runID, node).Scan(&x.Kind, &x.Node, &x.State)
	if errors.Is(err, sql.ErrNoRows) {
		return report.Explanation{}, fmt.Errorf("read %s in run %s: %w", node, runID, ErrNodeNotFound)
	}
	if err != nil {
		return report.Explanation{}, fmt.Errorf("read mark: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT certain, depth, reason, class, member
		FROM hops
		WHERE run_id = ? AND kind = ? AND node = ?
		ORDER BY position ASC
	`, runID, x.Kind, x.Node)
	if err != nil {
		return report.Explanation{}, fmt.Errorf("query hops: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var h report.Hop
		var certain int
		if err := rows.Scan(&certain, &h.Depth, &h.Reason, &h.Class, &h.Member); err != nil {
			return report.Explanation{}, fmt.Errorf("scan hop: %w", err)
		}
		h.Certain = certain != 0
		x.Hops = append(x.Hops, h)
	}
	if err := rows.Err(); err != nil {
		return report.Explanation{}, fmt.Errorf("iterate hops: %w", err)
	}
	return x, nil
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	var explain int
	var statsJSON string
	if err := row.Scan(&run.Seq, &run.ID, &run.Policy, &explain, &statsJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Explain = explain != 0
	stats, err := unmarshalStats(statsJSON)
	if err != nil {
		return Run{}, err
	}
	run.Stats = stats
	return run, nil
}

func collectMarks(rows *sql.Rows) ([]Mark, error) {
	defer rows.Close()

	marks := []Mark{}
	for rows.Next() {
		var m Mark
		if err := rows.Scan(&m.Kind, &m.Node, &m.Owner, &m.State); err != nil {
			return nil, fmt.Errorf("scan mark: %w", err)
		}
		marks = append(marks, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate marks: %w", err)
	}
	return marks, nil
}
