package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/keepmark/internal/report"
	"github.com/roach88/keepmark/internal/shrink"
)

// Run is one stored marking run.
type Run struct {
	// Seq is the insertion order, assigned by WriteRun.
	Seq int64 `json:"seq" yaml:"seq"`

	ID      string       `json:"id" yaml:"id"`
	Policy  string       `json:"policy" yaml:"policy"`
	Explain bool         `json:"explain" yaml:"explain"`
	Stats   shrink.Stats `json:"stats" yaml:"stats"`
}

// WriteRun stores a run and every verdict of r in one transaction.
//
// Uses ON CONFLICT(id) DO NOTHING: writing a run id twice keeps the first
// run and reports inserted=false.
func (s *Store) WriteRun(ctx context.Context, run Run, r *report.Report) (inserted bool, err error) {
	if run.ID == "" {
		return false, fmt.Errorf("write run: empty run id")
	}
	statsJSON, err := marshalStats(run.Stats)
	if err != nil {
		return false, fmt.Errorf("write run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, policy, explained, stats)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, run.ID, run.Policy, sqlBool(run.Explain), statsJSON)
	if err != nil {
		return false, fmt.Errorf("write run: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write run: rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	if r != nil {
		w := &reportWriter{ctx: ctx, tx: tx, runID: run.ID}
		if err := w.write(r); err != nil {
			return false, fmt.Errorf("write run %s: %w", run.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("write run: commit: %w", err)
	}
	return true, nil
}

type reportWriter struct {
	ctx   context.Context
	tx    *sql.Tx
	runID string

	markStmt *sql.Stmt
	hopStmt  *sql.Stmt
}

func (w *reportWriter) write(r *report.Report) error {
	var err error
	w.markStmt, err = w.tx.PrepareContext(w.ctx, `
		INSERT INTO marks (run_id, kind, node, owner, state)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare marks: %w", err)
	}
	defer w.markStmt.Close()

	w.hopStmt, err = w.tx.PrepareContext(w.ctx, `
		INSERT INTO hops (run_id, kind, node, position, certain, depth, reason, class, member)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare hops: %w", err)
	}
	defer w.hopStmt.Close()

	for _, c := range r.Classes {
		if err := w.explanation(c.Explanation, ""); err != nil {
			return err
		}
		for _, m := range c.Members {
			if err := w.explanation(m, c.Node); err != nil {
				return err
			}
		}
	}
	for _, f := range r.Resources {
		if err := w.explanation(f, ""); err != nil {
			return err
		}
	}
	return nil
}

func (w *reportWriter) explanation(x report.Explanation, owner string) error {
	if _, err := w.markStmt.ExecContext(w.ctx, w.runID, x.Kind, x.Node, owner, x.State); err != nil {
		return fmt.Errorf("insert mark %s: %w", x.Node, err)
	}
	for i, h := range x.Hops {
		_, err := w.hopStmt.ExecContext(w.ctx, w.runID, x.Kind, x.Node, i,
			sqlBool(h.Certain), h.Depth, h.Reason, h.Class, h.Member)
		if err != nil {
			return fmt.Errorf("insert hop %d of %s: %w", i, x.Node, err)
		}
	}
	return nil
}
