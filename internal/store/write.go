package store

import (
	"context"
	"fmt"

	"github.com/roach88/conventions/internal/ir"
)

// WriteRun records a finished build: the run row, its trace and, for a
// successful build, the model snapshot. Everything is written in one
// transaction.
//
// Writing a run ID that already exists is a no-op, so a retried write
// cannot duplicate or reorder a trace.
//
// WriteRun implements engine.Journal.
func (s *Store) WriteRun(ctx context.Context, run ir.BuildRun, trace []ir.TraceEvent, snap *ir.ModelSnapshot) error {
	if run.ID == "" {
		return fmt.Errorf("write run: empty run ID")
	}

	var snapJSON string
	if snap != nil {
		data, err := ir.Canonicalize(snap)
		if err != nil {
			return fmt.Errorf("write run %s: snapshot: %w", run.ID, err)
		}
		snapJSON = string(data)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run %s: %w", run.ID, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, status, convention_set, spec_hash, model_hash, trace_hash, error_code, error, events, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Status,
		run.ConventionSet,
		run.SpecHash,
		run.ModelHash,
		run.TraceHash,
		run.ErrorCode,
		run.Error,
		run.Events,
		run.EngineVersion,
		run.IRVersion,
	)
	if err != nil {
		return fmt.Errorf("write run %s: %w", run.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trace_events (run_id, seq, phase, kind, plugin, subject, depth)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write run %s: %w", run.ID, err)
	}
	defer stmt.Close()

	for _, ev := range trace {
		if _, err := stmt.ExecContext(ctx, run.ID, ev.Seq, ev.Phase, ev.Kind, ev.Plugin, ev.Subject, ev.Depth); err != nil {
			return fmt.Errorf("write run %s: event %d: %w", run.ID, ev.Seq, err)
		}
	}

	if snap != nil {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO snapshots (run_id, snapshot) VALUES (?, ?)
		`, run.ID, snapJSON); err != nil {
			return fmt.Errorf("write run %s: snapshot: %w", run.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run %s: commit: %w", run.ID, err)
	}
	return nil
}

// DeleteRun removes a run with its trace and snapshot.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete run %s: %w", id, ErrRunNotFound)
	}
	return nil
}
