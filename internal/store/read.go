package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/conventions/internal/ir"
)

// ErrRunNotFound is returned when a run ID is not in the journal.
var ErrRunNotFound = errors.New("run not found")

const runColumns = `id, status, convention_set, spec_hash, model_hash, trace_hash, error_code, error, events, engine_version, ir_version`

// ReadRun retrieves a single run by ID.
// Returns ErrRunNotFound if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (ir.BuildRun, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.BuildRun{}, fmt.Errorf("read run %s: %w", id, ErrRunNotFound)
	}
	return run, err
}

// LatestRun returns the most recently written run.
// Returns ErrRunNotFound if the journal is empty.
func (s *Store) LatestRun(ctx context.Context) (ir.BuildRun, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY rowid DESC LIMIT 1`)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.BuildRun{}, fmt.Errorf("latest run: %w", ErrRunNotFound)
	}
	return run, err
}

// ListRuns returns all runs in the order they were written.
// Returns an empty slice (not nil) if the journal is empty.
func (s *Store) ListRuns(ctx context.Context) ([]ir.BuildRun, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []ir.BuildRun{}
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

// ReadTrace returns the trace of a run ordered by seq.
// Returns an empty slice (not nil) for a run without events.
func (s *Store) ReadTrace(ctx context.Context, runID string) ([]ir.TraceEvent, error) {
	return s.queryTrace(ctx, `
		SELECT seq, phase, kind, plugin, subject, depth
		FROM trace_events
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
}

// ReadTraceKind returns the events of one kind in a run, ordered by seq.
func (s *Store) ReadTraceKind(ctx context.Context, runID, kind string) ([]ir.TraceEvent, error) {
	return s.queryTrace(ctx, `
		SELECT seq, phase, kind, plugin, subject, depth
		FROM trace_events
		WHERE run_id = ? AND kind = ?
		ORDER BY seq ASC
	`, runID, kind)
}

func (s *Store) queryTrace(ctx context.Context, query string, args ...any) ([]ir.TraceEvent, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query trace: %w", err)
	}
	defer rows.Close()

	events := []ir.TraceEvent{}
	for rows.Next() {
		var ev ir.TraceEvent
		if err := rows.Scan(&ev.Seq, &ev.Phase, &ev.Kind, &ev.Plugin, &ev.Subject, &ev.Depth); err != nil {
			return nil, fmt.Errorf("scan trace event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trace: %w", err)
	}
	return events, nil
}

// ReadSnapshot returns the canonical JSON snapshot of a successful run.
// Returns ErrRunNotFound if the run has no snapshot.
func (s *Store) ReadSnapshot(ctx context.Context, runID string) ([]byte, error) {
	var snap string
	err := s.db.QueryRowContext(ctx, `SELECT snapshot FROM snapshots WHERE run_id = ?`, runID).Scan(&snap)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read snapshot %s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", runID, err)
	}
	return []byte(snap), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (ir.BuildRun, error) {
	var run ir.BuildRun
	err := row.Scan(
		&run.ID,
		&run.Status,
		&run.ConventionSet,
		&run.SpecHash,
		&run.ModelHash,
		&run.TraceHash,
		&run.ErrorCode,
		&run.Error,
		&run.Events,
		&run.EngineVersion,
		&run.IRVersion,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return run, err
	}
	if err != nil {
		return run, fmt.Errorf("scan run: %w", err)
	}
	return run, nil
}
