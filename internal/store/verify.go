package store

import (
	"context"
	"fmt"

	"github.com/roach88/conventions/internal/ir"
)

// VerifyResult compares a stored run against its recorded hashes.
type VerifyResult struct {
	RunID          string
	Events         int
	StoredHash     string
	RecomputedHash string
	ModelMatches   bool // False when the snapshot no longer hashes to model_hash
}

// OK reports whether the stored trace and snapshot are intact.
func (r VerifyResult) OK() bool {
	return r.StoredHash == r.RecomputedHash && r.ModelMatches
}

// VerifyRun recomputes the trace hash of a run from its stored events, and
// the model hash from its stored snapshot, and compares them to the hashes
// recorded at write time.
func (s *Store) VerifyRun(ctx context.Context, runID string) (VerifyResult, error) {
	run, err := s.ReadRun(ctx, runID)
	if err != nil {
		return VerifyResult{}, err
	}
	trace, err := s.ReadTrace(ctx, runID)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("verify run %s: %w", runID, err)
	}
	recomputed, err := ir.TraceHash(trace)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("verify run %s: %w", runID, err)
	}

	res := VerifyResult{
		RunID:          runID,
		Events:         len(trace),
		StoredHash:     run.TraceHash,
		RecomputedHash: recomputed,
		ModelMatches:   true,
	}

	if run.Status == ir.StatusOK {
		snap, err := s.ReadSnapshot(ctx, runID)
		if err != nil {
			return res, fmt.Errorf("verify run %s: %w", runID, err)
		}
		res.ModelMatches = ir.HashCanonical(ir.DomainModel, snap) == run.ModelHash
	}
	return res, nil
}
