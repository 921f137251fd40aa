// Package store provides a SQLite-backed journal of model builds.
//
// The journal records, per build run:
//   - Runs: status, convention set, spec / model / trace hashes, error
//   - Trace events: every dispatch observation, keyed by (run_id, seq)
//   - Snapshots: the finished model as canonical JSON
//
// The journal is diagnostic. Nothing reads it back into a build; the
// convention pipeline itself is never persisted.
//
// # Patterns
//
// Logical time:
//   - Trace events are ordered by seq INTEGER, never timestamps
//   - Runs are listed in insertion order
//
// Deterministic reads:
//   - All trace queries use ORDER BY seq ASC
//
// Integrity:
//   - A run and its events are written in one transaction
//   - VerifyRun recomputes the trace hash from the stored events
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
