// Package ir provides the intermediate representation shared by the model
// compiler, the build engine, the scenario harness and the trace journal.
//
// This package contains type definitions only. All other internal packages
// may import ir; ir imports nothing internal.
//
// Key design constraints:
//   - NO float types in annotation values, use Int
//   - All JSON tags use snake_case
//   - Trace events carry a logical seq, never wall-clock timestamps
//   - Hashes are computed over canonical JSON (RFC 8785, NFC strings)
package ir
