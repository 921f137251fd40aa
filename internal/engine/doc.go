// Package engine builds models from compiled definitions.
//
// The engine is the outer loop around the convention dispatcher: it creates
// a dispatcher over the selected convention set, a fresh metadata model and
// a trace recorder, then drives the model through its lifecycle.
//
// BUILD STAGES:
//
//  1. hash: the definition is canonicalized and hashed
//  2. initialize: ModelInitialized conventions run
//  3. apply: the definition is applied member by member
//  4. finalize: finalizing conventions and validation run, the model freezes
//  5. snapshot: the finished model is snapshotted and hashed
//
// Every dispatch step is recorded as an ir.TraceEvent stamped by a logical
// Clock. Wall-clock time never enters a trace, so building the same
// definition twice yields the same trace hash and the same model hash.
//
// Failures are returned as *BuildError carrying the stage and a code
// (INVALID_SPEC, VALIDATION_FAILED, INFINITE_LOOP, ...). The partial trace
// is still returned, and still journaled when a Journal is configured.
package engine
