// Package convention implements the convention dispatcher: ordered chains of
// rule plugins fired every time the schema graph changes.
//
// ARCHITECTURE:
//
// Scopes:
// The dispatcher routes every notification to the active scope. The
// immediate scope runs the plugin chain now; a delayed scope records the
// notification and returns its input as a provisional result.
// - The scope stack is a slice owned by the dispatcher
// - An empty stack means the immediate scope is active
// - Only batches push and pop
//
// Chain Execution:
// 1. Skip the chain if the governing element already left the model
// 2. Open a batch so plugins' own notifications are recorded
// 3. Run plugins in registration order, checking liveness before each
// 4. Stop early when a plugin asks to, returning the context result
// 5. Close the batch, replaying what was recorded
// 6. Return the settled subject, or nil when it left the model
//
// Trampoline:
// Closing an outermost batch replays recorded notifications while a fresh
// delayed scope is active. Whatever the replayed plugins fire lands in that
// fresh scope and is handled by the next loop iteration, so cascades of any
// depth run in constant stack depth. The loop is bounded; exceeding the bound
// returns an ErrCodeInfiniteLoop error.
//
// Tracked References:
// Relationships can be replaced while a batch runs. Callers that must
// survive a batch hold a Reference from the Tracker; the graph layer calls
// Tracker.Update on replacement, and Reference.Object then yields the live
// successor or reports that the element is gone.
//
// CRITICAL PATTERNS:
//
// Single-threaded: no locks, no goroutines. A Dispatcher belongs to one
// model build.
//
// Debug contract checks (plugins that change the subject without stopping,
// tracker preconditions, leaked batches) are compiled in with the
// conventiondebug build tag.
package convention
