// Package metadata is the mutable schema graph built under conventions:
// entity types, properties, keys, indexes, foreign keys and navigations.
//
// Every mutation is applied to the graph first and then announced to the
// model's convention.Dispatcher. Conventions may react by mutating the graph
// again, so a method's result is the element as conventions left it: possibly
// a replacement, or nil when a convention removed it.
//
// Removals cascade inside a batch: removing a property also removes the
// keys, indexes and foreign keys over it, and their notifications are
// delivered after the whole cascade is applied.
//
// After Finalize the model is read-only and every mutation returns
// ErrReadOnly.
package metadata
