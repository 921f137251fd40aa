// Package rules provides the built-in convention set: plugins that react to
// schema notifications by refining the model.
//
// ARCHITECTURE:
//
//	metadata mutation -> convention.Dispatcher -> rule chain -> metadata mutation ...
//
// Rules are stateless. Each one is registered for the event kinds it cares
// about; Default wires them in a fixed order, and that order is part of the
// observable behavior (traces, golden files).
//
// CRITICAL PATTERNS:
//   - A rule never assumes its subject is still live after it mutated the
//     graph; the dispatcher aborts the chain when it is not.
//   - A rule that replaces a foreign key goes through ReplaceForeignKey so
//     tracked references follow the replacement.
package rules
