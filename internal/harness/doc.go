// Package harness provides conformance testing for convention sets.
//
// A scenario names a model definition, builds it with the engine and
// asserts on what happened: which plugins ran on which events, what the
// finished model looks like, or how the build failed.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: blog_foreign_key
//	description: "BlogId is discovered as the foreign key of Post.Blog"
//	specs:
//	  - specs/blog          # a CUE package directory, or CUE files
//	conventions: default
//	assertions:
//	  - type: trace_contains
//	    kind: ForeignKeyAdded
//	    plugin: ForeignKeyPropertyDiscovery
//	  - type: model_has
//	    entity: Post
//	    foreign_key: [BlogId]
//	    principal: Blog
//
// A scenario may hold its model inline under model: instead of specs:.
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - trace_contains: an event matching kind/phase/plugin/subject is traced
//   - trace_order: selectors match traced events in the given order
//   - trace_count: exactly count events match the selector
//   - model_has: the built model holds an entity, property, key, index,
//     foreign key, navigation or annotation
//   - model_lacks: an entity or property is absent from the built model
//   - error: the build failed, optionally with a code and message
//
// # Deterministic Testing
//
// Every scenario builds with a fixed run ID and the engine's logical
// clock, so two runs of the same scenario produce byte-identical traces.
// Golden files hold the canonical JSON of trace and model; RunWithGolden
// compares them in Go tests and RunSuite next to scenario files.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/blog.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, msg := range result.Errors {
//	    log.Println(msg)
//	}
package harness
