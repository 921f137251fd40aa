package harness

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/conventions/internal/ir"
)

// maxTraceContext bounds the trace lines printed with a failed trace
// assertion.
const maxTraceContext = 40

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string          // Assertion type for categorization
	Expected string          // Human-readable expected outcome
	Actual   string          // Human-readable actual outcome
	Trace    []ir.TraceEvent // Trace for debugging context, nil for model assertions
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nTrace (%d events):\n", len(e.Trace))
		for i, ev := range e.Trace {
			if i == maxTraceContext {
				fmt.Fprintf(&buf, "  ... %d more\n", len(e.Trace)-i)
				break
			}
			fmt.Fprintf(&buf, "  [%d] %s\n", ev.Seq, formatEvent(ev))
		}
	}

	return buf.String()
}

func formatEvent(ev ir.TraceEvent) string {
	s := ev.Phase + " " + ev.Kind
	if ev.Subject != "" {
		s += " " + ev.Subject
	}
	if ev.Plugin != "" {
		s += " -> " + ev.Plugin
	}
	return s
}

// assertTraceContains checks that some event matches the selector.
func assertTraceContains(trace []ir.TraceEvent, a Assertion) error {
	if slices.ContainsFunc(trace, a.EventMatch.Matches) {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: a.EventMatch.String(),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the selectors match events in order. Each
// selector is matched by the first event after the previous match;
// intervening events are allowed.
func assertTraceOrder(trace []ir.TraceEvent, a Assertion) error {
	pos := 0
	for i, m := range a.Events {
		idx := slices.IndexFunc(trace[pos:], m.Matches)
		if idx < 0 {
			actual := fmt.Sprintf("%s not found", m)
			if i > 0 {
				actual = fmt.Sprintf("%s not found after %s (seq %d)", m, a.Events[i-1], trace[pos-1].Seq)
			}
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("events in order: %s", joinMatches(a.Events)),
				Actual:   actual,
				Trace:    trace,
			}
		}
		pos += idx + 1
	}
	return nil
}

func joinMatches(ms []EventMatch) string {
	parts := make([]string, len(ms))
	for i, m := range ms {
		parts[i] = m.String()
	}
	return strings.Join(parts, ", ")
}

// assertTraceCount checks that exactly Count events match the selector.
func assertTraceCount(trace []ir.TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if a.EventMatch.Matches(ev) {
			count++
		}
	}

	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, a.EventMatch),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertModelHas checks the built model for every element the assertion
// describes.
func assertModelHas(snap *ir.ModelSnapshot, a Assertion) error {
	fail := func(expected, actual string) error {
		return &AssertionError{Type: AssertModelHas, Expected: expected, Actual: actual}
	}
	if snap == nil {
		return fail("a built model", "the build failed")
	}

	if a.Entity == "" {
		return checkAnnotation(AssertModelHas, "model", snap.Annotations, a)
	}
	et := findEntity(snap, a.Entity)
	if et == nil {
		return fail(fmt.Sprintf("entity %s", a.Entity), "not in model")
	}

	if a.PrimaryKey != nil && !slices.Equal(et.PrimaryKey, a.PrimaryKey) {
		return fail(fmt.Sprintf("%s primary key %v", a.Entity, a.PrimaryKey), fmt.Sprintf("%v", et.PrimaryKey))
	}

	annotations := et.Annotations
	owner := a.Entity
	if a.Property != "" {
		p := findProperty(et, a.Property)
		if p == nil {
			return fail(fmt.Sprintf("property %s.%s", a.Entity, a.Property), "not in model")
		}
		if a.PropertyType != "" && p.Type != a.PropertyType {
			return fail(fmt.Sprintf("%s.%s of type %s", a.Entity, a.Property, a.PropertyType), p.Type)
		}
		if a.Nullable != nil && p.Nullable != *a.Nullable {
			return fail(fmt.Sprintf("%s.%s nullable=%t", a.Entity, a.Property, *a.Nullable), fmt.Sprintf("nullable=%t", p.Nullable))
		}
		if a.Shadow != nil && p.Shadow != *a.Shadow {
			return fail(fmt.Sprintf("%s.%s shadow=%t", a.Entity, a.Property, *a.Shadow), fmt.Sprintf("shadow=%t", p.Shadow))
		}
		annotations = p.Annotations
		owner = a.Entity + "." + a.Property
	}

	if a.ForeignKey != nil {
		if err := checkForeignKey(et, a); err != nil {
			return err
		}
	}

	if a.Index != nil {
		i := slices.IndexFunc(et.Indexes, func(ix ir.IndexSnapshot) bool {
			return slices.Equal(ix.Properties, a.Index)
		})
		if i < 0 {
			return fail(fmt.Sprintf("index %s%v", a.Entity, a.Index), fmt.Sprintf("indexes %v", et.Indexes))
		}
		if a.Unique != nil && et.Indexes[i].Unique != *a.Unique {
			return fail(fmt.Sprintf("index %s%v unique=%t", a.Entity, a.Index, *a.Unique), fmt.Sprintf("unique=%t", et.Indexes[i].Unique))
		}
	}

	if a.Navigation != "" {
		target, ok := findNavigation(et, a.Navigation)
		if !ok {
			return fail(fmt.Sprintf("navigation %s.%s", a.Entity, a.Navigation), "not in model")
		}
		if a.Target != "" && target != a.Target {
			return fail(fmt.Sprintf("%s.%s targeting %s", a.Entity, a.Navigation, a.Target), target)
		}
	}

	if a.Annotation != "" {
		return checkAnnotation(AssertModelHas, owner, annotations, a)
	}
	return nil
}

func checkForeignKey(et *ir.EntitySnapshot, a Assertion) error {
	for _, fk := range et.ForeignKeys {
		if !slices.Equal(fk.Properties, a.ForeignKey) {
			continue
		}
		if a.Principal != "" && fk.Principal != a.Principal {
			return &AssertionError{
				Type:     AssertModelHas,
				Expected: fmt.Sprintf("foreign key %s%v to %s", a.Entity, a.ForeignKey, a.Principal),
				Actual:   fmt.Sprintf("principal %s", fk.Principal),
			}
		}
		if a.Required != nil && fk.Required != *a.Required {
			return &AssertionError{
				Type:     AssertModelHas,
				Expected: fmt.Sprintf("foreign key %s%v required=%t", a.Entity, a.ForeignKey, *a.Required),
				Actual:   fmt.Sprintf("required=%t", fk.Required),
			}
		}
		return nil
	}

	found := make([]string, len(et.ForeignKeys))
	for i, fk := range et.ForeignKeys {
		found[i] = fmt.Sprintf("%v", fk.Properties)
	}
	return &AssertionError{
		Type:     AssertModelHas,
		Expected: fmt.Sprintf("foreign key %s%v", a.Entity, a.ForeignKey),
		Actual:   fmt.Sprintf("foreign keys [%s]", strings.Join(found, " ")),
	}
}

func checkAnnotation(typ, owner string, annotations map[string]ir.Value, a Assertion) error {
	want, err := ir.ValueOf(a.Value)
	if err != nil {
		return fmt.Errorf("annotation %s on %s: %w", a.Annotation, owner, err)
	}
	got, ok := annotations[a.Annotation]
	if !ok {
		return &AssertionError{
			Type:     typ,
			Expected: fmt.Sprintf("annotation %s on %s", a.Annotation, owner),
			Actual:   "not set",
		}
	}
	if !sameValue(got, want) {
		return &AssertionError{
			Type:     typ,
			Expected: fmt.Sprintf("annotation %s on %s = %s", a.Annotation, owner, ir.Format(want)),
			Actual:   ir.Format(got),
		}
	}
	return nil
}

func sameValue(a, b ir.Value) bool {
	ab, err := ir.MarshalCanonical(a)
	if err != nil {
		return false
	}
	bb, err := ir.MarshalCanonical(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

// assertModelLacks checks that Entity, or Entity.Property, is absent.
func assertModelLacks(snap *ir.ModelSnapshot, a Assertion) error {
	if snap == nil {
		return &AssertionError{Type: AssertModelLacks, Expected: "a built model", Actual: "the build failed"}
	}
	et := findEntity(snap, a.Entity)
	switch {
	case a.Property == "" && et != nil:
		return &AssertionError{Type: AssertModelLacks, Expected: fmt.Sprintf("no entity %s", a.Entity), Actual: "present"}
	case a.Property != "" && et != nil && findProperty(et, a.Property) != nil:
		return &AssertionError{Type: AssertModelLacks, Expected: fmt.Sprintf("no property %s.%s", a.Entity, a.Property), Actual: "present"}
	}
	return nil
}

// assertError checks that the build failed as expected.
func assertError(result *Result, a Assertion) error {
	if result.BuildError == "" {
		return &AssertionError{Type: AssertError, Expected: "build failure", Actual: "build succeeded"}
	}
	if a.Code != "" && result.ErrorCode != a.Code {
		return &AssertionError{
			Type:     AssertError,
			Expected: fmt.Sprintf("error code %s", a.Code),
			Actual:   fmt.Sprintf("%s: %s", result.ErrorCode, result.BuildError),
		}
	}
	if a.Message != "" && !strings.Contains(result.BuildError, a.Message) {
		return &AssertionError{
			Type:     AssertError,
			Expected: fmt.Sprintf("error containing %q", a.Message),
			Actual:   result.BuildError,
		}
	}
	return nil
}

func findEntity(snap *ir.ModelSnapshot, name string) *ir.EntitySnapshot {
	for i := range snap.Entities {
		if snap.Entities[i].Name == name {
			return &snap.Entities[i]
		}
	}
	return nil
}

func findProperty(et *ir.EntitySnapshot, name string) *ir.PropertySnapshot {
	for i := range et.Properties {
		if et.Properties[i].Name == name {
			return &et.Properties[i]
		}
	}
	return nil
}

// findNavigation looks name up among reference, collection and
// many-to-many navigations and returns its target.
func findNavigation(et *ir.EntitySnapshot, name string) (string, bool) {
	for _, n := range et.Navigations {
		if n.Name == name {
			return n.Target, true
		}
	}
	for _, n := range et.SkipNavigations {
		if n.Name == name {
			return n.Target, true
		}
	}
	return "", false
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, a := range assertions {
		var err error

		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertModelHas:
			err = assertModelHas(result.Snapshot, a)
		case AssertModelLacks:
			err = assertModelLacks(result.Snapshot, a)
		case AssertError:
			err = assertError(result, a)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
