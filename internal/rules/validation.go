package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/conventions/internal/convention"
	"github.com/roach88/conventions/internal/metadata"
)

// ValidationError reports everything that keeps a model from being
// finalized.
type ValidationError struct {
	Problems []Problem
}

// Problem is one finding of model validation.
type Problem struct {
	// Element names the offending element, e.g. "Blog" or "Post.Tags".
	Element string

	// Message is a human-readable description.
	Message string
}

func (p Problem) String() string { return p.Element + ": " + p.Message }

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "model validation: " + e.Problems[0].String()
	}
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.String()
	}
	return fmt.Sprintf("model validation: %d problems: %s", len(e.Problems), strings.Join(parts, "; "))
}

// IsValidationError returns true if err is a model validation failure.
// Uses errors.As to handle wrapped errors.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ModelValidation checks a model about to be finalized: every root entity
// type has a primary key unless it is keyless, and every skip navigation is
// backed by a join type.
type ModelValidation struct{}

func (ModelValidation) Name() string { return "ModelValidation" }

func (ModelValidation) Process(_ *convention.Context, ev convention.Event) error {
	e, ok := ev.(convention.ModelEvent)
	if !ok {
		return nil
	}
	m, ok := e.Model.(*metadata.Model)
	if !ok {
		return nil
	}

	var problems []Problem
	for _, et := range m.EntityTypes() {
		if et.BaseType() == nil && et.PrimaryKey() == nil && !isKeyless(et) {
			problems = append(problems, Problem{Element: et.Name(), Message: "no primary key; add an Id property, declare a key or mark it keyless"})
		}
		for _, nav := range et.SkipNavigations() {
			if nav.ForeignKey() == nil {
				problems = append(problems, Problem{Element: nav.String(), Message: "many-to-many navigation has no join type"})
			}
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
