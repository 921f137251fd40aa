package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/conventions/internal/ir"
)

// Validation error codes (E100-E199)
const (
	ErrEntityNameInvalid   = "E100" // empty or malformed entity name
	ErrDuplicateEntity     = "E101" // entity declared twice
	ErrDuplicateMember     = "E102" // property / navigation name used twice on one entity
	ErrUnknownProperty     = "E103" // key, index or foreign key names a missing property
	ErrUnknownEntity       = "E104" // base or target names a missing entity
	ErrInheritanceCycle    = "E105" // base types form a cycle
	ErrKeylessWithKey      = "E106" // keyless entity declares a key
	ErrInvalidPropertyType = "E107" // empty type name
	ErrDerivedKey          = "E108" // derived entity declares its own key
	ErrInvalidMemberName   = "E109" // empty member name
)

// ValidationError represents a model definition error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"` // Set when the error comes from a CUE position
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled model definition before it is built.
// Returns all errors found (does not fail-fast).
//
// Validate only checks what the definition states. Whether conventions can
// complete the model (discover a key, bind a foreign key) is decided by the
// build.
func Validate(spec *ir.ModelSpec) []ValidationError {
	var errs []ValidationError

	entities := make(map[string]*ir.EntitySpec, len(spec.Entities))
	for i := range spec.Entities {
		es := &spec.Entities[i]
		field := fmt.Sprintf("entities[%d]", i)
		if !isIdentifier(es.Name) {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("invalid entity name %q", es.Name),
				Code:    ErrEntityNameInvalid,
			})
			continue
		}
		if _, dup := entities[es.Name]; dup {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate entity name: %q", es.Name),
				Code:    ErrDuplicateEntity,
			})
			continue
		}
		entities[es.Name] = es
	}

	ignored := make(map[string]bool, len(spec.Ignored))
	for _, name := range spec.Ignored {
		ignored[name] = true
	}

	for i := range spec.Entities {
		errs = append(errs, validateEntity(&spec.Entities[i], fmt.Sprintf("entity.%s", spec.Entities[i].Name), entities, ignored)...)
	}

	for _, cycle := range inheritanceCycles(spec) {
		errs = append(errs, ValidationError{
			Field:   fmt.Sprintf("entity.%s.base", cycle[0]),
			Message: fmt.Sprintf("base types form a cycle: %s", strings.Join(cycle, " → ")),
			Code:    ErrInheritanceCycle,
		})
	}

	return errs
}

func validateEntity(es *ir.EntitySpec, field string, entities map[string]*ir.EntitySpec, ignored map[string]bool) []ValidationError {
	var errs []ValidationError

	members := make(map[string]bool)
	addMember := func(name, memberField string) {
		if name == "" {
			errs = append(errs, ValidationError{
				Field:   memberField,
				Message: "member name is empty",
				Code:    ErrInvalidMemberName,
			})
			return
		}
		if members[name] {
			errs = append(errs, ValidationError{
				Field:   memberField,
				Message: fmt.Sprintf("duplicate member name: %q", name),
				Code:    ErrDuplicateMember,
			})
		}
		members[name] = true
	}

	properties := make(map[string]bool, len(es.Properties))
	for _, p := range es.Properties {
		addMember(p.Name, field+".properties."+p.Name)
		properties[p.Name] = true
		if strings.TrimPrefix(p.Type, "*") == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".properties." + p.Name + ".type",
				Message: "property type is empty",
				Code:    ErrInvalidPropertyType,
			})
		}
	}
	for _, rs := range es.Relationships {
		addMember(rs.Navigation, field+".relationships."+rs.Navigation)
	}
	for _, ss := range es.ManyToMany {
		addMember(ss.Navigation, field+".many_to_many."+ss.Navigation)
	}

	checkProps := func(names []string, listField string) {
		for _, name := range names {
			if !properties[name] {
				errs = append(errs, ValidationError{
					Field:   listField,
					Message: fmt.Sprintf("unknown property %q", name),
					Code:    ErrUnknownProperty,
				})
			}
		}
	}
	checkEntity := func(name, refField string) {
		if _, ok := entities[name]; !ok && !ignored[name] {
			errs = append(errs, ValidationError{
				Field:   refField,
				Message: fmt.Sprintf("unknown entity %q", name),
				Code:    ErrUnknownEntity,
			})
		}
	}

	if len(es.Key) > 0 {
		checkProps(es.Key, field+".key")
		if es.Keyless {
			errs = append(errs, ValidationError{
				Field:   field + ".keyless",
				Message: "a keyless entity cannot declare a key",
				Code:    ErrKeylessWithKey,
			})
		}
		if es.Base != "" {
			errs = append(errs, ValidationError{
				Field:   field + ".key",
				Message: fmt.Sprintf("derived entity inherits the key of %q", es.Base),
				Code:    ErrDerivedKey,
			})
		}
	}
	if es.Base != "" {
		if _, ok := entities[es.Base]; !ok {
			errs = append(errs, ValidationError{
				Field:   field + ".base",
				Message: fmt.Sprintf("unknown entity %q", es.Base),
				Code:    ErrUnknownEntity,
			})
		}
	}
	for i, idx := range es.Indexes {
		checkProps(idx.Properties, fmt.Sprintf("%s.indexes[%d]", field, i))
	}
	for _, rs := range es.Relationships {
		relField := field + ".relationships." + rs.Navigation
		checkEntity(rs.Target, relField+".target")
		checkProps(rs.ForeignKey, relField+".foreign_key")
	}
	for _, ss := range es.ManyToMany {
		checkEntity(ss.Target, field+".many_to_many."+ss.Navigation+".target")
	}

	return errs
}

// isIdentifier reports whether name is usable as an entity name: a letter
// or underscore followed by letters, digits or underscores.
func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// ValidationErrors joins errs into one error, or returns nil.
func ValidationErrors(errs []ValidationError) error {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("%d validation error(s):\n  %s", len(errs), strings.Join(msgs, "\n  "))
}
