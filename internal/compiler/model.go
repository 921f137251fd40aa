package compiler

import (
	"fmt"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/conventions/internal/ir"
)

// CompileModel turns a CUE value holding `entity` (and optionally `model`)
// definitions into a ModelSpec. Uses the CUE SDK's Go API directly.
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`entity: Blog: properties: Id: "int"`)
//	spec, err := CompileModel(v)
//
// Entities keep their declaration order, which is the order the build
// applies them in.
func CompileModel(v cue.Value) (*ir.ModelSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := v.Validate(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.ModelSpec{Entities: []ir.EntitySpec{}}

	entitiesVal := v.LookupPath(cue.ParsePath("entity"))
	if !entitiesVal.Exists() {
		return nil, &CompileError{Field: "entity", Message: "at least one entity is required", Pos: v.Pos()}
	}
	iter, err := entitiesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		es, err := CompileEntity(iter.Value())
		if err != nil {
			return nil, err
		}
		spec.Entities = append(spec.Entities, *es)
	}

	modelVal := v.LookupPath(cue.ParsePath("model"))
	if modelVal.Exists() {
		if err := checkFields(modelVal, "model", "ignored", "annotations"); err != nil {
			return nil, err
		}
		if spec.Ignored, err = stringList(modelVal, "ignored", "model.ignored"); err != nil {
			return nil, err
		}
		if spec.Annotations, err = compileAnnotations(modelVal, "model.annotations"); err != nil {
			return nil, err
		}
	}

	return spec, nil
}

// CompileEntity parses one entity definition. The entity name is the
// value's last path selector, e.g. `entity.Post` names "Post".
func CompileEntity(v cue.Value) (*ir.EntitySpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	es := &ir.EntitySpec{Properties: []ir.PropertySpec{}}
	if labels := v.Path().Selectors(); len(labels) > 0 {
		es.Name = labels[len(labels)-1].String()
	}
	field := "entity." + es.Name

	if err := checkFields(v, field,
		"base", "key", "keyless", "properties", "indexes",
		"relationships", "many_to_many", "ignore", "annotations"); err != nil {
		return nil, err
	}

	var err error
	if es.Base, err = optionalString(v, "base", field+".base"); err != nil {
		return nil, err
	}
	if es.Key, err = stringList(v, "key", field+".key"); err != nil {
		return nil, err
	}
	if es.Keyless, err = optionalBool(v, "keyless", field+".keyless"); err != nil {
		return nil, err
	}
	if es.Ignore, err = stringList(v, "ignore", field+".ignore"); err != nil {
		return nil, err
	}
	if es.Annotations, err = compileAnnotations(v, field+".annotations"); err != nil {
		return nil, err
	}

	propsVal := v.LookupPath(cue.ParsePath("properties"))
	if propsVal.Exists() {
		iter, err := propsVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			ps, err := compileProperty(iter.Label(), iter.Value(), field+".properties."+iter.Label())
			if err != nil {
				return nil, err
			}
			es.Properties = append(es.Properties, ps)
		}
	}

	if es.Indexes, err = compileIndexes(v, field+".indexes"); err != nil {
		return nil, err
	}
	if es.Relationships, err = compileRelationships(v, field+".relationships"); err != nil {
		return nil, err
	}
	if es.ManyToMany, err = compileManyToMany(v, field+".many_to_many"); err != nil {
		return nil, err
	}

	return es, nil
}

// compileProperty accepts three forms:
//
//	Id:    int                                   // CUE type
//	Title: "string"                              // Go type name
//	Body:  {type: "string", required: true, ...} // full form
func compileProperty(name string, v cue.Value, field string) (ir.PropertySpec, error) {
	ps := ir.PropertySpec{Name: name}

	if v.IncompleteKind() == cue.StructKind {
		if err := checkFields(v, field, "type", "required", "field", "annotations"); err != nil {
			return ps, err
		}
		typeVal := v.LookupPath(cue.ParsePath("type"))
		if !typeVal.Exists() {
			return ps, &CompileError{Field: field + ".type", Message: "property type is required", Pos: v.Pos()}
		}
		typ, err := extractTypeName(typeVal, field+".type")
		if err != nil {
			return ps, err
		}
		ps.Type = typ
		if ps.Required, err = optionalBool(v, "required", field+".required"); err != nil {
			return ps, err
		}
		if ps.Field, err = optionalString(v, "field", field+".field"); err != nil {
			return ps, err
		}
		if ps.Annotations, err = compileAnnotations(v, field+".annotations"); err != nil {
			return ps, err
		}
		return ps, nil
	}

	typ, err := extractTypeName(v, field)
	if err != nil {
		return ps, err
	}
	ps.Type = typ
	return ps, nil
}

// extractTypeName maps a property type to its Go type name. A concrete
// string is taken verbatim, so "*time.Time" or "uuid.UUID" work.
func extractTypeName(v cue.Value, field string) (string, error) {
	if v.IsConcrete() && v.Kind() == cue.StringKind {
		s, err := v.String()
		if err != nil {
			return "", formatCUEError(err)
		}
		if s == "" || s == "*" {
			return "", &CompileError{Field: field, Message: "type name is empty", Pos: v.Pos()}
		}
		return s, nil
	}

	switch v.IncompleteKind() {
	case cue.StringKind:
		return "string", nil
	case cue.IntKind:
		return "int", nil
	case cue.BoolKind:
		return "bool", nil
	case cue.FloatKind, cue.NumberKind:
		return "float64", nil
	case cue.BytesKind:
		return "[]byte", nil
	default:
		return "", &CompileError{
			Field:   field,
			Message: fmt.Sprintf("unsupported property type kind: %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

func compileIndexes(v cue.Value, field string) ([]ir.IndexSpec, error) {
	listVal := v.LookupPath(cue.ParsePath("indexes"))
	if !listVal.Exists() {
		return nil, nil
	}
	iter, err := listVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []ir.IndexSpec
	for i := 0; iter.Next(); i++ {
		elem := iter.Value()
		elemField := fmt.Sprintf("%s[%d]", field, i)
		if err := checkFields(elem, elemField, "properties", "unique"); err != nil {
			return nil, err
		}
		props, err := stringList(elem, "properties", elemField+".properties")
		if err != nil {
			return nil, err
		}
		if len(props) == 0 {
			return nil, &CompileError{Field: elemField + ".properties", Message: "an index needs at least one property", Pos: elem.Pos()}
		}
		unique, err := optionalBool(elem, "unique", elemField+".unique")
		if err != nil {
			return nil, err
		}
		out = append(out, ir.IndexSpec{Properties: props, Unique: unique})
	}
	return out, nil
}

func compileRelationships(v cue.Value, field string) ([]ir.RelationshipSpec, error) {
	relsVal := v.LookupPath(cue.ParsePath("relationships"))
	if !relsVal.Exists() {
		return nil, nil
	}
	iter, err := relsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []ir.RelationshipSpec
	for iter.Next() {
		elem := iter.Value()
		elemField := field + "." + iter.Label()
		if err := checkFields(elem, elemField,
			"target", "inverse", "foreign_key", "required", "unique", "owned"); err != nil {
			return nil, err
		}

		rs := ir.RelationshipSpec{Navigation: iter.Label()}
		if rs.Target, err = requiredString(elem, "target", elemField+".target"); err != nil {
			return nil, err
		}
		if rs.Inverse, err = optionalString(elem, "inverse", elemField+".inverse"); err != nil {
			return nil, err
		}
		if rs.ForeignKey, err = stringList(elem, "foreign_key", elemField+".foreign_key"); err != nil {
			return nil, err
		}
		if rs.Required, err = optionalBool(elem, "required", elemField+".required"); err != nil {
			return nil, err
		}
		if rs.Unique, err = optionalBool(elem, "unique", elemField+".unique"); err != nil {
			return nil, err
		}
		if rs.Owned, err = optionalBool(elem, "owned", elemField+".owned"); err != nil {
			return nil, err
		}
		out = append(out, rs)
	}
	return out, nil
}

func compileManyToMany(v cue.Value, field string) ([]ir.SkipNavigationSpec, error) {
	navsVal := v.LookupPath(cue.ParsePath("many_to_many"))
	if !navsVal.Exists() {
		return nil, nil
	}
	iter, err := navsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []ir.SkipNavigationSpec
	for iter.Next() {
		elem := iter.Value()
		elemField := field + "." + iter.Label()
		if err := checkFields(elem, elemField, "target", "inverse"); err != nil {
			return nil, err
		}
		ss := ir.SkipNavigationSpec{Navigation: iter.Label()}
		if ss.Target, err = requiredString(elem, "target", elemField+".target"); err != nil {
			return nil, err
		}
		if ss.Inverse, err = optionalString(elem, "inverse", elemField+".inverse"); err != nil {
			return nil, err
		}
		out = append(out, ss)
	}
	return out, nil
}

// compileAnnotations reads the `annotations` struct of v. Floats and nulls
// are rejected: annotation values are hashed as canonical JSON.
func compileAnnotations(v cue.Value, field string) (map[string]ir.Value, error) {
	annVal := v.LookupPath(cue.ParsePath("annotations"))
	if !annVal.Exists() {
		return nil, nil
	}
	iter, err := annVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	out := make(map[string]ir.Value)
	for iter.Next() {
		val, err := compileValue(iter.Value(), field+"."+iter.Label())
		if err != nil {
			return nil, err
		}
		out[iter.Label()] = val
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func compileValue(v cue.Value, field string) (ir.Value, error) {
	switch v.Kind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.String(s), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.Int(n), nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.Bool(b), nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out := ir.List{}
		for i := 0; iter.Next(); i++ {
			elem, err := compileValue(iter.Value(), fmt.Sprintf("%s[%d]", field, i))
			if err != nil {
				return nil, err
			}
			out = append(out, elem)
		}
		return out, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out := ir.Object{}
		for iter.Next() {
			elem, err := compileValue(iter.Value(), field+"."+iter.Label())
			if err != nil {
				return nil, err
			}
			out[iter.Label()] = elem
		}
		return out, nil
	case cue.FloatKind:
		return nil, &CompileError{Field: field, Message: "float annotation values are forbidden - use int instead", Pos: v.Pos()}
	case cue.NullKind:
		return nil, &CompileError{Field: field, Message: "null annotation values are forbidden", Pos: v.Pos()}
	default:
		return nil, &CompileError{Field: field, Message: "annotation value must be concrete", Pos: v.Pos()}
	}
}

// checkFields rejects labels outside known, catching typos such as
// `relationship:` for `relationships:`.
func checkFields(v cue.Value, field string, known ...string) error {
	if v.IncompleteKind() != cue.StructKind {
		return &CompileError{Field: field, Message: "must be a struct", Pos: v.Pos()}
	}
	iter, err := v.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		if !slices.Contains(known, iter.Label()) {
			return &CompileError{
				Field:   field + "." + iter.Label(),
				Message: fmt.Sprintf("unknown field (known: %v)", known),
				Pos:     iter.Value().Pos(),
			}
		}
	}
	return nil
}

func requiredString(v cue.Value, name, field string) (string, error) {
	if !v.LookupPath(cue.ParsePath(name)).Exists() {
		return "", &CompileError{Field: field, Message: name + " is required", Pos: v.Pos()}
	}
	s, err := optionalString(v, name, field)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", &CompileError{Field: field, Message: name + " must be non-empty", Pos: v.Pos()}
	}
	return s, nil
}

func optionalString(v cue.Value, name, field string) (string, error) {
	val := v.LookupPath(cue.ParsePath(name))
	if !val.Exists() {
		return "", nil
	}
	s, err := val.String()
	if err != nil {
		return "", &CompileError{Field: field, Message: "must be a string", Pos: val.Pos()}
	}
	return s, nil
}

func optionalBool(v cue.Value, name, field string) (bool, error) {
	val := v.LookupPath(cue.ParsePath(name))
	if !val.Exists() {
		return false, nil
	}
	b, err := val.Bool()
	if err != nil {
		return false, &CompileError{Field: field, Message: "must be a bool", Pos: val.Pos()}
	}
	return b, nil
}

func stringList(v cue.Value, name, field string) ([]string, error) {
	val := v.LookupPath(cue.ParsePath(name))
	if !val.Exists() {
		return nil, nil
	}
	iter, err := val.List()
	if err != nil {
		return nil, &CompileError{Field: field, Message: "must be a list of strings", Pos: val.Pos()}
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{Field: field, Message: "must be a list of strings", Pos: iter.Value().Pos()}
		}
		out = append(out, s)
	}
	return out, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
