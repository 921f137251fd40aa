package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/conventions/internal/ir"
)

func validBlogSpec() *ir.ModelSpec {
	return &ir.ModelSpec{Entities: []ir.EntitySpec{
		{Name: "Blog", Properties: []ir.PropertySpec{{Name: "Id", Type: "int"}}},
		{
			Name:          "Post",
			Properties:    []ir.PropertySpec{{Name: "Id", Type: "int"}, {Name: "BlogId", Type: "int"}},
			Indexes:       []ir.IndexSpec{{Properties: []string{"BlogId"}}},
			Relationships: []ir.RelationshipSpec{{Navigation: "Blog", Target: "Blog", ForeignKey: []string{"BlogId"}}},
		},
	}}
}

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateValid(t *testing.T) {
	assert.Empty(t, Validate(validBlogSpec()))
	assert.NoError(t, ValidationErrors(nil))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ir.ModelSpec)
		code   string
		field  string
	}{
		{
			name:   "invalid entity name",
			mutate: func(s *ir.ModelSpec) { s.Entities = append(s.Entities, ir.EntitySpec{Name: "1Blog"}) },
			code:   ErrEntityNameInvalid,
			field:  "entities[2].name",
		},
		{
			name: "duplicate entity",
			mutate: func(s *ir.ModelSpec) {
				s.Entities = append(s.Entities, ir.EntitySpec{Name: "Blog", Properties: []ir.PropertySpec{{Name: "Id", Type: "int"}}})
			},
			code:  ErrDuplicateEntity,
			field: "entities[2].name",
		},
		{
			name: "member clash",
			mutate: func(s *ir.ModelSpec) {
				s.Entities[1].Properties = append(s.Entities[1].Properties, ir.PropertySpec{Name: "Blog", Type: "int"})
			},
			code:  ErrDuplicateMember,
			field: "entity.Post.relationships.Blog",
		},
		{
			name:   "unknown key property",
			mutate: func(s *ir.ModelSpec) { s.Entities[0].Key = []string{"Code"} },
			code:   ErrUnknownProperty,
			field:  "entity.Blog.key",
		},
		{
			name:   "unknown index property",
			mutate: func(s *ir.ModelSpec) { s.Entities[1].Indexes[0].Properties = []string{"Missing"} },
			code:   ErrUnknownProperty,
			field:  "entity.Post.indexes[0]",
		},
		{
			name:   "unknown foreign key property",
			mutate: func(s *ir.ModelSpec) { s.Entities[1].Relationships[0].ForeignKey = []string{"OwnerId"} },
			code:   ErrUnknownProperty,
			field:  "entity.Post.relationships.Blog.foreign_key",
		},
		{
			name:   "unknown target",
			mutate: func(s *ir.ModelSpec) { s.Entities[1].Relationships[0].Target = "Journal" },
			code:   ErrUnknownEntity,
			field:  "entity.Post.relationships.Blog.target",
		},
		{
			name: "unknown many-to-many target",
			mutate: func(s *ir.ModelSpec) {
				s.Entities[1].ManyToMany = []ir.SkipNavigationSpec{{Navigation: "Tags", Target: "Tag"}}
			},
			code:  ErrUnknownEntity,
			field: "entity.Post.many_to_many.Tags.target",
		},
		{
			name:   "unknown base",
			mutate: func(s *ir.ModelSpec) { s.Entities[1].Base = "Content" },
			code:   ErrUnknownEntity,
			field:  "entity.Post.base",
		},
		{
			name: "keyless with key",
			mutate: func(s *ir.ModelSpec) {
				s.Entities[0].Key = []string{"Id"}
				s.Entities[0].Keyless = true
			},
			code:  ErrKeylessWithKey,
			field: "entity.Blog.keyless",
		},
		{
			name: "derived with key",
			mutate: func(s *ir.ModelSpec) {
				s.Entities[1].Base = "Blog"
				s.Entities[1].Key = []string{"Id"}
			},
			code:  ErrDerivedKey,
			field: "entity.Post.key",
		},
		{
			name:   "empty type",
			mutate: func(s *ir.ModelSpec) { s.Entities[0].Properties[0].Type = "*" },
			code:   ErrInvalidPropertyType,
			field:  "entity.Blog.properties.Id.type",
		},
		{
			name:   "empty member name",
			mutate: func(s *ir.ModelSpec) { s.Entities[0].Properties[0].Name = "" },
			code:   ErrInvalidMemberName,
			field:  "entity.Blog.properties.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := validBlogSpec()
			tt.mutate(spec)

			errs := Validate(spec)
			require.Len(t, errs, 1, "got %v", errs)
			assert.Equal(t, tt.code, errs[0].Code)
			assert.Equal(t, tt.field, errs[0].Field)
		})
	}
}

func TestValidateIgnoredTargetIsAllowed(t *testing.T) {
	spec := validBlogSpec()
	spec.Ignored = []string{"Journal"}
	spec.Entities[1].Relationships = append(spec.Entities[1].Relationships, ir.RelationshipSpec{Navigation: "Journal", Target: "Journal"})
	assert.Empty(t, Validate(spec))
}

func TestValidateInheritanceCycle(t *testing.T) {
	spec := &ir.ModelSpec{Entities: []ir.EntitySpec{
		{Name: "A", Base: "C", Properties: []ir.PropertySpec{}},
		{Name: "B", Base: "A", Properties: []ir.PropertySpec{}},
		{Name: "C", Base: "B", Properties: []ir.PropertySpec{}},
		{Name: "D", Base: "D", Properties: []ir.PropertySpec{}},
	}}

	errs := Validate(spec)
	require.Equal(t, []string{ErrInheritanceCycle, ErrInheritanceCycle}, codes(errs))
	assert.Equal(t, "entity.A.base", errs[0].Field)
	assert.Equal(t, "base types form a cycle: A → C → B → A", errs[0].Message)
	assert.Equal(t, "base types form a cycle: D → D", errs[1].Message)
}

func TestValidationErrors(t *testing.T) {
	err := ValidationErrors([]ValidationError{
		{Field: "entity.Blog.key", Message: `unknown property "Code"`, Code: ErrUnknownProperty},
	})
	require.Error(t, err)
	assert.Equal(t, "1 validation error(s):\n  [E103] entity.Blog.key: unknown property \"Code\"", err.Error())
}
