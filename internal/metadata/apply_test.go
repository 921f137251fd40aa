package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/conventions/internal/convention"
	"github.com/roach88/conventions/internal/ir"
)

func keyed(name string, props ...ir.PropertySpec) ir.EntitySpec {
	return ir.EntitySpec{
		Name:       name,
		Key:        []string{"Id"},
		Properties: append([]ir.PropertySpec{{Name: "Id", Type: "int"}}, props...),
	}
}

func TestApplyWithoutConventions(t *testing.T) {
	m := newTestModel(t, nil)
	post := keyed("Post", ir.PropertySpec{Name: "BlogId", Type: "int"})
	post.Relationships = []ir.RelationshipSpec{{Navigation: "Blog", Target: "Blog", Inverse: "Posts", Required: true}}
	post.Indexes = []ir.IndexSpec{{Properties: []string{"Id", "BlogId"}, Unique: true}}

	spec := &ir.ModelSpec{
		Entities:    []ir.EntitySpec{keyed("Blog"), post},
		Ignored:     []string{"Audit"},
		Annotations: map[string]ir.Value{"Schema": ir.String("blog")},
	}
	require.NoError(t, Apply(m, spec))

	assert.Equal(t, ir.String("blog"), m.AnnotationValue("Schema"))
	assert.True(t, m.IsIgnored("Audit"))

	p := m.EntityType("Post")
	require.NotNil(t, p)
	// With no conventions nothing binds the foreign key to BlogId.
	shadow := p.Property("BlogId1")
	require.NotNil(t, shadow)
	assert.True(t, shadow.IsShadow())
	assert.Equal(t, "int", shadow.Type(), "required relationships keep the key type")

	require.Len(t, p.ForeignKeys(), 1)
	fk := p.ForeignKeys()[0]
	assert.True(t, fk.IsRequired())
	assert.Equal(t, "Blog", fk.DependentToPrincipal().Name())
	assert.Equal(t, "Posts", fk.PrincipalToDependent().Name())

	require.Len(t, p.Indexes(), 1)
	assert.True(t, p.Indexes()[0].IsUnique())
}

func TestApplyOptionalShadowForeignKeyIsNullable(t *testing.T) {
	m := newTestModel(t, nil)
	post := keyed("Post")
	post.Relationships = []ir.RelationshipSpec{{Navigation: "Blog", Target: "Blog"}}
	require.NoError(t, Apply(m, &ir.ModelSpec{Entities: []ir.EntitySpec{keyed("Blog"), post}}))

	shadow := m.EntityType("Post").Property("BlogId")
	require.NotNil(t, shadow)
	assert.Equal(t, "*int", shadow.Type())
	assert.True(t, shadow.IsNullable())
}

func TestApplyExplicitForeignKey(t *testing.T) {
	m := newTestModel(t, nil)
	post := keyed("Post", ir.PropertySpec{Name: "OwnerRef", Type: "int"})
	post.Relationships = []ir.RelationshipSpec{{Navigation: "Blog", Target: "Blog", ForeignKey: []string{"OwnerRef"}, Owned: true}}
	require.NoError(t, Apply(m, &ir.ModelSpec{Entities: []ir.EntitySpec{keyed("Blog"), post}}))

	fks := m.EntityType("Post").ForeignKeys()
	require.Len(t, fks, 1)
	assert.Equal(t, "OwnerRef", fks[0].Properties()[0].Name())
	assert.True(t, fks[0].IsOwnership())
}

func TestApplyMembers(t *testing.T) {
	rec := &events{}
	b := convention.NewRegistryBuilder().Add(rec.plugin(), convention.KindPropertyAnnotationChanged, convention.KindEntityTypeMemberIgnored)
	m := newTestModel(t, b)
	blog := keyed("Blog",
		ir.PropertySpec{Name: "Title", Type: "string", Required: true, Field: "_title",
			Annotations: map[string]ir.Value{"Comment": ir.String("headline")}},
	)
	blog.Ignore = []string{"Cache"}
	blog.Annotations = map[string]ir.Value{"Table": ir.String("blogs")}
	require.NoError(t, Apply(m, &ir.ModelSpec{Entities: []ir.EntitySpec{blog}}))

	et := m.EntityType("Blog")
	title := et.Property("Title")
	assert.Equal(t, "_title", title.Field())
	assert.Equal(t, ir.Bool(true), title.AnnotationValue(AnnotationRequired))
	assert.Equal(t, ir.String("headline"), title.AnnotationValue("Comment"))
	assert.Equal(t, ir.String("blogs"), et.AnnotationValue("Table"))
	assert.Equal(t, []string{
		"PropertyAnnotationChanged(Required)",
		"PropertyAnnotationChanged(Comment)",
		"EntityTypeMemberIgnored(Cache)",
	}, rec.seen)
}

func TestApplyErrors(t *testing.T) {
	tests := []struct {
		name string
		spec *ir.ModelSpec
		err  error
		msg  string
	}{
		{
			name: "nil spec",
			err:  ErrInvalid,
		},
		{
			name: "unknown base",
			spec: &ir.ModelSpec{Entities: []ir.EntitySpec{{Name: "Dog", Base: "Animal"}}},
			err:  ErrNotFound,
			msg:  `base type "Animal"`,
		},
		{
			name: "unknown key property",
			spec: &ir.ModelSpec{Entities: []ir.EntitySpec{{Name: "Blog", Key: []string{"Id"}}}},
			err:  ErrNotFound,
			msg:  "Blog.Id",
		},
		{
			name: "unknown target",
			spec: &ir.ModelSpec{Entities: []ir.EntitySpec{
				{Name: "Post", Relationships: []ir.RelationshipSpec{{Navigation: "Blog", Target: "Blog"}}},
			}},
			err: ErrNotFound,
			msg: `target "Blog"`,
		},
		{
			name: "target without key",
			spec: &ir.ModelSpec{Entities: []ir.EntitySpec{
				{Name: "Blog"},
				{Name: "Post", Relationships: []ir.RelationshipSpec{{Navigation: "Blog", Target: "Blog"}}},
			}},
			err: ErrInvalid,
			msg: "no primary key",
		},
		{
			name: "derived target",
			spec: &ir.ModelSpec{Entities: []ir.EntitySpec{
				keyed("Animal"),
				{Name: "Dog", Base: "Animal"},
				{Name: "Owner", Relationships: []ir.RelationshipSpec{{Navigation: "Dog", Target: "Dog"}}},
			}},
			err: ErrInvalid,
			msg: "derived type",
		},
		{
			name: "unknown many-to-many target",
			spec: &ir.ModelSpec{Entities: []ir.EntitySpec{
				{Name: "Post", ManyToMany: []ir.SkipNavigationSpec{{Navigation: "Tags", Target: "Tag"}}},
			}},
			err: ErrNotFound,
			msg: `target "Tag"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Apply(newTestModel(t, nil), tt.spec)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestApplySkipsIgnoredTargets(t *testing.T) {
	m := newTestModel(t, nil)
	post := keyed("Post")
	post.Relationships = []ir.RelationshipSpec{{Navigation: "Blog", Target: "Blog"}}
	post.ManyToMany = []ir.SkipNavigationSpec{{Navigation: "Tags", Target: "Tag"}}

	require.NoError(t, Apply(m, &ir.ModelSpec{
		Entities: []ir.EntitySpec{post},
		Ignored:  []string{"Blog", "Tag"},
	}))
	assert.Empty(t, m.EntityType("Post").ForeignKeys())
	assert.Empty(t, m.EntityType("Post").SkipNavigations())
}

func TestSnapshot(t *testing.T) {
	m := newTestModel(t, nil)
	post := keyed("Post", ir.PropertySpec{Name: "BlogId", Type: "*int"})
	post.Relationships = []ir.RelationshipSpec{{Navigation: "Blog", Target: "Blog", ForeignKey: []string{"BlogId"}, Inverse: "Posts"}}
	post.ManyToMany = []ir.SkipNavigationSpec{{Navigation: "Tags", Target: "Tag", Inverse: "Posts"}}
	require.NoError(t, Apply(m, &ir.ModelSpec{Entities: []ir.EntitySpec{post, keyed("Blog"), keyed("Tag")}}))

	snap := Snapshot(m)
	require.Len(t, snap.Entities, 3)
	assert.Equal(t, "Blog", snap.Entities[0].Name, "entities are sorted")
	assert.Equal(t, "Post", snap.Entities[1].Name)

	ps := snap.Entities[1]
	assert.Equal(t, []string{"Id"}, ps.PrimaryKey)
	assert.Equal(t, []ir.PropertySnapshot{
		{Name: "Id", Type: "int"},
		{Name: "BlogId", Type: "*int", Nullable: true},
	}, ps.Properties)
	assert.Equal(t, []ir.ForeignKeySnapshot{{
		Properties:   []string{"BlogId"},
		Principal:    "Blog",
		PrincipalKey: []string{"Id"},
	}}, ps.ForeignKeys)
	assert.Equal(t, []ir.SkipNavigationSnapshot{{Name: "Tags", Target: "Tag", Inverse: "Posts"}}, ps.SkipNavigations)
	assert.Nil(t, snap.Ignored)

	_, err := ir.ModelHash(snap)
	assert.NoError(t, err, "snapshots are always hashable")
}
