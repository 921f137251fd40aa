package metadata

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/conventions/internal/convention"
)

// events collects Describe output of every event its plugin sees.
type events struct {
	seen []string
}

func (e *events) plugin() convention.Plugin {
	return convention.Func("record", func(_ *convention.Context, ev convention.Event) error {
		e.seen = append(e.seen, convention.Describe(ev))
		return nil
	})
}

// newTestModel builds a model over b's plugins; a nil b means no plugins.
func newTestModel(t *testing.T, b *convention.RegistryBuilder) *Model {
	t.Helper()
	if b == nil {
		b = convention.NewRegistryBuilder()
	}
	reg, err := b.Build()
	require.NoError(t, err)
	return NewModel(convention.New(reg, convention.WithLogger(nil)))
}

// blogModel returns Blog{Id} and Post{Id, BlogId} with primary keys set.
func blogModel(t *testing.T, m *Model) (blog, post *EntityType) {
	t.Helper()
	blog, err := m.AddEntityType("Blog")
	require.NoError(t, err)
	post, err = m.AddEntityType("Post")
	require.NoError(t, err)

	blogID, err := blog.AddProperty("Id", "int")
	require.NoError(t, err)
	_, err = blog.SetPrimaryKey(blogID)
	require.NoError(t, err)

	postID, err := post.AddProperty("Id", "int")
	require.NoError(t, err)
	_, err = post.SetPrimaryKey(postID)
	require.NoError(t, err)
	_, err = post.AddProperty("BlogId", "int")
	require.NoError(t, err)
	return blog, post
}
