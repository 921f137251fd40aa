package ir

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() *ModelSnapshot {
	return &ModelSnapshot{
		Entities: []EntitySnapshot{{
			Name:       "Blog",
			PrimaryKey: []string{"Id"},
			Properties: []PropertySnapshot{{Name: "Id", Type: "int"}},
		}},
	}
}

func TestModelHashDeterminism(t *testing.T) {
	h1, err := ModelHash(sampleSnapshot())
	require.NoError(t, err)
	h2, err := ModelHash(sampleSnapshot())
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestModelHashChangesWithContent(t *testing.T) {
	snap := sampleSnapshot()
	before := MustModelHash(snap)

	snap.Entities[0].Properties[0].Nullable = true
	assert.NotEqual(t, before, MustModelHash(snap))
}

func TestModelHashAnnotationOrderIrrelevant(t *testing.T) {
	a := sampleSnapshot()
	a.Annotations = Object{"x": Int(1), "y": Int(2)}
	b := sampleSnapshot()
	b.Annotations = Object{"y": Int(2), "x": Int(1)}

	assert.Equal(t, MustModelHash(a), MustModelHash(b))
}

func TestTraceHash(t *testing.T) {
	events := []TraceEvent{
		{Seq: 1, Phase: PhaseFired, Kind: "EntityTypeAdded", Subject: "Blog"},
		{Seq: 2, Phase: PhaseInvoked, Kind: "EntityTypeAdded", Plugin: "KeyDiscovery", Subject: "Blog"},
	}
	h1, err := TraceHash(events)
	require.NoError(t, err)

	swapped := []TraceEvent{events[1], events[0]}
	h2, err := TraceHash(swapped)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2, "trace order is part of identity")

	empty, err := TraceHash(nil)
	require.NoError(t, err)
	assert.Len(t, empty, 64)
}

func TestSpecHash(t *testing.T) {
	spec := &ModelSpec{Entities: []EntitySpec{{
		Name:       "Blog",
		Properties: []PropertySpec{{Name: "Id", Type: "int"}},
	}}}
	h, err := SpecHash(spec)
	require.NoError(t, err)
	assert.Len(t, h, 64)
}

func TestDomainSeparation(t *testing.T) {
	data := []byte(`[]`)
	assert.NotEqual(t, hashWithDomain(DomainModel, data), hashWithDomain(DomainTrace, data))
	assert.True(t, strings.HasPrefix(DomainSpec, "conventions/"))
}

func TestHashWithDomainNullSeparator(t *testing.T) {
	// "ab" + "c" and "a" + "bc" must not collide.
	assert.NotEqual(t, hashWithDomain("ab", []byte("c")), hashWithDomain("a", []byte("bc")))
}

func TestHashCanonicalMatchesModelHash(t *testing.T) {
	canonical, err := Canonicalize(sampleSnapshot())
	require.NoError(t, err)
	assert.Equal(t, MustModelHash(sampleSnapshot()), HashCanonical(DomainModel, canonical))
}
