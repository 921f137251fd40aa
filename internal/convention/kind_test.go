package convention

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKinds_AllValid(t *testing.T) {
	all := Kinds()
	assert.Len(t, all, int(kindCount)-1)

	for _, k := range all {
		assert.True(t, k.Valid(), k.String())
		assert.NotEqual(t, ShapeInvalid, k.Shape(), k.String())
		assert.NotEqual(t, SubjectNone, k.Subject(), k.String())
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	_, err := ParseKind("PropertyRenamed")
	assert.Error(t, err)
}

func TestKind_Invalid(t *testing.T) {
	assert.False(t, KindInvalid.Valid())
	assert.False(t, kindCount.Valid())
	assert.Equal(t, ShapeInvalid, Kind(-3).Shape())
	assert.Equal(t, "Kind(-3)", Kind(-3).String())
}

func TestKind_ShapeMatchesSubject(t *testing.T) {
	want := map[Shape]SubjectType{
		ShapeModel:          SubjectElement,
		ShapeElementAdded:   SubjectElement,
		ShapeElementRemoved: SubjectElement,
		ShapeName:           SubjectName,
		ShapeAnnotation:     SubjectAnnotation,
		ShapeFlag:           SubjectFlag,
		ShapeElementChanged: SubjectElement,
		ShapeProperties:     SubjectList,
		ShapeField:          SubjectField,
	}
	for _, k := range Kinds() {
		assert.Equal(t, want[k.Shape()], k.Subject(), k.String())
	}
}
