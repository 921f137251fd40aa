package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    Value
		expected string
	}{
		{"string", String("hello"), `"hello"`},
		{"empty string", String(""), `""`},
		{"int", Int(42), "42"},
		{"negative int", Int(-100), "-100"},
		{"max int64", Int(9223372036854775807), "9223372036854775807"},
		{"bool true", Bool(true), "true"},
		{"bool false", Bool(false), "false"},
		{"empty list", List{}, "[]"},
		{"empty object", Object{}, "{}"},
		{"list", List{Int(1), String("a")}, `[1,"a"]`},
		{"nested", Object{"z": Object{"b": Int(1), "a": Int(2)}, "a": Int(3)}, `{"a":3,"z":{"a":2,"b":1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalUTF16Ordering(t *testing.T) {
	// U+10000 encodes as the surrogate pair 0xD800 0xDC00, which sorts
	// before 0xE000 in UTF-16 but after it in UTF-8.
	obj := Object{
		"\uE000":     Int(1),
		"\U00010000": Int(2),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U00010000\":2,\"\uE000\":1}", string(result))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	result, err := MarshalCanonical(String("<a href=\"x\">&</a>"))
	require.NoError(t, err)
	assert.Equal(t, `"<a href=\"x\">&</a>"`, string(result))
}

func TestMarshalCanonicalLineSeparators(t *testing.T) {
	result, err := MarshalCanonical(String("a\u2028b\u2029c"))
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\u2029c\"", string(result))
}

func TestMarshalCanonicalEscapedBackslashKept(t *testing.T) {
	// A literal backslash followed by "u2028" is not a line separator.
	result, err := MarshalCanonical(String(`\u2028`))
	require.NoError(t, err)
	assert.Equal(t, `"\\u2028"`, string(result))
}

func TestMarshalCanonicalNFC(t *testing.T) {
	// "e" + combining acute accent normalizes to U+00E9.
	result, err := MarshalCanonical(String("e\u0301"))
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(result))
}

func TestMarshalCanonicalRejectsNil(t *testing.T) {
	_, err := MarshalCanonical(List{Int(1), nil})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[1]")
}

func TestCanonicalizeStruct(t *testing.T) {
	ev := TraceEvent{Seq: 2, Phase: PhaseInvoked, Kind: "PropertyAdded", Plugin: "KeyDiscovery", Subject: "Blog.Id", Depth: 0}

	result, err := Canonicalize(ev)
	require.NoError(t, err)
	assert.Equal(t,
		`{"depth":0,"kind":"PropertyAdded","phase":"invoked","plugin":"KeyDiscovery","seq":2,"subject":"Blog.Id"}`,
		string(result))
}

func TestCanonicalizeOmitsEmpty(t *testing.T) {
	ev := TraceEvent{Seq: 1, Phase: PhaseFired, Kind: "ModelInitialized", Subject: "Model"}

	result, err := Canonicalize(ev)
	require.NoError(t, err)
	assert.NotContains(t, string(result), "plugin")
}

func TestCanonicalizeRejectsNull(t *testing.T) {
	_, err := Canonicalize(struct {
		Names []string `json:"names"`
	}{})
	require.Error(t, err)
}
