package harness

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const inlineScenario = `
name: inline_blog
description: "Blog keys are discovered"
model: |
  entity: Blog: properties: {
    Id:    int
    Title: string
  }
assertions:
  - type: model_has
    entity: Blog
    primary_key: [Id]
`

const failingScenario = `
name: inline_failing
description: "Asserts an entity that is not there"
model: "entity: Blog: properties: Id: int"
assertions:
  - type: model_has
    entity: Post
`

func writeSuite(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blog.yaml"), []byte(inlineScenario), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "failing.yml"), []byte(failingScenario), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("not a scenario"), 0644))
	return dir
}

func TestFindScenarios(t *testing.T) {
	dir := writeSuite(t)

	files, err := FindScenarios(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "blog.yaml"), filepath.Join(dir, "failing.yml")}, files)

	files, err = FindScenarios(dir, "bl*")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "blog.yaml")}, files)

	_, err = FindScenarios(dir, "[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter pattern")
}

func TestFindScenarios_NestedFilter(t *testing.T) {
	dir := writeSuite(t)
	nested := filepath.Join(dir, "relations", "fk")
	require.NoError(t, os.MkdirAll(nested, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "shadow.yaml"), []byte(inlineScenario), 0644))

	files, err := FindScenarios(dir, "relations/**")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(nested, "shadow.yaml")}, files)

	files, err = FindScenarios(dir, "shadow")
	require.NoError(t, err, "base names match at any depth")
	assert.Len(t, files, 1)
}

func TestRunSuite(t *testing.T) {
	dir := writeSuite(t)

	result, err := RunSuite(context.Background(), dir, SuiteOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Scenarios, 2)

	assert.Equal(t, "inline_blog", result.Scenarios[0].Name)
	assert.True(t, result.Scenarios[0].Pass)
	assert.Equal(t, GoldenNone, result.Scenarios[0].Golden)
	assert.Equal(t, DefaultRunID, result.Scenarios[0].RunID)

	assert.Equal(t, "inline_failing", result.Scenarios[1].Name)
	assert.False(t, result.Scenarios[1].Pass)
	require.NotEmpty(t, result.Scenarios[1].Errors)
	assert.Contains(t, result.Scenarios[1].Errors[0], "entity Post")
}

func TestRunSuite_GoldenLifecycle(t *testing.T) {
	dir := writeSuite(t)
	ctx := context.Background()
	opts := SuiteOptions{Filter: "blog"}

	updated, err := RunSuite(ctx, dir, SuiteOptions{Filter: "blog", Update: true})
	require.NoError(t, err)
	require.Len(t, updated.Scenarios, 1)
	assert.Equal(t, GoldenUpdated, updated.Scenarios[0].Golden)
	assert.FileExists(t, filepath.Join(dir, "golden", "blog.golden"))

	matched, err := RunSuite(ctx, dir, opts)
	require.NoError(t, err)
	assert.Equal(t, GoldenMatched, matched.Scenarios[0].Golden)
	assert.True(t, matched.Scenarios[0].Pass)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "golden", "blog.golden"), []byte(`{}`), 0644))
	mismatched, err := RunSuite(ctx, dir, opts)
	require.NoError(t, err)
	assert.Equal(t, GoldenMismatch, mismatched.Scenarios[0].Golden)
	assert.False(t, mismatched.Scenarios[0].Pass)
	assert.Equal(t, 1, mismatched.Failed)
}

func TestRunSuite_LoadError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: [unclosed"), 0644))

	result, err := RunSuite(context.Background(), dir, SuiteOptions{})
	require.NoError(t, err)
	require.Len(t, result.Scenarios, 1)
	assert.Equal(t, "broken.yaml", result.Scenarios[0].Name)
	assert.False(t, result.Scenarios[0].Pass)
	assert.Contains(t, result.Scenarios[0].Errors[0], "failed to load scenario")
}

func TestRunSuite_MissingDirectory(t *testing.T) {
	_, err := RunSuite(context.Background(), filepath.Join(t.TempDir(), "nope"), SuiteOptions{})
	require.Error(t, err)
}
