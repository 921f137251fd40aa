package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/conventions/internal/compiler"
)

var blogSpecsDir = filepath.Join("..", "..", "testdata", "specs", "blog")

// writeSpec writes one CUE file into a fresh directory and returns the
// directory.
func writeSpec(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.cue"), []byte(content), 0644))
	return dir
}

func executeValidate(t *testing.T, format string, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	return buf, cmd.Execute()
}

func TestValidateValidSpecs(t *testing.T) {
	buf, err := executeValidate(t, "text", blogSpecsDir)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "✓ All specs valid")
	assert.Contains(t, output, "Blog, Comment, Post, Tag")
}

func TestValidateValidSpecsJSON(t *testing.T) {
	buf, err := executeValidate(t, "json", blogSpecsDir)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, []string{"Blog", "Comment", "Post", "Tag"}, resp.Data.Entities)
}

func TestValidateNonExistentDirectory(t *testing.T) {
	buf, err := executeValidate(t, "text", "/nonexistent/directory/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeNotFound)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "not found")
}

func TestValidateEmptyDirectory(t *testing.T) {
	buf, err := executeValidate(t, "text", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeNoFiles)
	assert.Contains(t, buf.String(), "no CUE files found")
}

func TestValidateUnknownEntity(t *testing.T) {
	dir := writeSpec(t, `package test

entity: Post: {
	properties: Id: int
	relationships: Author: {target: "Person"}
}
`)

	buf, err := executeValidate(t, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "validation failed with 1 error(s)")
	assert.Contains(t, buf.String(), "✗ Validation failed")
	assert.Contains(t, buf.String(), compiler.ErrUnknownEntity)
	assert.Contains(t, buf.String(), `unknown entity "Person"`)
}

func TestValidateCompileErrorHasLine(t *testing.T) {
	dir := writeSpec(t, `package test

entity: Blog: {
	propertys: Id: int
}
`)

	buf, err := executeValidate(t, "json", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.Len(t, resp.Data.Errors, 1)
	assert.Equal(t, ErrCodeCompileError, resp.Data.Errors[0].Code)
	assert.Contains(t, resp.Data.Errors[0].Message, "unknown field")
	assert.Positive(t, resp.Data.Errors[0].Line)
}

func TestValidateCycleWarning(t *testing.T) {
	dir := writeSpec(t, `package test

entity: Order: {
	properties: {Id: int, InvoiceId: int}
	relationships: Invoice: {target: "Invoice", required: true}
}
entity: Invoice: {
	properties: {Id: int, OrderId: int}
	relationships: Order: {target: "Order", required: true}
}
`)

	buf, err := executeValidate(t, "text", dir)
	require.NoError(t, err, "cycles are warnings")
	assert.Contains(t, buf.String(), "✓ All specs valid")
	assert.Contains(t, buf.String(), "⚠ required relationships form a cycle")
}

func TestValidateVerbose(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "json", Verbose: true})
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs([]string{blogSpecsDir})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, errOut.String(), "Found 2 CUE file(s)")
	assert.Contains(t, errOut.String(), "Validating entity: Post")

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp), "verbose output stays off stdout")
}
