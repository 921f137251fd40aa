package cli

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/conventions/internal/ir"
	"github.com/roach88/conventions/internal/store"
)

// journalWithRuns builds the blog specs and a failing model into a fresh
// journal and returns its path.
func journalWithRuns(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "journal.db")

	_, err := executeBuild(t, "text", blogSpecsDir, "--db", dbPath, "--run-id", "run-blog")
	require.NoError(t, err)
	_, err = executeBuild(t, "text", writeSpec(t, missingKeySpec), "--db", dbPath, "--run-id", "run-audit")
	require.Error(t, err)
	return dbPath
}

func executeTrace(t *testing.T, format string, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	return buf, cmd.Execute()
}

type traceResponse struct {
	Status string      `json:"status"`
	Data   TraceResult `json:"data"`
	RunID  string      `json:"run_id"`
}

func TestTraceMissingDatabaseFlag(t *testing.T) {
	_, err := executeTrace(t, "text", "--run", "run-blog")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestTraceNonExistentDatabase(t *testing.T) {
	_, err := executeTrace(t, "text", "--db", "/nonexistent/path/journal.db")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "database not found")
}

func TestTraceEmptyJournal(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "journal.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	_, err = executeTrace(t, "text", "--db", dbPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "journal is empty")
}

func TestTraceUnknownRun(t *testing.T) {
	dbPath := journalWithRuns(t)

	_, err := executeTrace(t, "text", "--db", dbPath, "--run", "run-nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "run not found: run-nope")
}

func TestTraceLatestRun(t *testing.T) {
	dbPath := journalWithRuns(t)

	buf, err := executeTrace(t, "text", "--db", dbPath)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Trace for Run: run-audit")
	assert.Contains(t, output, "Status: failed [VALIDATION_FAILED]")
	assert.Contains(t, output, "=== Timeline ===")
	assert.Contains(t, output, "ModelInitialized Model")
	assert.Contains(t, output, "=== Stats ===")
}

func TestTraceRunJSON(t *testing.T) {
	dbPath := journalWithRuns(t)

	buf, err := executeTrace(t, "json", "--db", dbPath, "--run", "run-blog")
	require.NoError(t, err)

	var resp traceResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "run-blog", resp.RunID)
	assert.Equal(t, ir.StatusOK, resp.Data.Run.Status)
	assert.Equal(t, resp.Data.Run.Events, resp.Data.Stats.TotalEvents)
	assert.Len(t, resp.Data.Trace, resp.Data.Run.Events)
	assert.Positive(t, resp.Data.Stats.Phases[ir.PhaseFired])
	assert.Positive(t, resp.Data.Stats.Phases[ir.PhaseInvoked])
	assert.Positive(t, resp.Data.Stats.Plugins)
	assert.Nil(t, resp.Data.Verify)
}

func TestTraceKindFilter(t *testing.T) {
	dbPath := journalWithRuns(t)

	buf, err := executeTrace(t, "json", "--db", dbPath, "--run", "run-blog", "--kind", "ForeignKeyAdded")
	require.NoError(t, err)

	var resp traceResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.Trace)
	for _, ev := range resp.Data.Trace {
		assert.Equal(t, "ForeignKeyAdded", ev.Kind)
	}
}

func TestTraceVerify(t *testing.T) {
	dbPath := journalWithRuns(t)

	buf, err := executeTrace(t, "text", "--db", dbPath, "--run", "run-blog", "--verify")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "✓ Trace and model hashes verified")

	buf, err = executeTrace(t, "text", "--db", dbPath, "--run", "run-audit", "--verify")
	require.NoError(t, err, "failed runs verify their trace hash")
	assert.Contains(t, buf.String(), "✓ Trace and model hashes verified")
}

func TestTraceVerifyDetectsTampering(t *testing.T) {
	dbPath := journalWithRuns(t)

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	_, err = db.ExecContext(context.Background(),
		`UPDATE trace_events SET plugin = 'Tampered' WHERE run_id = 'run-blog' AND phase = 'invoked'`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	buf, err := executeTrace(t, "json", "--db", dbPath, "--run", "run-blog", "--verify")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "does not match its recorded hashes")

	var resp traceResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.NotNil(t, resp.Data.Verify)
	assert.False(t, resp.Data.Verify.OK)
	assert.NotEqual(t, resp.Data.Verify.StoredHash, resp.Data.Verify.RecomputedHash)
	assert.True(t, resp.Data.Verify.ModelMatches)
}

func TestTraceList(t *testing.T) {
	dbPath := journalWithRuns(t)

	buf, err := executeTrace(t, "text", "--db", dbPath, "--list")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "run-blog")
	assert.Contains(t, buf.String(), "failed VALIDATION_FAILED")

	buf, err = executeTrace(t, "json", "--db", dbPath, "--list")
	require.NoError(t, err)
	var resp struct {
		Data []ir.BuildRun `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "run-blog", resp.Data[0].ID)
	assert.Equal(t, "run-audit", resp.Data[1].ID)
}

func TestTraceStats(t *testing.T) {
	stats := traceStats([]ir.TraceEvent{
		{Seq: 1, Phase: ir.PhaseFired, Kind: "EntityTypeAdded", Subject: "Blog"},
		{Seq: 2, Phase: ir.PhaseInvoked, Kind: "EntityTypeAdded", Plugin: "KeyDiscovery", Subject: "Blog"},
		{Seq: 3, Phase: ir.PhaseInvoked, Kind: "PropertyAdded", Plugin: "KeyDiscovery", Subject: "Blog.Id"},
		{Seq: 4, Phase: ir.PhaseInvoked, Kind: "PropertyAdded", Plugin: "Requiredness", Subject: "Blog.Id"},
	})

	assert.Equal(t, 4, stats.TotalEvents)
	assert.Equal(t, map[string]int{ir.PhaseFired: 1, ir.PhaseInvoked: 3}, stats.Phases)
	assert.Equal(t, 2, stats.Plugins)
}

func TestFormatTraceEvent(t *testing.T) {
	buf := &bytes.Buffer{}
	formatTraceEvent(buf, ir.TraceEvent{Seq: 7, Phase: ir.PhaseInvoked, Kind: "PropertyAdded", Plugin: "KeyDiscovery", Subject: "Blog.Id", Depth: 1})
	assert.Equal(t, "  [7]   invoked     PropertyAdded Blog.Id -> KeyDiscovery\n", buf.String())
}
