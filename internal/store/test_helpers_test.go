package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/conventions/internal/ir"
)

// createTestStore creates a file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testSnapshot() *ir.ModelSnapshot {
	return &ir.ModelSnapshot{
		Entities: []ir.EntitySnapshot{{
			Name:       "Blog",
			PrimaryKey: []string{"Id"},
			Properties: []ir.PropertySnapshot{{Name: "Id", Type: "int"}},
		}},
		Annotations: map[string]ir.Value{"ProductVersion": ir.String(ir.EngineVersion)},
	}
}

func testTrace() []ir.TraceEvent {
	return []ir.TraceEvent{
		{Seq: 1, Phase: ir.PhaseFired, Kind: "ModelInitialized", Subject: "Model"},
		{Seq: 2, Phase: ir.PhaseInvoked, Kind: "ModelInitialized", Plugin: "ProductVersion", Subject: "Model", Depth: 1},
		{Seq: 3, Phase: ir.PhaseBypassed, Kind: "ModelAnnotationChanged", Subject: "ProductVersion", Depth: 1},
		{Seq: 4, Phase: ir.PhaseFired, Kind: "EntityTypeAdded", Subject: "Blog"},
	}
}

// testRun returns a run whose hashes match testTrace and testSnapshot.
func testRun(t *testing.T, id string) ir.BuildRun {
	t.Helper()
	traceHash, err := ir.TraceHash(testTrace())
	if err != nil {
		t.Fatal(err)
	}
	return ir.BuildRun{
		ID:            id,
		Status:        ir.StatusOK,
		ConventionSet: "default",
		SpecHash:      "spec-hash",
		ModelHash:     ir.MustModelHash(testSnapshot()),
		TraceHash:     traceHash,
		Events:        len(testTrace()),
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
	}
}
