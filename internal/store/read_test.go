package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/conventions/internal/ir"
)

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.ReadRun(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestListRuns_InsertionOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)

	for _, id := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, s.WriteRun(ctx, testRun(t, id), testTrace(), nil))
	}

	runs, err = s.ListRuns(ctx)
	require.NoError(t, err)
	var ids []string
	for _, r := range runs {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, ids)

	latest, err := s.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "mid", latest.ID)
}

func TestLatestRun_Empty(t *testing.T) {
	s := createTestStore(t)
	_, err := s.LatestRun(context.Background())
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestReadTrace_OrderedBySeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	trace := testTrace()
	reversed := []ir.TraceEvent{trace[3], trace[2], trace[1], trace[0]}
	require.NoError(t, s.WriteRun(ctx, testRun(t, "run-1"), reversed, nil))

	got, err := s.ReadTrace(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, trace, got)
}

func TestReadTrace_UnknownRunIsEmpty(t *testing.T) {
	s := createTestStore(t)
	got, err := s.ReadTrace(context.Background(), "missing")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestReadTraceKind(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.WriteRun(ctx, testRun(t, "run-1"), testTrace(), nil))

	got, err := s.ReadTraceKind(ctx, "run-1", "ModelInitialized")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].Seq)
	assert.Equal(t, "ProductVersion", got[1].Plugin)
}
