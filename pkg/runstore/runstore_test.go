package runstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRunLifecycle(t *testing.T) {
	s := openTestStore(t)

	runID, err := s.BeginRun("fitness")
	require.NoError(t, err)
	assert.NotEmpty(t, runID)

	require.NoError(t, s.RecordStage(runID, "discover", 1, 36, 30, 6, 5*time.Second))
	require.NoError(t, s.RecordStage(runID, "engagement_filter", 2, 30, 12, 18, 10*time.Millisecond))
	require.NoError(t, s.FinishRun(runID, StatusCompleted))

	stages, err := s.RunStages(runID)
	require.NoError(t, err)
	require.Len(t, stages, 2)

	assert.Equal(t, "discover", stages[0].Stage)
	assert.Equal(t, 1, stages[0].Position)
	assert.Equal(t, 36, stages[0].Input)
	assert.Equal(t, 30, stages[0].Survivors)
	assert.Equal(t, 6, stages[0].Dropped)
	assert.Equal(t, 5*time.Second, stages[0].Duration)

	assert.Equal(t, "engagement_filter", stages[1].Stage)
}

func TestRunsAreIsolated(t *testing.T) {
	s := openTestStore(t)

	run1, err := s.BeginRun("fitness")
	require.NoError(t, err)
	run2, err := s.BeginRun("cooking")
	require.NoError(t, err)
	assert.NotEqual(t, run1, run2)

	require.NoError(t, s.RecordStage(run1, "discover", 1, 10, 8, 2, time.Second))
	require.NoError(t, s.RecordStage(run2, "discover", 1, 20, 5, 15, time.Second))

	stages, err := s.RunStages(run1)
	require.NoError(t, err)
	require.Len(t, stages, 1)
	assert.Equal(t, 10, stages[0].Input)
}

func TestDuplicatePositionRejected(t *testing.T) {
	s := openTestStore(t)

	runID, err := s.BeginRun("fitness")
	require.NoError(t, err)

	require.NoError(t, s.RecordStage(runID, "discover", 1, 10, 8, 2, time.Second))
	err = s.RecordStage(runID, "discover_again", 1, 10, 8, 2, time.Second)
	assert.Error(t, err)
}

func TestEmptyRunHasNoStages(t *testing.T) {
	s := openTestStore(t)

	runID, err := s.BeginRun("fitness")
	require.NoError(t, err)

	stages, err := s.RunStages(runID)
	require.NoError(t, err)
	assert.Empty(t, stages)
}
