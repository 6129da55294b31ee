package data

import (
	"context"
	"testing"
	"time"

	"github.com/mchmarny/partscore/pkg/batch"
	"github.com/mchmarny/partscore/pkg/score"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testReport(id string, started time.Time, failed int) *batch.Report {
	rep := &batch.Report{
		ID:       id,
		Started:  started,
		Duration: 1500 * time.Millisecond,
		Components: []*batch.ComponentReport{
			{Component: score.CPU, Records: 10, Scored: 10 - failed},
			{Component: score.GPU, Records: 5, Scored: 5},
		},
	}
	for i := 0; i < failed; i++ {
		rep.Failures = append(rep.Failures, batch.Failure{Component: score.CPU, ID: int64(i + 1), Kind: batch.FailurePersist})
	}
	return rep
}

func TestSaveAndGetRuns(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	older := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	require.NoError(t, s.SaveRun(ctx, testReport("run-1", older, 0)))
	require.NoError(t, s.SaveRun(ctx, testReport("run-2", newer, 2)))

	runs, err := s.Runs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "run-2", runs[0].ID)
	assert.True(t, newer.Equal(runs[0].StartedAt))
	assert.Equal(t, int64(1500), runs[0].DurationMS)
	assert.Equal(t, []string{"cpu", "gpu"}, runs[0].Components)
	assert.Equal(t, 13, runs[0].Scored)
	assert.Equal(t, 2, runs[0].Failed)
	assert.False(t, runs[0].DryRun)

	runs, err = s.Runs(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-2", runs[0].ID)
}

func TestSaveRun_Invalid(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	assert.Error(t, s.SaveRun(ctx, nil))

	require.NoError(t, s.SaveRun(ctx, testReport("dup", time.Now(), 0)))
	assert.Error(t, s.SaveRun(ctx, testReport("dup", time.Now(), 0)))

	_, err := s.Runs(ctx, 0)
	assert.Error(t, err)
}
