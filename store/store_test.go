package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-eval/eval"
	"github.com/nvr-ai/go-eval/objects"
	"github.com/nvr-ai/go-eval/report"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testResults(ts time.Time) *report.Results {
	return &report.Results{
		Timestamp: ts,
		Config: eval.Config{
			Classes:     []objects.Label{"car", "pedestrian"},
			Overlaps:    []float64{0.5},
			SampleCount: 40,
			SampleScale: eval.ScaleLog,
		},
		ReportingScore: eval.ReportingScore,
		Classes: []report.ClassResult{
			{Class: "car", GTCount: 120, DTCount: 110, Precision: 0.92, Recall: 0.85, F1: 0.883, AP: 0.81},
			{Class: "pedestrian", GTCount: 45, DTCount: 50, Precision: 0.7, Recall: 0.6, F1: 0.646, AP: 0.55},
		},
		Run: &eval.RunMetrics{FrameCount: 200, TotalDuration: 3 * time.Second},
	}
}

func TestSaveAndQueryRun(t *testing.T) {
	s := testStore(t)

	id, err := s.SaveRun(testResults(time.Now()))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	runs, err := s.Runs(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].ID)
	assert.Equal(t, 200, runs[0].FrameCount)
	assert.InDelta(t, 3.0, runs[0].DurationSeconds, 1e-9)

	metrics, err := s.ClassMetrics(id)
	require.NoError(t, err)
	require.Len(t, metrics, 2)
	assert.Equal(t, "car", metrics[0].Class)
	assert.Equal(t, 120, metrics[0].GTCount)
	assert.InDelta(t, 0.92, metrics[0].Precision, 1e-9)
	assert.Equal(t, "pedestrian", metrics[1].Class)
}

func TestRunsNewestFirst(t *testing.T) {
	s := testStore(t)

	older := testResults(time.Now().Add(-time.Hour))
	newer := testResults(time.Now())

	_, err := s.SaveRun(older)
	require.NoError(t, err)
	newID, err := s.SaveRun(newer)
	require.NoError(t, err)

	runs, err := s.Runs(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, newID, runs[0].ID)
}

func TestRunsLimit(t *testing.T) {
	s := testStore(t)

	for i := 0; i < 5; i++ {
		_, err := s.SaveRun(testResults(time.Now().Add(time.Duration(i) * time.Minute)))
		require.NoError(t, err)
	}

	runs, err := s.Runs(3)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestClassMetricsUnknownRun(t *testing.T) {
	s := testStore(t)

	metrics, err := s.ClassMetrics("no-such-run")
	require.NoError(t, err)
	assert.Empty(t, metrics)
}
