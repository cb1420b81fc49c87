package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/nvr-ai/go-eval/objects"
)

// tgt builds a single-label target; geometry is irrelevant here because the
// IoU matrix is supplied explicitly.
func tgt(label objects.Label, score float64) objects.Target3D {
	tag, err := objects.NewScoredTag([]objects.Label{label}, []float64{score})
	if err != nil {
		panic(err)
	}
	return objects.Target3D{Tag: tag}
}

func frameOf(frame string, targets ...objects.Target3D) *objects.TargetArray {
	arr := objects.NewTargetArray(frame)
	for _, t := range targets {
		arr.Append(t)
	}
	return arr
}

func carBench(t *testing.T, samples int) *Benchmark {
	t.Helper()
	b, err := New(Config{
		Classes:     []objects.Label{"car"},
		Overlaps:    []float64{0.5},
		SampleCount: samples,
		MinScore:    0,
		SampleScale: ScaleLinear,
	})
	require.NoError(t, err)
	return b
}

// The ladder is [0, 0.25, 0.5, 0.75]. Detection A (score 0.9) overlaps GT1,
// detection B (score 0.3) overlaps GT2. At the highest level only A
// survives; at the lowest both do.
func TestGetStatsConcreteScenario(t *testing.T) {
	b := carBench(t, 4)

	gt := frameOf("f0", tgt("car", 1), tgt("car", 1))
	dt := frameOf("f0", tgt("car", 0.9), tgt("car", 0.3))
	iou := mat.NewDense(2, 2, []float64{
		0.8, 0,
		0, 0.6,
	})

	stats, err := b.GetStats(gt, dt, iou)
	require.NoError(t, err)

	assert.Equal(t, []int{2}, stats.NGT)
	assert.Equal(t, []int{2, 2, 1, 1}, stats.TP[0])
	assert.Equal(t, []int{0, 0, 1, 1}, stats.FN[0])
	assert.Equal(t, []int{0, 0, 0, 0}, stats.FP[0])
	assert.Equal(t, []int{2, 2, 1, 1}, stats.NDT[0])

	b.AddStats(stats)
	assert.Equal(t, 1.0, b.Precision(0.75)["car"])
	assert.Equal(t, 0.5, b.Recall(0.75)["car"])
}

func TestGetStatsZeroOverlap(t *testing.T) {
	b := carBench(t, 4)

	gt := frameOf("f0", tgt("car", 1), tgt("car", 1), tgt("car", 1))
	dt := frameOf("f0", tgt("car", 0.9), tgt("car", 0.3))
	iou := mat.NewDense(3, 2, nil) // all zero, below every threshold

	stats, err := b.GetStats(gt, dt, iou)
	require.NoError(t, err)

	for level := 0; level < 4; level++ {
		assert.Equal(t, 0, stats.TP[0][level], "level %d", level)
		assert.Equal(t, 3, stats.FN[0][level], "level %d", level)
		// Every present detection is a false positive.
		assert.Equal(t, stats.NDT[0][level], stats.FP[0][level], "level %d", level)
	}
	// Presence follows each detection's own score: 0.9 spans all levels,
	// 0.3 only the bottom two.
	assert.Equal(t, []int{2, 2, 1, 1}, stats.NDT[0])
}

func TestGetStatsPerfectOverlap(t *testing.T) {
	b := carBench(t, 4)

	gt := frameOf("f0", tgt("car", 1), tgt("car", 1))
	dt := frameOf("f0", tgt("car", 1), tgt("car", 1))
	iou := mat.NewDense(2, 2, []float64{
		1, 0,
		0, 1,
	})

	stats, err := b.GetStats(gt, dt, iou)
	require.NoError(t, err)

	for level := 0; level < 4; level++ {
		assert.Equal(t, 2, stats.TP[0][level])
		assert.Equal(t, 0, stats.FP[0][level])
		assert.Equal(t, 0, stats.FN[0][level])
	}
}

// The first acceptable detection in score order wins, even when a later,
// lower-scored one overlaps far more. This greedy policy is intended
// behavior, not best-IoU assignment.
func TestGetStatsGreedyFirstAcceptable(t *testing.T) {
	b := carBench(t, 4)

	gt := frameOf("f0", tgt("car", 1))
	dt := frameOf("f0", tgt("car", 0.9), tgt("car", 0.5))
	iou := mat.NewDense(1, 2, []float64{0.55, 0.95})

	stats, err := b.GetStats(gt, dt, iou)
	require.NoError(t, err)

	// The 0.9-scored detection (IoU 0.55) is the match; the better-
	// overlapping 0.5-scored one is left over as a false positive wherever
	// it is present.
	assert.Equal(t, []int{1, 1, 1, 1}, stats.TP[0])
	assert.Equal(t, []int{1, 1, 0, 0}, stats.FP[0])
}

// A detection claimed by an earlier ground truth is not available again, so
// the second ground truth stays unmatched.
func TestGetStatsDetectionClaimedOnce(t *testing.T) {
	b := carBench(t, 2)

	gt := frameOf("f0", tgt("car", 1), tgt("car", 1))
	dt := frameOf("f0", tgt("car", 0.9))
	iou := mat.NewDense(2, 1, []float64{0.8, 0.8})

	stats, err := b.GetStats(gt, dt, iou)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 1}, stats.TP[0])
	assert.Equal(t, []int{1, 1}, stats.FN[0])
	assert.Equal(t, []int{0, 0}, stats.FP[0])
}

// Identical confidence scores fall back to input order, which keeps the
// greedy result reproducible across runs.
func TestGetStatsScoreTiesAreStable(t *testing.T) {
	b := carBench(t, 2)

	gt := frameOf("f0", tgt("car", 1), tgt("car", 1))
	// Both detections score 0.8. D0 overlaps both ground truths, D1 only
	// the first. Stable order means GT1 claims D0; GT2 also accepts D0
	// first, finds it claimed, and ends unmatched. Were ties broken the
	// other way, GT1 would claim D1 and GT2 would match D0 instead.
	dt := frameOf("f0", tgt("car", 0.8), tgt("car", 0.8))
	iou := mat.NewDense(2, 2, []float64{
		0.9, 0.9,
		0.9, 0,
	})

	for run := 0; run < 3; run++ {
		stats, err := b.GetStats(gt, dt, iou)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 1}, stats.TP[0], "run %d", run)
		assert.Equal(t, []int{1, 1}, stats.FN[0], "run %d", run)
		assert.Equal(t, []int{1, 1}, stats.FP[0], "run %d", run)
	}
}

func TestGetStatsUntrackedClassSkipped(t *testing.T) {
	b := carBench(t, 4)

	gt := frameOf("f0", tgt("bicycle", 1), tgt("car", 1))
	dt := frameOf("f0", tgt("bicycle", 0.9), tgt("car", 0.9))
	iou := mat.NewDense(2, 2, []float64{
		0.9, 0,
		0, 0.9,
	})

	stats, err := b.GetStats(gt, dt, iou)
	require.NoError(t, err)

	// Only the car pair is scored; the bicycles contribute nothing.
	assert.Equal(t, []int{1}, stats.NGT)
	assert.Equal(t, []int{1, 1, 1, 1}, stats.TP[0])
	assert.Equal(t, []int{1, 1, 1, 1}, stats.NDT[0])
	assert.Equal(t, []int{0, 0, 0, 0}, stats.FP[0])
}

// Matching only ever consults the top-ranked label and score of a tag.
func TestGetStatsUsesTopLabel(t *testing.T) {
	b := carBench(t, 4)

	gt := frameOf("f0", tgt("car", 1))
	tag, err := objects.NewScoredTag(
		[]objects.Label{"pedestrian", "car"},
		[]float64{0.4, 0.6},
	)
	require.NoError(t, err)
	dt := frameOf("f0")
	dt.Append(objects.Target3D{Tag: tag})
	iou := mat.NewDense(1, 1, []float64{0.9})

	stats, err := b.GetStats(gt, dt, iou)
	require.NoError(t, err)

	// Score 0.6 inserts at level 3, so the match holds on levels 0..2.
	assert.Equal(t, []int{1, 1, 1, 0}, stats.TP[0])
	assert.Equal(t, []int{0, 0, 0, 1}, stats.FN[0])
}

func TestGetStatsEmptyFrames(t *testing.T) {
	b := carBench(t, 4)

	stats, err := b.GetStats(frameOf("f0"), frameOf("f0", tgt("car", 0.9)), nil)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 1, 1}, stats.FP[0])
	assert.Equal(t, []int{0}, stats.NGT)

	stats, err = b.GetStats(frameOf("f0", tgt("car", 1)), frameOf("f0"), nil)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 1, 1}, stats.FN[0])
	assert.Equal(t, []int{0, 0, 0, 0}, stats.NDT[0])
}

func TestGetStatsFrameMismatch(t *testing.T) {
	b := carBench(t, 4)

	_, err := b.GetStats(frameOf("f0", tgt("car", 1)), frameOf("f1", tgt("car", 0.9)), mat.NewDense(1, 1, nil))
	assert.ErrorIs(t, err, ErrFrameMismatch)
}

func TestGetStatsMatrixShapeMismatch(t *testing.T) {
	b := carBench(t, 4)

	_, err := b.GetStats(
		frameOf("f0", tgt("car", 1), tgt("car", 1)),
		frameOf("f0", tgt("car", 0.9)),
		mat.NewDense(1, 1, nil),
	)
	assert.ErrorIs(t, err, ErrMatrixShape)
}

func TestGetStatsScoreOutOfRange(t *testing.T) {
	b, err := New(Config{
		Classes:     []objects.Label{"car"},
		Overlaps:    []float64{0.5},
		SampleCount: 4,
		MinScore:    0.3,
		SampleScale: ScaleLinear,
	})
	require.NoError(t, err)

	gt := frameOf("f0", tgt("car", 1))
	iou := mat.NewDense(1, 1, []float64{0.9})

	// Below the configured minimum.
	_, err = b.GetStats(gt, frameOf("f0", tgt("car", 0.1)), iou)
	assert.ErrorIs(t, err, ErrScoreRange)

	// Above 1.
	_, err = b.GetStats(gt, frameOf("f0", tgt("car", 1.2)), iou)
	assert.ErrorIs(t, err, ErrScoreRange)

	// Untracked classes are skipped before the score check.
	_, err = b.GetStats(
		frameOf("f0", tgt("car", 1)),
		frameOf("f0", tgt("bicycle", 7)),
		mat.NewDense(1, 1, nil),
	)
	assert.NoError(t, err)
}
