package eval

import (
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/nvr-ai/go-eval/objects"
)

// GetStats matches one frame's detections against its ground truths and
// returns the per-class, per-level counts. It is a pure function of its
// inputs and safe to call concurrently across frames.
//
// The iou matrix must have one row per ground truth and one column per
// detection; it may be nil when either list is empty. Both arrays must
// reference the same frame and every tracked object's score must lie in
// [MinScore, 1] — violations are caller defects and return a precondition
// error rather than being silently handled. Objects whose top label is not
// in the tracked class set are skipped and contribute nothing.
//
// Association is greedy: detections are visited in descending score order
// (ties keep input order, so results are reproducible) and the first
// same-class detection whose IoU exceeds the class overlap threshold claims
// the ground truth, even when a later, lower-scored detection overlaps more.
// One scan decides all threshold levels at once: a detection scored s exists
// exactly at the levels below SearchSorted(s), so the accepted pair is
// marked assigned on that whole prefix of levels, skipping levels where
// either side was already claimed by an earlier ground truth.
func (b *Benchmark) GetStats(gt, dt *objects.TargetArray, iou mat.Matrix) (*FrameStats, error) {
	if gt.Frame != dt.Frame {
		return nil, errors.Wrapf(ErrFrameMismatch, "%q vs %q", gt.Frame, dt.Frame)
	}
	if gt.Len() > 0 && dt.Len() > 0 {
		if iou == nil {
			return nil, errors.Wrap(ErrMatrixShape, "nil iou matrix for non-empty frame")
		}
		r, c := iou.Dims()
		if r != gt.Len() || c != dt.Len() {
			return nil, errors.Wrapf(ErrMatrixShape, "got %dx%d, want %dx%d", r, c, gt.Len(), dt.Len())
		}
	}
	if err := b.checkScores(gt); err != nil {
		return nil, err
	}
	if err := b.checkScores(dt); err != nil {
		return nil, err
	}

	levels := b.ladder.Len()
	stats := NewFrameStats(len(b.cfg.Classes), levels)

	// Per-level partial matching: each side of a pair appears at most once
	// per level.
	gtTaken := make([][]bool, levels)
	dtTaken := make([][]bool, levels)
	for i := range gtTaken {
		gtTaken[i] = make([]bool, gt.Len())
		dtTaken[i] = make([]bool, dt.Len())
	}

	// Match from best score down. The stable sort keeps input order on score
	// ties, which makes tie-breaking deterministic.
	order := make([]int, dt.Len())
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return dt.Targets[order[i]].Tag.TopScore() > dt.Targets[order[j]].Tag.TopScore()
	})

	for gi := range gt.Targets {
		tag := gt.Targets[gi].Tag.Top()
		ci, tracked := b.classIdx[tag]
		if !tracked {
			continue
		}

		for _, di := range order {
			if dt.Targets[di].Tag.Top() != tag {
				continue
			}
			if iou.At(gi, di) <= b.cfg.overlapFor(ci) {
				continue
			}

			// First acceptable overlap wins; stop scanning immediately.
			loc := b.ladder.SearchSorted(dt.Targets[di].Tag.TopScore())
			for level := 0; level < loc; level++ {
				if dtTaken[level][di] || gtTaken[level][gi] {
					continue
				}
				dtTaken[level][di] = true
				gtTaken[level][gi] = true
			}
			break
		}

		stats.NGT[ci]++
		for level := 0; level < levels; level++ {
			if gtTaken[level][gi] {
				stats.TP[ci][level]++
			} else {
				stats.FN[ci][level]++
			}
		}
	}

	for di := range dt.Targets {
		ci, tracked := b.classIdx[dt.Targets[di].Tag.Top()]
		if !tracked {
			continue
		}

		loc := b.ladder.SearchSorted(dt.Targets[di].Tag.TopScore())
		for level := 0; level < loc; level++ {
			stats.NDT[ci][level]++
			if !dtTaken[level][di] {
				stats.FP[ci][level]++
			}
		}
	}

	return stats, nil
}

// checkScores validates that every tracked object's top score lies inside
// the configured score range.
func (b *Benchmark) checkScores(arr *objects.TargetArray) error {
	for i := range arr.Targets {
		tag := arr.Targets[i].Tag
		if _, tracked := b.classIdx[tag.Top()]; !tracked {
			continue
		}
		if s := tag.TopScore(); s < b.cfg.MinScore || s > 1 {
			return errors.Wrapf(ErrScoreRange, "frame %q target %d score %g outside [%g, 1]",
				arr.Frame, i, s, b.cfg.MinScore)
		}
	}
	return nil
}
