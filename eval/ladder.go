package eval

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Ladder is the monotonic sequence of confidence-score thresholds at which
// precision and recall are sampled. It is built once at benchmark
// construction and never mutated afterwards.
type Ladder struct {
	thresholds []float64
	minScore   float64
}

// NewLadder builds a ladder of count thresholds over [minScore, 1).
//
// ScaleLinear spaces the thresholds evenly. A "log" scale (optionally
// suffixed with an integer base, e.g. "log2"; plain "log" means base 10)
// generates count+1 geometrically spaced values between 1 and the base,
// remaps them affinely onto [minScore, 1], then reverses the sequence and
// drops the score-1 endpoint. The geometric spacing leaves the kept
// thresholds densest near score 1, where precision-recall curves change most
// sharply, so fewer samples yield a smoother AP estimate than linear
// spacing.
//
// Index 0 always holds the lowest threshold and the sequence ascends.
func NewLadder(count int, minScore float64, scale string) (*Ladder, error) {
	if count < 2 {
		return nil, errors.Wrapf(ErrSampleCount, "got %d", count)
	}

	th := make([]float64, count)
	switch {
	case scale == ScaleLinear:
		step := (1 - minScore) / float64(count)
		for i := range th {
			th[i] = minScore + float64(i)*step
		}

	case strings.HasPrefix(scale, "log"):
		base := 10.0
		if suffix := scale[len("log"):]; suffix != "" {
			n, err := strconv.Atoi(suffix)
			if err != nil || n < 2 {
				return nil, errors.Wrapf(ErrSampleScale, "%q", scale)
			}
			base = float64(n)
		}
		// Geometric samples g_i = base^(i/count) span [1, base]; the affine
		// remap sends them onto [0, 1-minScore]. Storing 1-v in reverse
		// order keeps the ladder ascending with index 0 at minScore, and
		// skipping i=0 drops the score-1 endpoint.
		for i := 1; i <= count; i++ {
			g := math.Pow(base, float64(i)/float64(count))
			v := (g - 1) * (1 - minScore) / (base - 1)
			th[count-i] = 1 - v
		}

	default:
		return nil, errors.Wrapf(ErrSampleScale, "%q", scale)
	}

	return &Ladder{thresholds: th, minScore: minScore}, nil
}

// Len returns the number of thresholds.
func (l *Ladder) Len() int {
	return len(l.thresholds)
}

// At returns the threshold at position i.
func (l *Ladder) At(i int) float64 {
	return l.thresholds[i]
}

// MinScore returns the lower bound of the sampled score range.
func (l *Ladder) MinScore() float64 {
	return l.minScore
}

// Thresholds returns a copy of the threshold sequence, ascending.
func (l *Ladder) Thresholds() []float64 {
	out := make([]float64, len(l.thresholds))
	copy(out, l.thresholds)
	return out
}

// SearchSorted returns the lowest ladder position whose threshold is >= the
// given score, or Len() when every threshold is below it. A detection with
// this score therefore counts as present at every level strictly below the
// returned position.
func (l *Ladder) SearchSorted(score float64) int {
	return sort.SearchFloat64s(l.thresholds, score)
}

// levelForScore translates an optional metric-query score into a ladder
// level. With no score the middle of the ladder is used as the typical
// operating point; otherwise the level just below the first threshold at or
// above the score, clamped to the valid range.
func (l *Ladder) levelForScore(score []float64) int {
	if len(score) == 0 {
		return len(l.thresholds) / 2
	}
	idx := l.SearchSorted(score[0]) - 1
	if idx < 0 {
		idx = 0
	}
	if idx > len(l.thresholds)-1 {
		idx = len(l.thresholds) - 1
	}
	return idx
}
