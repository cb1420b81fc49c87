// Package eval - Detection benchmark engine: threshold-swept matching of
// detections against ground truth and the derived precision/recall metrics.
//
// The engine is class-set-closed and pure per frame: GetStats depends only on
// its inputs, AddStats folds a frame's counts into the running totals, and
// the metric queries read the totals. Target association is done greedily in
// descending score order.
package eval

import (
	"sync"

	"github.com/nvr-ai/go-eval/objects"
)

// Benchmark evaluates detector output against ground truth across a ladder
// of confidence thresholds.
//
// The aggregate statistics are the only mutable state; they are guarded by a
// mutex so frames matched concurrently can be merged from any goroutine.
// Independent runs use independent Benchmark instances.
type Benchmark struct {
	cfg      Config
	ladder   *Ladder
	classIdx map[objects.Label]int

	mu    sync.RWMutex
	total *FrameStats
}

// New creates a benchmark for the configured class set and threshold ladder.
//
// Arguments:
//   - cfg: The run configuration; see Config.
//
// Returns:
//   - *Benchmark: The initialized benchmark with zeroed totals.
//   - error: A configuration error when the class set, overlaps, or ladder
//     parameters are invalid.
func New(cfg Config) (*Benchmark, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ladder, err := NewLadder(cfg.SampleCount, cfg.MinScore, cfg.SampleScale)
	if err != nil {
		return nil, err
	}

	classIdx := make(map[objects.Label]int, len(cfg.Classes))
	for i, c := range cfg.Classes {
		classIdx[c] = i
	}

	return &Benchmark{
		cfg:      cfg,
		ladder:   ladder,
		classIdx: classIdx,
		total:    NewFrameStats(len(cfg.Classes), ladder.Len()),
	}, nil
}

// Config returns the configuration the benchmark was built with.
func (b *Benchmark) Config() Config {
	return b.cfg
}

// Ladder returns the score-threshold ladder.
func (b *Benchmark) Ladder() *Ladder {
	return b.ladder
}

// Classes returns the tracked class set in configuration order.
func (b *Benchmark) Classes() []objects.Label {
	return b.cfg.Classes
}

// AddStats merges one frame's statistics into the running totals. Merging is
// commutative, so the order frames arrive in does not affect the totals.
func (b *Benchmark) AddStats(stats *FrameStats) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.total.Merge(stats)
}

// perClass snapshots one per-class count column at the given level under the
// read lock.
func (b *Benchmark) perClass(pick func(ci int) int) map[objects.Label]int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[objects.Label]int, len(b.cfg.Classes))
	for ci, c := range b.cfg.Classes {
		out[c] = pick(ci)
	}
	return out
}

// GTCount returns the total ground truths processed per class.
func (b *Benchmark) GTCount() map[objects.Label]int {
	return b.perClass(func(ci int) int { return b.total.NGT[ci] })
}

// DTCount returns the detections present per class at the level selected by
// score, or at the ladder midpoint when no score is given.
func (b *Benchmark) DTCount(score ...float64) map[objects.Label]int {
	level := b.ladder.levelForScore(score)
	return b.perClass(func(ci int) int { return b.total.NDT[ci][level] })
}

// TP returns the true-positive count per class at the level selected by
// score, or at the ladder midpoint when no score is given.
func (b *Benchmark) TP(score ...float64) map[objects.Label]int {
	level := b.ladder.levelForScore(score)
	return b.perClass(func(ci int) int { return b.total.TP[ci][level] })
}

// FP returns the false-positive count per class at the level selected by
// score, or at the ladder midpoint when no score is given.
func (b *Benchmark) FP(score ...float64) map[objects.Label]int {
	level := b.ladder.levelForScore(score)
	return b.perClass(func(ci int) int { return b.total.FP[ci][level] })
}

// FN returns the false-negative count per class at the level selected by
// score, or at the ladder midpoint when no score is given.
func (b *Benchmark) FN(score ...float64) map[objects.Label]int {
	level := b.ladder.levelForScore(score)
	return b.perClass(func(ci int) int { return b.total.FN[ci][level] })
}
