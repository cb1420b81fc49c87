package eval

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/integrate"

	"github.com/nvr-ai/go-eval/objects"
)

// ReportingScore is the fixed operating point used by Summary.
const ReportingScore = 0.8

// precisionAt derives precision for class index ci at a ladder level. Zero
// false positives mean no false alarm has been observed yet, so precision is
// vacuously 1 rather than undefined.
func (b *Benchmark) precisionAt(ci, level int) float64 {
	tp, fp := b.total.TP[ci][level], b.total.FP[ci][level]
	if fp == 0 {
		return 1
	}
	return float64(tp) / float64(tp+fp)
}

// recallAt derives recall for class index ci at a ladder level, with the
// matching convention: zero false negatives yield recall 1.
func (b *Benchmark) recallAt(ci, level int) float64 {
	tp, fn := b.total.TP[ci][level], b.total.FN[ci][level]
	if fn == 0 {
		return 1
	}
	return float64(tp) / float64(tp+fn)
}

// Precision returns per-class precision at the level selected by score, or
// at the ladder midpoint when no score is given.
func (b *Benchmark) Precision(score ...float64) map[objects.Label]float64 {
	level := b.ladder.levelForScore(score)

	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[objects.Label]float64, len(b.cfg.Classes))
	for ci, c := range b.cfg.Classes {
		out[c] = b.precisionAt(ci, level)
	}
	return out
}

// Recall returns per-class recall at the level selected by score, or at the
// ladder midpoint when no score is given.
func (b *Benchmark) Recall(score ...float64) map[objects.Label]float64 {
	level := b.ladder.levelForScore(score)

	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[objects.Label]float64, len(b.cfg.Classes))
	for ci, c := range b.cfg.Classes {
		out[c] = b.recallAt(ci, level)
	}
	return out
}

// PrecisionCurve returns per-class precision across the whole ladder,
// indexed by level.
func (b *Benchmark) PrecisionCurve() map[objects.Label][]float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[objects.Label][]float64, len(b.cfg.Classes))
	for ci, c := range b.cfg.Classes {
		curve := make([]float64, b.ladder.Len())
		for i := range curve {
			curve[i] = b.precisionAt(ci, i)
		}
		out[c] = curve
	}
	return out
}

// RecallCurve returns per-class recall across the whole ladder, indexed by
// level. Recall never increases with the level, since raising the score
// threshold only removes detections.
func (b *Benchmark) RecallCurve() map[objects.Label][]float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[objects.Label][]float64, len(b.cfg.Classes))
	for ci, c := range b.cfg.Classes {
		curve := make([]float64, b.ladder.Len())
		for i := range curve {
			curve[i] = b.recallAt(ci, i)
		}
		out[c] = curve
	}
	return out
}

// FScore returns the β-weighted harmonic combination of precision and recall
// per class, (1+β²)·P·R / (β²·P + R), at the level selected by score or the
// ladder midpoint when no score is given. β=1 gives the familiar F1.
func (b *Benchmark) FScore(beta float64, score ...float64) map[objects.Label]float64 {
	level := b.ladder.levelForScore(score)
	b2 := beta * beta

	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[objects.Label]float64, len(b.cfg.Classes))
	for ci, c := range b.cfg.Classes {
		p := b.precisionAt(ci, level)
		r := b.recallAt(ci, level)
		if b2*p+r == 0 {
			out[c] = 0
			continue
		}
		out[c] = (1 + b2) * p * r / (b2*p + r)
	}
	return out
}

// AveragePrecision returns the area under each class's precision-recall
// curve, integrated over the full threshold ladder with the trapezoidal
// rule.
//
// Along the ladder recall is non-increasing, so the raw integral over the
// curve as stored would come out negative; integrating over the
// level-reversed samples orients recall ascending and yields the AP as a
// non-negative area.
func (b *Benchmark) AveragePrecision() map[objects.Label]float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := b.ladder.Len()
	out := make(map[objects.Label]float64, len(b.cfg.Classes))
	for ci, c := range b.cfg.Classes {
		recall := make([]float64, n)
		precision := make([]float64, n)
		for i := 0; i < n; i++ {
			recall[i] = b.recallAt(ci, n-1-i)
			precision[i] = b.precisionAt(ci, n-1-i)
		}
		out[c] = integrate.Trapezoidal(recall, precision)
	}
	return out
}

// Summary renders a human-readable report: per class, the processed target
// totals, precision/recall/F1 at the fixed reporting score, and AP.
func (b *Benchmark) Summary() string {
	precision := b.Precision(ReportingScore)
	recall := b.Recall(ReportingScore)
	fscore := b.FScore(1, ReportingScore)
	ap := b.AveragePrecision()

	b.mu.RLock()
	defer b.mu.RUnlock()

	var sb strings.Builder
	sb.WriteString("\n========== Benchmark Summary ==========\n")
	for ci, c := range b.cfg.Classes {
		maxDT := 0
		for _, n := range b.total.NDT[ci] {
			if n > maxDT {
				maxDT = n
			}
		}

		fmt.Fprintf(&sb, "Results for %s:\n", c)
		fmt.Fprintf(&sb, "\tTotal processed targets:\t%d gt boxes, %d dt boxes\n", b.total.NGT[ci], maxDT)
		fmt.Fprintf(&sb, "\tPrecision (score > %.1f):\t%.3f\n", ReportingScore, precision[c])
		fmt.Fprintf(&sb, "\tRecall (score > %.1f):\t\t%.3f\n", ReportingScore, recall[c])
		fmt.Fprintf(&sb, "\tF1 (score > %.1f):\t\t%.3f\n", ReportingScore, fscore[c])
		fmt.Fprintf(&sb, "\tAP:\t\t\t%.3f\n", ap[c])
	}
	sb.WriteString("========== Summary End ==========")
	return sb.String()
}
