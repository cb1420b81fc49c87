package report

import (
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/nvr-ai/go-eval/eval"
)

// WritePRCurve renders the per-class precision-recall curves to an image
// file. The format follows the path extension (.png, .svg, .pdf).
func WritePRCurve(path string, b *eval.Benchmark) error {
	p := plot.New()
	p.Title.Text = "Precision-Recall"
	p.X.Label.Text = "Recall"
	p.Y.Label.Text = "Precision"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1

	precision := b.PrecisionCurve()
	recall := b.RecallCurve()

	var series []interface{}
	for _, c := range b.Classes() {
		pc, rc := precision[c], recall[c]
		pts := make(plotter.XYs, len(pc))
		// Level order runs high-recall to low-recall; reverse so the curve
		// draws left to right.
		for i := range pts {
			j := len(pc) - 1 - i
			pts[i].X = rc[j]
			pts[i].Y = pc[j]
		}
		series = append(series, string(c), pts)
	}

	if err := plotutil.AddLinePoints(p, series...); err != nil {
		return errors.Wrap(err, "add pr curves")
	}
	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrap(err, "save pr curve")
	}
	return nil
}
