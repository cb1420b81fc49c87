// Package box - Ground-plane footprint boxes and IoU matrix construction.
//
// The evaluation core consumes a precomputed pairwise IoU matrix and never
// touches geometry itself. This package is the convenience collaborator that
// produces such a matrix from axis-aligned object footprints, for callers and
// tests that do not bring their own overlap routine.
package box

import (
	"github.com/chewxy/math32"
	"gonum.org/v1/gonum/mat"

	"github.com/nvr-ai/go-eval/objects"
)

// Box is a 2D object footprint on the ground plane, described by its center
// and extent.
type Box struct {
	// X, Y locate the box center.
	X, Y float32
	// W, L are the box extents along x and y.
	W, L float32
	// Yaw is the heading of the box. The overlap computation below treats
	// boxes as axis-aligned and ignores it; callers needing rotated-box
	// overlap must supply their own IoU matrix.
	Yaw float32
}

// FromTarget projects a 3D target onto the ground plane.
func FromTarget(t objects.Target3D) Box {
	return Box{
		X:   float32(t.Position[0]),
		Y:   float32(t.Position[1]),
		W:   float32(t.Dimension[0]),
		L:   float32(t.Dimension[1]),
		Yaw: float32(t.Yaw),
	}
}

// IoU computes the Intersection over Union of two footprints.
//
// The intersection rectangle spans from the maximum of the two lower-left
// corners to the minimum of the two upper-right corners; a non-positive
// width or height means the boxes do not overlap. The union follows from
// inclusion-exclusion: Area(A) + Area(B) - Area(A∩B).
//
// Returns:
//   - float32: A value in [0, 1]; 0 when the boxes are disjoint.
func (b Box) IoU(o Box) float32 {
	ix1 := math32.Max(b.X-b.W/2, o.X-o.W/2)
	iy1 := math32.Max(b.Y-b.L/2, o.Y-o.L/2)
	ix2 := math32.Min(b.X+b.W/2, o.X+o.W/2)
	iy2 := math32.Min(b.Y+b.L/2, o.Y+o.L/2)

	interW := ix2 - ix1
	interH := iy2 - iy1
	if interW <= 0 || interH <= 0 {
		return 0
	}
	interArea := interW * interH

	unionArea := b.W*b.L + o.W*o.L - interArea
	if unionArea <= 0 {
		return 0
	}
	return interArea / unionArea
}

// Matrix builds the dense pairwise IoU matrix between ground-truth and
// detection footprints, with rows indexed by ground truth and columns by
// detections — the layout the evaluation core expects.
//
// Returns nil when either side is empty, since a dense matrix cannot have a
// zero dimension; the evaluation core accepts a nil matrix in that case.
func Matrix(gts, dts []Box) *mat.Dense {
	if len(gts) == 0 || len(dts) == 0 {
		return nil
	}
	m := mat.NewDense(len(gts), len(dts), nil)
	for i, g := range gts {
		for j, d := range dts {
			m.Set(i, j, float64(g.IoU(d)))
		}
	}
	return m
}

// TargetMatrix is Matrix applied to the ground-plane footprints of two
// target arrays.
func TargetMatrix(gt, dt *objects.TargetArray) *mat.Dense {
	gts := make([]Box, gt.Len())
	for i, t := range gt.Targets {
		gts[i] = FromTarget(t)
	}
	dts := make([]Box, dt.Len())
	for i, t := range dt.Targets {
		dts[i] = FromTarget(t)
	}
	return Matrix(gts, dts)
}
