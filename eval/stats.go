package eval

// FrameStats holds the matching outcome of a single frame, broken down per
// class and per threshold level. Rows are indexed by the class position in
// the benchmark configuration, columns by ladder level.
//
// Fixed-size arrays indexed by (class, level) stand in for maps keyed by
// objects: the accumulation step reduces to element-wise integer addition,
// which is trivially order-independent.
type FrameStats struct {
	// TP counts ground truths matched to a detection at each level.
	TP [][]int `json:"tp"`
	// FP counts detections left unmatched at each level.
	FP [][]int `json:"fp"`
	// FN counts ground truths left unmatched at each level.
	FN [][]int `json:"fn"`
	// NGT counts ground truths per class. It does not vary with level.
	NGT []int `json:"ngt"`
	// NDT counts detections present per class at each level; a detection is
	// present only at levels below its own score.
	NDT [][]int `json:"ndt"`
}

// NewFrameStats allocates zeroed statistics for the given class count and
// ladder length.
func NewFrameStats(classes, levels int) *FrameStats {
	grid := func() [][]int {
		g := make([][]int, classes)
		for i := range g {
			g[i] = make([]int, levels)
		}
		return g
	}
	return &FrameStats{
		TP:  grid(),
		FP:  grid(),
		FN:  grid(),
		NGT: make([]int, classes),
		NDT: grid(),
	}
}

// Merge adds other into s element-wise. Addition is commutative and
// associative, so frames may be merged in any order — including from a
// parallel reduction — without changing the final totals.
func (s *FrameStats) Merge(other *FrameStats) {
	for ci := range s.NGT {
		s.NGT[ci] += other.NGT[ci]
		for i := range s.TP[ci] {
			s.TP[ci][i] += other.TP[ci][i]
			s.FP[ci][i] += other.FP[ci][i]
			s.FN[ci][i] += other.FN[ci][i]
			s.NDT[ci][i] += other.NDT[ci][i]
		}
	}
}
