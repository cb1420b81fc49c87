// Package objects - Target and classification tag model for detector evaluation.
package objects

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

// Label identifies a detection category such as "car" or "pedestrian".
//
// Labels are plain comparable values; the evaluation engine only scores the
// labels it was configured with and silently ignores everything else.
type Label string

// ErrUnscoredLabels indicates a tag was built from multiple labels without
// matching per-label scores.
var ErrUnscoredLabels = errors.New("objects: multiple labels require scores")

// ErrLabelScoreMismatch indicates the label and score slices have different
// lengths.
var ErrLabelScoreMismatch = errors.New("objects: label and score counts differ")

// Tag holds the classification information attached to a target.
//
// A tag may carry several candidate labels; Labels and Scores are kept in
// descending score order so index 0 is always the top-ranked hypothesis.
// Matching only ever consults the top-ranked label and score.
type Tag struct {
	Labels []Label   `json:"labels"`
	Scores []float64 `json:"scores"`
}

// NewTag creates a single-label tag with an implicit score of 1.
//
// Ground-truth annotations use this form: the label is certain.
func NewTag(label Label) Tag {
	return Tag{Labels: []Label{label}, Scores: []float64{1}}
}

// NewScoredTag creates a tag from candidate labels and their confidence
// scores. The pairs are sorted descending by score so the top-ranked label
// ends up first.
//
// Arguments:
//   - labels: Candidate class labels.
//   - scores: Confidence score per label, same length as labels.
//
// Returns:
//   - Tag: The constructed tag.
//   - error: ErrLabelScoreMismatch when the slice lengths differ, or
//     ErrUnscoredLabels when labels is empty.
func NewScoredTag(labels []Label, scores []float64) (Tag, error) {
	if len(labels) == 0 {
		return Tag{}, ErrUnscoredLabels
	}
	if len(labels) != len(scores) {
		return Tag{}, errors.Wrapf(ErrLabelScoreMismatch, "%d labels, %d scores", len(labels), len(scores))
	}

	order := make([]int, len(labels))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})

	tag := Tag{
		Labels: make([]Label, len(labels)),
		Scores: make([]float64, len(scores)),
	}
	for i, idx := range order {
		tag.Labels[i] = labels[idx]
		tag.Scores[i] = scores[idx]
	}
	return tag, nil
}

// Top returns the top-ranked label.
func (t Tag) Top() Label {
	return t.Labels[0]
}

// TopScore returns the confidence score of the top-ranked label.
func (t Tag) TopScore() float64 {
	return t.Scores[0]
}

func (t Tag) String() string {
	return fmt.Sprintf("<Tag, top class: %s>", t.Top())
}

// Target3D is a single object in cartesian coordinates. The body coordinate
// convention is FLU (front-left-up); orientation is reduced to the yaw angle
// around the z-axis.
type Target3D struct {
	// Position is the object center (x, y, z).
	Position [3]float64 `json:"position"`
	// Dimension is the object extent (lx, ly, lz).
	Dimension [3]float64 `json:"dimension"`
	// Yaw is the heading of the body x-axis relative to the world x-axis.
	Yaw float64 `json:"yaw"`
	// Tag carries the classification information.
	Tag Tag `json:"tag"`
	// ID optionally identifies the object across frames for tracking.
	ID string `json:"id,omitempty"`
}

// TargetArray is an ordered collection of targets belonging to one frame.
//
// Frame names the spatial/temporal frame the targets were observed in; the
// evaluation engine refuses to compare arrays with different frames.
type TargetArray struct {
	Frame   string     `json:"frame"`
	Targets []Target3D `json:"targets"`
}

// NewTargetArray creates an empty target array for the given frame.
func NewTargetArray(frame string) *TargetArray {
	return &TargetArray{Frame: frame}
}

// Append adds a target to the array.
func (a *TargetArray) Append(t Target3D) {
	a.Targets = append(a.Targets, t)
}

// Len returns the number of targets in the array.
func (a *TargetArray) Len() int {
	return len(a.Targets)
}

func (a *TargetArray) String() string {
	return fmt.Sprintf("<TargetArray %q with %d targets>", a.Frame, len(a.Targets))
}
