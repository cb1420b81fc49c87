package eval

import "errors"

// Configuration errors surface once, at benchmark construction; they always
// indicate a misconfigured run rather than bad frame data.
var (
	// ErrNoClasses indicates the benchmark was configured without any class
	// to score.
	ErrNoClasses = errors.New("eval: at least one class is required")

	// ErrSampleScale indicates an unrecognized precision-recall sample scale.
	ErrSampleScale = errors.New("eval: unrecognized sample scale")

	// ErrSampleCount indicates a sample count too small to form a curve.
	ErrSampleCount = errors.New("eval: sample count must be at least 2")

	// ErrOverlapCount indicates the per-class overlap thresholds do not line
	// up with the configured classes.
	ErrOverlapCount = errors.New("eval: overlap count does not match class count")

	// ErrMinScore indicates the minimum score lies outside [0, 1).
	ErrMinScore = errors.New("eval: minimum score must lie in [0, 1)")
)

// Precondition violations surface per call and indicate a defect in the
// caller's frame data; they are never retried or recovered.
var (
	// ErrFrameMismatch indicates ground truth and detections reference
	// different frames.
	ErrFrameMismatch = errors.New("eval: ground truth and detections reference different frames")

	// ErrScoreRange indicates an object score outside the configured
	// [min score, 1] range.
	ErrScoreRange = errors.New("eval: score outside configured range")

	// ErrMatrixShape indicates the supplied IoU matrix does not have one row
	// per ground truth and one column per detection.
	ErrMatrixShape = errors.New("eval: iou matrix shape does not match target counts")
)
