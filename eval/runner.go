package eval

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/nvr-ai/go-eval/objects"
)

// Frame bundles one frame's evaluation inputs: the ground-truth and
// detection lists plus their externally computed pairwise IoU matrix.
type Frame struct {
	GroundTruth *objects.TargetArray
	Detections  *objects.TargetArray
	IoU         mat.Matrix
}

// FrameSource yields frames to evaluate. Next returns io.EOF when the source
// is exhausted. Implementations must be safe for concurrent calls.
type FrameSource interface {
	Next() (*Frame, error)
}

// SliceSource serves frames from an in-memory slice.
type SliceSource struct {
	mu     sync.Mutex
	frames []*Frame
	next   int
}

// NewSliceSource creates a FrameSource over the given frames.
func NewSliceSource(frames []*Frame) *SliceSource {
	return &SliceSource{frames: frames}
}

// Next returns the next frame, or io.EOF when all frames have been served.
func (s *SliceSource) Next() (*Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= len(s.frames) {
		return nil, io.EOF
	}
	f := s.frames[s.next]
	s.next++
	return f, nil
}

// RunMetrics captures how an evaluation run went.
type RunMetrics struct {
	Timestamp       time.Time     `json:"timestamp"`
	TotalDuration   time.Duration `json:"total_duration"`
	FramesPerSecond float64       `json:"frames_per_second"`
	FrameCount      int           `json:"frame_count"`
	SkippedFrames   int           `json:"skipped_frames"`
	Workers         int           `json:"workers"`
}

// Runner drives a benchmark over a frame source with a pool of workers.
//
// Matching is a pure per-frame computation, so frames are evaluated
// concurrently; only the merge into the shared totals is serialized, inside
// AddStats.
type Runner struct {
	bench   *Benchmark
	workers int

	// SkipBadFrames turns per-frame precondition violations into skips
	// instead of aborting the run. Configuration errors still abort.
	SkipBadFrames bool
}

// NewRunner creates a runner with the given worker count; values below 1 are
// treated as 1.
func NewRunner(bench *Benchmark, workers int) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{bench: bench, workers: workers}
}

// Run evaluates every frame from src and folds the results into the
// benchmark totals. It returns once the source is exhausted, the context is
// cancelled, or a frame fails (unless SkipBadFrames is set).
func (r *Runner) Run(ctx context.Context, src FrameSource) (*RunMetrics, error) {
	metrics := &RunMetrics{
		Timestamp: time.Now(),
		Workers:   r.workers,
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		frames   int
		skipped  int
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
		cancel()
	}

	start := time.Now()
	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if ctx.Err() != nil {
					return
				}

				frame, err := src.Next()
				if err == io.EOF {
					return
				}
				if err != nil {
					fail(errors.Wrap(err, "read frame"))
					return
				}

				stats, err := r.bench.GetStats(frame.GroundTruth, frame.Detections, frame.IoU)
				if err != nil {
					if r.SkipBadFrames {
						mu.Lock()
						skipped++
						mu.Unlock()
						continue
					}
					fail(err)
					return
				}

				r.bench.AddStats(stats)
				mu.Lock()
				frames++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	metrics.TotalDuration = time.Since(start)
	metrics.FrameCount = frames
	metrics.SkippedFrames = skipped
	if secs := metrics.TotalDuration.Seconds(); secs > 0 {
		metrics.FramesPerSecond = float64(frames) / secs
	}
	return metrics, nil
}
