package eval

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-eval/objects"
)

// Sample scales supported for the precision-recall threshold ladder. "log"
// scales may carry an integer base suffix, e.g. "log2"; the bare "log" means
// "log10".
const (
	ScaleLinear = "lin"
	ScaleLog    = "log10"
)

// Config describes one evaluation run.
type Config struct {
	// Classes is the closed set of object classes to score. Objects tagged
	// with any other class are ignored.
	Classes []objects.Label `json:"classes"`

	// Overlaps holds the minimum IoU for a detection to count as overlapping
	// a ground truth, per class. A single value applies to every class.
	Overlaps []float64 `json:"overlaps"`

	// SampleCount is the number of precision-recall sample points.
	SampleCount int `json:"sample_count"`

	// MinScore is the lowest confidence score the ladder samples.
	MinScore float64 `json:"min_score"`

	// SampleScale selects the ladder spacing: ScaleLinear, or a "logX"
	// scale that concentrates samples near score 1.
	SampleScale string `json:"sample_scale"`
}

// DefaultConfig returns the defaults used by the original toolkit: 40 log10
// samples over the full score range.
func DefaultConfig() Config {
	return Config{
		SampleCount: 40,
		MinScore:    0,
		SampleScale: ScaleLog,
	}
}

// Validate checks the construction-time invariants. All violations are
// configuration errors; none are recoverable at matching time.
func (c Config) Validate() error {
	if len(c.Classes) == 0 {
		return ErrNoClasses
	}
	if len(c.Overlaps) != 1 && len(c.Overlaps) != len(c.Classes) {
		return errors.Wrapf(ErrOverlapCount, "%d overlaps for %d classes", len(c.Overlaps), len(c.Classes))
	}
	if c.SampleCount < 2 {
		return errors.Wrapf(ErrSampleCount, "got %d", c.SampleCount)
	}
	if c.MinScore < 0 || c.MinScore >= 1 {
		return errors.Wrapf(ErrMinScore, "got %g", c.MinScore)
	}
	return nil
}

// overlapFor expands the shared-or-per-class Overlaps field into the overlap
// threshold for class index ci.
func (c Config) overlapFor(ci int) float64 {
	if len(c.Overlaps) == 1 {
		return c.Overlaps[0]
	}
	return c.Overlaps[ci]
}

// LoadConfig reads a Config from a JSON file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
