// Package report - Persists evaluation results as JSON, CSV, and PR-curve
// plots.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-eval/eval"
)

// ClassResult holds the headline metrics for one class at the reporting
// operating point.
type ClassResult struct {
	Class     string  `json:"class"`
	GTCount   int     `json:"gt_count"`
	DTCount   int     `json:"dt_count"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	AP        float64 `json:"ap"`
}

// Results is the full dump of one evaluation run.
type Results struct {
	Timestamp      time.Time        `json:"timestamp"`
	Config         eval.Config      `json:"config"`
	ReportingScore float64          `json:"reporting_score"`
	Classes        []ClassResult    `json:"classes"`
	Run            *eval.RunMetrics `json:"run,omitempty"`
}

// Collect snapshots a benchmark's per-class metrics at the fixed reporting
// score, in configuration order.
func Collect(b *eval.Benchmark, run *eval.RunMetrics) *Results {
	precision := b.Precision(eval.ReportingScore)
	recall := b.Recall(eval.ReportingScore)
	f1 := b.FScore(1, eval.ReportingScore)
	ap := b.AveragePrecision()
	gtCount := b.GTCount()
	dtCount := b.DTCount(eval.ReportingScore)

	res := &Results{
		Timestamp:      time.Now(),
		Config:         b.Config(),
		ReportingScore: eval.ReportingScore,
		Run:            run,
	}
	for _, c := range b.Classes() {
		res.Classes = append(res.Classes, ClassResult{
			Class:     string(c),
			GTCount:   gtCount[c],
			DTCount:   dtCount[c],
			Precision: precision[c],
			Recall:    recall[c],
			F1:        f1[c],
			AP:        ap[c],
		})
	}
	return res
}

// WriteResults persists the full results as a timestamped JSON file in
// outputDir and returns its path.
func WriteResults(outputDir string, res *Results) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", errors.Wrap(err, "create output directory")
	}

	stamp := res.Timestamp.Format("2006-01-02_15-04-05")
	path := filepath.Join(outputDir, fmt.Sprintf("eval_results_%s.json", stamp))

	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "marshal results")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrap(err, "write results file")
	}
	return path, nil
}

// WriteSummaryCSV writes one row per class with the headline metrics.
func WriteSummaryCSV(path string, res *Results) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create summary file")
	}
	defer file.Close()

	header := "Class,GT_Count,DT_Count,Precision,Recall,F1,AP\n"
	if _, err := file.WriteString(header); err != nil {
		return err
	}

	for _, c := range res.Classes {
		line := fmt.Sprintf("%s,%d,%d,%.4f,%.4f,%.4f,%.4f\n",
			c.Class,
			c.GTCount,
			c.DTCount,
			c.Precision,
			c.Recall,
			c.F1,
			c.AP,
		)
		if _, err := file.WriteString(line); err != nil {
			return err
		}
	}
	return nil
}
