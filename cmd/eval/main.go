package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/nvr-ai/go-eval/box"
	"github.com/nvr-ai/go-eval/eval"
	"github.com/nvr-ai/go-eval/objects"
	"github.com/nvr-ai/go-eval/report"
	"github.com/nvr-ai/go-eval/store"
)

// objectRecord is one serialized target in the frames file.
type objectRecord struct {
	Label     objects.Label `json:"label"`
	Score     *float64      `json:"score,omitempty"` // absent for ground truth
	Position  [3]float64    `json:"position"`
	Dimension [3]float64    `json:"dimension"`
	Yaw       float64       `json:"yaw"`
	ID        string        `json:"id,omitempty"`
}

// frameRecord is one frame in the frames file. The IoU matrix is optional;
// when absent it is computed from axis-aligned ground-plane footprints.
type frameRecord struct {
	Frame       string         `json:"frame"`
	GroundTruth []objectRecord `json:"ground_truth"`
	Detections  []objectRecord `json:"detections"`
	IoU         [][]float64    `json:"iou,omitempty"`
}

type framesFile struct {
	Frames []frameRecord `json:"frames"`
}

func main() {
	var (
		framesPath = flag.String("frames", "", "Path to the frames JSON file (required)")
		configPath = flag.String("config", "", "Path to an evaluation config JSON file")
		classes    = flag.String("classes", "", "Comma-separated class list (ignored when -config is set)")
		overlap    = flag.Float64("overlap", 0.5, "Shared minimum IoU for a match")
		samples    = flag.Int("samples", 40, "Number of precision-recall sample points")
		minScore   = flag.Float64("min-score", 0, "Lowest sampled confidence score")
		scale      = flag.String("scale", eval.ScaleLog, "Ladder scale: lin, log, or logN")
		outputDir  = flag.String("output", "./eval_results", "Output directory for results")
		workers    = flag.Int("workers", 4, "Number of matching workers")
		dbPath     = flag.String("db", "", "Optional SQLite run-history database")
		curve      = flag.Bool("curve", false, "Also render the precision-recall curve PNG")
		skipBad    = flag.Bool("skip-bad", false, "Skip frames that fail preconditions instead of aborting")
		timeout    = flag.Duration("timeout", 10*time.Minute, "Evaluation timeout")
	)
	flag.Parse()

	if *framesPath == "" {
		log.Fatal("Frames path is required (-frames)")
	}

	var cfg *eval.Config
	if *configPath != "" {
		var err error
		cfg, err = eval.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	} else {
		if *classes == "" {
			log.Fatal("Either a config file (-config) or a class list (-classes) is required")
		}
		c := eval.DefaultConfig()
		for _, name := range strings.Split(*classes, ",") {
			c.Classes = append(c.Classes, objects.Label(strings.TrimSpace(name)))
		}
		c.Overlaps = []float64{*overlap}
		c.SampleCount = *samples
		c.MinScore = *minScore
		c.SampleScale = *scale
		cfg = &c
	}

	bench, err := eval.New(*cfg)
	if err != nil {
		log.Fatalf("Failed to create benchmark: %v", err)
	}

	frames, err := loadFrames(*framesPath)
	if err != nil {
		log.Fatalf("Failed to load frames: %v", err)
	}
	fmt.Printf("Loaded %d frames from %s\n", len(frames), *framesPath)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	runner := eval.NewRunner(bench, *workers)
	runner.SkipBadFrames = *skipBad

	start := time.Now()
	metrics, err := runner.Run(ctx, eval.NewSliceSource(frames))
	if err != nil {
		log.Fatalf("Evaluation failed: %v", err)
	}
	fmt.Printf("Evaluated %d frames in %v (%.1f frames/s, %d skipped)\n",
		metrics.FrameCount, time.Since(start).Round(time.Millisecond),
		metrics.FramesPerSecond, metrics.SkippedFrames)

	fmt.Println(bench.Summary())

	results := report.Collect(bench, metrics)
	resultsPath, err := report.WriteResults(*outputDir, results)
	if err != nil {
		log.Fatalf("Failed to write results: %v", err)
	}
	fmt.Printf("Results saved to: %s\n", resultsPath)

	csvPath := filepath.Join(*outputDir, "summary.csv")
	if err := report.WriteSummaryCSV(csvPath, results); err != nil {
		log.Fatalf("Failed to write summary CSV: %v", err)
	}
	fmt.Printf("Summary saved to: %s\n", csvPath)

	if *curve {
		curvePath := filepath.Join(*outputDir, "pr_curve.png")
		if err := report.WritePRCurve(curvePath, bench); err != nil {
			log.Fatalf("Failed to render PR curve: %v", err)
		}
		fmt.Printf("PR curve saved to: %s\n", curvePath)
	}

	if *dbPath != "" {
		st, err := store.Open(*dbPath)
		if err != nil {
			log.Fatalf("Failed to open run database: %v", err)
		}
		defer st.Close()

		id, err := st.SaveRun(results)
		if err != nil {
			log.Fatalf("Failed to record run: %v", err)
		}
		fmt.Printf("Run recorded as %s\n", id)
	}
}

// loadFrames parses the frames file into evaluation inputs.
func loadFrames(path string) ([]*eval.Frame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file framesFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	frames := make([]*eval.Frame, 0, len(file.Frames))
	for _, rec := range file.Frames {
		gt := toTargets(rec.Frame, rec.GroundTruth)
		dt := toTargets(rec.Frame, rec.Detections)

		var iou mat.Matrix
		if len(rec.IoU) > 0 {
			flat := make([]float64, 0, len(rec.IoU)*len(rec.IoU[0]))
			for _, row := range rec.IoU {
				flat = append(flat, row...)
			}
			iou = mat.NewDense(len(rec.IoU), len(rec.IoU[0]), flat)
		} else if gt.Len() > 0 && dt.Len() > 0 {
			iou = box.TargetMatrix(gt, dt)
		}

		frames = append(frames, &eval.Frame{GroundTruth: gt, Detections: dt, IoU: iou})
	}
	return frames, nil
}

func toTargets(frame string, records []objectRecord) *objects.TargetArray {
	arr := objects.NewTargetArray(frame)
	for _, rec := range records {
		score := 1.0
		if rec.Score != nil {
			score = *rec.Score
		}
		tag, err := objects.NewScoredTag([]objects.Label{rec.Label}, []float64{score})
		if err != nil {
			// Single label with a score cannot fail validation.
			panic(err)
		}
		arr.Append(objects.Target3D{
			Position:  rec.Position,
			Dimension: rec.Dimension,
			Yaw:       rec.Yaw,
			Tag:       tag,
			ID:        rec.ID,
		})
	}
	return arr
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "Evaluates 3D object-detector output against ground truth.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(
			os.Stderr,
			"  %s -frames ./frames.json -classes car,pedestrian -overlap 0.5\n",
			filepath.Base(os.Args[0]),
		)
		fmt.Fprintf(
			os.Stderr,
			"  %s -frames ./frames.json -config ./eval_config.json -curve -db ./runs.db\n",
			filepath.Base(os.Args[0]),
		)
	}
}
