// Package main searches habitability and feeding parameters with CMA-ES for
// a configuration whose population settles near a target size.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/fitness/config"
	"github.com/pthm-cable/fitness/logging"
)

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	steps := flag.Int("steps", 1000, "Steps per simulation run")
	seeds := flag.Int("seeds", 3, "Number of seeds per evaluation")
	target := flag.Float64("target", 200, "Target settled population")
	maxEvals := flag.Int("max-evals", 100, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for results")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	slog.SetDefault(logging.NewLogger(*logLevel, "text", os.Stderr))

	if *outputDir == "" {
		fatal("--output is required")
	}
	if *steps < 2 || *seeds < 1 || *target <= 0 {
		fatal("--steps must be at least 2, --seeds at least 1 and --target positive")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fatal("failed to create output directory", "error", err)
	}

	baseCfg, err := config.Load(*configPath)
	if err != nil {
		fatal("failed to load config", "error", err)
	}
	if err := baseCfg.Validate(); err != nil {
		fatal("invalid base config", "error", err)
	}

	params := NewParamVector()

	evalSeeds := make([]uint64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = uint64(i*1000 + 42)
	}

	objective := NewObjective(params, *steps, evalSeeds, *target, baseCfg)

	dim := params.Dim()
	initX := params.Normalize(params.ExtractFromConfig(baseCfg))

	popSize := *population
	if popSize == 0 {
		popSize = 4 + int(3.0*math.Log(float64(dim)))
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}
	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0,
	}

	logPath := filepath.Join(*outputDir, "calibrate_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		fatal("failed to create log file", "error", err)
	}
	defer logFile.Close()

	logWriter := csv.NewWriter(logFile)
	defer logWriter.Flush()

	header := []string{"eval", "score", "settled_mean"}
	for _, spec := range params.Specs {
		header = append(header, spec.Name)
	}
	logWriter.Write(header)

	evalCount := 0
	bestScore := math.Inf(1)
	var bestParams []float64
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			evalCount++
			raw := params.Clamp(params.Denormalize(x))
			score := math.Inf(1)
			if finite(raw) {
				score = objective.Evaluate(raw)
			}
			mean := objective.LastMean()

			if score < bestScore {
				bestScore = score
				bestParams = raw
			}

			row := []string{strconv.Itoa(evalCount), fmt.Sprintf("%.6f", score), fmt.Sprintf("%.2f", mean)}
			for _, v := range raw {
				row = append(row, fmt.Sprintf("%.6f", v))
			}
			logWriter.Write(row)
			logWriter.Flush()

			elapsed := time.Since(startTime)
			remaining := time.Duration(*maxEvals-evalCount) * (elapsed / time.Duration(evalCount))
			slog.Info("evaluation",
				"eval", evalCount,
				"max_evals", *maxEvals,
				"score", score,
				"settled_mean", mean,
				"best", bestScore,
				"elapsed", formatDuration(elapsed),
				"eta", formatDuration(remaining),
			)
			return score
		},
	}

	slog.Info("starting CMA-ES calibration",
		"params", dim,
		"population", popSize,
		"max_evals", *maxEvals,
		"seeds", *seeds,
		"steps", *steps,
		"target", *target,
	)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		slog.Warn("optimization ended", "error", err)
	}
	if bestParams == nil && result != nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}
	if bestParams == nil {
		fatal("no evaluation completed")
	}

	slog.Info("calibration complete",
		"evals", evalCount,
		"duration", formatDuration(time.Since(startTime)),
		"best_score", bestScore,
	)
	for i, spec := range params.Specs {
		fmt.Printf("  %s (%s): %.6f\n", spec.Name, spec.Path, bestParams[i])
	}

	bestCfg := baseCfg.Clone()
	params.ApplyToConfig(bestCfg, bestParams)
	configOutPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		slog.Error("failed to write best config", "error", err)
		return
	}
	slog.Info("best config saved", "path", configOutPath)
}

func fatal(msg string, args ...any) {
	slog.Error(msg, args...)
	os.Exit(1)
}
