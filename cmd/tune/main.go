// Command tune searches wake force, viscosity and splat radius for water
// that reads well on screen, using Nelder-Mead over headless scenes.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/wake/config"
)

// evalRow is one line of tune_log.csv.
type evalRow struct {
	Eval            int     `csv:"eval"`
	Fitness         float64 `csv:"fitness"`
	SpeedP99        float64 `csv:"speed_p99"`
	ClampFraction   float64 `csv:"clamp_fraction"`
	ResidualP90     float64 `csv:"residual_p90"`
	ForceMultiplier float64 `csv:"force_multiplier"`
	Viscosity       float64 `csv:"viscosity"`
	RadiusCells     float64 `csv:"radius_cells"`
}

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
	ticks := flag.Uint64("ticks", 1200, "Ticks per scene")
	seeds := flag.Int("seeds", 3, "Number of seeds per evaluation")
	maxEvals := flag.Int("max-evals", 60, "Maximum number of evaluations")
	grid := flag.Int("grid", 128, "Grid size for tuning runs (0 = use config)")
	target := flag.Float64("target", 0.8, "Target p99 speed as a fraction of render.max_speed")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	baseCfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *grid > 0 {
		baseCfg.Fluid.GridSize = *grid
		if err := baseCfg.Refresh(); err != nil {
			log.Fatalf("grid override: %v", err)
		}
	}
	// Residual ratios come from per-tick diagnostics.
	baseCfg.Fluid.Diagnostics = true

	params := NewParamVector(baseCfg)

	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}
	evaluator := NewFitnessEvaluator(params, *ticks, evalSeeds, baseCfg, *target)

	var rows []evalRow
	bestFitness := 1e9
	var bestParams []float64
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			raw := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(raw)
			last := evaluator.Last()

			rows = append(rows, evalRow{
				Eval:            len(rows) + 1,
				Fitness:         fitness,
				SpeedP99:        last.SpeedP99,
				ClampFraction:   last.ClampFraction,
				ResidualP90:     last.ResidualP90,
				ForceMultiplier: raw[0],
				Viscosity:       raw[1],
				RadiusCells:     raw[2],
			})
			if fitness < bestFitness {
				bestFitness = fitness
				bestParams = raw
			}

			evalCount := len(rows)
			elapsed := time.Since(startTime)
			remaining := time.Duration(*maxEvals-evalCount) * (elapsed / time.Duration(evalCount))
			fmt.Printf("Eval %d/%d: fitness=%.4f p99=%.1f clamp=%.2f (best=%.4f) | elapsed: %s, ETA: %s\n",
				evalCount, *maxEvals, fitness, last.SpeedP99, last.ClampFraction, bestFitness,
				formatDuration(elapsed), formatDuration(remaining))
			return fitness
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0, // Seeds already run in parallel
	}
	method := &optimize.NelderMead{
		SimplexSize: 0.15,
	}

	fmt.Printf("Starting Nelder-Mead with %d parameters, max_evals=%d, grid=%d\n",
		params.Dim(), *maxEvals, baseCfg.Fluid.GridSize)
	fmt.Printf("Seeds per evaluation: %d, ticks per run: %d, target p99: %.1f\n",
		*seeds, *ticks, baseCfg.Render.MaxSpeed*(*target))

	initX := params.Normalize(params.DefaultVector())
	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}
	if bestParams == nil && result != nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}

	fmt.Printf("\nOptimization complete after %d evaluations in %s\n", len(rows), formatDuration(time.Since(startTime)))
	fmt.Printf("Best fitness: %.4f\n", bestFitness)
	fmt.Println("\nBest parameters:")
	for i, spec := range params.Specs {
		fmt.Printf("  %s: %.6f\n", spec.Path, bestParams[i])
	}

	if err := writeLog(filepath.Join(*outputDir, "tune_log.csv"), rows); err != nil {
		log.Printf("failed to write log: %v", err)
	}

	overlayPath := filepath.Join(*outputDir, "overlay.yaml")
	if err := writeOverlay(overlayPath, params.NewOverlay(bestParams)); err != nil {
		log.Printf("failed to write overlay: %v", err)
	} else {
		fmt.Printf("\nOverlay saved to: %s (use with -config)\n", overlayPath)
	}
}

func writeLog(path string, rows []evalRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gocsv.MarshalFile(&rows, f)
}

func writeOverlay(path string, o Overlay) error {
	data, err := yaml.Marshal(o)
	if err != nil {
		return fmt.Errorf("marshaling overlay: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
