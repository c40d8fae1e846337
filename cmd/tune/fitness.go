package main

import (
	"fmt"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/wake/config"
	"github.com/pthm-cable/wake/game"
	"github.com/pthm-cable/wake/telemetry"
)

// Penalty weights. Speeds are measured against the render palette range.
const (
	clampPenalty    = 4.0
	residualPenalty = 1.0
	warmupWindows   = 1
)

// Result summarizes the evaluation of one parameter vector.
type Result struct {
	Fitness       float64
	SpeedP99      float64
	ClampFraction float64
	ResidualP90   float64
}

// FitnessEvaluator runs headless scenes and scores how well the water reads
// on screen: the 99th percentile speed should sit at target without the
// magnitude clamp kicking in.
type FitnessEvaluator struct {
	params     *ParamVector
	ticks      uint64
	seeds      []int64
	baseConfig *config.Config
	target     float64
	window     float64

	mu   sync.Mutex
	last Result
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, ticks uint64, seeds []int64, baseCfg *config.Config, targetFrac float64) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		ticks:      ticks,
		seeds:      seeds,
		baseConfig: baseCfg,
		target:     baseCfg.Render.MaxSpeed * targetFrac,
		window:     2.0,
	}
}

// Last returns the most recent evaluation result.
func (fe *FitnessEvaluator) Last() Result {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.last
}

// Evaluate scores x averaged over all seeds (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]Result, len(fe.seeds))

	var eg errgroup.Group
	for i, seed := range fe.seeds {
		eg.Go(func() error {
			r, err := fe.runScene(x, seed)
			results[i] = r
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		fmt.Printf("evaluation failed: %v\n", err)
		return math.Inf(1)
	}

	var avg Result
	for _, r := range results {
		avg.Fitness += r.Fitness
		avg.SpeedP99 += r.SpeedP99
		avg.ClampFraction += r.ClampFraction
		avg.ResidualP90 += r.ResidualP90
	}
	n := float64(len(results))
	avg.Fitness /= n
	avg.SpeedP99 /= n
	avg.ClampFraction /= n
	avg.ResidualP90 /= n

	fe.mu.Lock()
	fe.last = avg
	fe.mu.Unlock()

	return avg.Fitness
}

// runScene runs one headless scene and scores its stats windows.
func (fe *FitnessEvaluator) runScene(x []float64, seed int64) (Result, error) {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	var windows []telemetry.WindowStats
	g, err := game.NewGameWithOptions(game.Options{
		Seed:           seed,
		Headless:       true,
		StatsWindowSec: fe.window,
		StepsPerUpdate: 1,
		Config:         cfg,
		StatsCallback: func(s telemetry.WindowStats) {
			windows = append(windows, s)
		},
	})
	if err != nil {
		return Result{}, err
	}
	defer g.Unload()

	for g.Tick() < fe.ticks {
		g.UpdateHeadless()
	}

	return fe.score(windows), nil
}

// score combines stats windows after warm-up into a Result.
func (fe *FitnessEvaluator) score(windows []telemetry.WindowStats) Result {
	if len(windows) > warmupWindows {
		windows = windows[warmupWindows:]
	}
	if len(windows) == 0 {
		return Result{Fitness: math.Inf(1)}
	}

	var r Result
	var ticks, clampTicks int
	for _, w := range windows {
		r.SpeedP99 += w.SpeedP99
		r.ResidualP90 += w.ResidualRatioP90
		ticks += w.Ticks
		clampTicks += w.ClampTicks
	}
	n := float64(len(windows))
	r.SpeedP99 /= n
	r.ResidualP90 /= n
	if ticks > 0 {
		r.ClampFraction = float64(clampTicks) / float64(ticks)
	}

	miss := (r.SpeedP99 - fe.target) / fe.target
	r.Fitness = miss*miss + clampPenalty*r.ClampFraction + residualPenalty*r.ResidualP90
	return r
}

// copyConfig returns a copy of the base config for one run.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}
