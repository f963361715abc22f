// Package optim searches driver parameters for the fastest settling
// scenario.
package optim

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/san-kum/impel/internal/config"
	"github.com/san-kum/impel/internal/sim"
)

// Parameters that can be searched on an overshoot driver.
var Parameters = map[string]func(d *config.DriverConfig, v float64){
	"accel_per_difference":       func(d *config.DriverConfig, v float64) { d.Overshoot.AccelPerDifference = v },
	"wrong_direction_multiplier": func(d *config.DriverConfig, v float64) { d.Overshoot.WrongDirectionMultiplier = v },
	"max_velocity":               func(d *config.DriverConfig, v float64) { d.Overshoot.MaxVelocity = v },
	"max_delta":                  func(d *config.DriverConfig, v float64) { d.Overshoot.MaxDelta = v },
}

// Candidate is one point of the grid and its score.
type Candidate struct {
	Params map[string]float64
	// Score is the slowest settle time in ms across impellers, or +Inf
	// when any impeller failed to settle.
	Score float64
	Err   error
}

type GridSearch struct {
	driver     string
	paramNames []string
	ranges     [][]float64
	workers    int
}

// NewGridSearch searches the named parameters of one driver of a scenario.
func NewGridSearch(driver string, params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("%d parameters but %d ranges", len(params), len(ranges))
	}
	for i, p := range params {
		if _, ok := Parameters[p]; !ok {
			return nil, fmt.Errorf("unknown parameter %q", p)
		}
		if len(ranges[i]) == 0 {
			return nil, fmt.Errorf("parameter %s has no values", p)
		}
	}
	return &GridSearch{
		driver:     driver,
		paramNames: params,
		ranges:     ranges,
		workers:    runtime.GOMAXPROCS(0),
	}, nil
}

// SetWorkers bounds how many scenarios run at once.
func (g *GridSearch) SetWorkers(n int) {
	if n > 0 {
		g.workers = n
	}
}

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

func (g *GridSearch) points() []map[string]float64 {
	points := make([]map[string]float64, 0, g.Size())
	var walk func(depth int, current map[string]float64)
	walk = func(depth int, current map[string]float64) {
		if depth == len(g.paramNames) {
			points = append(points, current)
			return
		}
		for _, val := range g.ranges[depth] {
			next := make(map[string]float64, len(current)+1)
			for k, v := range current {
				next[k] = v
			}
			next[g.paramNames[depth]] = val
			walk(depth+1, next)
		}
	}
	walk(0, map[string]float64{})
	return points
}

// Search runs the scenario once per grid point with StopWhenSettled set and
// returns every candidate, best first. Ties keep grid order.
func (g *GridSearch) Search(ctx context.Context, base *config.Config) ([]Candidate, error) {
	if _, ok := base.Drivers[g.driver]; !ok {
		return nil, fmt.Errorf("scenario has no driver %q", g.driver)
	}

	points := g.points()
	results := make([]Candidate, len(points))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < min(g.workers, len(points)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = g.evaluate(ctx, base, points[idx])
			}
		}()
	}

	for i := range points {
		select {
		case jobs <- i:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score < results[j].Score
	})
	return results, nil
}

func (g *GridSearch) evaluate(ctx context.Context, base *config.Config, params map[string]float64) Candidate {
	cfg := base.Clone()
	cfg.StopWhenSettled = true

	d := cfg.Drivers[g.driver]
	for name, v := range params {
		Parameters[name](&d, v)
	}
	cfg.Drivers[g.driver] = d

	c := Candidate{Params: params, Score: math.Inf(1)}

	result, err := sim.NewRunner(cfg, nil).Run(ctx)
	if err != nil {
		c.Err = err
		return c
	}
	if !result.AllSettled() {
		return c
	}

	var worst float64
	for _, tr := range result.Traces {
		worst = max(worst, float64(tr.SettledAt))
	}
	c.Score = worst
	return c
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}
