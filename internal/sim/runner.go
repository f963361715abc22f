package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/impel/internal/config"
	"github.com/san-kum/impel/internal/impel"
	"github.com/san-kum/impel/internal/logging"
	"github.com/san-kum/impel/internal/metrics"
)

// Observer is notified after every frame.
type Observer interface {
	OnFrame(t impel.Time, bodies []*Body)
}

// Trace is the recorded motion of one impeller.
type Trace struct {
	Name       string             `json:"name"`
	Driver     string             `json:"driver"`
	Times      []impel.Time       `json:"times"`
	Values     []float64          `json:"values"`
	Velocities []float64          `json:"velocities"`
	Targets    []float64          `json:"targets"`
	Diffs      []float64          `json:"diffs"`
	Metrics    map[string]float64 `json:"metrics"`
	SettledAt  impel.Time         `json:"settled_at"`
}

// Settled reports whether the impeller settled during the run.
func (t *Trace) Settled() bool { return t.SettledAt >= 0 }

type Result struct {
	Scenario string     `json:"scenario"`
	FrameMs  impel.Time `json:"frame_ms"`
	Elapsed  impel.Time `json:"elapsed_ms"`
	Frames   int        `json:"frames"`
	Traces   []*Trace   `json:"traces"`
}

// AllSettled reports whether every impeller settled.
func (r *Result) AllSettled() bool {
	for _, tr := range r.Traces {
		if !tr.Settled() {
			return false
		}
	}
	return true
}

type Runner struct {
	cfg       *config.Config
	registry  *impel.Registry
	log       *logging.Logger
	observers []Observer
}

func NewRunner(cfg *config.Config, log *logging.Logger) *Runner {
	if log == nil {
		log = logging.Nop()
	}
	return &Runner{
		cfg:       cfg,
		registry:  NewRegistry(),
		log:       log.WithComponent("runner"),
		observers: make([]Observer, 0),
	}
}

func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

type tracked struct {
	body    *Body
	trace   *Trace
	metrics []metrics.Metric
	settle  *metrics.SettleTime
}

func (k *tracked) sample(t impel.Time) {
	s := k.body.Handle.State()
	diff := k.body.Handle.Difference()

	k.trace.Times = append(k.trace.Times, t)
	k.trace.Values = append(k.trace.Values, s.Value)
	k.trace.Velocities = append(k.trace.Velocities, s.Velocity)
	k.trace.Targets = append(k.trace.Targets, s.TargetValue)
	k.trace.Diffs = append(k.trace.Diffs, diff)

	for _, m := range k.metrics {
		m.Observe(t, s, diff)
	}
}

// Run plays the scenario until MaxTimeMs, or until every impeller has
// settled when StopWhenSettled is set. The context is checked between
// frames.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if err := r.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	engine := impel.NewEngine(r.registry, r.log)
	bodies, err := Spawn(engine, r.cfg)
	if err != nil {
		return nil, err
	}

	frames := int(r.cfg.MaxTimeMs / r.cfg.FrameMs)
	items := make([]*tracked, len(bodies))
	for i, b := range bodies {
		ms := metrics.Defaults(b.Settled)
		settle := ms[0].(*metrics.SettleTime)
		items[i] = &tracked{
			body:    b,
			settle:  settle,
			metrics: ms,
			trace: &Trace{
				Name:       b.Name,
				Driver:     b.Driver,
				Times:      make([]impel.Time, 0, frames+1),
				Values:     make([]float64, 0, frames+1),
				Velocities: make([]float64, 0, frames+1),
				Targets:    make([]float64, 0, frames+1),
				Diffs:      make([]float64, 0, frames+1),
			},
		}
	}

	r.log.Info("scenario started", "scenario", r.cfg.Name, "impellers", len(bodies), "frame_ms", r.cfg.FrameMs)

	result := &Result{Scenario: r.cfg.Name, FrameMs: r.cfg.FrameMs}

	var t impel.Time
	for _, it := range items {
		it.sample(t)
	}

	for t+r.cfg.FrameMs <= r.cfg.MaxTimeMs {
		if r.cfg.StopWhenSettled && allSettled(items) {
			break
		}

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		engine.AdvanceFrame(r.cfg.FrameMs)
		t += r.cfg.FrameMs
		result.Frames++

		for _, it := range items {
			it.sample(t)
		}
		for _, obs := range r.observers {
			obs.OnFrame(t, bodies)
		}
	}
	result.Elapsed = t

	for _, it := range items {
		it.trace.Metrics = make(map[string]float64, len(it.metrics))
		for _, m := range it.metrics {
			it.trace.Metrics[m.Name()] = m.Value()
		}
		it.trace.SettledAt = impel.Time(it.settle.Value())
		if it.settle.Settled() {
			r.log.Debug("impeller settled", "impeller", it.trace.Name, "at_ms", it.trace.SettledAt)
		}
		result.Traces = append(result.Traces, it.trace)
	}

	r.log.Info("scenario finished", "scenario", r.cfg.Name, "frames", result.Frames, "elapsed_ms", result.Elapsed, "all_settled", result.AllSettled())
	return result, nil
}

func allSettled(items []*tracked) bool {
	for _, it := range items {
		if !it.settle.Settled() {
			return false
		}
	}
	return true
}
