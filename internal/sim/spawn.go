package sim

import (
	"fmt"

	"github.com/san-kum/impel/internal/config"
	"github.com/san-kum/impel/internal/impel"
	"github.com/san-kum/impel/internal/overshoot"
)

// Body is one impeller started from a scenario entry.
type Body struct {
	Name    string
	Driver  string
	Settled impel.Settled
	Handle  impel.Impeller
}

// NewRegistry returns a registry holding every driver this build supports.
func NewRegistry() *impel.Registry {
	reg := impel.NewRegistry()
	overshoot.Register(reg)
	return reg
}

// Spawn initializes the impellers of cfg in engine, in config order.
func Spawn(engine *impel.Engine, cfg *config.Config) ([]*Body, error) {
	bodies := make([]*Body, 0, len(cfg.Impellers))

	for _, ic := range cfg.Impellers {
		dc, ok := cfg.Drivers[ic.Driver]
		if !ok {
			return nil, fmt.Errorf("impeller %s: unknown driver %q", ic.Name, ic.Driver)
		}
		init, err := dc.Init()
		if err != nil {
			return nil, fmt.Errorf("impeller %s: %w", ic.Name, err)
		}

		n := ic.Instances()
		for i := 0; i < n; i++ {
			b := &Body{Name: ic.Name, Driver: ic.Driver, Settled: dc.Settled()}
			if n > 1 {
				b.Name = fmt.Sprintf("%s[%d]", ic.Name, i)
			}
			if err := b.Handle.Initialize(engine, init, ic.State()); err != nil {
				return nil, fmt.Errorf("impeller %s: %w", b.Name, err)
			}
			bodies = append(bodies, b)
		}
	}

	return bodies, nil
}

// TimeToSettle advances engine frame by frame until h settles or limit is
// reached, returning the simulated time spent.
func TimeToSettle(engine *impel.Engine, h *impel.Impeller, settled impel.Settled, frame, limit impel.Time) impel.Time {
	var elapsed impel.Time
	for elapsed < limit && !settled.Settled(h) {
		engine.AdvanceFrame(frame)
		elapsed += frame
	}
	return elapsed
}
