package metrics

import (
	"math"

	"github.com/san-kum/impel/internal/impel"
)

// PeakOvershoot is the largest distance travelled past the target, measured
// against the side the impeller started on.
type PeakOvershoot struct {
	name string
	side float64
	peak float64
}

func NewPeakOvershoot() *PeakOvershoot {
	return &PeakOvershoot{name: "peak_overshoot"}
}

func (p *PeakOvershoot) Name() string { return p.name }

func (p *PeakOvershoot) Observe(t impel.Time, s impel.State, diff float64) {
	if p.side == 0 {
		p.side = sign(diff)
		return
	}
	if diff*p.side < 0 {
		p.peak = math.Max(p.peak, math.Abs(diff))
	}
}

func (p *PeakOvershoot) Value() float64 { return p.peak }

func (p *PeakOvershoot) Reset() {
	p.side = 0
	p.peak = 0
}

type PeakVelocity struct {
	name string
	peak float64
}

func NewPeakVelocity() *PeakVelocity {
	return &PeakVelocity{name: "peak_velocity"}
}

func (p *PeakVelocity) Name() string { return p.name }

func (p *PeakVelocity) Observe(t impel.Time, s impel.State, diff float64) {
	p.peak = math.Max(p.peak, math.Abs(s.Velocity))
}

func (p *PeakVelocity) Value() float64 { return p.peak }
func (p *PeakVelocity) Reset()         { p.peak = 0 }

// Crossings counts how often the impeller passed its target.
type Crossings struct {
	name  string
	last  float64
	count int
}

func NewCrossings() *Crossings {
	return &Crossings{name: "crossings"}
}

func (c *Crossings) Name() string { return c.name }

func (c *Crossings) Observe(t impel.Time, s impel.State, diff float64) {
	sg := sign(diff)
	if sg == 0 {
		return
	}
	if c.last != 0 && sg != c.last {
		c.count++
	}
	c.last = sg
}

func (c *Crossings) Value() float64 { return float64(c.count) }

func (c *Crossings) Reset() {
	c.last = 0
	c.count = 0
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
