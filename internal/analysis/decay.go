package analysis

import "math"

// Swing is an extreme of the difference between two target crossings.
type Swing struct {
	Index     int
	Magnitude float64
}

// Swings returns the largest |diff| reached between consecutive sign
// changes of diff. The trailing segment is included only if diff has
// crossed zero at least once.
func Swings(diffs []float64) []Swing {
	swings := make([]Swing, 0)

	var (
		side    float64
		current Swing
		crossed bool
	)
	for i, d := range diffs {
		s := math.Copysign(1, d)
		if d == 0 {
			continue
		}
		if side != 0 && s != side {
			swings = append(swings, current)
			current = Swing{}
			crossed = true
		}
		side = s
		if math.Abs(d) > current.Magnitude {
			current = Swing{Index: i, Magnitude: math.Abs(d)}
		}
	}
	if crossed && current.Magnitude > 0 {
		swings = append(swings, current)
	}
	return swings
}

// DecayRatio is the geometric mean of the ratio between successive swings.
// Values below one mean the ringing dies out. It returns 0 when fewer than
// two swings were recorded.
func DecayRatio(diffs []float64) float64 {
	swings := Swings(diffs)
	if len(swings) < 2 {
		return 0
	}

	var logSum float64
	n := 0
	for i := 1; i < len(swings); i++ {
		if swings[i-1].Magnitude == 0 {
			continue
		}
		logSum += math.Log(swings[i].Magnitude / swings[i-1].Magnitude)
		n++
	}
	if n == 0 {
		return 0
	}
	return math.Exp(logSum / float64(n))
}
