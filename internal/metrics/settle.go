package metrics

import "github.com/san-kum/impel/internal/impel"

// SettleTime records the first time the impeller satisfied its settle
// thresholds. Value is -1 until then.
type SettleTime struct {
	name     string
	settled  impel.Settled
	at       impel.Time
	observed bool
}

func NewSettleTime(settled impel.Settled) *SettleTime {
	return &SettleTime{name: "settle_ms", settled: settled}
}

func (s *SettleTime) Name() string { return s.name }

func (s *SettleTime) Observe(t impel.Time, st impel.State, diff float64) {
	if s.observed {
		return
	}
	if s.settled.SettledState(diff, st.Velocity) {
		s.at = t
		s.observed = true
	}
}

func (s *SettleTime) Settled() bool { return s.observed }

func (s *SettleTime) Value() float64 {
	if !s.observed {
		return -1
	}
	return float64(s.at)
}

func (s *SettleTime) Reset() {
	s.at = 0
	s.observed = false
}
