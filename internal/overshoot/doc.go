// Package overshoot implements the overshoot motion model.
//
// An overshoot driver accelerates its value toward the target in proportion
// to the (clamped) remaining difference, accelerating harder when the value
// is currently moving away from the target. Velocity is bounded, so values
// swing past the target and settle after a few damped oscillations.
//
// Domains are either bounded, where the value is clamped into [Min, Max],
// or modular, where the value wraps into [Min, Max) and differences are
// measured the short way around:
//
//	reg := impel.NewRegistry()
//	overshoot.Register(reg)
//
//	angle := overshoot.Init{
//	    Modular: true, Min: -math.Pi, Max: math.Pi,
//	    MaxVelocity: 0.021, MaxDelta: 3.141,
//	    AccelPerDifference: 0.00032, WrongDirectionMultiplier: 4,
//	    MaxDeltaTime: 10,
//	    AtTarget: impel.Settled{MaxDifference: 0.087, MaxVelocity: 0.00059},
//	}
package overshoot
