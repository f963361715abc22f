// Package impel provides a pooled, frame-stepped motion engine.
//
// The package drives many independent scalar values toward targets over
// time. Each value lives in a slot of an [Engine] and is advanced by a
// per-slot [Driver] built from an [Init] descriptor:
//
//   - [Registry]: maps a [DriverType] to the [Factory] that builds its drivers
//   - [Engine]: densely packed slot pool, compacted at the start of each frame
//   - [Impeller]: move-only handle to one slot
//   - [Settled]: predicate telling whether a handle has reached its target
//
// # Example
//
//	reg := impel.NewRegistry()
//	overshoot.Register(reg)
//	engine := impel.NewEngine(reg, nil)
//
//	var h impel.Impeller
//	if err := h.Initialize(engine, init, impel.State{TargetValue: 1}); err != nil {
//	    return err
//	}
//	for !init.AtTarget.Settled(&h) {
//	    engine.AdvanceFrame(10)
//	}
//
// # Ownership
//
// An Impeller must not be copied by value. Ownership of a slot is handed
// over with [Impeller.Move], which leaves the source invalid; a second,
// independent slot with the same configuration and state is made with
// [Impeller.Duplicate].
//
// # Thread Safety
//
// Engine and Impeller are NOT thread-safe. Compaction rewrites slot
// positions in place, so all calls touching one engine must come from a
// single goroutine. Only [Registry] is safe for concurrent use.
package impel
