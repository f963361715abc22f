package impel

// noCopy lets go vet's copylocks check flag Impellers copied by value.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Impeller is a move-only handle to one engine slot. The zero value is an
// invalid handle.
//
// Copying an Impeller by value aliases its slot and is not supported; use
// Move to transfer ownership or Duplicate to create an independent copy.
type Impeller struct {
	noCopy noCopy

	engine *Engine
	id     int
	gen    uint32
}

// Initialize binds h to a new slot of e seeded with s. If h already owned a
// slot, that slot is freed once the new driver has been built. On error h is
// left unchanged.
func (h *Impeller) Initialize(e *Engine, init Init, s State) error {
	return e.initialize(h, init, s)
}

// Valid reports whether h currently owns a slot.
func (h *Impeller) Valid() bool {
	if h.engine == nil {
		return false
	}
	_, ok := h.engine.resolve(h)
	return ok
}

// Invalidate frees h's slot. It is a no-op on an invalid handle.
func (h *Impeller) Invalidate() {
	if h.Valid() {
		h.engine.release(h.id)
	}
	h.reset()
}

// Move transfers ownership of src's slot to h and invalidates src. A slot
// previously owned by h is freed. Moving from an invalid handle leaves h
// invalid.
func (h *Impeller) Move(src *Impeller) {
	if h == src {
		return
	}
	if h.Valid() {
		h.Invalidate()
	}
	if !src.Valid() {
		src.reset()
		return
	}

	h.engine, h.id, h.gen = src.engine, src.id, src.gen
	src.reset()
}

// Duplicate initializes dst as an independent slot with h's init and
// current state.
func (h *Impeller) Duplicate(dst *Impeller) error {
	sl := h.mustResolve("Duplicate")
	if dst == h {
		return nil
	}
	return h.engine.initialize(dst, sl.init, sl.state)
}

// Engine returns the engine h is bound to, or nil for an invalid handle.
func (h *Impeller) Engine() *Engine {
	if !h.Valid() {
		return nil
	}
	return h.engine
}

func (h *Impeller) Value() float64       { return h.mustResolve("Value").state.Value }
func (h *Impeller) Velocity() float64    { return h.mustResolve("Velocity").state.Velocity }
func (h *Impeller) TargetValue() float64 { return h.mustResolve("TargetValue").state.TargetValue }
func (h *Impeller) State() State         { return h.mustResolve("State").state }

// Difference returns TargetValue - Value in the driver's domain, so for a
// modular domain it is the shortest signed distance around the wrap.
func (h *Impeller) Difference() float64 {
	sl := h.mustResolve("Difference")
	return sl.driver.Difference(sl.state)
}

// SetValue moves the value, normalized into the driver's domain.
func (h *Impeller) SetValue(v float64) {
	sl := h.mustResolve("SetValue")
	sl.state.Value = sl.driver.Normalize(v)
}

func (h *Impeller) SetVelocity(v float64) {
	h.mustResolve("SetVelocity").state.Velocity = v
}

func (h *Impeller) SetTargetValue(v float64) {
	h.mustResolve("SetTargetValue").state.TargetValue = v
}

func (h *Impeller) reset() {
	h.engine, h.id, h.gen = nil, 0, 0
}

func (h *Impeller) mustResolve(op string) *slot {
	if h.engine != nil {
		if sl, ok := h.engine.resolve(h); ok {
			return sl
		}
	}
	panic(&MisuseError{Op: op, Err: ErrInvalidImpeller})
}
