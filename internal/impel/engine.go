package impel

import (
	"fmt"

	"github.com/san-kum/impel/internal/logging"
)

// slot pairs one State with the driver that advances it.
type slot struct {
	id     int
	init   Init
	driver Driver
	state  State
	live   bool
}

// binding maps a logical id to its current physical slot index. gen is
// bumped every time the id is released so stale handles stop resolving.
type binding struct {
	index int
	gen   uint32
	used  bool
}

// Engine owns a densely packed pool of slots. Freed slots are reused by the
// next Initialize or removed by the compaction that starts every frame.
type Engine struct {
	registry *Registry
	log      *logging.Logger
	slots    []slot
	bindings []binding
	freeIDs  []int
	holes    []int
}

// NewEngine creates an empty pool that builds drivers through reg.
// A nil logger discards engine diagnostics.
func NewEngine(reg *Registry, log *logging.Logger) *Engine {
	if log == nil {
		log = logging.Nop()
	}
	return &Engine{
		registry: reg,
		log:      log.WithComponent("engine"),
		slots:    make([]slot, 0, 16),
	}
}

// Initialize allocates a slot for a new Impeller.
func (e *Engine) Initialize(init Init, s State) (*Impeller, error) {
	h := &Impeller{}
	if err := e.initialize(h, init, s); err != nil {
		return nil, err
	}
	return h, nil
}

// Invalidate frees the slot owned by h. Handles that are already invalid or
// belong to another engine are left untouched.
func (e *Engine) Invalidate(h *Impeller) {
	if h.engine != e {
		return
	}
	h.Invalidate()
}

// AdvanceFrame compacts the pool and then steps every live slot by dt.
// Each driver clamps dt to its own maximum step; callers that need finer
// granularity call AdvanceFrame more often.
func (e *Engine) AdvanceFrame(dt Time) {
	e.Defragment()

	for i := range e.slots {
		sl := &e.slots[i]
		sl.driver.Advance(&sl.state, dt)
	}
}

// Defragment removes freed slots in a single pass, keeping live slots in
// their relative order and re-pointing their bindings.
func (e *Engine) Defragment() {
	if len(e.holes) == 0 {
		return
	}

	write := 0
	for read := range e.slots {
		if !e.slots[read].live {
			continue
		}
		if read != write {
			e.slots[write] = e.slots[read]
			e.bindings[e.slots[write].id].index = write
		}
		write++
	}

	removed := len(e.slots) - write
	clear(e.slots[write:])
	e.slots = e.slots[:write]
	e.holes = e.holes[:0]

	e.log.Debug("pool compacted", "removed", removed, "live", write)
}

// Len returns the number of live slots.
func (e *Engine) Len() int { return len(e.slots) - len(e.holes) }

// Cap returns the number of physical slots, including freed ones awaiting
// compaction.
func (e *Engine) Cap() int { return len(e.slots) }

// Holes returns the number of freed slots awaiting reuse or compaction.
func (e *Engine) Holes() int { return len(e.holes) }

// Registry returns the registry the engine builds drivers from.
func (e *Engine) Registry() *Registry { return e.registry }

func (e *Engine) initialize(h *Impeller, init Init, s State) error {
	driver, err := e.registry.New(init)
	if err != nil {
		return fmt.Errorf("initialize impeller: %w", err)
	}

	if h.Valid() {
		h.Invalidate()
	}

	s.Value = driver.Normalize(s.Value)

	id := e.allocID()
	index := e.allocSlot()
	e.slots[index] = slot{id: id, init: init, driver: driver, state: s, live: true}
	e.bindings[id].index = index

	h.engine, h.id, h.gen = e, id, e.bindings[id].gen
	return nil
}

func (e *Engine) allocID() int {
	if n := len(e.freeIDs); n > 0 {
		id := e.freeIDs[n-1]
		e.freeIDs = e.freeIDs[:n-1]
		e.bindings[id].used = true
		return id
	}
	e.bindings = append(e.bindings, binding{used: true})
	return len(e.bindings) - 1
}

func (e *Engine) allocSlot() int {
	if n := len(e.holes); n > 0 {
		index := e.holes[n-1]
		e.holes = e.holes[:n-1]
		return index
	}

	prevCap := cap(e.slots)
	e.slots = append(e.slots, slot{})
	if cap(e.slots) != prevCap {
		e.log.Debug("pool grew", "from", prevCap, "to", cap(e.slots))
	}
	return len(e.slots) - 1
}

func (e *Engine) release(id int) {
	b := &e.bindings[id]
	e.slots[b.index] = slot{id: id}
	e.holes = append(e.holes, b.index)

	b.gen++
	b.used = false
	b.index = -1
	e.freeIDs = append(e.freeIDs, id)
}

func (e *Engine) resolve(h *Impeller) (*slot, bool) {
	if h.engine != e || h.id < 0 || h.id >= len(e.bindings) {
		return nil, false
	}
	b := e.bindings[h.id]
	if !b.used || b.gen != h.gen {
		return nil, false
	}
	return &e.slots[b.index], true
}
