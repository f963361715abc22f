package impel_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/impel/internal/impel"
	"github.com/san-kum/impel/internal/overshoot"
)

type unknownInit struct{}

func (unknownInit) Type() impel.DriverType { return impel.SmoothType }

var _ = Describe("Engine", func() {
	var (
		engine  *impel.Engine
		angle   overshoot.Init
		percent overshoot.Init
	)

	BeforeEach(func() {
		reg := impel.NewRegistry()
		overshoot.Register(reg)
		engine = impel.NewEngine(reg, nil)

		angle = overshoot.Init{
			Modular:                  true,
			Min:                      -3.14159265359,
			Max:                      3.14159265359,
			MaxVelocity:              0.021,
			MaxDelta:                 3.141,
			AccelPerDifference:       0.00032,
			WrongDirectionMultiplier: 4.0,
			MaxDeltaTime:             10,
			AtTarget:                 impel.Settled{MaxDifference: 0.087, MaxVelocity: 0.00059},
		}
		percent = angle
		percent.Modular = false
		percent.Min, percent.Max = 0, 100
		percent.MaxVelocity = 10
		percent.MaxDelta = 50
	})

	// initAtMax starts a bounded impeller on its upper bound, pushing outward.
	initAtMax := func(h *impel.Impeller) {
		err := h.Initialize(engine, percent, impel.State{
			Value:       percent.Max,
			Velocity:    percent.MaxVelocity,
			TargetValue: percent.Max,
		})
		Expect(err).NotTo(HaveOccurred())
	}

	Describe("stepping", func() {
		It("wraps a modular value past max down toward min", func() {
			h, err := engine.Initialize(angle, impel.State{Value: math.Pi, Velocity: 0.001, TargetValue: -math.Pi + 1})
			Expect(err).NotTo(HaveOccurred())

			engine.AdvanceFrame(1)
			Expect(h.Value()).To(BeNumerically("<=", 0))
		})

		It("keeps a bounded value on its bound", func() {
			var h impel.Impeller
			initAtMax(&h)

			engine.AdvanceFrame(1)
			Expect(h.Value()).To(Equal(percent.Max))
		})

		It("never changes the target", func() {
			h, err := engine.Initialize(percent, impel.State{Value: 10, TargetValue: 80})
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 20; i++ {
				engine.AdvanceFrame(10)
			}
			Expect(h.TargetValue()).To(Equal(80.0))
			Expect(h.Value()).To(BeNumerically(">", 10))
		})

		It("normalizes the starting value into the domain", func() {
			h, err := engine.Initialize(percent, impel.State{Value: 250})
			Expect(err).NotTo(HaveOccurred())
			Expect(h.Value()).To(Equal(100.0))

			h.SetValue(-4)
			Expect(h.Value()).To(Equal(0.0))
		})
	})

	Describe("defragmentation", func() {
		It("keeps every other impeller intact whichever slot is freed", func() {
			handles := make([]impel.Impeller, 4)
			for hole := range handles {
				for i := range handles {
					initAtMax(&handles[i])
				}

				handles[hole].Invalidate()
				Expect(handles[hole].Valid()).To(BeFalse())

				engine.AdvanceFrame(1)
				Expect(handles[hole].Valid()).To(BeFalse())
				Expect(engine.Holes()).To(Equal(0))
				Expect(engine.Len()).To(Equal(len(handles) - 1))

				compare := 0
				if hole == 0 {
					compare = 1
				}
				Expect(handles[compare].Valid()).To(BeTrue())
				for i := range handles {
					if i == hole || i == compare {
						continue
					}
					Expect(handles[i].Valid()).To(BeTrue())
					Expect(handles[i].State()).To(Equal(handles[compare].State()))
				}
			}
		})

		It("keeps distinct states bound to their handles", func() {
			handles := make([]impel.Impeller, 6)
			for i := range handles {
				err := handles[i].Initialize(engine, percent, impel.State{Value: float64(i * 10), TargetValue: float64(i * 10)})
				Expect(err).NotTo(HaveOccurred())
			}

			handles[1].Invalidate()
			handles[4].Invalidate()
			engine.AdvanceFrame(1)

			Expect(engine.Cap()).To(Equal(4))
			for _, i := range []int{0, 2, 3, 5} {
				Expect(handles[i].Value()).To(Equal(float64(i * 10)))
			}
		})

		It("reuses a freed slot before growing", func() {
			a, _ := engine.Initialize(percent, impel.State{})
			_, _ = engine.Initialize(percent, impel.State{})
			engine.Invalidate(a)
			Expect(engine.Holes()).To(Equal(1))

			_, err := engine.Initialize(percent, impel.State{Value: 7})
			Expect(err).NotTo(HaveOccurred())
			Expect(engine.Cap()).To(Equal(2))
			Expect(engine.Holes()).To(Equal(0))
		})
	})

	Describe("ownership", func() {
		It("moves a valid impeller and invalidates the source", func() {
			var orig impel.Impeller
			initAtMax(&orig)
			value := orig.Value()

			var moved impel.Impeller
			moved.Move(&orig)

			Expect(orig.Valid()).To(BeFalse())
			Expect(moved.Valid()).To(BeTrue())
			Expect(moved.Value()).To(Equal(value))
			Expect(engine.Len()).To(Equal(1))
		})

		It("frees the destination's previous slot on move", func() {
			var orig, dst impel.Impeller
			initAtMax(&orig)
			Expect(dst.Initialize(engine, percent, impel.State{Value: 3})).To(Succeed())

			dst.Move(&orig)
			Expect(dst.Value()).To(Equal(percent.Max))
			Expect(engine.Len()).To(Equal(1))
		})

		It("moving an invalid impeller yields an invalid impeller", func() {
			var invalid, moved impel.Impeller
			Expect(invalid.Valid()).To(BeFalse())

			moved.Move(&invalid)
			Expect(moved.Valid()).To(BeFalse())
			Expect(invalid.Valid()).To(BeFalse())
		})

		It("duplicates into an independent slot", func() {
			var orig, dup impel.Impeller
			initAtMax(&orig)

			Expect(orig.Duplicate(&dup)).To(Succeed())
			Expect(orig.Valid()).To(BeTrue())
			Expect(dup.State()).To(Equal(orig.State()))

			dup.SetTargetValue(0)
			Expect(orig.TargetValue()).To(Equal(percent.Max))
			Expect(engine.Len()).To(Equal(2))
		})

		It("re-initializing a valid impeller replaces its slot", func() {
			var h impel.Impeller
			initAtMax(&h)
			initAtMax(&h)
			Expect(engine.Len()).To(Equal(1))
		})
	})

	Describe("storage growth", func() {
		It("keeps bindings when the handle slice is reallocated", func() {
			const startSize = 4
			handles := make([]impel.Impeller, startSize, startSize)
			for i := range handles {
				err := handles[i].Initialize(engine, percent, impel.State{Value: float64(10 + i), TargetValue: 50})
				Expect(err).NotTo(HaveOccurred())
			}

			before := &handles[0]
			handles = append(handles, impel.Impeller{})
			Expect(&handles[0]).NotTo(BeIdenticalTo(before))

			for i := 0; i < startSize; i++ {
				Expect(handles[i].Valid()).To(BeTrue())
				Expect(handles[i].Value()).To(Equal(float64(10 + i)))
				Expect(handles[i].TargetValue()).To(Equal(50.0))
			}
			Expect(handles[startSize].Valid()).To(BeFalse())
		})

		It("keeps bindings when the pool itself grows", func() {
			first, err := engine.Initialize(percent, impel.State{Value: 12, Velocity: 0.5, TargetValue: 90})
			Expect(err).NotTo(HaveOccurred())
			want := first.State()

			for i := 0; i < 100; i++ {
				_, err := engine.Initialize(angle, impel.State{Value: float64(i) / 100})
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(first.State()).To(Equal(want))
		})

		It("does not resurrect a stale handle after its id is reused", func() {
			handles := make([]impel.Impeller, 1, 1)
			initAtMax(&handles[0])

			stale := handles
			handles = append(handles, impel.Impeller{})
			handles[0].Invalidate()
			Expect(stale[0].Valid()).To(BeFalse())

			initAtMax(&handles[1])
			Expect(handles[1].Valid()).To(BeTrue())
			Expect(stale[0].Valid()).To(BeFalse())
		})
	})

	Describe("errors", func() {
		It("rejects an unregistered driver type without allocating", func() {
			var h impel.Impeller
			err := h.Initialize(engine, unknownInit{}, impel.State{})

			Expect(err).To(MatchError(impel.ErrUnregisteredDriver))
			Expect(h.Valid()).To(BeFalse())
			Expect(engine.Cap()).To(Equal(0))
		})

		It("leaves a valid impeller bound when re-initialization fails", func() {
			var h impel.Impeller
			initAtMax(&h)

			Expect(h.Initialize(engine, unknownInit{}, impel.State{})).NotTo(Succeed())
			Expect(h.Valid()).To(BeTrue())
			Expect(h.Value()).To(Equal(percent.Max))
		})

		It("rejects an invalid descriptor", func() {
			bad := percent
			bad.MaxDeltaTime = 0
			_, err := engine.Initialize(bad, impel.State{})
			Expect(err).To(MatchError(impel.ErrInvalidInit))
		})

		It("panics on accessors of an invalid impeller", func() {
			var h impel.Impeller
			Expect(func() { h.Value() }).To(PanicWith(MatchError(impel.ErrInvalidImpeller)))
			Expect(func() { h.SetTargetValue(1) }).To(PanicWith(MatchError(impel.ErrInvalidImpeller)))
			Expect(func() { angle.AtTarget.Settled(&h) }).To(PanicWith(MatchError(impel.ErrInvalidImpeller)))
		})

		It("treats invalidating an invalid impeller as a no-op", func() {
			var h impel.Impeller
			Expect(func() { h.Invalidate() }).NotTo(Panic())
			Expect(func() { engine.Invalidate(&h) }).NotTo(Panic())
		})
	})

	Describe("Settled", func() {
		It("is false while moving and true once at rest on target", func() {
			h, err := engine.Initialize(angle, impel.State{Value: 0, Velocity: angle.MaxVelocity, TargetValue: -math.Pi + 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(angle.AtTarget.Settled(h)).To(BeFalse())

			frames := 0
			for frames < 1000 && !angle.AtTarget.Settled(h) {
				engine.AdvanceFrame(10)
				frames++
			}
			Expect(angle.AtTarget.Settled(h)).To(BeTrue())
			Expect(frames).To(BeNumerically("<", 70))
		})

		It("measures modular distance the short way", func() {
			h, err := engine.Initialize(angle, impel.State{Value: math.Pi - 0.01, TargetValue: -math.Pi + 0.01})
			Expect(err).NotTo(HaveOccurred())
			Expect(h.Difference()).To(BeNumerically("~", 0.02, 1e-9))
			Expect(angle.AtTarget.Settled(h)).To(BeTrue())
		})
	})
})

var _ = Describe("Registry", func() {
	It("keeps the first factory for a type", func() {
		reg := impel.NewRegistry()
		Expect(reg.Register(overshoot.Type, overshoot.New)).To(BeTrue())
		Expect(reg.Register(overshoot.Type, overshoot.New)).To(BeFalse())
		Expect(reg.Types()).To(Equal([]impel.DriverType{overshoot.Type}))
		Expect(reg.Registered(impel.SmoothType)).To(BeFalse())
	})

	It("reports unregistered types", func() {
		_, err := impel.NewRegistry().New(unknownInit{})
		Expect(err).To(MatchError(impel.ErrUnregisteredDriver))
		Expect(err.Error()).To(ContainSubstring(`"smooth"`))
	})
})
