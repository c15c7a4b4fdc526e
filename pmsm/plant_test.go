package pmsm

import (
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pmsmsim/foc/transforms"
)

var half = transforms.ThreePhase{A: 50, B: 50, C: 50}

var _ = Describe("Plant", func() {
	var (
		plant *Plant
	)

	BeforeEach(func() {
		var err error
		plant, err = NewPlant(MaxonEC45(), 1e-4)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should start at rest", func() {
		Expect(plant.State()).To(Equal(State{ThetaM: 0.1}))
		Expect(plant.ElectricalAngle()).To(BeNumerically("~", 0.4, 1e-12))
	})

	It("should stay at rest without applied voltage", func() {
		for i := 0; i < 2000; i++ {
			currents, thetaE := plant.Step(half)

			Expect(currents).To(Equal(transforms.ThreePhase{}))
			Expect(thetaE).To(BeNumerically("~", 0.4, 1e-12))
		}

		Expect(plant.State().Omega).To(Equal(0.0))
		Expect(plant.State().ThetaM).To(Equal(0.1))
		Expect(plant.Torque()).To(Equal(0.0))
	})

	It("should follow one forward Euler step", func() {
		params := MaxonEC45()
		duty := transforms.ThreePhase{A: 60, B: 45, C: 45}

		currents, thetaE := plant.Step(duty)

		thetaE0 := 0.4
		v := transforms.ClarkePark(transforms.ThreePhase{
			A: 0.1 * params.BusVoltage,
			B: -0.05 * params.BusVoltage,
			C: -0.05 * params.BusVoltage,
		}, thetaE0)
		id := v.D / params.Ld * 1e-4
		iq := v.Q / params.Lq * 1e-4
		torque := 1.5 * params.PolePairs * params.FluxLinkage * iq
		omega := torque / params.Inertia * 1e-4

		s := plant.State()
		Expect(s.Id).To(BeNumerically("~", id, 1e-9))
		Expect(s.Iq).To(BeNumerically("~", iq, 1e-9))
		Expect(s.Omega).To(BeNumerically("~", omega, 1e-9))
		Expect(s.ThetaM).To(BeNumerically("~", 0.1+omega*1e-4, 1e-12))
		Expect(plant.Torque()).To(BeNumerically("~", torque, 1e-9))

		expected := transforms.InverseClarkePark(
			transforms.RotatingFrame{D: id, Q: iq}, thetaE0)
		Expect(currents.A).To(BeNumerically("~", expected.A, 1e-9))
		Expect(currents.B).To(BeNumerically("~", expected.B, 1e-9))
		Expect(currents.C).To(BeNumerically("~", expected.C, 1e-9))
		Expect(thetaE).To(BeNumerically("~",
			math.Mod((0.1+omega*1e-4)*4, 2*math.Pi), 1e-12))
	})

	It("should produce balanced currents", func() {
		for i := 0; i < 100; i++ {
			currents, _ := plant.Step(transforms.ThreePhase{A: 55, B: 50, C: 48})

			Expect(currents.A + currents.B + currents.C).
				To(BeNumerically("~", 0, 1e-9))
		}
	})

	It("should keep the angles wrapped", func() {
		r := rand.New(rand.NewSource(3))
		for i := 0; i < 20000; i++ {
			duty := transforms.ThreePhase{
				A: 50 + r.NormFloat64()*20,
				B: 50 + r.NormFloat64()*20,
				C: 50 + r.NormFloat64()*20,
			}

			_, thetaE := plant.Step(duty)

			Expect(thetaE).To(BeNumerically(">=", 0))
			Expect(thetaE).To(BeNumerically("<", 2*math.Pi))
			Expect(plant.State().ThetaM).To(BeNumerically(">=", 0))
			Expect(plant.State().ThetaM).To(BeNumerically("<", 2*math.Pi))
		}
	})

	It("should wrap when turning backwards", func() {
		plant.SetState(State{Omega: -50, ThetaM: 0.001})

		plant.Step(half)

		Expect(plant.State().Omega).To(BeNumerically("<", 0))
		Expect(plant.State().ThetaM).To(BeNumerically(">", 2*math.Pi-0.01))
		Expect(plant.State().ThetaM).To(BeNumerically("<", 2*math.Pi))
	})

	It("should let an unstable step size diverge without panicking", func() {
		unstable, err := NewPlant(MaxonEC45(), 1e-3)
		Expect(err).NotTo(HaveOccurred())

		var currents transforms.ThreePhase
		for i := 0; i < 60; i++ {
			currents, _ = unstable.Step(transforms.ThreePhase{A: 60, B: 50, C: 50})
		}

		Expect(diverged(currents.A)).To(BeTrue())
	})

	It("should reset to rest", func() {
		plant.Step(transforms.ThreePhase{A: 70, B: 40, C: 40})

		plant.Reset()

		Expect(plant.State()).To(Equal(InitialState()))
		Expect(plant.Torque()).To(Equal(0.0))
	})

	It("should be deterministic", func() {
		other, _ := NewPlant(MaxonEC45(), 1e-4)
		duty := transforms.ThreePhase{A: 58, B: 47, C: 45}

		for i := 0; i < 500; i++ {
			c1, t1 := plant.Step(duty)
			c2, t2 := other.Step(duty)

			Expect(c1).To(Equal(c2))
			Expect(t1).To(Equal(t2))
		}
	})
})

func diverged(x float64) bool {
	return math.IsNaN(x) || math.IsInf(x, 0) || math.Abs(x) > 1e6
}
