package transforms

import (
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Clarke", func() {
	It("should map a balanced set onto alpha and beta", func() {
		out := Clarke(ThreePhase{A: 1, B: -0.5, C: -0.5})

		Expect(out.Alpha).To(BeNumerically("~", 1, 1e-12))
		Expect(out.Beta).To(BeNumerically("~", 0, 1e-12))
	})

	It("should drop the zero-sequence component", func() {
		out := Clarke(ThreePhase{A: 2, B: 2, C: 2})

		Expect(out.Alpha).To(BeNumerically("~", 0, 1e-12))
		Expect(out.Beta).To(BeNumerically("~", 0, 1e-12))
	})

	It("should be undone by the inverse on balanced sets", func() {
		in := ThreePhase{A: 0.3, B: 0.4, C: -0.7}

		out := InverseClarke(Clarke(in))

		Expect(out.A).To(BeNumerically("~", in.A, 1e-12))
		Expect(out.B).To(BeNumerically("~", in.B, 1e-12))
		Expect(out.C).To(BeNumerically("~", in.C, 1e-12))
	})
})

var _ = Describe("Park", func() {
	It("should project alpha onto d at zero angle", func() {
		out := Park(TwoPhase{Alpha: 1, Beta: 0}, 1, 0)

		Expect(out.D).To(Equal(1.0))
		Expect(out.Q).To(Equal(0.0))
	})

	It("should project beta onto d at a quarter turn", func() {
		out := ClarkePark(InverseClarke(TwoPhase{Alpha: 0, Beta: 2}), math.Pi/2)

		Expect(out.D).To(BeNumerically("~", 2, 1e-12))
		Expect(out.Q).To(BeNumerically("~", 0, 1e-12))
	})

	It("should preserve the vector length", func() {
		in := TwoPhase{Alpha: 0.6, Beta: -0.8}

		out := Park(in, math.Cos(1.234), math.Sin(1.234))

		Expect(math.Hypot(out.D, out.Q)).To(BeNumerically("~", 1, 1e-12))
	})
})

var _ = Describe("Round trip", func() {
	It("should return the original balanced triple", func() {
		r := rand.New(rand.NewSource(1))

		for i := 0; i < 1000; i++ {
			a := r.Float64()*20 - 10
			b := r.Float64()*20 - 10
			in := ThreePhase{A: a, B: b, C: -a - b}
			theta := r.Float64() * 2 * math.Pi

			out := InverseClarkePark(ClarkePark(in, theta), theta)

			Expect(out.A).To(BeNumerically("~", in.A, 1e-9))
			Expect(out.B).To(BeNumerically("~", in.B, 1e-9))
			Expect(out.C).To(BeNumerically("~", in.C, 1e-9))
		}
	})

	It("should return the triple without its mean when unbalanced", func() {
		in := ThreePhase{A: 3, B: 1, C: 2}
		mean := (in.A + in.B + in.C) / 3

		out := InverseClarkePark(ClarkePark(in, 0.7), 0.7)

		Expect(out.A).To(BeNumerically("~", in.A-mean, 1e-12))
		Expect(out.B).To(BeNumerically("~", in.B-mean, 1e-12))
		Expect(out.C).To(BeNumerically("~", in.C-mean, 1e-12))
	})
})

var _ = Describe("WrapAngle", func() {
	It("should keep angles already in range", func() {
		Expect(WrapAngle(0)).To(Equal(0.0))
		Expect(WrapAngle(1.5)).To(Equal(1.5))
	})

	It("should wrap positive accumulation", func() {
		Expect(WrapAngle(2*math.Pi + 0.25)).To(BeNumerically("~", 0.25, 1e-12))
		Expect(WrapAngle(40*math.Pi + 1)).To(BeNumerically("~", 1, 1e-9))
	})

	It("should wrap negative accumulation", func() {
		Expect(WrapAngle(-0.25)).To(BeNumerically("~", 2*math.Pi-0.25, 1e-12))
		Expect(WrapAngle(-7 * math.Pi)).To(BeNumerically("~", math.Pi, 1e-9))
	})

	It("should never return 2π", func() {
		Expect(WrapAngle(-1e-18)).To(BeNumerically("<", 2*math.Pi))
		Expect(WrapAngle(-1e-18)).To(BeNumerically(">=", 0))
		Expect(WrapAngle(2 * math.Pi)).To(Equal(0.0))
	})
})
