package svpwm

import (
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pmsmsim/foc/transforms"
)

func polar(magnitude, angle float64) transforms.TwoPhase {
	return transforms.TwoPhase{
		Alpha: magnitude * math.Cos(angle),
		Beta:  magnitude * math.Sin(angle),
	}
}

var _ = Describe("SectorOf", func() {
	DescribeTable("should classify sector centers",
		func(degrees float64, expected Sector) {
			v := polar(0.2, degrees*math.Pi/180)
			Expect(SectorOf(v)).To(Equal(expected))
		},
		Entry("30°", 30.0, Sector0),
		Entry("90°", 90.0, Sector1),
		Entry("150°", 150.0, Sector2),
		Entry("210°", 210.0, Sector3),
		Entry("270°", 270.0, Sector4),
		Entry("330°", 330.0, Sector5),
	)

	It("should put the origin in Sector0", func() {
		Expect(SectorOf(transforms.TwoPhase{})).To(Equal(Sector0))
	})

	It("should put the positive alpha axis in Sector0", func() {
		Expect(SectorOf(transforms.TwoPhase{Alpha: 0.1})).To(Equal(Sector0))
	})

	It("should put the negative alpha axis in Sector2", func() {
		Expect(SectorOf(transforms.TwoPhase{Alpha: -0.1})).To(Equal(Sector2))
	})

	It("should name sectors", func() {
		Expect(Sector3.String()).To(Equal("Sector3"))
	})
})

var _ = Describe("Modulator", func() {
	var (
		m Modulator
	)

	It("should center a zero vector at half duty", func() {
		out := m.Generate(transforms.TwoPhase{})

		Expect(out).To(Equal(transforms.ThreePhase{A: 0.5, B: 0.5, C: 0.5}))
	})

	It("should drive phase A high for a vector on the positive alpha axis", func() {
		out := m.Generate(transforms.TwoPhase{Alpha: 0.3})

		Expect(out.A).To(BeNumerically("~", 0.725, 1e-12))
		Expect(out.B).To(BeNumerically("~", 0.275, 1e-12))
		Expect(out.C).To(BeNumerically("~", 0.275, 1e-12))
	})

	It("should reproduce the requested vector", func() {
		r := rand.New(rand.NewSource(7))

		for i := 0; i < 1000; i++ {
			v := polar(r.Float64()/3, r.Float64()*2*math.Pi)

			duty := m.Generate(v)
			applied := transforms.Clarke(transforms.ThreePhase{
				A: duty.A - 0.5,
				B: duty.B - 0.5,
				C: duty.C - 0.5,
			})

			Expect(applied.Alpha).To(BeNumerically("~", v.Alpha, 1e-12))
			Expect(applied.Beta).To(BeNumerically("~", v.Beta, 1e-12))
		}
	})

	It("should conserve the PWM period", func() {
		r := rand.New(rand.NewSource(11))

		for i := 0; i < 1000; i++ {
			v := polar(r.Float64()/math.Sqrt(3), r.Float64()*2*math.Pi)

			d := m.Decompose(v)

			Expect(d.Raw.Sum() + d.ZeroTime).To(BeNumerically("~", 1, 1e-12))
			Expect(d.Raw.Ta).To(BeNumerically(">=", -1e-12))
			Expect(d.Raw.Tb).To(BeNumerically(">=", -1e-12))
			Expect(d.Raw.Tc).To(BeNumerically(">=", -1e-12))
		}
	})

	It("should keep every duty in range for any input", func() {
		r := rand.New(rand.NewSource(13))

		for i := 0; i < 1000; i++ {
			v := transforms.TwoPhase{
				Alpha: r.NormFloat64() * 2,
				Beta:  r.NormFloat64() * 2,
			}

			duty := m.Generate(v)

			for _, d := range []float64{duty.A, duty.B, duty.C} {
				Expect(d).To(BeNumerically(">=", 0))
				Expect(d).To(BeNumerically("<=", 1))
			}
		}
	})

	It("should visit every sector once per revolution without jumps", func() {
		const steps = 3600
		visits := make([]int, NumSectors)
		var order []Sector
		var previous transforms.ThreePhase

		for k := 0; k < steps; k++ {
			v := polar(0.3, float64(k)*2*math.Pi/steps)
			sector := SectorOf(v)
			duty := m.Generate(v)

			if len(order) == 0 || order[len(order)-1] != sector {
				order = append(order, sector)
				visits[sector]++
			}

			if k > 0 {
				Expect(math.Abs(duty.A - previous.A)).To(BeNumerically("<", 0.01))
				Expect(math.Abs(duty.B - previous.B)).To(BeNumerically("<", 0.01))
				Expect(math.Abs(duty.C - previous.C)).To(BeNumerically("<", 0.01))
			}
			previous = duty
		}

		Expect(order).To(Equal([]Sector{
			Sector0, Sector1, Sector2, Sector3, Sector4, Sector5,
		}))
		for _, n := range visits {
			Expect(n).To(Equal(1))
		}
	})

	It("should be continuous across each boundary", func() {
		for s := 0; s < NumSectors; s++ {
			boundary := float64(s) * math.Pi / 3
			before := m.Generate(polar(0.25, boundary-1e-9))
			after := m.Generate(polar(0.25, boundary+1e-9))

			Expect(after.A).To(BeNumerically("~", before.A, 1e-7))
			Expect(after.B).To(BeNumerically("~", before.B, 1e-7))
			Expect(after.C).To(BeNumerically("~", before.C, 1e-7))
		}
	})
})
