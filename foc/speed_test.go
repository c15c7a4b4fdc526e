package foc

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pmsmsim/foc/transforms"
	"github.com/sarchlab/pmsmsim/pmsm"
)

var _ = Describe("SpeedController", func() {
	var (
		c *SpeedController
	)

	BeforeEach(func() {
		var err error
		c, err = NewSpeedController(24, 4, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.SetTunings(Gains{Kp: 0.01, Ki: 0.1}, Gains{Kp: 2.5, Ki: 365})).
			To(Succeed())
	})

	It("should reject invalid limits", func() {
		_, err := NewSpeedController(24, 0, 2)
		Expect(err).To(HaveOccurred())

		_, err = NewSpeedController(24, 4, 0)
		Expect(err).To(HaveOccurred())

		_, err = NewSpeedController(0, 4, 2)
		Expect(err).To(MatchError(ErrInvalidBusVoltage))
	})

	It("should report zero speed on the first step", func() {
		c.Calculate(transforms.ThreePhase{}, 3, 1e-4)

		Expect(c.MeasuredSpeed()).To(Equal(0.0))
	})

	It("should estimate speed across the angle wrap", func() {
		c.Calculate(transforms.ThreePhase{}, 2*math.Pi-0.01, 1e-4)
		c.Calculate(transforms.ThreePhase{}, 0.03, 1e-4)

		Expect(c.MeasuredSpeed()).To(BeNumerically("~", 0.04/1e-4/4, 1e-6))
	})

	It("should estimate backwards rotation", func() {
		c.Calculate(transforms.ThreePhase{}, 0.01, 1e-4)
		c.Calculate(transforms.ThreePhase{}, 2*math.Pi-0.03, 1e-4)

		Expect(c.MeasuredSpeed()).To(BeNumerically("~", -0.04/1e-4/4, 1e-6))
	})

	It("should limit the current reference", func() {
		c.SetPoint(1e6)

		c.Calculate(transforms.ThreePhase{}, 0, 1e-4)
		c.Calculate(transforms.ThreePhase{}, 0, 1e-4)

		Expect(c.CurrentReference()).To(Equal(2.0))
	})

	It("should hold the current reference while the speed loop is off", func() {
		c.SetPoint(1e6)
		c.HoldCurrent(0.5)

		c.Calculate(transforms.ThreePhase{}, 0, 1e-4)
		c.Calculate(transforms.ThreePhase{}, 0.1, 1e-4)

		Expect(c.SpeedLoopEnabled()).To(BeFalse())
		Expect(c.CurrentReference()).To(Equal(0.5))
		Expect(c.MeasuredSpeed()).To(BeNumerically("~", 0.1/1e-4/4, 1e-6))
	})

	It("should limit a held current", func() {
		c.HoldCurrent(-5)

		c.Calculate(transforms.ThreePhase{}, 0, 1e-4)

		Expect(c.CurrentReference()).To(Equal(-2.0))
	})

	It("should resume the speed loop after the hold steps", func() {
		c.SetPoint(1e6)
		c.HoldCurrentFor(0.5, 3)

		for i := 0; i < 3; i++ {
			Expect(c.SpeedLoopEnabled()).To(BeFalse())
			c.Calculate(transforms.ThreePhase{}, 0, 1e-4)
			Expect(c.CurrentReference()).To(Equal(0.5))
		}

		Expect(c.SpeedLoopEnabled()).To(BeTrue())

		c.Calculate(transforms.ThreePhase{}, 0, 1e-4)

		Expect(c.CurrentReference()).To(Equal(2.0))
	})

	It("should keep the speed loop running with zero hold steps", func() {
		c.HoldCurrentFor(0.5, 0)

		Expect(c.SpeedLoopEnabled()).To(BeTrue())
	})

	It("should forget the angle on reset", func() {
		c.Calculate(transforms.ThreePhase{}, 0.5, 1e-4)
		c.Reset()
		c.Calculate(transforms.ThreePhase{}, 1.5, 1e-4)

		Expect(c.MeasuredSpeed()).To(Equal(0.0))
	})

	It("should bring the motor to the requested speed", func() {
		plant, err := pmsm.NewPlant(pmsm.JK42BLS01(), 1e-4)
		Expect(err).NotTo(HaveOccurred())
		c.SetPoint(100)

		duty := transforms.ThreePhase{A: 50, B: 50, C: 50}
		for i := 0; i < 5000; i++ {
			currents, thetaE := plant.Step(duty)
			duty = c.Calculate(currents, thetaE, 1e-4)
		}

		Expect(plant.State().Omega).To(BeNumerically("~", 100, 5))
		Expect(c.Measured().D).To(BeNumerically("~", 0, 0.1))
	})
})
