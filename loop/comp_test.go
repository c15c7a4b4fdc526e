package loop

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/pmsmsim/foc/transforms"
	"github.com/sarchlab/pmsmsim/pmsm"
	"github.com/sarchlab/pmsmsim/sim"
)

var _ = Describe("Comp", func() {
	var (
		mockCtrl   *gomock.Controller
		engine     *sim.SerialEngine
		plant      *MockPlant
		controller *MockController
		samples    []Sample
		comp       *Comp
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = sim.NewSerialEngine()
		plant = NewMockPlant(mockCtrl)
		controller = NewMockController(mockCtrl)
		samples = nil

		plant.EXPECT().TimeStep().Return(1e-4).AnyTimes()
		plant.EXPECT().State().Return(pmsm.State{Omega: 3}).AnyTimes()
		plant.EXPECT().Torque().Return(0.5).AnyTimes()
		controller.EXPECT().Measured().
			Return(transforms.RotatingFrame{D: 0.1, Q: 0.9}).AnyTimes()

		comp = MakeBuilder().
			WithEngine(engine).
			WithPlant(plant).
			WithController(controller).
			WithSteps(3).
			Build("Loop")
		comp.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
			if ctx.Pos == HookPosSample {
				samples = append(samples, ctx.Item.(Sample))
			}
		}))
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should step the plant before the controller and feed back the duty", func() {
		first := transforms.ThreePhase{A: 50, B: 50, C: 50}
		second := transforms.ThreePhase{A: 60, B: 40, C: 50}
		third := transforms.ThreePhase{A: 55, B: 45, C: 50}
		currents := transforms.ThreePhase{A: 1, B: -0.5, C: -0.5}

		gomock.InOrder(
			plant.EXPECT().Step(first).Return(currents, 0.1),
			controller.EXPECT().Calculate(currents, 0.1, 1e-4).Return(second),
			plant.EXPECT().Step(second).Return(currents, 0.2),
			controller.EXPECT().Calculate(currents, 0.2, 1e-4).Return(third),
			plant.EXPECT().Step(third).Return(currents, 0.3),
			controller.EXPECT().Calculate(currents, 0.3, 1e-4).Return(first),
		)

		comp.Start()
		Expect(engine.Run()).To(Succeed())

		Expect(comp.StepsDone()).To(Equal(uint64(3)))
		Expect(comp.TotalSteps()).To(Equal(uint64(3)))
		Expect(comp.Duty()).To(Equal(first))
		Expect(float64(engine.CurrentTime())).To(BeNumerically("~", 3e-4, 1e-12))
	})

	It("should publish one sample per step", func() {
		plant.EXPECT().Step(gomock.Any()).
			Return(transforms.ThreePhase{A: 1, B: 2, C: 3}, 0.5).Times(3)
		controller.EXPECT().Calculate(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(transforms.ThreePhase{A: 70, B: 30, C: 50}).Times(3)

		comp.Start()
		Expect(engine.Run()).To(Succeed())

		Expect(samples).To(HaveLen(3))
		Expect(samples[0].DutyA).To(Equal(50.0))
		Expect(samples[1].DutyA).To(Equal(70.0))
		Expect(samples[2].Step).To(Equal(uint64(2)))
		Expect(samples[2].Time).To(BeNumerically("~", 2e-4, 1e-15))
		Expect(samples[2].Ic).To(Equal(3.0))
		Expect(samples[2].ThetaE).To(Equal(0.5))
		Expect(samples[2].IqMeas).To(Equal(0.9))
		Expect(samples[2].Omega).To(Equal(3.0))
		Expect(samples[2].Torque).To(Equal(0.5))
	})

	It("should require a plant", func() {
		Expect(func() {
			MakeBuilder().WithEngine(engine).WithController(controller).Build("L")
		}).To(Panic())
	})
})
