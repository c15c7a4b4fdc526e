package simulation

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/pmsmsim/monitoring"
	"github.com/sarchlab/pmsmsim/sim"
	"go.uber.org/mock/gomock"
)

var _ = Describe("Simulation", func() {
	var (
		mockCtrl   *gomock.Controller
		outputDir  string
		simulation *Simulation
		comp       *MockComponent
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		outputDir = GinkgoT().TempDir()
		simulation = MakeBuilder().
			WithoutMonitoring().
			WithOutputDir(outputDir).
			Build()

		comp = NewMockComponent(mockCtrl)
		comp.EXPECT().Name().Return("comp").AnyTimes()
	})

	AfterEach(func() {
		mockCtrl.Finish()

		Expect(simulation.Terminate()).To(Succeed())
	})

	It("should create the database in the output directory", func() {
		_, err := os.Stat(filepath.Join(
			outputDir, "pmsmsim_"+simulation.ID()+".sqlite3"))

		Expect(err).NotTo(HaveOccurred())
		Expect(simulation.GetDataRecorder()).NotTo(BeNil())
		Expect(simulation.GetMonitor()).To(BeNil())
	})

	It("should register a component", func() {
		simulation.RegisterComponent(comp)

		Expect(simulation.GetComponentByName("comp")).To(Equal(comp))
		Expect(simulation.GetComponentByName("other")).To(BeNil())
		Expect(simulation.Components()).To(HaveLen(1))
	})

	It("should panic when registering a name twice", func() {
		simulation.RegisterComponent(comp)

		Expect(func() { simulation.RegisterComponent(comp) }).To(Panic())
	})

	It("should not track progress without a monitor", func() {
		simulation.TrackProgress(comp, 100)
	})

	It("should run the engine and notify end handlers", func() {
		evt := sim.NewEventBase(1e-4, comp)
		comp.EXPECT().Handle(evt).Return(nil)
		simulation.GetEngine().Schedule(evt)

		handled := false
		simulation.GetEngine().RegisterSimulationEndHandler(
			endHandlerFunc(func(_ sim.VTimeInSec) { handled = true }))

		Expect(simulation.Run()).To(Succeed())
		Expect(handled).To(BeTrue())
	})
})

type endHandlerFunc func(now sim.VTimeInSec)

func (f endHandlerFunc) Handle(now sim.VTimeInSec) {
	f(now)
}

var _ = Describe("Builder", func() {
	It("should reject a monitor port without monitoring", func() {
		Expect(func() {
			MakeBuilder().WithoutMonitoring().WithMonitorPort(8080).Build()
		}).To(Panic())
	})

	It("should reject a file name without recording", func() {
		Expect(func() {
			MakeBuilder().
				WithoutMonitoring().
				WithoutDataRecording().
				WithOutputFileName("x").
				Build()
		}).To(Panic())
	})

	It("should build a simulation with a monitor and no recorder", func() {
		mockCtrl := gomock.NewController(GinkgoT())
		defer mockCtrl.Finish()

		s := MakeBuilder().WithoutDataRecording().Build()
		defer func() {
			Expect(s.Terminate()).To(Succeed())
		}()

		Expect(s.GetDataRecorder()).To(BeNil())
		Expect(s.GetMonitor()).NotTo(BeNil())
		Expect(s.MonitorPort()).To(BeNumerically(">", 0))

		comp := NewMockComponent(mockCtrl)
		comp.EXPECT().Name().Return("Loop").AnyTimes()
		comp.EXPECT().AcceptHook(gomock.AssignableToTypeOf(&monitoring.ProgressHook{}))

		s.RegisterComponent(comp)
		s.TrackProgress(comp, 10)
	})
})
