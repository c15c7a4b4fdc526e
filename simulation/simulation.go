// Package simulation assembles the engine, the recorder, and the monitor that
// a run needs.
package simulation

import (
	"github.com/sarchlab/pmsmsim/datarecording"
	"github.com/sarchlab/pmsmsim/monitoring"
	"github.com/sarchlab/pmsmsim/sim"
)

// A Simulation provides the services required to run a simulation.
type Simulation struct {
	id     string
	engine *sim.SerialEngine

	dataRecorder datarecording.DataRecorder
	monitor      *monitoring.Monitor
	monitorPort  int

	components    []sim.Component
	compNameIndex map[string]int
	progressBars  []*monitoring.ProgressBar
}

// ID returns the unique ID of the simulation.
func (s *Simulation) ID() string {
	return s.id
}

// GetEngine returns the engine used in the simulation.
func (s *Simulation) GetEngine() sim.Engine {
	return s.engine
}

// GetDataRecorder returns the data recorder used in the simulation. It is nil
// when recording is disabled.
func (s *Simulation) GetDataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// GetMonitor returns the monitor used in the simulation. It is nil when
// monitoring is disabled.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// MonitorPort returns the port of the monitoring server, or 0.
func (s *Simulation) MonitorPort() int {
	return s.monitorPort
}

// RegisterComponent registers a component with the simulation.
func (s *Simulation) RegisterComponent(c sim.Component) {
	compName := c.Name()
	if _, found := s.compNameIndex[compName]; found {
		panic("component " + compName + " already registered")
	}

	s.components = append(s.components, c)
	s.compNameIndex[compName] = len(s.components) - 1

	if s.monitor != nil {
		s.monitor.RegisterComponent(c)
	}
}

// TrackProgress shows the samples produced by a component as a progress bar
// on the monitor. It does nothing when monitoring is disabled.
func (s *Simulation) TrackProgress(c sim.Component, total uint64) {
	if s.monitor == nil {
		return
	}

	bar := s.monitor.CreateProgressBar(c.Name(), total)
	c.AcceptHook(monitoring.NewProgressHook(bar))

	s.progressBars = append(s.progressBars, bar)
}

// GetComponentByName returns the component with the given name, or nil.
func (s *Simulation) GetComponentByName(name string) sim.Component {
	idx, found := s.compNameIndex[name]
	if !found {
		return nil
	}

	return s.components[idx]
}

// Components returns all the registered components in registration order.
func (s *Simulation) Components() []sim.Component {
	return s.components
}

// Run runs the engine until there are no more events, then notifies the
// simulation end handlers.
func (s *Simulation) Run() error {
	err := s.engine.Run()
	if err != nil {
		return err
	}

	s.engine.Finished()

	return nil
}

// Terminate terminates the simulation.
func (s *Simulation) Terminate() error {
	if s.monitor != nil {
		for _, bar := range s.progressBars {
			s.monitor.CompleteProgressBar(bar)
		}

		if err := s.monitor.StopServer(); err != nil {
			return err
		}
	}

	if s.dataRecorder != nil {
		return s.dataRecorder.Close()
	}

	return nil
}
