// sim/simulator.go
package sim

import (
	"container/heap"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/dcsim/dcsim/sim/trace"
)

// Simulator is the core object that holds simulation time, the datacenter,
// the broker and the event loop.
type Simulator struct {
	// Scenario and Policies label the report.
	Scenario string
	Policies string

	Clock float64
	// Horizon stops the loop before any event later than it. Zero means unbounded.
	Horizon float64

	Datacenter *Datacenter
	Broker     *Broker
	// Trace is nil unless a trace level other than none was requested.
	Trace *trace.SimulationTrace

	// EventCount is the number of events executed, cancelled updates included.
	EventCount int

	queue  EventQueue
	seq    int64
	hasRun bool
	ended  bool
}

// NewSimulatorFromParts assembles a simulator over an already built
// datacenter and broker. A nil trace disables tracing.
func NewSimulatorFromParts(dc *Datacenter, broker *Broker, horizon float64, tr *trace.SimulationTrace) *Simulator {
	if dc == nil || broker == nil {
		panic("NewSimulatorFromParts: datacenter and broker are required")
	}
	return &Simulator{
		Horizon:    horizon,
		Datacenter: dc,
		Broker:     broker,
		Trace:      tr,
		queue:      make(EventQueue, 0),
	}
}

// NewSimulator validates cfg and builds the topology it describes.
// Configuration errors wrap ErrInvalidConfiguration.
func NewSimulator(cfg *ScenarioConfig, level trace.TraceLevel) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !trace.IsValidTraceLevel(string(level)) {
		return nil, invalidf("trace-level", "unknown trace level %q", level)
	}

	hosts, err := cfg.Datacenter.BuildHosts()
	if err != nil {
		return nil, err
	}
	dc := NewDatacenter(cfg.Datacenter.Name, hosts,
		NewAllocationPolicy(cfg.Policies.Allocation), cfg.Datacenter.PollInterval)

	broker := NewBroker(0, cfg.Broker.Name,
		NewAdmissionOrdering(cfg.Policies.Admission),
		NewProvisioningPolicy(cfg.Policies.Provisioning),
		cfg.Policies.ThresholdOrZero())
	broker.SubmitVMList(cfg.BuildVMs(broker.ID))
	broker.SubmitTaskList(cfg.BuildTasks())

	var tr *trace.SimulationTrace
	if level != "" && level != trace.TraceLevelNone {
		tr = trace.NewSimulationTrace(level)
	}
	logrus.Infof("scenario %q: %d hosts, %d VMs, %d tasks (%s)",
		cfg.Name, len(hosts), len(broker.vms), broker.total, cfg.Policies.Describe())
	s := NewSimulatorFromParts(dc, broker, cfg.Datacenter.Horizon, tr)
	s.Scenario = cfg.Name
	s.Policies = cfg.Policies.Describe()
	return s, nil
}

// Schedule pushes an event onto the queue. Events may not be scheduled in the past.
func (sim *Simulator) Schedule(ev Event) {
	if ev.Timestamp() < sim.Clock {
		panic(fmt.Sprintf("Schedule: %s at %.6f is before clock %.6f", ev.Kind(), ev.Timestamp(), sim.Clock))
	}
	heap.Push(&sim.queue, eventEntry{event: ev, seqID: sim.seq})
	sim.seq++
}

// Pending returns the number of queued events.
func (sim *Simulator) Pending() int { return len(sim.queue) }

// Run executes the simulation and returns its report. It may be called once.
func (sim *Simulator) Run() *Report {
	if sim.hasRun {
		panic("Simulator.Run() called more than once")
	}
	sim.hasRun = true

	sim.Broker.start(sim)

	for len(sim.queue) > 0 && !sim.ended {
		if next := sim.queue.Peek(); sim.Horizon > 0 && next.Timestamp() > sim.Horizon {
			logrus.Infof("[t=%.4f] next event %s at %.4f lies beyond horizon %.4f",
				sim.Clock, next.Kind(), next.Timestamp(), sim.Horizon)
			break
		}
		ev := heap.Pop(&sim.queue).(eventEntry).event
		if ev.Timestamp() < sim.Clock {
			panic(fmt.Sprintf("clock moved backwards: %.6f -> %.6f (%s)", sim.Clock, ev.Timestamp(), ev.Kind()))
		}
		sim.Clock = ev.Timestamp()
		logrus.Debugf("[t=%.4f] Executing %T", sim.Clock, ev)
		ev.Execute(sim)
		sim.EventCount++
	}

	if sim.ended {
		sim.queue = sim.queue[:0]
	}
	report := sim.Broker.report(sim)
	sim.Datacenter.shutdown(sim)
	logrus.Infof("[t=%.4f] Simulation ended after %d events", sim.Clock, sim.EventCount)
	return report
}
