package sim

import "github.com/sirupsen/logrus"

// EventKind identifies the kind of a simulation event.
type EventKind string

const (
	EventVMCreateAck    EventKind = "VM_CREATE_ACK"
	EventTaskSubmit     EventKind = "TASK_SUBMIT"
	EventCapacityUpdate EventKind = "CAPACITY_UPDATE"
	EventTaskComplete   EventKind = "TASK_COMPLETE"
	EventSimEnd         EventKind = "SIM_END"
)

// Event defines the interface for all simulation events.
// Each event has a Timestamp (simulated seconds) and an Execute method that
// advances simulation state when invoked. Execute runs to completion before
// the next event is popped and may only schedule events at or after the
// current clock.
type Event interface {
	Timestamp() float64
	Kind() EventKind
	Execute(*Simulator)
}

// VMCreateAckEvent reports the outcome of a VM placement back to the broker.
type VMCreateAckEvent struct {
	time float64
	VM   *Vm
	Err  error // nil when the VM was placed
}

func (e *VMCreateAckEvent) Timestamp() float64 { return e.time }
func (e *VMCreateAckEvent) Kind() EventKind    { return EventVMCreateAck }

// Execute hands the acknowledgement to the broker.
func (e *VMCreateAckEvent) Execute(sim *Simulator) {
	logrus.Debugf("<< VMCreateAck: vm %d placed=%v at %.4f", e.VM.ID, e.Err == nil, e.time)
	sim.Broker.handleVMCreateAck(sim, e)
}

// TaskSubmitEvent delivers a task to the datacenter for execution on VM.
type TaskSubmitEvent struct {
	time float64
	Task *Task
	VM   *Vm
}

func (e *TaskSubmitEvent) Timestamp() float64 { return e.time }
func (e *TaskSubmitEvent) Kind() EventKind    { return EventTaskSubmit }

// Execute starts the task on its VM.
func (e *TaskSubmitEvent) Execute(sim *Simulator) {
	logrus.Debugf("<< TaskSubmit: task %d -> vm %d at %.4f", e.Task.ID, e.VM.ID, e.time)
	sim.Datacenter.submitTask(sim, e.Task, e.VM)
}

// CapacityUpdateEvent advances task progress and recomputes capacity splits.
// A superseded update is cancelled and consumed as a no-op.
type CapacityUpdateEvent struct {
	time      float64
	cancelled bool
}

func (e *CapacityUpdateEvent) Timestamp() float64 { return e.time }
func (e *CapacityUpdateEvent) Kind() EventKind    { return EventCapacityUpdate }

// Execute updates processing across all hosts unless cancelled.
func (e *CapacityUpdateEvent) Execute(sim *Simulator) {
	if e.cancelled {
		return
	}
	logrus.Debugf("<< CapacityUpdate at %.4f", e.time)
	sim.Datacenter.updateProcessing(sim, e.time)
}

// TaskCompleteEvent returns a finished task to its broker.
type TaskCompleteEvent struct {
	time float64
	Task *Task
}

func (e *TaskCompleteEvent) Timestamp() float64 { return e.time }
func (e *TaskCompleteEvent) Kind() EventKind    { return EventTaskComplete }

// Execute records the completion on the broker.
func (e *TaskCompleteEvent) Execute(sim *Simulator) {
	logrus.Debugf("<< TaskComplete: task %d at %.4f", e.Task.ID, e.time)
	sim.Broker.handleTaskComplete(sim, e)
}

// SimEndEvent stops the event loop.
type SimEndEvent struct {
	time float64
}

func (e *SimEndEvent) Timestamp() float64 { return e.time }
func (e *SimEndEvent) Kind() EventKind    { return EventSimEnd }

// Execute marks the simulation as ended; remaining events are discarded.
func (e *SimEndEvent) Execute(sim *Simulator) {
	logrus.Debugf("<< SimEnd at %.4f", e.time)
	sim.ended = true
}
