package sim

import (
	"fmt"

	"github.com/markphelps/optional"
	"github.com/sirupsen/logrus"

	"github.com/dcsim/dcsim/sim/trace"
)

// Broker submits VMs and tasks on behalf of a user and collects results.
//
// Before the clock starts it evaluates the provisioning policy once and
// orders the pending tasks with the admission ordering. It then requests
// every VM, waits until all placements are acknowledged and submits the
// tasks in admission order.
type Broker struct {
	ID        int
	Name      string
	Threshold int

	admission    AdmissionOrdering
	provisioning ProvisioningPolicy

	vms     []*Vm // requested VMs, provisioned ones appended
	pending *TaskQueue
	total   int

	created   []*Vm
	failedVMs []*Vm
	acks      int
	nextVM    int // round-robin cursor over created

	provisioned []*Vm
	submitted   []*Task // submission order
	received    []*Task // completion order
	failed      []*Task

	endScheduled bool
}

// NewBroker creates a broker. Nil policies default to FIFO admission and no provisioning.
func NewBroker(id int, name string, admission AdmissionOrdering, provisioning ProvisioningPolicy, threshold int) *Broker {
	if admission == nil {
		admission = &FIFOAdmission{}
	}
	if provisioning == nil {
		provisioning = &NoProvisioning{}
	}
	return &Broker{
		ID:           id,
		Name:         name,
		Threshold:    threshold,
		admission:    admission,
		provisioning: provisioning,
		pending:      &TaskQueue{},
	}
}

// SubmitVMList hands VMs to the broker. They are requested when the simulation starts.
func (b *Broker) SubmitVMList(vms []*Vm) {
	for _, vm := range vms {
		vm.BrokerID = b.ID
		b.vms = append(b.vms, vm)
	}
}

// SubmitTaskList hands tasks to the broker in caller order.
func (b *Broker) SubmitTaskList(tasks []*Task) {
	for _, t := range tasks {
		t.BrokerID = b.ID
		b.pending.Enqueue(t)
		b.total++
	}
}

// VMs returns every VM the broker requested, provisioned ones included.
func (b *Broker) VMs() []*Vm { return append([]*Vm(nil), b.vms...) }

// CreatedVMs returns the VMs that were placed, in acknowledgement order.
func (b *Broker) CreatedVMs() []*Vm { return append([]*Vm(nil), b.created...) }

// ProvisionedVMs returns the VMs added by the provisioning policy.
func (b *Broker) ProvisionedVMs() []*Vm { return append([]*Vm(nil), b.provisioned...) }

// ReceivedTasks returns completed tasks in completion order.
func (b *Broker) ReceivedTasks() []*Task { return append([]*Task(nil), b.received...) }

// SubmittedTasks returns tasks in the order they were submitted to the datacenter.
func (b *Broker) SubmittedTasks() []*Task { return append([]*Task(nil), b.submitted...) }

// FailedTasks returns tasks that could never run, in failure order.
func (b *Broker) FailedTasks() []*Task { return append([]*Task(nil), b.failed...) }

// prepare runs the one-shot provisioning decision, then fixes the admission order.
func (b *Broker) prepare(sim *Simulator) {
	action := b.provisioning.DecideScale(b.pending.Len(), b.Threshold)
	var added []int
	if action.AddVMs > 0 {
		if len(b.vms) == 0 {
			logrus.Warnf("[t=%.4f] broker %s: provisioning wanted %d VMs but there is no baseline profile", sim.Clock, b.Name, action.AddVMs)
		} else {
			nextID := 0
			for _, vm := range b.vms {
				if vm.ID >= nextID {
					nextID = vm.ID + 1
				}
			}
			for i := 0; i < action.AddVMs; i++ {
				vm := b.vms[0].cloneProfile(nextID + i)
				b.vms = append(b.vms, vm)
				b.provisioned = append(b.provisioned, vm)
				added = append(added, vm.ID)
			}
			logrus.Infof("[t=%.4f] broker %s: provisioned %d VM(s) %v (%s)", sim.Clock, b.Name, len(added), added, action.Reason)
		}
	}
	if sim.Trace.RecordsDecisions() {
		sim.Trace.RecordProvision(trace.ProvisionRecord{
			Clock:        sim.Clock,
			PendingTasks: b.pending.Len(),
			Threshold:    b.Threshold,
			AddedVMs:     added,
			Reason:       action.Reason,
		})
	}

	b.pending.Reorder(b.admission.Order)
	if sim.Trace.RecordsDecisions() {
		for i, t := range b.pending.Items() {
			sim.Trace.RecordAdmission(trace.AdmissionRecord{
				TaskID:      t.ID,
				Position:    i,
				Priority:    t.Priority.OrElse(0),
				HasPriority: t.Priority.Present(),
				Clock:       sim.Clock,
			})
		}
	}
	logrus.Debugf("[t=%.4f] broker %s: admission order %s", sim.Clock, b.Name, b.pending)
}

// start requests every VM. With no VMs at all, tasks are submitted at once.
func (b *Broker) start(sim *Simulator) {
	b.prepare(sim)
	if len(b.vms) == 0 {
		b.submitTasks(sim)
		return
	}
	for _, vm := range b.vms {
		sim.Datacenter.createVM(sim, vm)
	}
}

func (b *Broker) handleVMCreateAck(sim *Simulator, e *VMCreateAckEvent) {
	b.acks++
	if e.Err != nil {
		b.failedVMs = append(b.failedVMs, e.VM)
	} else {
		b.created = append(b.created, e.VM)
	}
	if b.acks == len(b.vms) {
		logrus.Infof("[t=%.4f] broker %s: %d/%d VMs created", sim.Clock, b.Name, len(b.created), len(b.vms))
		b.submitTasks(sim)
	}
}

// submitTasks drains the pending queue in admission order.
func (b *Broker) submitTasks(sim *Simulator) {
	now := sim.Clock
	for b.pending.Len() > 0 {
		t := b.pending.Dequeue()
		t.SubmissionTime = now
		t.Status = TaskQueued
		vm, err := b.bindTask(t)
		if err != nil {
			b.failTask(sim, t, err)
			continue
		}
		t.VMID = optional.NewInt(vm.ID)
		b.submitted = append(b.submitted, t)
		sim.Schedule(&TaskSubmitEvent{time: now, Task: t, VM: vm})
	}
	b.maybeFinish(sim)
}

// bindTask resolves the VM for t: its explicit VMID if set, otherwise the
// next created VM in round-robin order.
func (b *Broker) bindTask(t *Task) (*Vm, error) {
	if id, err := t.VMID.Get(); err == nil {
		for _, vm := range b.vms {
			if vm.ID == id {
				return vm, nil
			}
		}
		return nil, fmt.Errorf("task %d: vm %d does not exist: %w", t.ID, id, ErrOrphanTaskSubmission)
	}
	if len(b.created) == 0 {
		return nil, fmt.Errorf("task %d: no VM was created: %w", t.ID, ErrOrphanTaskSubmission)
	}
	vm := b.created[b.nextVM%len(b.created)]
	b.nextVM++
	return vm, nil
}

func (b *Broker) failTask(sim *Simulator, t *Task, err error) {
	t.fail(sim.Clock, err)
	b.failed = append(b.failed, t)
	logrus.Warnf("[t=%.4f] Task %d failed: %v", sim.Clock, t.ID, err)
	b.maybeFinish(sim)
}

func (b *Broker) handleTaskComplete(sim *Simulator, e *TaskCompleteEvent) {
	b.received = append(b.received, e.Task)
	b.maybeFinish(sim)
}

// maybeFinish schedules SIM_END once every task has completed or failed.
func (b *Broker) maybeFinish(sim *Simulator) {
	if b.endScheduled || b.pending.Len() > 0 {
		return
	}
	if len(b.received)+len(b.failed) < b.total {
		return
	}
	b.endScheduled = true
	sim.Schedule(&SimEndEvent{time: sim.Clock})
}
