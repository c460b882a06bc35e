package sim

import (
	"fmt"
	"math"

	"github.com/markphelps/optional"
	"github.com/sirupsen/logrus"

	"github.com/dcsim/dcsim/sim/trace"
)

// Datacenter owns the hosts, places VMs through its allocation policy and
// drives per-update capacity accounting for every executing task.
type Datacenter struct {
	Name string
	// PollInterval bounds the gap between capacity updates while tasks run.
	// Zero disables polling: updates then fire only at projected completions.
	PollInterval float64

	hosts  []*Host
	policy AllocationPolicy
	vms    []*Vm // placed VMs in placement order

	pendingUpdate *CapacityUpdateEvent
}

// NewDatacenter creates a datacenter over hosts. A nil policy defaults to first-fit.
func NewDatacenter(name string, hosts []*Host, policy AllocationPolicy, pollInterval float64) *Datacenter {
	if policy == nil {
		policy = &FirstFitAllocation{}
	}
	return &Datacenter{
		Name:         name,
		PollInterval: pollInterval,
		hosts:        hosts,
		policy:       policy,
	}
}

// Hosts returns the host list in allocation order.
func (dc *Datacenter) Hosts() []*Host {
	return append([]*Host(nil), dc.hosts...)
}

// PlacedVMs returns the VMs currently resident on some host.
func (dc *Datacenter) PlacedVMs() []*Vm {
	return append([]*Vm(nil), dc.vms...)
}

// createVM places vm and acknowledges the outcome to the broker at the current clock.
func (dc *Datacenter) createVM(sim *Simulator, vm *Vm) {
	now := sim.Clock
	// Residency changes the host split, so progress up to now is settled at the old shares.
	dc.advance(sim, now)

	host, err := dc.policy.Allocate(vm, dc.hosts)
	if err != nil {
		vm.failure = err
		logrus.Warnf("[t=%.4f] VM %d not placed: %v", now, vm.ID, err)
		if sim.Trace.RecordsDecisions() {
			sim.Trace.RecordPlacement(trace.PlacementRecord{VMID: vm.ID, Clock: now, HostID: -1, Reason: err.Error()})
		}
	} else {
		dc.vms = append(dc.vms, vm)
		logrus.Infof("[t=%.4f] VM %d placed on host %d (allocated %.2f MIPS)", now, vm.ID, host.ID, vm.AllocatedMIPS())
		if sim.Trace.RecordsDecisions() {
			sim.Trace.RecordPlacement(trace.PlacementRecord{VMID: vm.ID, Clock: now, HostID: host.ID, Placed: true, Reason: "first host with enough capacity"})
		}
		dc.recordCapacity(sim, host)
		dc.reschedule(sim)
	}
	sim.Schedule(&VMCreateAckEvent{time: now, VM: vm, Err: err})
}

// submitTask starts task on vm. A VM that was never placed cannot run
// anything: the task is failed and returned to the broker immediately.
func (dc *Datacenter) submitTask(sim *Simulator, task *Task, vm *Vm) {
	now := sim.Clock
	if !vm.Placed() {
		err := fmt.Errorf("task %d: vm %d was never placed: %w", task.ID, vm.ID, ErrOrphanTaskSubmission)
		if vm.Failure() != nil {
			err = fmt.Errorf("task %d: vm %d was never placed: %w: %w", task.ID, vm.ID, ErrOrphanTaskSubmission, vm.Failure())
		}
		sim.Broker.failTask(sim, task, err)
		return
	}
	dc.advance(sim, now)
	vm.scheduler.Submit(task, now)
	task.HostID = optional.NewInt(vm.Host().ID)
	logrus.Infof("[t=%.4f] Task %d executing on vm %d (share %.2f MIPS, %d concurrent)",
		now, task.ID, vm.ID, vm.TaskShare(), vm.scheduler.Len())
	dc.recordCapacity(sim, vm.Host())
	dc.reschedule(sim)
}

// updateProcessing handles a CAPACITY_UPDATE: it recomputes every host's
// split, advances progress and schedules the next update.
func (dc *Datacenter) updateProcessing(sim *Simulator, now float64) {
	dc.pendingUpdate = nil
	dc.advance(sim, now)
	for _, h := range dc.hosts {
		h.recomputeAllocation()
		dc.recordCapacity(sim, h)
	}
	dc.reschedule(sim)
}

// advance accumulates progress on every executing task up to now and
// completes the tasks that reached their length.
func (dc *Datacenter) advance(sim *Simulator, now float64) {
	for _, vm := range dc.vms {
		for _, t := range vm.scheduler.Advance(now, vm.AllocatedMIPS()) {
			t.Status = TaskSuccess
			t.FinishTime = now
			logrus.Infof("[t=%.4f] Task %d finished on vm %d (exec %.4f)", now, t.ID, vm.ID, t.ExecutionTime())
			sim.Schedule(&TaskCompleteEvent{time: now, Task: t})
		}
	}
}

// reschedule keeps exactly one live CAPACITY_UPDATE pending, at
// min(now + PollInterval, earliest projected completion), always strictly
// after now. A pending update at any other time is cancelled and replaced.
func (dc *Datacenter) reschedule(sim *Simulator) {
	now := sim.Clock
	next := math.Inf(1)
	busy := false
	for _, vm := range dc.vms {
		if vm.scheduler.Len() == 0 {
			continue
		}
		busy = true
		if at, ok := vm.scheduler.NextCompletion(now, vm.AllocatedMIPS()); ok && at < next {
			next = at
		}
	}
	if !busy {
		if dc.pendingUpdate != nil {
			dc.pendingUpdate.cancelled = true
			dc.pendingUpdate = nil
		}
		return
	}
	if dc.PollInterval > 0 && now+dc.PollInterval < next {
		next = now + dc.PollInterval
	}
	if math.IsInf(next, 1) {
		// Busy VMs with no capacity make no progress; nothing to wait for.
		logrus.Warnf("[t=%.4f] executing tasks have no capacity; no further updates scheduled", now)
		return
	}
	if next <= now {
		// now+PollInterval can round back to now at large clock values.
		next = math.Nextafter(now, math.Inf(1))
	}
	if dc.pendingUpdate != nil {
		if dc.pendingUpdate.time == next {
			return
		}
		dc.pendingUpdate.cancelled = true
	}
	dc.pendingUpdate = &CapacityUpdateEvent{time: next}
	sim.Schedule(dc.pendingUpdate)
}

// shutdown destroys every placed VM, releasing host capacity. Tasks still
// executing are drained and left in EXECUTING state for reporting.
func (dc *Datacenter) shutdown(sim *Simulator) {
	if dc.pendingUpdate != nil {
		dc.pendingUpdate.cancelled = true
		dc.pendingUpdate = nil
	}
	for _, vm := range dc.vms {
		if n := len(vm.scheduler.drain()); n > 0 {
			logrus.Warnf("[t=%.4f] VM %d destroyed with %d unfinished tasks", sim.Clock, vm.ID, n)
		}
		dc.policy.Deallocate(vm)
	}
	dc.vms = nil
}

func (dc *Datacenter) recordCapacity(sim *Simulator, h *Host) {
	if !sim.Trace.RecordsCapacity() {
		return
	}
	rec := trace.CapacityRecord{
		Clock:      sim.Clock,
		HostID:     h.ID,
		Capacity:   h.TotalMIPS(),
		PerVM:      make(map[int]float64),
		TaskShares: make(map[int]float64),
		TasksPerVM: make(map[int]int),
	}
	for _, vm := range h.ResidentVMs() {
		alloc := h.AllocatedMIPS(vm.ID)
		rec.PerVM[vm.ID] = alloc
		rec.Allocated += alloc
		rec.TasksPerVM[vm.ID] = vm.scheduler.Len()
		share := vm.scheduler.Share(alloc)
		for _, t := range vm.scheduler.Tasks() {
			rec.TaskShares[t.ID] = share
		}
	}
	sim.Trace.RecordCapacity(rec)
}
