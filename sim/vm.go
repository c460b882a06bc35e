package sim

import (
	"fmt"

	"github.com/markphelps/optional"
)

// Vm is a resource reservation placed on exactly one host once created.
// Unplaced VMs are held by the broker; HostID is absent until placement.
type Vm struct {
	ID       int
	BrokerID int
	MIPS     float64 // per-PE rate requested
	PEs      int
	RAM      int64 // MB
	BW       int64 // Mbps
	Size     int64 // image size, MB
	VMM      string
	HostID   optional.Int

	host      *Host
	scheduler *TimeSharedTaskScheduler
	failure   error // set when placement failed
}

// NewVm creates an unplaced VM with a time-shared task scheduler.
func NewVm(id, brokerID int, mips float64, pes int, ram, bw, size int64, vmm string) *Vm {
	return &Vm{
		ID:        id,
		BrokerID:  brokerID,
		MIPS:      mips,
		PEs:       pes,
		RAM:       ram,
		BW:        bw,
		Size:      size,
		VMM:       vmm,
		scheduler: &TimeSharedTaskScheduler{},
	}
}

// RequestedMIPS is the capacity the VM asks its host for: MIPS × PEs.
func (vm *Vm) RequestedMIPS() float64 { return vm.MIPS * float64(vm.PEs) }

// Host returns the host the VM resides on, or nil when unplaced.
func (vm *Vm) Host() *Host { return vm.host }

// Placed reports whether the VM currently resides on a host.
func (vm *Vm) Placed() bool { return vm.host != nil }

// Failure returns the placement error, if placement failed.
func (vm *Vm) Failure() error { return vm.failure }

// AllocatedMIPS is the capacity the host scheduler currently grants this VM.
func (vm *Vm) AllocatedMIPS() float64 {
	if vm.host == nil {
		return 0
	}
	return vm.host.AllocatedMIPS(vm.ID)
}

// TaskShare is the capacity each executing task currently receives.
func (vm *Vm) TaskShare() float64 {
	return vm.scheduler.Share(vm.AllocatedMIPS())
}

// ExecutingTasks returns the tasks currently running on the VM.
func (vm *Vm) ExecutingTasks() []*Task {
	return vm.scheduler.Tasks()
}

// cloneProfile returns a new unplaced VM with the same resource profile.
func (vm *Vm) cloneProfile(id int) *Vm {
	return NewVm(id, vm.BrokerID, vm.MIPS, vm.PEs, vm.RAM, vm.BW, vm.Size, vm.VMM)
}

func (vm *Vm) String() string {
	return fmt.Sprintf("Vm(ID: %d, MIPS: %.0f x %d, RAM: %d, BW: %d, Size: %d)",
		vm.ID, vm.MIPS, vm.PEs, vm.RAM, vm.BW, vm.Size)
}
