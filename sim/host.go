package sim

import (
	"fmt"

	"github.com/markphelps/optional"
)

// capacityEpsilon absorbs float rounding when comparing MIPS sums.
const capacityEpsilon = 1e-9

// Host aggregates PEs and RAM/BW/storage capacities and hosts VMs.
//
// Capacity counters are written only by the allocation policy (reserve and
// release) and by the host-level scheduler (recomputeAllocation).
type Host struct {
	ID int

	pes     []*ProcessingElement
	ram     int64 // MB
	bw      int64 // Mbps
	storage int64 // MB

	availableRAM     int64
	availableBW      int64
	availableStorage int64
	reservedMIPS     float64 // sum of RequestedMIPS over resident VMs

	vms       []*Vm           // resident VMs in placement order
	allocated map[int]float64 // vm ID -> MIPS granted by the host scheduler
	scheduler HostScheduler
}

// NewHost creates a host. PEs, RAM, BW and storage must all be positive.
// A nil scheduler defaults to TimeSharedHostScheduler.
func NewHost(id int, pes []*ProcessingElement, ram, bw, storage int64, scheduler HostScheduler) (*Host, error) {
	field := fmt.Sprintf("host[%d]", id)
	if len(pes) == 0 {
		return nil, invalidf(field+".pes", "at least one PE is required")
	}
	if ram <= 0 {
		return nil, invalidf(field+".ram", "must be positive, got %d", ram)
	}
	if bw <= 0 {
		return nil, invalidf(field+".bw", "must be positive, got %d", bw)
	}
	if storage <= 0 {
		return nil, invalidf(field+".storage", "must be positive, got %d", storage)
	}
	if scheduler == nil {
		scheduler = &TimeSharedHostScheduler{}
	}
	return &Host{
		ID:               id,
		pes:              append([]*ProcessingElement(nil), pes...),
		ram:              ram,
		bw:               bw,
		storage:          storage,
		availableRAM:     ram,
		availableBW:      bw,
		availableStorage: storage,
		allocated:        make(map[int]float64),
		scheduler:        scheduler,
	}, nil
}

// PEs returns a copy of the host's PE list.
func (h *Host) PEs() []*ProcessingElement {
	return append([]*ProcessingElement(nil), h.pes...)
}

// TotalMIPS is the aggregate capacity of all PEs.
func (h *Host) TotalMIPS() float64 {
	total := 0.0
	for _, pe := range h.pes {
		total += pe.MIPS()
	}
	return total
}

// AvailableMIPS is the PE capacity not yet reserved by resident VMs.
// It is negative when the host has been oversubscribed.
func (h *Host) AvailableMIPS() float64 { return h.TotalMIPS() - h.reservedMIPS }

func (h *Host) RAM() int64              { return h.ram }
func (h *Host) BW() int64               { return h.bw }
func (h *Host) Storage() int64          { return h.storage }
func (h *Host) AvailableRAM() int64     { return h.availableRAM }
func (h *Host) AvailableBW() int64      { return h.availableBW }
func (h *Host) AvailableStorage() int64 { return h.availableStorage }

// ResidentVMs returns the VMs currently placed on the host, in placement order.
func (h *Host) ResidentVMs() []*Vm {
	return append([]*Vm(nil), h.vms...)
}

// AllocatedMIPS returns the capacity the host scheduler currently grants vmID.
func (h *Host) AllocatedMIPS(vmID int) float64 { return h.allocated[vmID] }

// TotalAllocatedMIPS sums the capacity granted to all resident VMs.
func (h *Host) TotalAllocatedMIPS() float64 {
	total := 0.0
	for _, vm := range h.vms {
		total += h.allocated[vm.ID]
	}
	return total
}

// fits reports whether vm's demand can be reserved on h. When checkMIPS is
// false only RAM, BW and storage are checked.
func (h *Host) fits(vm *Vm, checkMIPS bool) (bool, string) {
	if checkMIPS && h.AvailableMIPS()+capacityEpsilon < vm.RequestedMIPS() {
		return false, fmt.Sprintf("mips %.2f < %.2f", h.AvailableMIPS(), vm.RequestedMIPS())
	}
	if h.availableRAM < vm.RAM {
		return false, fmt.Sprintf("ram %d < %d", h.availableRAM, vm.RAM)
	}
	if h.availableBW < vm.BW {
		return false, fmt.Sprintf("bw %d < %d", h.availableBW, vm.BW)
	}
	if h.availableStorage < vm.Size {
		return false, fmt.Sprintf("storage %d < %d", h.availableStorage, vm.Size)
	}
	return true, ""
}

// reserve records vm as resident and decrements the available capacities.
func (h *Host) reserve(vm *Vm) {
	h.availableRAM -= vm.RAM
	h.availableBW -= vm.BW
	h.availableStorage -= vm.Size
	h.reservedMIPS += vm.RequestedMIPS()
	h.vms = append(h.vms, vm)
	vm.host = h
	vm.HostID = optional.NewInt(h.ID)
	h.recomputeAllocation()
}

// release removes vm from the host and returns its capacities.
func (h *Host) release(vm *Vm) {
	idx := -1
	for i, v := range h.vms {
		if v == vm {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	h.vms = append(h.vms[:idx], h.vms[idx+1:]...)
	h.availableRAM += vm.RAM
	h.availableBW += vm.BW
	h.availableStorage += vm.Size
	h.reservedMIPS -= vm.RequestedMIPS()
	delete(h.allocated, vm.ID)
	vm.host = nil
	vm.HostID = optional.Int{}
	h.recomputeAllocation()
}

// recomputeAllocation asks the host scheduler to split TotalMIPS among the
// resident VMs' requests.
func (h *Host) recomputeAllocation() {
	requests := make([]float64, len(h.vms))
	for i, vm := range h.vms {
		requests[i] = vm.RequestedMIPS()
	}
	grants := h.scheduler.Allocate(h.TotalMIPS(), requests)
	for i, vm := range h.vms {
		h.allocated[vm.ID] = grants[i]
	}
}

func (h *Host) String() string {
	return fmt.Sprintf("Host(ID: %d, PEs: %d, MIPS: %.0f, RAM: %d, BW: %d, Storage: %d, VMs: %d)",
		h.ID, len(h.pes), h.TotalMIPS(), h.ram, h.bw, h.storage, len(h.vms))
}
