package sim

import (
	"fmt"
	"strings"
)

// AllocationPolicy chooses the host for a VM and reserves its demand there.
// Allocate returns an error wrapping ErrAllocationFailure when no host
// qualifies; the VM then stays unplaced and is never retried.
type AllocationPolicy interface {
	Allocate(vm *Vm, hosts []*Host) (*Host, error)
	Deallocate(vm *Vm)
}

// FirstFitAllocation places a VM on the first host, in host-list order, with
// enough unused PE capacity, RAM, BW and storage.
//
// With Oversubscribe set, the PE capacity check is skipped: hosts may accept
// more requested MIPS than they have and the host scheduler divides capacity
// proportionally. RAM, BW and storage are always enforced.
type FirstFitAllocation struct {
	Oversubscribe bool
}

func (p *FirstFitAllocation) Allocate(vm *Vm, hosts []*Host) (*Host, error) {
	if len(hosts) == 0 {
		return nil, &AllocationError{VMID: vm.ID, Reason: "no hosts"}
	}
	reasons := make([]string, 0, len(hosts))
	for _, h := range hosts {
		ok, why := h.fits(vm, !p.Oversubscribe)
		if ok {
			h.reserve(vm)
			return h, nil
		}
		reasons = append(reasons, fmt.Sprintf("host %d: %s", h.ID, why))
	}
	return nil, &AllocationError{VMID: vm.ID, Reason: strings.Join(reasons, "; ")}
}

func (p *FirstFitAllocation) Deallocate(vm *Vm) {
	if h := vm.Host(); h != nil {
		h.release(vm)
	}
}

// NewAllocationPolicy creates an allocation policy by name.
// Valid names are defined in ValidAllocationPolicies (bundle.go).
// Empty string defaults to first-fit.
// Panics on unrecognized names.
func NewAllocationPolicy(name string) AllocationPolicy {
	if !IsValidAllocationPolicy(name) {
		panic(fmt.Sprintf("unknown allocation policy %q", name))
	}
	switch name {
	case "", "first-fit":
		return &FirstFitAllocation{}
	case "first-fit-oversubscribe":
		return &FirstFitAllocation{Oversubscribe: true}
	default:
		panic(fmt.Sprintf("unhandled allocation policy %q", name))
	}
}
