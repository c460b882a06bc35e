package sim

import (
	"fmt"
	"sort"
)

// AdmissionOrdering decides the order in which the broker hands tasks to the
// datacenter. It only front-loads submission: once several tasks share a VM
// they run concurrently regardless of the order they were admitted in.
// Implementations return a new slice and leave the input untouched.
type AdmissionOrdering interface {
	Order(tasks []*Task) []*Task
}

// FIFOAdmission preserves the caller's order.
type FIFOAdmission struct{}

func (f *FIFOAdmission) Order(tasks []*Task) []*Task {
	return append([]*Task(nil), tasks...)
}

// PriorityAdmission sorts tasks by priority, descending. The sort is stable:
// equal priorities keep their original relative order. Untagged tasks sort last.
type PriorityAdmission struct{}

func (p *PriorityAdmission) Order(tasks []*Task) []*Task {
	out := append([]*Task(nil), tasks...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EffectivePriority() > out[j].EffectivePriority()
	})
	return out
}

// NewAdmissionOrdering creates an admission ordering by name.
// Valid names are defined in ValidAdmissionOrderings (bundle.go).
// Empty string defaults to FIFOAdmission.
// Panics on unrecognized names.
func NewAdmissionOrdering(name string) AdmissionOrdering {
	if !IsValidAdmissionOrdering(name) {
		panic(fmt.Sprintf("unknown admission ordering %q", name))
	}
	switch name {
	case "", "fifo":
		return &FIFOAdmission{}
	case "priority":
		return &PriorityAdmission{}
	default:
		panic(fmt.Sprintf("unhandled admission ordering %q", name))
	}
}
