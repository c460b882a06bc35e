package sim

import (
	"testing"

	"github.com/markphelps/optional"
	"github.com/stretchr/testify/require"

	"github.com/dcsim/dcsim/sim/trace"
)

// mustHost builds a host with pes PEs of mips each and generous RAM/BW/storage.
func mustHost(t *testing.T, id, pes int, mips float64) *Host {
	t.Helper()
	list := make([]*ProcessingElement, pes)
	for i := range list {
		pe, err := NewProcessingElement(i, mips)
		require.NoError(t, err)
		list[i] = pe
	}
	h, err := NewHost(id, list, 4096, 10000, 1_000_000, nil)
	require.NoError(t, err)
	return h
}

// testVM returns an unplaced single-PE VM with the profile used across tests.
func testVM(id int, mips float64) *Vm {
	return NewVm(id, 0, mips, 1, 512, 1000, 10000, "Xen")
}

func testTask(id int, length float64) *Task {
	return NewTask(id, length, 1, 300, 300)
}

// newTestSimulator wires hosts, VMs and tasks into a simulator with full tracing.
func newTestSimulator(t *testing.T, hosts []*Host, vms []*Vm, tasks []*Task, admission, provisioning string, threshold int) *Simulator {
	t.Helper()
	dc := NewDatacenter("dc", hosts, NewAllocationPolicy("first-fit"), 0)
	b := NewBroker(0, "broker", NewAdmissionOrdering(admission), NewProvisioningPolicy(provisioning), threshold)
	b.SubmitVMList(vms)
	b.SubmitTaskList(tasks)
	return NewSimulatorFromParts(dc, b, 0, trace.NewSimulationTrace(trace.TraceLevelCapacity))
}

// exp1Tasks are the five tasks of the priority admission scenario, in caller order.
func exp1Tasks() []*Task {
	return []*Task{
		testTask(0, 10000).WithPriority(PriorityLow),
		testTask(1, 8000).WithPriority(PriorityHigh),
		testTask(2, 12000).WithPriority(PriorityMedium),
		testTask(3, 6000).WithPriority(PriorityHigh),
		testTask(4, 15000).WithPriority(PriorityLow),
	}
}

func taskIDs(tasks []*Task) []int {
	ids := make([]int, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}

func optionalInt(v int) optional.Int { return optional.NewInt(v) }
