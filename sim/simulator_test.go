package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcsim/dcsim/sim/trace"
)

const timeTol = 1e-6

// TestSimulator_TwoTasksShareOneVM verifies the VM-level fair share:
// GIVEN one 1000 MIPS host, one 1000 MIPS VM and two 1500 MI tasks
// WHEN the simulation runs
// THEN each task gets 500 MIPS and both finish at t=3 in submission order
func TestSimulator_TwoTasksShareOneVM(t *testing.T) {
	tasks := []*Task{testTask(0, 1500), testTask(1, 1500)}
	s := newTestSimulator(t, []*Host{mustHost(t, 0, 1, 1000)}, []*Vm{testVM(0, 1000)}, tasks, "fifo", "none", 0)

	report := s.Run()

	require.Len(t, report.Completed, 2)
	assert.Equal(t, []int{0, 1}, report.CompletedIDs())
	for _, r := range report.Completed {
		assert.Equal(t, TaskSuccess, r.Status)
		assert.InDelta(t, 0, r.StartTime, timeTol)
		assert.InDelta(t, 3, r.FinishTime, timeTol)
		assert.InDelta(t, 3, r.ExecutionTime, timeTol)
		assert.Equal(t, 0, r.HostID)
		assert.Equal(t, 0, r.VMID)
	}
	assert.InDelta(t, 3, report.Clock, timeTol)
	assert.Empty(t, report.Failed)
	assert.Empty(t, report.Unfinished)
}

// TestSimulator_FullCapacityVMSplitsEvenly verifies the a/k split on a VM that owns the whole host:
// GIVEN one 2000 MIPS PE, one 2000 MIPS VM and two 3000 MI tasks
// WHEN the simulation runs
// THEN each task runs at 1000 MIPS and both finish at t=3
func TestSimulator_FullCapacityVMSplitsEvenly(t *testing.T) {
	tasks := []*Task{testTask(0, 3000), testTask(1, 3000)}
	s := newTestSimulator(t, []*Host{mustHost(t, 0, 1, 2000)}, []*Vm{testVM(0, 2000)}, tasks, "fifo", "none", 0)

	report := s.Run()

	require.Len(t, report.Completed, 2)
	assert.Equal(t, []int{0, 1}, report.CompletedIDs())
	for _, r := range report.Completed {
		assert.InDelta(t, 3, r.FinishTime, timeTol, "task %d", r.ID)
	}
	for _, c := range s.Trace.Capacity {
		if c.TasksPerVM[0] == 2 {
			assert.InDelta(t, 2000, c.PerVM[0], 1e-9)
			assert.InDelta(t, 1000, c.TaskShares[0], 1e-9)
			assert.InDelta(t, 1000, c.TaskShares[1], 1e-9)
		}
	}
}

// TestSimulator_PriorityAdmission runs the five-task priority scenario:
// GIVEN a 2x1000 MIPS host, two 1000 MIPS VMs and tasks [L,H,M,H,L]
// WHEN tasks are admitted by priority and bound round-robin
// THEN submission order is [1,3,2,0,4] and completions follow the fair-share timeline
func TestSimulator_PriorityAdmission(t *testing.T) {
	s := newTestSimulator(t, []*Host{mustHost(t, 0, 2, 1000)},
		[]*Vm{testVM(0, 1000), testVM(1, 1000)}, exp1Tasks(), "priority", "none", 0)

	report := s.Run()

	assert.Equal(t, []int{1, 3, 2, 0, 4}, report.SubmissionOrder)
	assert.Equal(t, []int{3, 0, 1, 2, 4}, report.CompletedIDs())

	want := map[int]struct {
		vm     int
		finish float64
	}{
		3: {1, 12}, 0: {1, 16}, 1: {0, 24}, 2: {0, 32}, 4: {0, 35},
	}
	for _, r := range report.Completed {
		w := want[r.ID]
		assert.Equal(t, w.vm, r.VMID, "task %d", r.ID)
		assert.InDelta(t, w.finish, r.FinishTime, timeTol, "task %d", r.ID)
		assert.InDelta(t, w.finish, r.ExecutionTime, timeTol, "task %d", r.ID)
	}
	assert.Equal(t, "HIGH", report.Completed[0].Priority)
	assert.InDelta(t, 35, report.Summary.Makespan, timeTol)
	assert.Equal(t, map[int]int{0: 3, 1: 2}, report.Summary.CompletedPerVM)
	assert.Equal(t, 2, report.VMsCreated)
	assert.Empty(t, report.ProvisionedVMs)

	// Trace: one placement per VM, admissions in submission order.
	require.NotNil(t, s.Trace)
	assert.Len(t, s.Trace.Placements, 2)
	require.Len(t, s.Trace.Admissions, 5)
	for i, a := range s.Trace.Admissions {
		assert.Equal(t, i, a.Position)
		assert.Equal(t, report.SubmissionOrder[i], a.TaskID)
		assert.True(t, a.HasPriority)
	}
}

// TestSimulator_ThresholdProvisioning runs the six-task provisioning scenario:
// GIVEN one 2000 MIPS host, one baseline VM, six 4000 MI tasks and threshold 4
// WHEN the broker prepares the batch
// THEN exactly one VM is cloned from the baseline, both are placed, and all tasks finish at t=12
func TestSimulator_ThresholdProvisioning(t *testing.T) {
	var tasks []*Task
	for i := 0; i < 6; i++ {
		tasks = append(tasks, testTask(i, 4000))
	}
	s := newTestSimulator(t, []*Host{mustHost(t, 0, 1, 2000)}, []*Vm{testVM(0, 1000)}, tasks, "fifo", "threshold", 4)

	report := s.Run()

	assert.Equal(t, []int{1}, report.ProvisionedVMs)
	assert.Equal(t, 2, report.VMsRequested)
	assert.Equal(t, 2, report.VMsCreated)
	assert.Equal(t, []int{0, 2, 4, 1, 3, 5}, report.CompletedIDs())
	for _, r := range report.Completed {
		assert.InDelta(t, 12, r.FinishTime, timeTol, "task %d", r.ID)
	}

	clone := s.Broker.ProvisionedVMs()[0]
	assert.Equal(t, 1000.0, clone.MIPS)
	assert.Equal(t, int64(512), clone.RAM)
	assert.Equal(t, "Xen", clone.VMM)

	require.Len(t, s.Trace.Provisions, 1)
	assert.Equal(t, []int{1}, s.Trace.Provisions[0].AddedVMs)
	assert.Equal(t, 6, s.Trace.Provisions[0].PendingTasks)
}

func TestSimulator_ThresholdNotExceeded_NoProvisioning(t *testing.T) {
	tasks := []*Task{testTask(0, 1000), testTask(1, 1000)}
	s := newTestSimulator(t, []*Host{mustHost(t, 0, 1, 2000)}, []*Vm{testVM(0, 1000)}, tasks, "fifo", "threshold", 4)
	report := s.Run()
	assert.Empty(t, report.ProvisionedVMs)
	assert.Equal(t, 1, report.VMsCreated)
}

func TestSimulator_Deterministic(t *testing.T) {
	run := func() *Report {
		s := newTestSimulator(t, []*Host{mustHost(t, 0, 2, 1000)},
			[]*Vm{testVM(0, 1000), testVM(1, 1000)}, exp1Tasks(), "priority", "none", 0)
		return s.Run()
	}
	a, b := run(), run()
	assert.Equal(t, a.CompletedIDs(), b.CompletedIDs())
	assert.Equal(t, a.Events, b.Events)
	for i := range a.Completed {
		assert.Equal(t, a.Completed[i].FinishTime, b.Completed[i].FinishTime)
	}
	assert.NotEqual(t, a.RunID, b.RunID)
}

// TestSimulator_PlacementFailure_TasksFailAsOrphans verifies failure propagation:
// GIVEN a 1000 MIPS host and two 1000 MIPS VMs under strict first-fit
// WHEN the second VM cannot be placed
// THEN it is reported as failed and tasks bound to it fail with both error kinds,
// while unbound tasks run on the surviving VM
func TestSimulator_PlacementFailure_TasksFailAsOrphans(t *testing.T) {
	bound := testTask(0, 1000)
	bound.VMID = optionalInt(1)
	free := testTask(1, 1000)
	s := newTestSimulator(t, []*Host{mustHost(t, 0, 1, 1000)},
		[]*Vm{testVM(0, 1000), testVM(1, 1000)}, []*Task{bound, free}, "fifo", "none", 0)

	report := s.Run()

	require.Len(t, report.FailedVMs, 1)
	assert.Equal(t, 1, report.FailedVMs[0].ID)
	assert.ErrorIs(t, report.FailedVMs[0].Err, ErrAllocationFailure)

	require.Len(t, report.Failed, 1)
	f := report.Failed[0]
	assert.Equal(t, 0, f.ID)
	assert.Equal(t, 1, f.VMID)
	assert.ErrorIs(t, f.Err, ErrOrphanTaskSubmission)
	assert.ErrorIs(t, f.Err, ErrAllocationFailure)
	assert.Equal(t, TaskFailed, bound.Status)

	assert.Equal(t, []int{1}, report.CompletedIDs())
	assert.Equal(t, 0, report.Completed[0].VMID)
	assert.InDelta(t, 1, report.Completed[0].FinishTime, timeTol)
	assert.Equal(t, 1, report.Summary.Failed)

	require.Len(t, s.Trace.Placements, 2)
	assert.False(t, s.Trace.Placements[1].Placed)
	assert.Equal(t, -1, s.Trace.Placements[1].HostID)
}

func TestSimulator_UnknownVM_TaskFailsAsOrphan(t *testing.T) {
	task := testTask(0, 1000)
	task.VMID = optionalInt(42)
	s := newTestSimulator(t, []*Host{mustHost(t, 0, 1, 1000)}, []*Vm{testVM(0, 1000)}, []*Task{task}, "fifo", "none", 0)

	report := s.Run()

	require.Len(t, report.Failed, 1)
	assert.ErrorIs(t, report.Failed[0].Err, ErrOrphanTaskSubmission)
	assert.False(t, errors.Is(report.Failed[0].Err, ErrAllocationFailure))
	assert.Empty(t, report.Completed)
}

func TestSimulator_NoVMs_AllTasksFail(t *testing.T) {
	tasks := []*Task{testTask(0, 10), testTask(1, 10)}
	s := newTestSimulator(t, []*Host{mustHost(t, 0, 1, 1000)}, nil, tasks, "fifo", "none", 0)

	report := s.Run()

	require.Len(t, report.Failed, 2)
	for _, f := range report.Failed {
		assert.ErrorIs(t, f.Err, ErrOrphanTaskSubmission)
		assert.Equal(t, -1, f.VMID)
	}
	assert.Equal(t, 0.0, report.Clock)
}

// TestSimulator_Oversubscription_NeverExceedsCapacity verifies the host split under contention:
// GIVEN a 1000 MIPS host accepting two 1000 MIPS VMs via oversubscription
// WHEN one 1000 MI task runs on each VM
// THEN every capacity sample allocates at most the host's capacity and both finish at t=2
func TestSimulator_Oversubscription_NeverExceedsCapacity(t *testing.T) {
	host := mustHost(t, 0, 1, 1000)
	dc := NewDatacenter("dc", []*Host{host}, NewAllocationPolicy("first-fit-oversubscribe"), 0.25)
	b := NewBroker(0, "broker", nil, nil, 0)
	b.SubmitVMList([]*Vm{testVM(0, 1000), testVM(1, 1000)})
	b.SubmitTaskList([]*Task{testTask(0, 1000), testTask(1, 1000)})
	s := NewSimulatorFromParts(dc, b, 0, trace.NewSimulationTrace(trace.TraceLevelCapacity))

	report := s.Run()

	assert.Equal(t, []int{0, 1}, report.CompletedIDs())
	for _, r := range report.Completed {
		assert.InDelta(t, 2, r.FinishTime, timeTol)
	}
	require.NotEmpty(t, s.Trace.Capacity)
	for _, c := range s.Trace.Capacity {
		assert.LessOrEqual(t, c.Allocated, c.Capacity+1e-9, "t=%v", c.Clock)
	}
	summary := trace.Summarize(s.Trace)
	assert.Zero(t, summary.OversubscribedSamples)
	assert.InDelta(t, 1.0, summary.PeakUtilization[0], 1e-9)
}

func TestSimulator_PollInterval_SameOutcomeMoreEvents(t *testing.T) {
	build := func(poll float64) *Simulator {
		dc := NewDatacenter("dc", []*Host{mustHost(t, 0, 2, 1000)}, nil, poll)
		b := NewBroker(0, "broker", &PriorityAdmission{}, nil, 0)
		b.SubmitVMList([]*Vm{testVM(0, 1000), testVM(1, 1000)})
		b.SubmitTaskList(exp1Tasks())
		return NewSimulatorFromParts(dc, b, 0, nil)
	}
	exact := build(0).Run()
	polled := build(1).Run()

	assert.Equal(t, exact.CompletedIDs(), polled.CompletedIDs())
	for i := range exact.Completed {
		assert.InDelta(t, exact.Completed[i].FinishTime, polled.Completed[i].FinishTime, timeTol)
	}
	assert.Greater(t, polled.Events, exact.Events)
}

// TestSimulator_Horizon_LeavesTasksUnfinished verifies the optional horizon:
// GIVEN the priority scenario and a horizon of 20s
// WHEN the loop stops before the next update at t=24
// THEN only tasks 3 and 0 completed and the rest are reported unfinished
func TestSimulator_Horizon_LeavesTasksUnfinished(t *testing.T) {
	dc := NewDatacenter("dc", []*Host{mustHost(t, 0, 2, 1000)}, nil, 0)
	b := NewBroker(0, "broker", &PriorityAdmission{}, nil, 0)
	b.SubmitVMList([]*Vm{testVM(0, 1000), testVM(1, 1000)})
	b.SubmitTaskList(exp1Tasks())
	s := NewSimulatorFromParts(dc, b, 20, nil)

	report := s.Run()

	assert.Equal(t, []int{3, 0}, report.CompletedIDs())
	assert.LessOrEqual(t, report.Clock, 20.0)
	var unfinished []int
	for _, u := range report.Unfinished {
		unfinished = append(unfinished, u.ID)
		assert.Greater(t, u.Remaining, 0.0)
	}
	assert.Equal(t, []int{1, 2, 4}, unfinished)
	assert.Equal(t, 3, report.Summary.Unfinished)
}

func TestSimulator_Run_TwicePanics(t *testing.T) {
	s := newTestSimulator(t, []*Host{mustHost(t, 0, 1, 1000)}, []*Vm{testVM(0, 1000)}, []*Task{testTask(0, 1)}, "", "", 0)
	s.Run()
	assert.Panics(t, func() { s.Run() })
}

func TestSimulator_Run_DestroysVMs(t *testing.T) {
	host := mustHost(t, 0, 2, 1000)
	s := newTestSimulator(t, []*Host{host}, []*Vm{testVM(0, 1000), testVM(1, 1000)}, exp1Tasks(), "", "", 0)

	report := s.Run()

	require.Len(t, report.Hosts, 1)
	assert.Equal(t, []int{0, 1}, report.Hosts[0].VMs, "report captures residency before teardown")
	assert.Equal(t, 2, report.Hosts[0].PEs)
	assert.Equal(t, []*Host{host}, s.Datacenter.Hosts())
	assert.Len(t, host.PEs(), 2)
	for _, task := range s.Broker.ReceivedTasks() {
		assert.True(t, task.Done(), "task %d", task.ID)
	}
	assert.Empty(t, s.Datacenter.PlacedVMs())
	assert.Empty(t, host.ResidentVMs())
	assert.Equal(t, 2000.0, host.AvailableMIPS())
	assert.Equal(t, int64(4096), host.AvailableRAM())
	assert.Zero(t, s.Pending())
}

func TestSimulator_CapacityTrace_RecordsTaskShares(t *testing.T) {
	s := newTestSimulator(t, []*Host{mustHost(t, 0, 1, 1000)}, []*Vm{testVM(0, 1000)},
		[]*Task{testTask(0, 1500), testTask(1, 1500)}, "", "", 0)
	s.Run()

	var last trace.CapacityRecord
	for _, c := range s.Trace.Capacity {
		if c.TasksPerVM[0] == 2 {
			last = c
		}
	}
	require.Equal(t, 2, last.TasksPerVM[0])
	assert.InDelta(t, 500, last.TaskShares[0], 1e-9)
	assert.InDelta(t, 500, last.TaskShares[1], 1e-9)
	assert.InDelta(t, 1000, last.PerVM[0], 1e-9)
}

// TestSimulator_LargeLengths_Terminates verifies the loop ends when float
// rounding leaves remainders below the clock's resolution:
// GIVEN one 333 MIPS VM running three tasks of roughly 1e13, 2e13 and 3e13 MI
// WHEN the simulation runs
// THEN every task completes in length order within a bounded number of events
func TestSimulator_LargeLengths_Terminates(t *testing.T) {
	tasks := []*Task{testTask(0, 1e13), testTask(1, 2e13+0.37), testTask(2, 3e13+0.74)}
	s := newTestSimulator(t, []*Host{mustHost(t, 0, 1, 1000)}, []*Vm{testVM(0, 333)}, tasks, "fifo", "none", 0)

	report := s.Run()

	assert.Equal(t, []int{0, 1, 2}, report.CompletedIDs())
	assert.Empty(t, report.Unfinished)
	assert.Less(t, report.Events, 100)
	assert.Zero(t, s.Pending())
}

func TestSimulator_PollIntervalBelowClockResolution_Terminates(t *testing.T) {
	s := newTestSimulator(t, []*Host{mustHost(t, 0, 1, 1000)}, []*Vm{testVM(0, 1000)},
		[]*Task{testTask(0, 1000), testTask(1, 3000)}, "fifo", "none", 0)
	s.Datacenter.PollInterval = 0.5
	s.Clock = 1e17 // one float64 step here is 16s

	report := s.Run()

	assert.Equal(t, []int{0, 1}, report.CompletedIDs())
	assert.Less(t, report.Events, 50)
	assert.Greater(t, report.Clock, 1e17)
}
