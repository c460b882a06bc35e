package sim

import "github.com/google/uuid"

// TaskResult is the outcome of a completed task.
type TaskResult struct {
	ID             int        `json:"id"`
	Status         TaskStatus `json:"status"`
	HostID         int        `json:"host_id"`
	VMID           int        `json:"vm_id"`
	Priority       string     `json:"priority"`
	Length         float64    `json:"length"`
	UtilizationCPU float64    `json:"utilization_cpu"`
	SubmissionTime float64    `json:"submission_time"`
	StartTime      float64    `json:"start_time"`
	FinishTime     float64    `json:"finish_time"`
	ExecutionTime  float64    `json:"execution_time"`
}

// TaskFailure records a task that could never run. VMID is -1 when the task
// was never bound to a VM.
type TaskFailure struct {
	ID     int    `json:"id"`
	VMID   int    `json:"vm_id"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// VMFailure records a VM that no host could accept.
type VMFailure struct {
	ID     int    `json:"id"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// UnfinishedTask is a submitted task that had not finished when the loop stopped at the horizon.
type UnfinishedTask struct {
	ID          int     `json:"id"`
	VMID        int     `json:"vm_id"`
	Accumulated float64 `json:"accumulated"`
	Remaining   float64 `json:"remaining"`
}

// HostSummary describes a host and the VMs resident on it when the loop stopped.
type HostSummary struct {
	ID        int     `json:"id"`
	PEs       int     `json:"pes"`
	TotalMIPS float64 `json:"total_mips"`
	Allocated float64 `json:"allocated_mips"`
	RAM       int64   `json:"ram_mb"`
	Storage   int64   `json:"storage_mb"`
	VMs       []int   `json:"vms"`
}

// Report is everything a run produced. Failures are listed, never dropped.
type Report struct {
	RunID    string  `json:"run_id"`
	Scenario string  `json:"scenario"`
	Policies string  `json:"policies"`
	Clock    float64 `json:"clock"`
	Events   int     `json:"events"`

	VMsRequested   int   `json:"vms_requested"`
	VMsCreated     int   `json:"vms_created"`
	ProvisionedVMs []int `json:"provisioned_vms"`

	Hosts           []HostSummary    `json:"hosts"`
	SubmissionOrder []int            `json:"submission_order"`
	Completed       []TaskResult     `json:"completed"` // completion order
	Unfinished      []UnfinishedTask `json:"unfinished"`
	Failed          []TaskFailure    `json:"failed"`
	FailedVMs       []VMFailure      `json:"failed_vms"`

	Summary Summary `json:"summary"`
}

// CompletedIDs returns task IDs in completion order.
func (r *Report) CompletedIDs() []int {
	ids := make([]int, len(r.Completed))
	for i, c := range r.Completed {
		ids[i] = c.ID
	}
	return ids
}

// report snapshots the broker's view of the run. It must run before the
// datacenter shuts down so residency and unfinished progress are still visible.
func (b *Broker) report(sim *Simulator) *Report {
	r := &Report{
		RunID:          uuid.NewString(),
		Scenario:       sim.Scenario,
		Policies:       sim.Policies,
		Clock:          sim.Clock,
		Events:         sim.EventCount,
		VMsRequested:   len(b.vms),
		VMsCreated:     len(b.created),
		ProvisionedVMs: make([]int, 0, len(b.provisioned)),
	}
	for _, vm := range b.provisioned {
		r.ProvisionedVMs = append(r.ProvisionedVMs, vm.ID)
	}
	for _, h := range sim.Datacenter.Hosts() {
		hs := HostSummary{
			ID:        h.ID,
			PEs:       len(h.PEs()),
			TotalMIPS: h.TotalMIPS(),
			Allocated: h.TotalAllocatedMIPS(),
			RAM:       h.ram,
			Storage:   h.storage,
			VMs:       []int{},
		}
		for _, vm := range h.vms {
			hs.VMs = append(hs.VMs, vm.ID)
		}
		r.Hosts = append(r.Hosts, hs)
	}
	for _, t := range b.submitted {
		r.SubmissionOrder = append(r.SubmissionOrder, t.ID)
		if !t.Done() {
			r.Unfinished = append(r.Unfinished, UnfinishedTask{
				ID:          t.ID,
				VMID:        t.VMID.OrElse(-1),
				Accumulated: t.AccumulatedLength,
				Remaining:   t.Remaining(),
			})
		}
	}
	for _, t := range b.received {
		r.Completed = append(r.Completed, TaskResult{
			ID:             t.ID,
			Status:         t.Status,
			HostID:         t.HostID.OrElse(-1),
			VMID:           t.VMID.OrElse(-1),
			Priority:       PriorityLabel(t.Priority),
			Length:         t.Length,
			UtilizationCPU: t.UtilizationCPU,
			SubmissionTime: t.SubmissionTime,
			StartTime:      t.ExecStartTime,
			FinishTime:     t.FinishTime,
			ExecutionTime:  t.ExecutionTime(),
		})
	}
	for _, t := range b.failed {
		r.Failed = append(r.Failed, TaskFailure{ID: t.ID, VMID: t.VMID.OrElse(-1), Reason: t.FailureReason.Error(), Err: t.FailureReason})
	}
	for _, vm := range b.failedVMs {
		r.FailedVMs = append(r.FailedVMs, VMFailure{ID: vm.ID, Reason: vm.failure.Error(), Err: vm.failure})
	}
	r.Summary = Summarize(b.received, len(b.failed), len(r.Unfinished))
	return r
}
