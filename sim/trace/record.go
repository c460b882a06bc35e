// Package trace provides decision-trace recording for datacenter simulations.
// This package has no dependencies on sim/: it stores pure data types.
package trace

// PlacementRecord captures a single VM placement decision.
type PlacementRecord struct {
	VMID   int
	Clock  float64
	HostID int // -1 when placement failed
	Placed bool
	Reason string
}

// AdmissionRecord captures a task's position in the submission order.
type AdmissionRecord struct {
	TaskID      int
	Position    int
	Priority    int
	HasPriority bool
	Clock       float64
}

// ProvisionRecord captures the one-shot provisioning decision of a batch.
type ProvisionRecord struct {
	Clock        float64
	PendingTasks int
	Threshold    int
	AddedVMs     []int
	Reason       string
}

// CapacityRecord samples a host's capacity split after a recompute.
type CapacityRecord struct {
	Clock      float64
	HostID     int
	Capacity   float64
	Allocated  float64         // sum of PerVM
	PerVM      map[int]float64 // vm ID -> allocated MIPS
	TaskShares map[int]float64 // task ID -> instantaneous share
	TasksPerVM map[int]int     // vm ID -> executing task count
}
