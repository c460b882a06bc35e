// Defines the Task struct that models a unit of work (cloudlet) in the simulation.
// Tracks length, progress, binding and the timestamps used for result reporting.

package sim

import (
	"fmt"
	"math"

	"github.com/markphelps/optional"
)

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

const (
	TaskCreated   TaskStatus = "CREATED"
	TaskQueued    TaskStatus = "QUEUED"
	TaskExecuting TaskStatus = "EXECUTING"
	TaskSuccess   TaskStatus = "SUCCESS"
	TaskFailed    TaskStatus = "FAILED"
)

// lengthTolerance is the remaining length (MI) below which a task counts as done.
const lengthTolerance = 1e-6

// Task models a single unit of work and its lifecycle.
// Status moves CREATED → QUEUED → EXECUTING → SUCCESS, or to FAILED when the
// task can never run. A task is immutable once SUCCESS.
type Task struct {
	ID         int
	Length     float64 // million instructions
	PEs        int
	FileSize   int64
	OutputSize int64

	// Constant utilization fractions in (0,1], carried for reporting. Progress
	// follows the time-shared share alone.
	UtilizationCPU float64
	UtilizationRAM float64
	UtilizationBW  float64

	// Priority is an optional tag; higher is more urgent and absence is lowest.
	Priority optional.Int

	Status   TaskStatus
	VMID     optional.Int // explicit binding if set before submission
	HostID   optional.Int // host of the VM the task ran on
	BrokerID int

	SubmissionTime    float64
	ExecStartTime     float64
	FinishTime        float64
	AccumulatedLength float64

	FailureReason error

	lastUpdate float64 // clock at which AccumulatedLength was last advanced
}

// NewTask creates a task in CREATED state with full utilization.
func NewTask(id int, length float64, pes int, fileSize, outputSize int64) *Task {
	return &Task{
		ID:             id,
		Length:         length,
		PEs:            pes,
		FileSize:       fileSize,
		OutputSize:     outputSize,
		UtilizationCPU: 1.0,
		UtilizationRAM: 1.0,
		UtilizationBW:  1.0,
		Status:         TaskCreated,
	}
}

// WithPriority tags the task with a priority and returns it.
func (t *Task) WithPriority(p int) *Task {
	t.Priority = optional.NewInt(p)
	return t
}

// EffectivePriority returns the priority tag, or math.MinInt when untagged.
func (t *Task) EffectivePriority() int {
	return t.Priority.OrElse(math.MinInt)
}

// Remaining returns the length still to be executed.
func (t *Task) Remaining() float64 {
	return math.Max(0, t.Length-t.AccumulatedLength)
}

// ExecutionTime is the wall time spent executing (finish − start).
func (t *Task) ExecutionTime() float64 {
	if t.Status != TaskSuccess {
		return 0
	}
	return t.FinishTime - t.ExecStartTime
}

// Done reports whether the task reached a terminal state.
func (t *Task) Done() bool {
	return t.Status == TaskSuccess || t.Status == TaskFailed
}

func (t *Task) fail(now float64, reason error) {
	t.Status = TaskFailed
	t.FailureReason = reason
	t.FinishTime = now
}

// String returns a human-readable summary of the task.
func (t *Task) String() string {
	return fmt.Sprintf("Task: (ID: %d, Status: %s, Length: %.0f, Accumulated: %.2f, Priority: %s)",
		t.ID, t.Status, t.Length, t.AccumulatedLength, PriorityLabel(t.Priority))
}
