// Aggregates per-task results into run-level statistics for reporting.

package sim

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Distribution captures a statistical summary of a per-task metric.
type Distribution struct {
	Mean  float64 `json:"mean"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// NewDistribution computes a Distribution from raw values. Percentiles use
// the empirical CDF. Returns a zero-value Distribution for empty input.
func NewDistribution(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return Distribution{
		Mean:  stat.Mean(sorted, nil),
		P50:   stat.Quantile(0.50, stat.Empirical, sorted, nil),
		P95:   stat.Quantile(0.95, stat.Empirical, sorted, nil),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
		Count: len(sorted),
	}
}

// Summary aggregates a run's outcome.
type Summary struct {
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Unfinished int `json:"unfinished"`

	// Makespan is the latest finish time among completed tasks.
	Makespan float64 `json:"makespan"`
	// ExecutionTime is finish − start over completed tasks.
	ExecutionTime Distribution `json:"execution_time"`
	// Waiting is start − submission over completed tasks.
	Waiting Distribution `json:"waiting"`

	CompletedPerVM map[int]int `json:"completed_per_vm"`
}

// Summarize computes a Summary from completed tasks (any order) and the
// failed and unfinished counts.
func Summarize(completed []*Task, failed, unfinished int) Summary {
	s := Summary{
		Completed:      len(completed),
		Failed:         failed,
		Unfinished:     unfinished,
		CompletedPerVM: make(map[int]int),
	}
	exec := make([]float64, 0, len(completed))
	wait := make([]float64, 0, len(completed))
	for _, t := range completed {
		exec = append(exec, t.ExecutionTime())
		wait = append(wait, t.ExecStartTime-t.SubmissionTime)
		if t.FinishTime > s.Makespan {
			s.Makespan = t.FinishTime
		}
		if id, err := t.VMID.Get(); err == nil {
			s.CompletedPerVM[id]++
		}
	}
	s.ExecutionTime = NewDistribution(exec)
	s.Waiting = NewDistribution(wait)
	return s
}
