package sim

// HostScheduler splits a host's aggregate PE capacity among its resident VMs.
// Allocate receives the VMs' requests in residency order and returns the
// grants in the same order. Implementations must never grant more than
// capacity in total.
type HostScheduler interface {
	Allocate(capacity float64, requests []float64) []float64
}

// TimeSharedHostScheduler grants every request in full when they fit, and
// otherwise divides capacity in proportion to the requests, so no VM starves.
type TimeSharedHostScheduler struct{}

func (s *TimeSharedHostScheduler) Allocate(capacity float64, requests []float64) []float64 {
	grants := make([]float64, len(requests))
	total := 0.0
	for _, r := range requests {
		total += r
	}
	if total <= capacity {
		copy(grants, requests)
		return grants
	}
	for i, r := range requests {
		grants[i] = capacity * r / total
	}
	return grants
}
