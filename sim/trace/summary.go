package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	Placements        int
	PlacementFailures int
	ProvisionedVMs    int
	Admissions        int
	CapacitySamples   int
	// OversubscribedSamples counts samples whose allocation exceeded capacity.
	// It must stay zero for any correct host scheduler.
	OversubscribedSamples int
	PeakUtilization       map[int]float64 // host ID → max allocated/capacity
	HostDistribution      map[int]int     // host ID → count of VMs placed
}

// tolerance absorbs float rounding in allocated-vs-capacity comparisons.
const tolerance = 1e-9

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		PeakUtilization:  make(map[int]float64),
		HostDistribution: make(map[int]int),
	}
	if st == nil {
		return summary
	}

	for _, p := range st.Placements {
		if p.Placed {
			summary.Placements++
			summary.HostDistribution[p.HostID]++
		} else {
			summary.PlacementFailures++
		}
	}
	for _, p := range st.Provisions {
		summary.ProvisionedVMs += len(p.AddedVMs)
	}
	summary.Admissions = len(st.Admissions)

	summary.CapacitySamples = len(st.Capacity)
	for _, c := range st.Capacity {
		if c.Allocated > c.Capacity*(1+tolerance) {
			summary.OversubscribedSamples++
		}
		if c.Capacity > 0 {
			util := c.Allocated / c.Capacity
			if util > summary.PeakUtilization[c.HostID] {
				summary.PeakUtilization[c.HostID] = util
			}
		}
	}
	return summary
}
