package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/docker/go-units"

	"github.com/dcsim/dcsim/sim"
	"github.com/dcsim/dcsim/sim/trace"
)

// writeReport renders report as a results table or as indented JSON.
func writeReport(w io.Writer, report *sim.Report, format string) error {
	switch format {
	case "", "table":
		printReport(w, report)
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	default:
		return fmt.Errorf("unknown output format %q (want table or json)", format)
	}
}

// sizeMB renders a MB quantity the way docker prints sizes.
func sizeMB(mb int64) string {
	return units.BytesSize(float64(mb * units.MiB))
}

func printReport(w io.Writer, r *sim.Report) {
	fmt.Fprintf(w, "=== Simulation Results: %s ===\n", r.Scenario)
	fmt.Fprintf(w, "Run: %s\nPolicies: %s\n\n", r.RunID, r.Policies)

	for _, h := range r.Hosts {
		fmt.Fprintf(w, "Host %d: %d PEs, %.0f MIPS, RAM %s, storage %s, VMs %v\n",
			h.ID, h.PEs, h.TotalMIPS, sizeMB(h.RAM), sizeMB(h.Storage), h.VMs)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Task ID\tSTATUS\tHost\tVM ID\tPriority\tTime\tStart\tFinish")
	for _, c := range r.Completed {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\t%.2f\t%.2f\t%.2f\n",
			c.ID, c.Status, c.HostID, c.VMID, c.Priority, c.ExecutionTime, c.StartTime, c.FinishTime)
	}
	_ = tw.Flush()

	if len(r.Unfinished) > 0 {
		fmt.Fprintf(w, "\nUnfinished at t=%.2f:\n", r.Clock)
		for _, u := range r.Unfinished {
			fmt.Fprintf(w, "  task %d on vm %d: %.2f MI remaining\n", u.ID, u.VMID, u.Remaining)
		}
	}
	if len(r.FailedVMs) > 0 {
		fmt.Fprintln(w, "\nFailed VMs:")
		for _, f := range r.FailedVMs {
			fmt.Fprintf(w, "  vm %d: %s\n", f.ID, f.Reason)
		}
	}
	if len(r.Failed) > 0 {
		fmt.Fprintln(w, "\nFailed tasks:")
		for _, f := range r.Failed {
			fmt.Fprintf(w, "  task %d: %s\n", f.ID, f.Reason)
		}
	}

	s := r.Summary
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total VMs used      : %d (requested %d, provisioned %d)\n", r.VMsCreated, r.VMsRequested, len(r.ProvisionedVMs))
	fmt.Fprintf(w, "Total tasks executed: %d (failed %d, unfinished %d)\n", s.Completed, s.Failed, s.Unfinished)
	fmt.Fprintf(w, "Makespan            : %.2f s\n", s.Makespan)
	fmt.Fprintf(w, "Execution time      : mean %.2f, p50 %.2f, p95 %.2f, max %.2f s\n",
		s.ExecutionTime.Mean, s.ExecutionTime.P50, s.ExecutionTime.P95, s.ExecutionTime.Max)
	fmt.Fprintf(w, "Waiting time        : mean %.2f s\n", s.Waiting.Mean)
}

func printTraceSummary(w io.Writer, ts *trace.TraceSummary) {
	fmt.Fprintln(w, "\n=== Trace Summary ===")
	fmt.Fprintf(w, "Placements          : %d (failed %d)\n", ts.Placements, ts.PlacementFailures)
	fmt.Fprintf(w, "Provisioned VMs     : %d\n", ts.ProvisionedVMs)
	fmt.Fprintf(w, "Admissions          : %d\n", ts.Admissions)
	if ts.CapacitySamples > 0 {
		fmt.Fprintf(w, "Capacity samples    : %d (oversubscribed %d)\n", ts.CapacitySamples, ts.OversubscribedSamples)
		hosts := make([]string, 0, len(ts.PeakUtilization))
		ids := make([]int, 0, len(ts.PeakUtilization))
		for id := range ts.PeakUtilization {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		for _, id := range ids {
			hosts = append(hosts, fmt.Sprintf("host %d %.0f%%", id, ts.PeakUtilization[id]*100))
		}
		fmt.Fprintf(w, "Peak utilization    : %s\n", strings.Join(hosts, ", "))
	}
}
