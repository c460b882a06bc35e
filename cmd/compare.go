package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dcsim/dcsim/sim"
	"github.com/dcsim/dcsim/sim/trace"
)

// variant is one policy configuration of a comparison.
type variant struct {
	Label  string
	Config sim.ScenarioConfig
	Report *sim.Report
}

// compareVariants derives the priority-admission and threshold-provisioning
// variants of cfg. The threshold falls back to the --threshold flag value.
func compareVariants(cfg *sim.ScenarioConfig, defaultThreshold int) []*variant {
	th := defaultThreshold
	if cfg.Policies.Threshold != nil {
		th = *cfg.Policies.Threshold
	}

	prio := *cfg
	prio.Policies = sim.PolicyBundle{Allocation: cfg.Policies.Allocation, Admission: "priority", Provisioning: "none"}

	prov := *cfg
	prov.Policies = sim.PolicyBundle{Allocation: cfg.Policies.Allocation, Admission: "fifo", Provisioning: "threshold", Threshold: &th}

	return []*variant{
		{Label: "priority-admission", Config: prio},
		{Label: "threshold-provisioning", Config: prov},
	}
}

// runVariants runs every variant on its own simulator concurrently.
// Simulators share no state, so each goroutine owns one run end to end.
func runVariants(variants []*variant) error {
	var g errgroup.Group
	for _, v := range variants {
		v := v
		g.Go(func() error {
			s, err := sim.NewSimulator(&v.Config, trace.TraceLevelNone)
			if err != nil {
				return fmt.Errorf("%s: %w", v.Label, err)
			}
			v.Report = s.Run()
			return nil
		})
	}
	return g.Wait()
}

func printComparison(w io.Writer, variants []*variant) {
	fmt.Fprintln(w, "=== Policy Comparison ===")
	fmt.Fprintf(w, "%-24s %8s %8s %10s %10s %10s %10s\n", "variant", "VMs", "tasks", "makespan", "exec mean", "exec p95", "wait mean")
	for _, v := range variants {
		s := v.Report.Summary
		fmt.Fprintf(w, "%-24s %8d %8d %10.2f %10.2f %10.2f %10.2f\n",
			v.Label, v.Report.VMsCreated, s.Completed, s.Makespan, s.ExecutionTime.Mean, s.ExecutionTime.P95, s.Waiting.Mean)
	}
}

// compareCmd runs one scenario under both broker strategies side by side
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare priority admission against threshold provisioning on one scenario",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		cfg, err := resolveScenario(cmd)
		if err != nil {
			logrus.Fatalf("Unable to load scenario: %v", err)
		}
		variants := compareVariants(cfg, threshold)
		if err := runVariants(variants); err != nil {
			logrus.Fatalf("Comparison failed: %v", err)
		}
		printComparison(os.Stdout, variants)
	},
}
