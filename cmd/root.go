package cmd

import (
	"errors"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dcsim/dcsim/sim"
	"github.com/dcsim/dcsim/sim/trace"
)

var (
	// Scenario source
	configPath       string // Scenario YAML file
	preset           string // Preset name in defaults.yaml
	defaultsFilePath string // Path to defaults.yaml

	// Overrides, applied only when the flag is set explicitly
	allocationPolicy   string  // Allocation policy name
	admissionOrdering  string  // Admission ordering name
	provisioningPolicy string  // Provisioning policy name
	threshold          int     // Provisioning threshold (pending tasks)
	pollInterval       float64 // Capacity update poll interval (seconds)
	simulationHorizon  float64 // Simulation horizon (seconds, 0 = unbounded)

	// Output
	traceLevel   string // Decision trace level
	outputFormat string // Report format
	logLevel     string // Log verbosity level
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "dcsim",
	Short: "Discrete-event simulator for datacenter VM and task scheduling",
}

// setupLogging applies the --log flag.
func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// resolveScenario loads the scenario named by --config or --preset and applies
// the overrides the user set explicitly. Unset flags never overwrite file values.
func resolveScenario(cmd *cobra.Command) (*sim.ScenarioConfig, error) {
	var (
		cfg *sim.ScenarioConfig
		err error
	)
	switch {
	case configPath != "" && preset != "":
		return nil, errors.New("--config and --preset are mutually exclusive")
	case configPath != "":
		cfg, err = sim.LoadScenario(configPath)
	case preset != "":
		cfg, err = loadPreset(defaultsFilePath, preset)
	default:
		return nil, errors.New("one of --config or --preset is required")
	}
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("allocation") {
		cfg.Policies.Allocation = allocationPolicy
	}
	if flags.Changed("admission") {
		cfg.Policies.Admission = admissionOrdering
	}
	if flags.Changed("provisioning") {
		cfg.Policies.Provisioning = provisioningPolicy
	}
	if flags.Changed("threshold") {
		v := threshold
		cfg.Policies.Threshold = &v
	}
	if flags.Changed("poll-interval") {
		cfg.Datacenter.PollInterval = pollInterval
	}
	if flags.Changed("horizon") {
		cfg.Datacenter.Horizon = simulationHorizon
	}
	return cfg, nil
}

// runCmd executes one simulation and prints its report
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a datacenter simulation",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Unknown trace level %q (want none, decisions or capacity)", traceLevel)
		}
		cfg, err := resolveScenario(cmd)
		if err != nil {
			logrus.Fatalf("Unable to load scenario: %v", err)
		}

		s, err := sim.NewSimulator(cfg, trace.TraceLevel(traceLevel))
		if err != nil {
			logrus.Fatalf("Invalid scenario: %v", err)
		}

		startTime := time.Now()
		report := s.Run()
		logrus.Infof("Simulation complete in %v (simulated %.4fs, %d events)", time.Since(startTime), report.Clock, report.Events)

		if err := writeReport(os.Stdout, report, outputFormat); err != nil {
			logrus.Fatalf("Unable to write report: %v", err)
		}
		if s.Trace != nil && outputFormat != "json" {
			printTraceSummary(os.Stdout, trace.Summarize(s.Trace))
		}
	},
}

// validateCmd loads and validates a scenario without running it
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a scenario without running it",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		cfg, err := resolveScenario(cmd)
		if err != nil {
			logrus.Fatalf("Unable to load scenario: %v", err)
		}
		if err := cfg.Validate(); err != nil {
			logrus.Fatalf("Invalid scenario: %v", err)
		}
		hosts, err := cfg.Datacenter.BuildHosts()
		if err != nil {
			logrus.Fatalf("Invalid scenario: %v", err)
		}
		cmd.Printf("scenario %q is valid: %d hosts, %d VMs, %d tasks (%s)\n",
			cfg.Name, len(hosts), len(cfg.BuildVMs(0)), len(cfg.BuildTasks()), cfg.Policies.Describe())
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// registerScenarioFlags adds the scenario source and override flags to c.
func registerScenarioFlags(c *cobra.Command) {
	c.Flags().StringVar(&configPath, "config", "", "Scenario YAML file")
	c.Flags().StringVar(&preset, "preset", "", "Preset scenario name from the defaults file")
	c.Flags().StringVar(&defaultsFilePath, "defaults", "defaults.yaml", "Path to the presets file")
	c.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	c.Flags().StringVar(&allocationPolicy, "allocation", "first-fit", "VM allocation policy (first-fit, first-fit-oversubscribe)")
	c.Flags().StringVar(&admissionOrdering, "admission", "fifo", "Task admission ordering (fifo, priority)")
	c.Flags().StringVar(&provisioningPolicy, "provisioning", "none", "VM provisioning policy (none, threshold)")
	c.Flags().IntVar(&threshold, "threshold", 4, "Pending-task threshold for the threshold provisioning policy")
	c.Flags().Float64Var(&pollInterval, "poll-interval", 0, "Capacity update poll interval in seconds (0 = completions only)")
	c.Flags().Float64Var(&simulationHorizon, "horizon", 0, "Simulation horizon in seconds (0 = unbounded)")
}

// init sets up CLI flags and subcommands
func init() {
	registerScenarioFlags(runCmd)
	runCmd.Flags().StringVar(&traceLevel, "trace-level", "none", "Decision trace level (none, decisions, capacity)")
	runCmd.Flags().StringVar(&outputFormat, "output", "table", "Report format (table, json)")

	registerScenarioFlags(compareCmd)
	registerScenarioFlags(validateCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(validateCmd)
}
