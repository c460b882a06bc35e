package cmd

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcsim/dcsim/internal/testutil"
)

const cliScenario = `
name: cli
datacenter:
  poll_interval: 2
  hosts:
    - {pes: 1, pe_mips: 1000, ram: 1024, bw: 1000, storage: 10000}
policies:
  admission: fifo
vms:
  - {mips: 1000, pes: 1, ram: 256, bw: 10, size: 100}
tasks:
  - {length: 1000, pes: 1}
`

func newScenarioCmd(t *testing.T, args map[string]string) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "test"}
	registerScenarioFlags(c)
	for name, value := range args {
		require.NoError(t, c.Flags().Set(name, value))
	}
	return c
}

// TestResolveScenario_OnlyChangedFlagsOverride verifies flag precedence:
// GIVEN a scenario file with poll_interval 2 and fifo admission
// WHEN only --admission is set on the command line
// THEN admission is overridden and every other file value is kept
func TestResolveScenario_OnlyChangedFlagsOverride(t *testing.T) {
	path := testutil.WriteTempYAML(t, cliScenario)
	c := newScenarioCmd(t, map[string]string{"config": path, "admission": "priority"})

	cfg, err := resolveScenario(c)
	require.NoError(t, err)

	assert.Equal(t, "priority", cfg.Policies.Admission)
	assert.Equal(t, 2.0, cfg.Datacenter.PollInterval, "unset --poll-interval must not clobber the file")
	assert.Equal(t, "", cfg.Policies.Provisioning)
	assert.Nil(t, cfg.Policies.Threshold)
}

func TestResolveScenario_AllOverrides(t *testing.T) {
	path := testutil.WriteTempYAML(t, cliScenario)
	c := newScenarioCmd(t, map[string]string{
		"config":        path,
		"allocation":    "first-fit-oversubscribe",
		"provisioning":  "threshold",
		"threshold":     "0",
		"poll-interval": "0.5",
		"horizon":       "100",
	})

	cfg, err := resolveScenario(c)
	require.NoError(t, err)

	assert.Equal(t, "first-fit-oversubscribe", cfg.Policies.Allocation)
	assert.Equal(t, "threshold", cfg.Policies.Provisioning)
	require.NotNil(t, cfg.Policies.Threshold)
	assert.Equal(t, 0, *cfg.Policies.Threshold)
	assert.Equal(t, 0.5, cfg.Datacenter.PollInterval)
	assert.Equal(t, 100.0, cfg.Datacenter.Horizon)
	assert.NoError(t, cfg.Validate())
}

func TestResolveScenario_SourceErrors(t *testing.T) {
	_, err := resolveScenario(newScenarioCmd(t, nil))
	assert.ErrorContains(t, err, "one of --config or --preset")

	_, err = resolveScenario(newScenarioCmd(t, map[string]string{"config": "a.yaml", "preset": "priority"}))
	assert.ErrorContains(t, err, "mutually exclusive")
}

func TestValidateCmd_PrintsSummary(t *testing.T) {
	path := testutil.WriteTempYAML(t, cliScenario)
	c := newScenarioCmd(t, map[string]string{"config": path})
	var out bytes.Buffer
	c.SetOut(&out)
	validateCmd.Run(c, nil)

	assert.Contains(t, out.String(), `scenario "cli" is valid: 1 hosts, 1 VMs, 1 tasks`)
}
