package sim

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/docker/go-units"
	"github.com/markphelps/optional"
	"gopkg.in/yaml.v3"
)

// ScenarioConfig describes one complete run: topology, workload and policies.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type ScenarioConfig struct {
	Name       string           `yaml:"name"`
	Datacenter DatacenterConfig `yaml:"datacenter"`
	Broker     BrokerConfig     `yaml:"broker"`
	Policies   PolicyBundle     `yaml:"policies"`
	VMs        []VMProfile      `yaml:"vms"`
	Tasks      []TaskGroup      `yaml:"tasks"`
}

// DatacenterConfig groups the host list and the event-loop timing knobs.
type DatacenterConfig struct {
	Name         string      `yaml:"name"`
	PollInterval float64     `yaml:"poll_interval"` // seconds; 0 disables polling
	Horizon      float64     `yaml:"horizon"`       // seconds; 0 means unbounded
	Hosts        []HostGroup `yaml:"hosts"`
}

// HostGroup describes Count identical hosts. An omitted Count means one.
type HostGroup struct {
	Count   *int      `yaml:"count"`
	PEs     int       `yaml:"pes"`
	PEMIPS  float64   `yaml:"pe_mips"`
	RAM     Megabytes `yaml:"ram"`
	BW      int64     `yaml:"bw"` // Mbps
	Storage Megabytes `yaml:"storage"`
}

type BrokerConfig struct {
	Name string `yaml:"name"`
}

// VMProfile describes Count identical VMs. An omitted Count means one.
type VMProfile struct {
	Count *int      `yaml:"count"`
	MIPS  float64   `yaml:"mips"`
	PEs   int       `yaml:"pes"`
	RAM   Megabytes `yaml:"ram"`
	BW    int64     `yaml:"bw"` // Mbps
	Size  Megabytes `yaml:"size"`
	VMM   string    `yaml:"vmm"`
}

// TaskGroup describes Count identical tasks. An omitted Count means one, so a
// list of groups doubles as an explicit task list.
type TaskGroup struct {
	Count       *int        `yaml:"count"`
	Length      float64     `yaml:"length"` // MI
	PEs         int         `yaml:"pes"`
	FileSize    int64       `yaml:"file_size"`
	OutputSize  int64       `yaml:"output_size"`
	Utilization *float64    `yaml:"utilization"` // CPU fraction, default 1.0
	Priority    PriorityTag `yaml:"priority"`
	VMID        *int        `yaml:"vm_id"`
}

// Megabytes is a size in MB. YAML accepts a plain integer (MB) or a human
// size such as "2GiB" or "512MiB", which must be a whole number of MiB.
type Megabytes int64

func (m *Megabytes) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: size must be a scalar", value.Line)
	}
	if n, err := strconv.ParseInt(value.Value, 10, 64); err == nil {
		*m = Megabytes(n)
		return nil
	}
	b, err := units.RAMInBytes(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	if b%units.MiB != 0 {
		return fmt.Errorf("line %d: size %q is not a whole number of MiB", value.Line, value.Value)
	}
	*m = Megabytes(b / units.MiB)
	return nil
}

// String renders the size the way docker prints it (e.g. "2GiB").
func (m Megabytes) String() string {
	return units.BytesSize(float64(int64(m) * units.MiB))
}

// PriorityTag is an optional task priority. YAML accepts an integer or one of
// the labels HIGH, MEDIUM, LOW; an omitted field leaves the task untagged.
type PriorityTag struct {
	optional.Int
}

func (p *PriorityTag) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: priority must be a scalar", value.Line)
	}
	v, err := ParsePriority(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	p.Int = optional.NewInt(v)
	return nil
}

// LoadScenario reads and strictly parses a scenario file. The result is not
// validated; call Validate or NewSimulator.
func LoadScenario(path string) (*ScenarioConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}
	cfg, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return cfg, nil
}

// ParseScenario parses YAML with strict field checking: unknown keys are errors.
func ParseScenario(data []byte) (*ScenarioConfig, error) {
	var cfg ScenarioConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, &ConfigError{Field: "yaml", Msg: err.Error()}
	}
	return &cfg, nil
}

func groupCount(n *int) int {
	if n == nil {
		return 1
	}
	return *n
}

// badCount reports an explicit count that would expand to nothing.
func badCount(n *int) bool { return n != nil && *n <= 0 }

// positive rejects NaN and ±Inf along with non-positive values.
func positive(v float64) bool { return v > 0 && !math.IsInf(v, 1) }

// nonNegative rejects NaN and ±Inf along with negative values.
func nonNegative(v float64) bool { return v >= 0 && !math.IsInf(v, 1) }

// Validate fails fast on the first missing or out-of-range setting.
// Returned errors wrap ErrInvalidConfiguration.
func (c *ScenarioConfig) Validate() error {
	if err := c.Datacenter.validate(); err != nil {
		return err
	}
	if err := c.Policies.Validate(); err != nil {
		return err
	}
	for i, v := range c.VMs {
		field := fmt.Sprintf("vms[%d]", i)
		switch {
		case badCount(v.Count):
			return invalidf(field+".count", "must be positive, got %d", *v.Count)
		case !positive(v.MIPS):
			return invalidf(field+".mips", "must be positive, got %g", v.MIPS)
		case v.PEs <= 0:
			return invalidf(field+".pes", "must be positive, got %d", v.PEs)
		case v.RAM <= 0:
			return invalidf(field+".ram", "must be positive, got %d", v.RAM)
		case v.BW <= 0:
			return invalidf(field+".bw", "must be positive, got %d", v.BW)
		case v.Size <= 0:
			return invalidf(field+".size", "must be positive, got %d", v.Size)
		}
	}
	if len(c.Tasks) == 0 {
		return invalidf("tasks", "at least one task is required")
	}
	for i, t := range c.Tasks {
		field := fmt.Sprintf("tasks[%d]", i)
		switch {
		case badCount(t.Count):
			return invalidf(field+".count", "must be positive, got %d", *t.Count)
		case !positive(t.Length):
			return invalidf(field+".length", "must be positive, got %g", t.Length)
		case t.PEs <= 0:
			return invalidf(field+".pes", "must be positive, got %d", t.PEs)
		case t.FileSize < 0:
			return invalidf(field+".file_size", "must be non-negative, got %d", t.FileSize)
		case t.OutputSize < 0:
			return invalidf(field+".output_size", "must be non-negative, got %d", t.OutputSize)
		case t.Utilization != nil && !(*t.Utilization > 0 && *t.Utilization <= 1):
			return invalidf(field+".utilization", "must be in (0,1], got %g", *t.Utilization)
		case t.VMID != nil && *t.VMID < 0:
			return invalidf(field+".vm_id", "must be non-negative, got %d", *t.VMID)
		}
	}
	return nil
}

func (d *DatacenterConfig) validate() error {
	if !nonNegative(d.PollInterval) {
		return invalidf("datacenter.poll_interval", "must be non-negative, got %g", d.PollInterval)
	}
	if !nonNegative(d.Horizon) {
		return invalidf("datacenter.horizon", "must be non-negative, got %g", d.Horizon)
	}
	if len(d.Hosts) == 0 {
		return invalidf("datacenter.hosts", "at least one host is required")
	}
	for i, h := range d.Hosts {
		field := fmt.Sprintf("datacenter.hosts[%d]", i)
		switch {
		case badCount(h.Count):
			return invalidf(field+".count", "must be positive, got %d", *h.Count)
		case h.PEs <= 0:
			return invalidf(field+".pes", "must be positive, got %d", h.PEs)
		case !positive(h.PEMIPS):
			return invalidf(field+".pe_mips", "must be positive, got %g", h.PEMIPS)
		case h.RAM <= 0:
			return invalidf(field+".ram", "must be positive, got %d", h.RAM)
		case h.BW <= 0:
			return invalidf(field+".bw", "must be positive, got %d", h.BW)
		case h.Storage <= 0:
			return invalidf(field+".storage", "must be positive, got %d", h.Storage)
		}
	}
	return nil
}

// BuildHosts expands the host groups into hosts with sequential IDs.
func (d *DatacenterConfig) BuildHosts() ([]*Host, error) {
	var hosts []*Host
	for _, g := range d.Hosts {
		for n := 0; n < groupCount(g.Count); n++ {
			id := len(hosts)
			pes := make([]*ProcessingElement, g.PEs)
			for i := range pes {
				pe, err := NewProcessingElement(i, g.PEMIPS)
				if err != nil {
					return nil, err
				}
				pes[i] = pe
			}
			h, err := NewHost(id, pes, int64(g.RAM), g.BW, int64(g.Storage), nil)
			if err != nil {
				return nil, err
			}
			hosts = append(hosts, h)
		}
	}
	return hosts, nil
}

// BuildVMs expands the VM profiles into VMs with sequential IDs.
func (c *ScenarioConfig) BuildVMs(brokerID int) []*Vm {
	var vms []*Vm
	for _, p := range c.VMs {
		vmm := p.VMM
		if vmm == "" {
			vmm = "Xen"
		}
		for n := 0; n < groupCount(p.Count); n++ {
			vms = append(vms, NewVm(len(vms), brokerID, p.MIPS, p.PEs, int64(p.RAM), p.BW, int64(p.Size), vmm))
		}
	}
	return vms
}

// BuildTasks expands the task groups into tasks with sequential IDs, in file order.
func (c *ScenarioConfig) BuildTasks() []*Task {
	var tasks []*Task
	for _, g := range c.Tasks {
		for n := 0; n < groupCount(g.Count); n++ {
			t := NewTask(len(tasks), g.Length, g.PEs, g.FileSize, g.OutputSize)
			if g.Utilization != nil {
				t.UtilizationCPU = *g.Utilization
			}
			t.Priority = g.Priority.Int
			if g.VMID != nil {
				t.VMID = optional.NewInt(*g.VMID)
			}
			tasks = append(tasks, t)
		}
	}
	return tasks
}
