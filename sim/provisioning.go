package sim

import "fmt"

// ProvisionAction is the outcome of a provisioning decision.
type ProvisionAction struct {
	AddVMs int
	Reason string
}

// ProvisioningPolicy decides, once per batch and before admission, whether
// extra VMs are needed. Added VMs are never removed or reevaluated later in
// the run.
type ProvisioningPolicy interface {
	DecideScale(pendingTasks, threshold int) ProvisionAction
}

// NoProvisioning never adds VMs.
type NoProvisioning struct{}

func (n *NoProvisioning) DecideScale(_, _ int) ProvisionAction {
	return ProvisionAction{}
}

// ThresholdProvisioning adds exactly one VM when the pending task count
// exceeds the threshold.
type ThresholdProvisioning struct{}

func (t *ThresholdProvisioning) DecideScale(pendingTasks, threshold int) ProvisionAction {
	if pendingTasks > threshold {
		return ProvisionAction{
			AddVMs: 1,
			Reason: fmt.Sprintf("pending tasks %d > threshold %d", pendingTasks, threshold),
		}
	}
	return ProvisionAction{Reason: fmt.Sprintf("pending tasks %d <= threshold %d", pendingTasks, threshold)}
}

// NewProvisioningPolicy creates a provisioning policy by name.
// Valid names are defined in ValidProvisioningPolicies (bundle.go).
// Empty string defaults to NoProvisioning.
// Panics on unrecognized names.
func NewProvisioningPolicy(name string) ProvisioningPolicy {
	if !IsValidProvisioningPolicy(name) {
		panic(fmt.Sprintf("unknown provisioning policy %q", name))
	}
	switch name {
	case "", "none":
		return &NoProvisioning{}
	case "threshold":
		return &ThresholdProvisioning{}
	default:
		panic(fmt.Sprintf("unhandled provisioning policy %q", name))
	}
}
