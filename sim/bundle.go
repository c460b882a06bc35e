package sim

import "fmt"

// PolicyBundle holds the policy selection of a scenario.
// Empty strings select the defaults; a nil Threshold means "not set".
type PolicyBundle struct {
	Allocation   string `yaml:"allocation"`
	Admission    string `yaml:"admission"`
	Provisioning string `yaml:"provisioning"`
	Threshold    *int   `yaml:"threshold"`
}

// ValidAllocationPolicies is the set of recognized allocation policy names.
// Shared by Validate() and NewAllocationPolicy() to avoid duplication.
var ValidAllocationPolicies = map[string]bool{"": true, "first-fit": true, "first-fit-oversubscribe": true}

// ValidAdmissionOrderings is the set of recognized admission ordering names.
var ValidAdmissionOrderings = map[string]bool{"": true, "fifo": true, "priority": true}

// ValidProvisioningPolicies is the set of recognized provisioning policy names.
var ValidProvisioningPolicies = map[string]bool{"": true, "none": true, "threshold": true}

// IsValidAllocationPolicy returns true if name is a recognized allocation policy.
func IsValidAllocationPolicy(name string) bool { return ValidAllocationPolicies[name] }

// IsValidAdmissionOrdering returns true if name is a recognized admission ordering.
func IsValidAdmissionOrdering(name string) bool { return ValidAdmissionOrderings[name] }

// IsValidProvisioningPolicy returns true if name is a recognized provisioning policy.
func IsValidProvisioningPolicy(name string) bool { return ValidProvisioningPolicies[name] }

// ThresholdOrZero returns the configured threshold, or 0 when unset.
func (b *PolicyBundle) ThresholdOrZero() int {
	if b.Threshold == nil {
		return 0
	}
	return *b.Threshold
}

// Validate checks that all policy names and parameter ranges in the bundle are valid.
func (b *PolicyBundle) Validate() error {
	if !IsValidAllocationPolicy(b.Allocation) {
		return invalidf("policies.allocation", "unknown allocation policy %q", b.Allocation)
	}
	if !IsValidAdmissionOrdering(b.Admission) {
		return invalidf("policies.admission", "unknown admission ordering %q", b.Admission)
	}
	if !IsValidProvisioningPolicy(b.Provisioning) {
		return invalidf("policies.provisioning", "unknown provisioning policy %q", b.Provisioning)
	}
	if b.Provisioning == "threshold" && b.Threshold == nil {
		return invalidf("policies.threshold", "required by the threshold provisioning policy")
	}
	if b.Threshold != nil && *b.Threshold < 0 {
		return invalidf("policies.threshold", "must be non-negative, got %d", *b.Threshold)
	}
	return nil
}

// Describe renders the bundle for logs and reports.
func (b *PolicyBundle) Describe() string {
	name := func(s, def string) string {
		if s == "" {
			return def
		}
		return s
	}
	out := fmt.Sprintf("allocation=%s admission=%s provisioning=%s",
		name(b.Allocation, "first-fit"), name(b.Admission, "fifo"), name(b.Provisioning, "none"))
	if b.Threshold != nil {
		out += fmt.Sprintf(" threshold=%d", *b.Threshold)
	}
	return out
}
