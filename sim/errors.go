package sim

import (
	"errors"
	"fmt"
)

// Error kinds surfaced on a Report. None of them is retried: failures are
// outcomes of the scenario, not faults to recover from.
var (
	// ErrAllocationFailure means no host satisfied a VM's resource demand.
	ErrAllocationFailure = errors.New("allocation failure")
	// ErrInvalidConfiguration means a capacity, length or policy setting was
	// missing or out of range. It aborts the run before the clock starts.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrOrphanTaskSubmission means a task targeted a VM that was never placed.
	ErrOrphanTaskSubmission = errors.New("orphan task submission")
)

// AllocationError describes why a VM could not be placed.
type AllocationError struct {
	VMID   int
	Reason string
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("vm %d: no host satisfies demand (%s)", e.VMID, e.Reason)
}

func (e *AllocationError) Unwrap() error { return ErrAllocationFailure }

// ConfigError names the offending configuration field.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Msg)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfiguration }

func invalidf(field, format string, args ...any) error {
	return &ConfigError{Field: field, Msg: fmt.Sprintf(format, args...)}
}
