// Package sim provides the discrete-event engine for dcsim, a datacenter
// resource-sharing simulator.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - task.go: Task lifecycle (created → queued → executing → success/failed)
//   - event.go: Event kinds that drive the simulation (VM ack, submit, capacity update, completion, end)
//   - simulator.go: The event loop and scenario construction
//   - datacenter.go: Placement, task submission and progress accounting
//   - broker.go: Provisioning, admission ordering, binding and result collection
//
// # Capacity model
//
// Capacity is shared in two time-shared layers. A host splits its aggregate PE
// MIPS among resident VMs (host_scheduler.go): each VM gets what it requested
// unless the requests exceed the host, in which case capacity is divided in
// proportion to the requests. A VM splits its allocation equally among the
// tasks executing on it (vm_scheduler.go).
//
// # Key Interfaces
//
//   - AllocationPolicy: choose the host for a VM
//   - HostScheduler: split host capacity among resident VMs
//   - AdmissionOrdering: order tasks before submission
//   - ProvisioningPolicy: decide, once per batch, whether to add VMs
//
// Simulated time is expressed in seconds as float64. All state transitions
// happen inside Event.Execute on a single goroutine; a Simulator is not safe
// for concurrent use, but independent Simulators may run in parallel.
package sim
