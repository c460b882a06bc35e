package trace

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions captures placement, admission and provisioning decisions.
	TraceLevelDecisions TraceLevel = "decisions"
	// TraceLevelCapacity additionally samples every host capacity split.
	TraceLevelCapacity TraceLevel = "capacity"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelDecisions: true,
	TraceLevelCapacity:  true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// SimulationTrace collects decision records during a simulation.
type SimulationTrace struct {
	Level      TraceLevel
	Placements []PlacementRecord
	Admissions []AdmissionRecord
	Provisions []ProvisionRecord
	Capacity   []CapacityRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(level TraceLevel) *SimulationTrace {
	return &SimulationTrace{
		Level:      level,
		Placements: make([]PlacementRecord, 0),
		Admissions: make([]AdmissionRecord, 0),
		Provisions: make([]ProvisionRecord, 0),
		Capacity:   make([]CapacityRecord, 0),
	}
}

// RecordsDecisions reports whether decision records are kept. Safe on nil.
func (st *SimulationTrace) RecordsDecisions() bool {
	return st != nil && (st.Level == TraceLevelDecisions || st.Level == TraceLevelCapacity)
}

// RecordsCapacity reports whether capacity samples are kept. Safe on nil.
func (st *SimulationTrace) RecordsCapacity() bool {
	return st != nil && st.Level == TraceLevelCapacity
}

// RecordPlacement appends a placement decision record.
func (st *SimulationTrace) RecordPlacement(record PlacementRecord) {
	st.Placements = append(st.Placements, record)
}

// RecordAdmission appends an admission record.
func (st *SimulationTrace) RecordAdmission(record AdmissionRecord) {
	st.Admissions = append(st.Admissions, record)
}

// RecordProvision appends a provisioning decision record.
func (st *SimulationTrace) RecordProvision(record ProvisionRecord) {
	st.Provisions = append(st.Provisions, record)
}

// RecordCapacity appends a capacity sample.
func (st *SimulationTrace) RecordCapacity(record CapacityRecord) {
	st.Capacity = append(st.Capacity, record)
}
