package sim

import "fmt"

// ProcessingElement is a single compute lane with a fixed MIPS rating.
// It is immutable once created and owned by exactly one Host.
type ProcessingElement struct {
	id   int
	mips float64
}

// NewProcessingElement returns a PE with the given rating. The rating must be positive.
func NewProcessingElement(id int, mips float64) (*ProcessingElement, error) {
	if mips <= 0 {
		return nil, invalidf(fmt.Sprintf("pe[%d].mips", id), "must be positive, got %v", mips)
	}
	return &ProcessingElement{id: id, mips: mips}, nil
}

// ID returns the PE identifier, unique within its host.
func (pe *ProcessingElement) ID() int { return pe.id }

// MIPS returns the processing rate of the PE.
func (pe *ProcessingElement) MIPS() float64 { return pe.mips }
