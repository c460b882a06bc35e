package sim

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/markphelps/optional"
)

// Priority classes. Higher values are more urgent.
const (
	PriorityLow    = 1
	PriorityMedium = 2
	PriorityHigh   = 3
)

var priorityLabels = map[string]int{
	"LOW":    PriorityLow,
	"MEDIUM": PriorityMedium,
	"HIGH":   PriorityHigh,
}

// PriorityLabel renders a priority tag. Untagged tasks render as "NONE",
// values outside the named classes as "UNKNOWN".
func PriorityLabel(p optional.Int) string {
	v, err := p.Get()
	if err != nil {
		return "NONE"
	}
	switch v {
	case PriorityHigh:
		return "HIGH"
	case PriorityMedium:
		return "MEDIUM"
	case PriorityLow:
		return "LOW"
	default:
		return "UNKNOWN"
	}
}

// ParsePriority accepts a class label (case-insensitive) or an integer.
func ParsePriority(s string) (int, error) {
	if v, ok := priorityLabels[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return v, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("unknown priority %q (want HIGH, MEDIUM, LOW or an integer)", s)
	}
	return v, nil
}
