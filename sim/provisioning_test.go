package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThresholdProvisioning_DecideScale(t *testing.T) {
	p := NewProvisioningPolicy("threshold")
	tests := []struct {
		pending, threshold, want int
	}{
		{6, 4, 1},
		{5, 4, 1},
		{4, 4, 0}, // strictly greater is required
		{0, 0, 0},
		{100, 0, 1}, // one VM regardless of excess
	}
	for _, tt := range tests {
		got := p.DecideScale(tt.pending, tt.threshold)
		assert.Equal(t, tt.want, got.AddVMs, "pending=%d threshold=%d", tt.pending, tt.threshold)
		assert.NotEmpty(t, got.Reason)
	}
}

func TestNoProvisioning_NeverScales(t *testing.T) {
	for _, name := range []string{"", "none"} {
		assert.Zero(t, NewProvisioningPolicy(name).DecideScale(1000, 0).AddVMs)
	}
}

func TestNewProvisioningPolicy_UnknownName_Panics(t *testing.T) {
	assert.Panics(t, func() { NewProvisioningPolicy("autoscale") })
}
