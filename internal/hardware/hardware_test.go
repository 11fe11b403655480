package hardware

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mlaurent/scanledger/internal/logging"
)

func TestOptimalWorkers(t *testing.T) {
	tests := []struct {
		name           string
		info           Info
		tasks          int
		memoryPerJobGB float64
		expected       int
	}{
		{"small machine keeps one core free", Info{LogicalCores: 4, AvailableRAMGB: 16}, 100, 0.5, 3},
		{"large machine keeps two cores free", Info{LogicalCores: 12, AvailableRAMGB: 32}, 100, 0.5, 10},
		{"ram bound", Info{LogicalCores: 16, AvailableRAMGB: 2}, 100, 1, 2},
		{"task bound", Info{LogicalCores: 8, AvailableRAMGB: 16}, 3, 0.5, 3},
		{"zero tasks", Info{LogicalCores: 8, AvailableRAMGB: 16}, 0, 0.5, 1},
		{"negative tasks", Info{LogicalCores: 8, AvailableRAMGB: 16}, -1, 0.5, 1},
		{"never below one", Info{LogicalCores: 1, AvailableRAMGB: 0.2}, 10, 1, 1},
		{"zero memory per job ignores ram", Info{LogicalCores: 6, AvailableRAMGB: 0.1}, 100, 0, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.info.OptimalWorkers(tt.tasks, tt.memoryPerJobGB))
		})
	}
}

func TestDetect(t *testing.T) {
	info := Detect(&logging.MockLogger{})
	assert.GreaterOrEqual(t, info.LogicalCores, 1)
	assert.Greater(t, info.AvailableRAMGB, 0.0)
}
