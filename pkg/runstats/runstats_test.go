package runstats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitor_Sample(t *testing.T) {
	m, err := NewMonitor()
	require.NoError(t, err)

	first := m.Sample()
	assert.Greater(t, first.HeapAlloc, uint64(0))
	assert.GreaterOrEqual(t, first.GoroutineCount, 1)
	assert.GreaterOrEqual(t, first.PeakRSS, first.MemoryRSS)

	second := m.Sample()
	assert.GreaterOrEqual(t, second.PeakRSS, first.PeakRSS)
}
