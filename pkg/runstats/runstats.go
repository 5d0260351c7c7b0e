// Package runstats samples the resource usage of the current process for
// the run summary.
package runstats

import (
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// Usage is one sample of process resource usage.
type Usage struct {
	// CPUPercent is the average CPU use since the monitor started.
	CPUPercent float64
	MemoryRSS  uint64
	MemoryVMS  uint64
	HeapAlloc  uint64
	// PeakRSS is the highest RSS seen by this monitor.
	PeakRSS        uint64
	GoroutineCount int
	ThreadCount    int32
}

// Monitor samples the current process.
type Monitor struct {
	process      *process.Process
	startCPUTime float64
	startTime    time.Time

	mu      sync.Mutex
	peakRSS uint64
}

// NewMonitor creates a monitor whose CPU figures start now. It returns an
// error when the process cannot be inspected on this platform.
func NewMonitor() (*Monitor, error) {
	proc, err := process.NewProcess(int32(os.Getpid())) //nolint:gosec // G115: pids fit in int32
	if err != nil {
		return nil, err
	}
	m := &Monitor{process: proc, startTime: time.Now()}
	if cpuTime, err := proc.Times(); err == nil {
		m.startCPUTime = cpuTime.Total()
	}
	return m, nil
}

// Sample returns the current usage. Figures the platform cannot provide
// are left zero.
func (m *Monitor) Sample() Usage {
	var usage Usage

	if cpuTime, err := m.process.Times(); err == nil {
		if elapsed := time.Since(m.startTime).Seconds(); elapsed > 0 {
			usage.CPUPercent = ((cpuTime.Total() - m.startCPUTime) / elapsed) * 100
		}
	}
	if memInfo, err := m.process.MemoryInfo(); err == nil {
		usage.MemoryRSS = memInfo.RSS
		usage.MemoryVMS = memInfo.VMS
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	usage.HeapAlloc = memStats.HeapAlloc
	usage.GoroutineCount = runtime.NumGoroutine()
	usage.ThreadCount, _ = m.process.NumThreads()

	m.mu.Lock()
	if usage.MemoryRSS > m.peakRSS {
		m.peakRSS = usage.MemoryRSS
	}
	usage.PeakRSS = m.peakRSS
	m.mu.Unlock()
	return usage
}
