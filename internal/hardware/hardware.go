// Package hardware sizes the batch worker pool from the machine it runs on.
package hardware

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"mlaurent/scanledger/internal/logging"
)

// Info is a point-in-time view of the resources relevant to worker sizing.
type Info struct {
	LogicalCores   int
	AvailableRAMGB float64
}

// Detect probes the host for logical core count and available memory. Probe
// failures degrade to runtime.NumCPU and a conservative 4 GB estimate so
// sizing always produces something usable.
func Detect(log logging.Logger) Info {
	if log == nil {
		log = logging.GetLogger()
	}
	info := Info{LogicalCores: runtime.NumCPU(), AvailableRAMGB: 4}

	if cores, err := cpu.Counts(true); err == nil && cores > 0 {
		info.LogicalCores = cores
	} else if err != nil {
		log.WithError(err).Debug("cpu probe failed, using runtime core count")
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		info.AvailableRAMGB = float64(vm.Available) / (1 << 30)
	} else {
		log.WithError(err).Debug("memory probe failed, assuming 4GB available")
	}

	return info
}

// OptimalWorkers computes the worker count for a batch of taskCount jobs
// each needing memoryPerJobGB. Small machines keep one core free for the
// system, larger ones keep two. The result never exceeds the task count and
// is never below one.
func (i Info) OptimalWorkers(taskCount int, memoryPerJobGB float64) int {
	if taskCount <= 0 {
		return 1
	}

	coreLimit := i.LogicalCores - 2
	if i.LogicalCores <= 4 {
		coreLimit = i.LogicalCores - 1
	}

	workers := coreLimit
	if memoryPerJobGB > 0 {
		if ramLimit := int(i.AvailableRAMGB / memoryPerJobGB); ramLimit < workers {
			workers = ramLimit
		}
	}
	if taskCount < workers {
		workers = taskCount
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}
