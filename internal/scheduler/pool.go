package scheduler

import "runtime"

// HardCap bounds the pool regardless of the requested parallelism.
const HardCap = 8

// PoolSize returns the number of workers for a run: the requested
// parallelism, capped by hardCap and by the host's logical CPUs minus a
// reservation for the orchestrating process (one core, two on hosts with
// more than hardCap cores). The result is at least 1. cpus <= 0 means
// runtime.NumCPU(); hardCap <= 0 means HardCap.
func PoolSize(requested, cpus, hardCap int) int {
	if cpus <= 0 {
		cpus = runtime.NumCPU()
	}
	if hardCap <= 0 {
		hardCap = HardCap
	}
	if requested <= 0 {
		requested = cpus
	}

	reserve := 1
	if cpus > hardCap {
		reserve = 2
	}

	size := min(requested, hardCap, cpus-reserve)
	if size < 1 {
		return 1
	}
	return size
}
