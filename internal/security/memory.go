package security

import "runtime"

// MemoryMB samples the process's current heap allocation in megabytes.
// Used to annotate history events with resource usage.
func MemoryMB() float64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return float64(m.HeapAlloc) / (1024 * 1024)
}
