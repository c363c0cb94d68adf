package nostress

import "runtime"

// Worker sizing constants.
const (
	// MinWorkers ensures at least one document is resolved at a time.
	MinWorkers = 1

	// MaxWorkers caps automatic fan-out; resolution is CPU bound and small.
	MaxWorkers = 16
)

// ResolveWorkers determines how many documents are resolved in parallel.
// Priority: explicit workers > GOMAXPROCS-based calculation.
// Exported for use by servers and CLIs.
func ResolveWorkers(workers int) int {
	if workers > 0 {
		return workers
	}

	// GOMAXPROCS is adjusted by automaxprocs in containers.
	n := runtime.GOMAXPROCS(0)
	if n < MinWorkers {
		return MinWorkers
	}
	if n > MaxWorkers {
		return MaxWorkers
	}
	return n
}
