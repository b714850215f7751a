package common

import (
	"os"
	"runtime"
	"runtime/debug"

	"github.com/rs/zerolog/log"
)

// Runtime profiles for different server configurations.
// Planning allocates short-lived decimals per request, so a moderately raised
// GOGC keeps pauses down while GOMEMLIMIT caps the heap.
const (
	SmallServerGOGC     = 200
	SmallServerMemLimit = 1 * 1024 * 1024 * 1024 // 1GB

	LargeServerGOGC     = 400
	LargeServerMemLimit = 4 * 1024 * 1024 * 1024 // 4GB
)

// detectServerProfile returns settings based on available CPUs
func detectServerProfile() (gogc int, memLimit int64) {
	if runtime.NumCPU() <= 2 {
		return SmallServerGOGC, int64(SmallServerMemLimit)
	}
	return LargeServerGOGC, int64(LargeServerMemLimit)
}

// InitRuntime applies GC settings unless overridden with GOGC / GOMEMLIMIT.
func InitRuntime() {
	defaultGOGC, defaultMemLimit := detectServerProfile()

	if gcPercent := os.Getenv("GOGC"); gcPercent == "" {
		debug.SetGCPercent(defaultGOGC)
		log.Info().Int("GOGC", defaultGOGC).Msg("[runtime] Set GOGC")
	}

	if memLimit := os.Getenv("GOMEMLIMIT"); memLimit == "" {
		debug.SetMemoryLimit(defaultMemLimit)
		log.Info().
			Int64("GOMEMLIMIT_bytes", defaultMemLimit).
			Float64("GOMEMLIMIT_GB", float64(defaultMemLimit)/1024/1024/1024).
			Msg("[runtime] Set memory limit")
	}

	logRuntimeSettings()
}

// logRuntimeSettings logs current Go runtime configuration
func logRuntimeSettings() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	log.Info().
		Int("num_cpu", runtime.NumCPU()).
		Int("gomaxprocs", runtime.GOMAXPROCS(0)).
		Uint64("heap_alloc_mb", memStats.HeapAlloc/1024/1024).
		Str("go_version", runtime.Version()).
		Msg("[runtime] Current runtime settings")
}
