// Package statusprobe refreshes and reports coarse process/host CPU and
// memory usage for GET /status. Grounded on
// intelligencedev-manifold/internal/hostinfo's use of gopsutil for memory
// introspection, extended with cpu and process sampling per spec §4.7 (the
// original Rust server used the equivalent sysinfo triple).
package statusprobe

import (
	"os"
	"sync"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

// Snapshot is the §4.7/§6 status payload.
type Snapshot struct {
	CPUUsagePct   float32 `json:"cpu_usage"`
	MemoryUsageMB uint64  `json:"memory_usage_mb"`
	TotalMemoryMB uint64  `json:"total_memory_mb"`
}

// Probe serialises access to the underlying OS counters behind a single
// exclusive lock, per spec §4.7/§5.
type Probe struct {
	mu  sync.Mutex
	pid int32
}

// New creates a Probe that reports this process's RSS alongside host-wide
// CPU and total memory.
func New() *Probe {
	return &Probe{pid: int32(os.Getpid())}
}

// Snapshot refreshes CPU and memory counters and returns the current
// reading. Calls are cheap and serialised; they never block on the solver.
func (p *Probe) Snapshot() (Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	percents, err := cpu.Percent(0, false)
	if err != nil {
		return Snapshot{}, err
	}
	var cpuPct float32
	if len(percents) > 0 {
		cpuPct = float32(percents[0])
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		return Snapshot{}, err
	}

	memUsageMB := vm.Used / 1024 / 1024
	if proc, err := process.NewProcess(p.pid); err == nil {
		if info, err := proc.MemoryInfo(); err == nil && info != nil {
			memUsageMB = info.RSS / 1024 / 1024
		}
	}

	return Snapshot{
		CPUUsagePct:   cpuPct,
		MemoryUsageMB: memUsageMB,
		TotalMemoryMB: vm.Total / 1024 / 1024,
	}, nil
}

// TotalMemoryMB is a convenience one-shot query used at startup to size the
// memory-weighted scheduler, without going through the full Snapshot path.
func TotalMemoryMB() (uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vm.Total / 1024 / 1024, nil
}
