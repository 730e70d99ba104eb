package asyncsvc

import (
	"context"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemStats is a snapshot of the host the service runs on.
type SystemStats struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsedMB  uint64  `json:"memory_used_mb"`
	MemoryTotalMB uint64  `json:"memory_total_mb"`
	UptimeSeconds uint64  `json:"uptime_seconds"`
	Goroutines    int     `json:"goroutines"`
}

func collectSystemStats(ctx context.Context) (SystemStats, error) {
	stats := SystemStats{Goroutines: runtime.NumGoroutine()}

	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return stats, err
	}
	if len(percents) > 0 {
		stats.CPUPercent = percents[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return stats, err
	}
	stats.MemoryPercent = vm.UsedPercent
	stats.MemoryUsedMB = vm.Used / 1024 / 1024
	stats.MemoryTotalMB = vm.Total / 1024 / 1024

	uptime, err := host.UptimeWithContext(ctx)
	if err != nil {
		return stats, err
	}
	stats.UptimeSeconds = uptime
	return stats, nil
}
