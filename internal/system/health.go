// Package system folds host health metrics into the /api/status surface
// using gopsutil, the way reef-pi's own health checks do.
package system

import (
	"context"

	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

// Health is a point-in-time snapshot of host vitals.
type Health struct {
	UptimeSeconds uint64  `json:"uptime_seconds"`
	Load1         float64 `json:"load1"`
	MemUsedPct    float64 `json:"mem_used_percent"`
}

// Snapshot collects current host vitals. Any individual collector
// failure leaves its field zeroed rather than failing the whole snapshot
// — host telemetry is advisory, never load-bearing for the engine.
func Snapshot(ctx context.Context) Health {
	var h Health
	if uptime, err := host.UptimeWithContext(ctx); err == nil {
		h.UptimeSeconds = uptime
	}
	if avg, err := load.AvgWithContext(ctx); err == nil {
		h.Load1 = avg.Load1
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		h.MemUsedPct = vm.UsedPercent
	}
	return h
}
