package sysmetrics

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	psnet "github.com/shirou/gopsutil/v3/net"

	"github.com/Aashish019/Client-Link-Monitor/internal/domain"
)

// Sampler reads host resource usage. DiskPath is the mount point the
// disk gauge reports on.
type Sampler struct {
	DiskPath string
}

func New() *Sampler {
	return &Sampler{DiskPath: "/"}
}

// Sample collects one host snapshot. The first failing subsystem
// aborts the whole sample; the caller logs the error and keeps the
// previous snapshot until the next tick.
func (s *Sampler) Sample(ctx context.Context) (domain.SystemSnapshot, error) {
	var snap domain.SystemSnapshot

	pct, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return snap, fmt.Errorf("cpu: %w", err)
	}
	if len(pct) > 0 {
		snap.CPUPercent = pct[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return snap, fmt.Errorf("memory: %w", err)
	}
	snap.Memory = domain.MemoryUsage{
		Total:     vm.Total,
		Available: vm.Available,
		Percent:   vm.UsedPercent,
	}

	du, err := disk.UsageWithContext(ctx, s.DiskPath)
	if err != nil {
		return snap, fmt.Errorf("disk %s: %w", s.DiskPath, err)
	}
	snap.Disk = domain.DiskUsage{
		Total:   du.Total,
		Free:    du.Free,
		Percent: du.UsedPercent,
	}

	// pernic=false returns a single aggregate row.
	counters, err := psnet.IOCountersWithContext(ctx, false)
	if err != nil {
		return snap, fmt.Errorf("net: %w", err)
	}
	if len(counters) > 0 {
		snap.Net = domain.NetCounters{
			BytesSent: counters[0].BytesSent,
			BytesRecv: counters[0].BytesRecv,
		}
	}

	snap.SampledAt = time.Now().UTC()
	return snap, nil
}
