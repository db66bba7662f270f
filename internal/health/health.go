// Package health reports service liveness plus the host stats the ops screen
// shows next to the warehouse dashboard.
package health

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

type HealthChecker struct {
	db *pgxpool.Pool
}

type HealthStatus struct {
	Status   string         `json:"status"`
	Database DatabaseHealth `json:"database"`
}

type DatabaseHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
}

// SystemStats is a point-in-time snapshot of the host
type SystemStats struct {
	CPUPercent  float64 `json:"cpu_percent"`
	MemUsed     uint64  `json:"mem_used_bytes"`
	MemTotal    uint64  `json:"mem_total_bytes"`
	MemPercent  float64 `json:"mem_percent"`
	DiskUsed    uint64  `json:"disk_used_bytes"`
	DiskTotal   uint64  `json:"disk_total_bytes"`
	DiskPercent float64 `json:"disk_percent"`
}

func NewHealthChecker(db *pgxpool.Pool) *HealthChecker {
	return &HealthChecker{db: db}
}

func (h *HealthChecker) CheckBasic() HealthStatus {
	dbHealth := h.checkDatabase()

	status := "healthy"
	if dbHealth.Status != "healthy" {
		status = "unhealthy"
	}

	return HealthStatus{
		Status:   status,
		Database: dbHealth,
	}
}

func (h *HealthChecker) checkDatabase() DatabaseHealth {
	if h.db == nil {
		return DatabaseHealth{Status: "not_configured"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.db.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return DatabaseHealth{
			Status:       "unhealthy",
			ResponseTime: responseTime,
		}
	}

	return DatabaseHealth{
		Status:       "healthy",
		ResponseTime: responseTime,
	}
}

// CollectSystemStats samples CPU, memory and disk. Individual probe failures
// leave zeroes rather than failing the endpoint.
func CollectSystemStats() SystemStats {
	var stats SystemStats

	if cpuPercents, err := cpu.Percent(0, false); err == nil && len(cpuPercents) > 0 {
		stats.CPUPercent = cpuPercents[0]
	}
	if memStats, err := mem.VirtualMemory(); err == nil {
		stats.MemUsed = memStats.Used
		stats.MemTotal = memStats.Total
		stats.MemPercent = memStats.UsedPercent
	}
	if diskStats, err := disk.Usage("/"); err == nil {
		stats.DiskUsed = diskStats.Used
		stats.DiskTotal = diskStats.Total
		stats.DiskPercent = diskStats.UsedPercent
	}
	return stats
}
