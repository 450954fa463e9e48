package handlers

import (
	"net/http"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/cleancity/cleancity-be/internal/trace"
)

// SystemHandler exposes liveness and host resource information.
type SystemHandler struct{}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler() *SystemHandler {
	return &SystemHandler{}
}

// Health is the public liveness probe.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// System reports host CPU, memory and disk usage for the admin dashboard.
func (h *SystemHandler) System(w http.ResponseWriter, r *http.Request) {
	logger := trace.Logger(r.Context())

	cpuPercents, err := cpu.Percent(0, false)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read CPU usage")
		respondError(w, http.StatusInternalServerError, "Failed to read system stats")
		return
	}
	var cpuPercent float64
	if len(cpuPercents) > 0 {
		cpuPercent = cpuPercents[0]
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read memory usage")
		respondError(w, http.StatusInternalServerError, "Failed to read system stats")
		return
	}

	du, err := disk.Usage("/")
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read disk usage")
		respondError(w, http.StatusInternalServerError, "Failed to read system stats")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"cpu": map[string]float64{"usedPercent": cpuPercent},
		"memory": map[string]interface{}{
			"total":       vm.Total,
			"used":        vm.Used,
			"usedPercent": vm.UsedPercent,
		},
		"disk": map[string]interface{}{
			"total":       du.Total,
			"used":        du.Used,
			"usedPercent": du.UsedPercent,
		},
	})
}
