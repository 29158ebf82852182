package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/quotedesk/edgeproxy/internal/cache"
	"github.com/quotedesk/edgeproxy/internal/ratelimit"
)

const serviceName = "market-data-proxy"

// SystemHandlers serves the health check and the expanded status endpoint.
// Each process instance carries its own cache and rate-limit state, so the
// status payload includes a per-instance ID to tell instances apart.
type SystemHandlers struct {
	instanceID string
	startedAt  time.Time
	caches     map[string]*cache.Cache
	limiter    *ratelimit.Limiter
	log        zerolog.Logger
}

// NewSystemHandlers creates new system handlers. caches maps route names to
// their cache stores, for entry-count reporting.
func NewSystemHandlers(caches map[string]*cache.Cache, limiter *ratelimit.Limiter, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		instanceID: uuid.NewString(),
		startedAt:  time.Now(),
		caches:     caches,
		limiter:    limiter,
		log:        log.With().Str("component", "system_handlers").Logger(),
	}
}

// HandleHealth handles GET /
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": serviceName,
	})
}

// HandleStatus handles GET /api/status
func (h *SystemHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.systemStats()

	cacheCounts := make(map[string]int, len(h.caches))
	for route, c := range h.caches {
		cacheCounts[route] = c.Len()
	}

	response := map[string]interface{}{
		"service":  serviceName,
		"instance": h.instanceID,
		"uptime":   time.Since(h.startedAt).Round(time.Second).String(),
		"system": map[string]float64{
			"cpu_percent":    cpuPercent,
			"memory_percent": memPercent,
		},
		"caches":               cacheCounts,
		"rate_limited_clients": h.limiter.Clients(),
	}

	h.writeJSON(w, http.StatusOK, response)
}

// systemStats samples CPU and memory usage. A 100ms CPU sample keeps the
// endpoint fast; dashboards poll it frequently.
func (h *SystemHandlers) systemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return firstOrZero(cpuPercent), 0
	}

	return firstOrZero(cpuPercent), memStat.UsedPercent
}

func firstOrZero(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	return vals[0]
}

// writeJSON writes a JSON response
func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
