package handler

import (
	"net/http"
	"time"

	"github.com/cleanroute/cleanroute/internal/api/models"
	"github.com/cleanroute/cleanroute/internal/api/response"
	"github.com/cleanroute/cleanroute/internal/provider/resilience"
)

// OpsHandler serves operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	registry  *resilience.Registry
}

// NewOpsHandler creates an OpsHandler. The registry may be nil when no
// providers report health.
func NewOpsHandler(version, buildTime string, registry *resilience.Registry) *OpsHandler {
	return &OpsHandler{version: version, buildTime: buildTime, registry: registry}
}

// HealthCheck handles GET /v1/ops/health, the liveness probe.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]any{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	})
}

// ReadinessCheck handles GET /v1/ops/ready. The service is ready unless
// every registered provider circuit is open.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	status := models.HealthStatusOK
	if h.registry != nil {
		all := h.registry.AllHealth()
		unhealthy := 0
		for _, p := range all {
			if !p.Healthy() {
				unhealthy++
			}
		}
		switch {
		case len(all) > 0 && unhealthy == len(all):
			status = models.HealthStatusFail
		case unhealthy > 0:
			status = models.HealthStatusDegraded
		}
	}

	code := http.StatusOK
	if status == models.HealthStatusFail {
		code = http.StatusServiceUnavailable
	}
	response.JSON(w, r, code, models.Health{
		Status: status,
		Time:   models.Timestamp(time.Now()),
	})
}

// SystemStatus handles GET /v1/ops/status: per-provider circuit state.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	out := models.SystemStatus{
		Status:    models.HealthStatusOK,
		Time:      models.Timestamp(time.Now()),
		Providers: []models.ProviderStatus{},
	}
	if h.registry != nil {
		for _, p := range h.registry.AllHealth() {
			status := models.HealthStatusOK
			if !p.Healthy() {
				status = models.HealthStatusDegraded
				out.Status = models.HealthStatusDegraded
			}
			ps := models.ProviderStatus{
				Provider:     p.Name,
				Status:       status,
				CircuitState: p.State,
				Message:      p.LastError,
			}
			if p.LastSuccessAt != nil {
				ts := models.Timestamp(*p.LastSuccessAt)
				ps.LastSuccessAt = &ts
			}
			if p.LastFailureAt != nil {
				ts := models.Timestamp(*p.LastFailureAt)
				ps.LastFailureAt = &ts
			}
			out.Providers = append(out.Providers, ps)
		}
	}
	response.JSON(w, r, http.StatusOK, out)
}
