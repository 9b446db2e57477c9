package resources

import (
	"context"
	"net/http"
	"time"

	"github.com/itsatony/w4b_v3/server/geosensor/internal/errors"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/monitoring"
	"github.com/swaggo/swag"
	nuts "github.com/vaudience/go-nuts"
)

const (
	healthTimeout        = 2 * time.Second
	defaultMetricsWindow = time.Hour
)

// SystemHandlers serve health, metrics and the API document
type SystemHandlers struct {
	monitoring *monitoring.Service
	checks     map[string]Checker
}

// HealthResponse reports the version and the state of every store
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Stores  map[string]string `json:"stores"`
}

// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *SystemHandlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := HealthResponse{Status: "ok", Version: nuts.GetVersion(), Stores: map[string]string{}}
	code := http.StatusOK
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			nuts.L.Warnf("[Health] %s unreachable: %v", name, err)
			resp.Stores[name] = "down"
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Stores[name] = "up"
	}

	respondWithJSON(w, code, resp)
}

// @Summary Event counters
// @Description Lifetime totals and counts within the window of sensor lifecycle events
// @Tags system
// @Produce json
// @Param window query string false "Window as a Go duration, e.g. 15m (default 1h)"
// @Success 200 {object} map[string]map[string]int64
// @Failure 400 {object} errors.APIError
// @Router /metrics [get]
func (h *SystemHandlers) Metrics(w http.ResponseWriter, r *http.Request) {
	window := defaultMetricsWindow
	if raw := r.URL.Query().Get("window"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			respondWithError(w, errors.NewValidationError("window must be a positive duration", err).WithRequestID(nuts.NID("req", 12)))
			return
		}
		window = parsed
	}

	if h.monitoring == nil {
		respondWithJSON(w, http.StatusOK, map[string]map[string]int64{})
		return
	}
	respondWithJSON(w, http.StatusOK, h.monitoring.Metrics(window))
}

// SwaggerDoc serves the registered OpenAPI document
func (h *SystemHandlers) SwaggerDoc(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		respondWithError(w, errors.NewInternalError("api document not registered", err).WithRequestID(nuts.NID("req", 12)))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(doc))
}
