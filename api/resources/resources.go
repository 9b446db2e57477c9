// FilePath: api/resources/resources.go
package resources

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/schema"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/errors"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/hubservice"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/monitoring"
	nuts "github.com/vaudience/go-nuts"
)

// Checker reports whether a backing store is reachable.
type Checker func(ctx context.Context) error

// Resources holds all HTTP resource handlers
type Resources struct {
	Sensors *SensorHandlers
	System  *SystemHandlers
}

// NewResources creates a new Resources instance. checks are keyed by store
// name and reported by the health endpoint.
func NewResources(svc hubservice.SensorService, mon *monitoring.Service, checks map[string]Checker) *Resources {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	return &Resources{
		Sensors: &SensorHandlers{service: svc, decoder: decoder},
		System:  &SystemHandlers{monitoring: mon, checks: checks},
	}
}

// toAPIError keeps typed errors and wraps anything else as internal.
func toAPIError(err error, fallback string, requestID string) *errors.APIError {
	if apiErr, ok := errors.As(err); ok {
		cp := *apiErr
		return cp.WithRequestID(requestID)
	}
	return errors.NewInternalError(fallback, err).WithRequestID(requestID)
}

func respondWithError(w http.ResponseWriter, err *errors.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code)
	json.NewEncoder(w).Encode(err)
	if err.Code >= http.StatusInternalServerError {
		nuts.L.Errorf("[API] %s", err.Error())
	} else {
		nuts.L.Debugf("[API] %s", err.Error())
	}
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}
