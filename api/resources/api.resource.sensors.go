package resources

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/errors"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/hubservice"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// SensorHandlers encapsulates the sensor-related HTTP handlers
type SensorHandlers struct {
	service hubservice.SensorService
	decoder *schema.Decoder
}

// @Summary Register a sensor
// @Description Create the sensor row and its attribute document
// @Tags sensors
// @Accept json
// @Produce json
// @Param sensor body models.SensorCreateRequest true "Sensor details"
// @Success 201 {object} models.Sensor
// @Failure 400 {object} errors.APIError
// @Failure 500 {object} errors.APIError
// @Router /sensors [post]
// @Security BearerAuth
func (h *SensorHandlers) CreateSensor(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var req models.SensorCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}
	if apiErr := req.Validate(); apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	sensor, err := h.service.CreateSensor(r.Context(), req.SensorCreate())
	if err != nil {
		respondWithError(w, toAPIError(err, "failed to create sensor", requestID))
		return
	}

	respondWithJSON(w, http.StatusCreated, sensor)
}

// @Summary List sensors
// @Description Get a page of sensor rows ordered by id
// @Tags sensors
// @Produce json
// @Param skip query int false "Rows to skip"
// @Param limit query int false "Maximum rows (default 100)"
// @Success 200 {array} models.Sensor
// @Router /sensors [get]
// @Security BearerAuth
func (h *SensorHandlers) ListSensors(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var filters models.SensorFilters
	if err := h.decoder.Decode(&filters, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewValidationError("invalid query parameters", err).WithRequestID(requestID))
		return
	}

	sensors, err := h.service.ListSensors(r.Context(), filters.Normalize())
	if err != nil {
		respondWithError(w, toAPIError(err, "failed to list sensors", requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, sensors)
}

// @Summary Get a sensor by ID
// @Tags sensors
// @Produce json
// @Param id path int true "Sensor ID"
// @Success 200 {object} models.Sensor
// @Failure 404 {object} errors.APIError
// @Router /sensors/{id} [get]
// @Security BearerAuth
func (h *SensorHandlers) GetSensor(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	id, apiErr := sensorID(r)
	if apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	sensor, err := h.service.GetSensor(r.Context(), id)
	if err != nil {
		respondWithError(w, toAPIError(err, "failed to get sensor", requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, sensor)
}

// @Summary Delete a sensor
// @Description Remove the sensor from the relational store, the telemetry cache and the document store
// @Tags sensors
// @Param id path int true "Sensor ID"
// @Success 204
// @Failure 404 {object} errors.APIError
// @Failure 500 {object} errors.APIError
// @Router /sensors/{id} [delete]
// @Security BearerAuth
func (h *SensorHandlers) DeleteSensor(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	id, apiErr := sensorID(r)
	if apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	if err := h.service.DeleteSensor(r.Context(), id); err != nil {
		respondWithError(w, toAPIError(err, "failed to delete sensor", requestID))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// @Summary Record telemetry
// @Description Store the latest readings of a sensor and return its merged view
// @Tags sensors
// @Accept json
// @Produce json
// @Param id path int true "Sensor ID"
// @Param data body models.SensorDataRequest true "Readings"
// @Success 200 {object} models.SensorView
// @Failure 400 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /sensors/{id}/data [post]
// @Security BearerAuth
func (h *SensorHandlers) RecordData(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	id, apiErr := sensorID(r)
	if apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	var req models.SensorDataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}
	if apiErr := req.Validate(); apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	view, err := h.service.RecordData(r.Context(), id, req.SensorData())
	if err != nil {
		respondWithError(w, toAPIError(err, "failed to record sensor data", requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, view)
}

// @Summary Get sensor data
// @Description Get the merged view of identity, attributes and latest readings
// @Tags sensors
// @Produce json
// @Param id path int true "Sensor ID"
// @Success 200 {object} models.SensorView
// @Failure 404 {object} errors.APIError
// @Router /sensors/{id}/data [get]
// @Security BearerAuth
func (h *SensorHandlers) GetData(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	id, apiErr := sensorID(r)
	if apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	view, err := h.service.GetData(r.Context(), id)
	if err != nil {
		respondWithError(w, toAPIError(err, "failed to get sensor data", requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, view)
}

// @Summary Find sensors near a point
// @Description Sensors within radius metres of the point, nearest first
// @Tags sensors
// @Produce json
// @Param latitude query number true "Latitude"
// @Param longitude query number true "Longitude"
// @Param radius query number true "Radius in metres"
// @Success 200 {array} models.SensorView
// @Failure 400 {object} errors.APIError
// @Router /sensors/near [get]
// @Security BearerAuth
func (h *SensorHandlers) FindNear(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var q models.NearQuery
	if err := h.decoder.Decode(&q, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewValidationError("latitude, longitude and radius are required numbers", err).WithRequestID(requestID))
		return
	}
	if q.Radius < 0 {
		respondWithError(w, errors.NewValidationError("radius must not be negative", nil).WithRequestID(requestID))
		return
	}

	views, err := h.service.FindNear(r.Context(), q)
	if err != nil {
		respondWithError(w, toAPIError(err, "failed to find sensors", requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, views)
}

func sensorID(r *http.Request) (int64, *errors.APIError) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, errors.NewValidationError("invalid sensor id", err)
	}
	return id, nil
}
