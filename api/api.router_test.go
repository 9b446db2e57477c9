package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/itsatony/w4b_v3/server/geosensor/api/resources"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/config"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/errors"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/hubservice"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/models"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/monitoring"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	created  models.SensorCreate
	filters  models.SensorFilters
	near     models.NearQuery
	recorded models.SensorData
	deleted  int64
	err      error
}

var _ hubservice.SensorService = (*fakeService)(nil)

func (f *fakeService) CreateSensor(_ context.Context, in models.SensorCreate) (*models.Sensor, error) {
	f.created = in
	if f.err != nil {
		return nil, f.err
	}
	return &models.Sensor{ID: 1, Name: in.Name}, nil
}

func (f *fakeService) GetSensor(_ context.Context, id int64) (*models.Sensor, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Sensor{ID: id, Name: "s1"}, nil
}

func (f *fakeService) ListSensors(_ context.Context, filters models.SensorFilters) ([]*models.Sensor, error) {
	f.filters = filters
	return []*models.Sensor{}, f.err
}

func (f *fakeService) RecordData(_ context.Context, id int64, data models.SensorData) (*models.SensorView, error) {
	f.recorded = data
	if f.err != nil {
		return nil, f.err
	}
	return &models.SensorView{ID: id, Name: "s1", Temperature: data.Temperature}, nil
}

func (f *fakeService) GetData(_ context.Context, id int64) (*models.SensorView, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.SensorView{ID: id, Name: "s1"}, nil
}

func (f *fakeService) DeleteSensor(_ context.Context, id int64) error {
	f.deleted = id
	return f.err
}

func (f *fakeService) FindNear(_ context.Context, q models.NearQuery) ([]*models.SensorView, error) {
	f.near = q
	return []*models.SensorView{}, f.err
}

func newTestRouter(svc *fakeService, checks map[string]resources.Checker) *Router {
	res := resources.NewResources(svc, monitoring.NewService(monitoring.Config{}), checks)
	return NewRouter(res, nil, config.ServerConfig{AllowedOrigins: []string{"*"}})
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errors.APIError {
	t.Helper()
	var apiErr errors.APIError
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&apiErr))
	return apiErr
}

func TestCreateSensor(t *testing.T) {
	svc := &fakeService{}
	rec := do(t, newTestRouter(svc, nil), http.MethodPost, "/api/v1/sensors",
		`{"name":"s1","longitude":10.0,"latitude":20.0,"type":"temperature","mac_address":"aa:bb"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "s1", svc.created.Name)
	assert.Equal(t, 20.0, svc.created.Latitude)
	assert.Equal(t, models.Temperature, svc.created.Type)
}

func TestCreateSensorValidation(t *testing.T) {
	r := newTestRouter(&fakeService{}, nil)

	t.Run("malformed body", func(t *testing.T) {
		rec := do(t, r, http.MethodPost, "/api/v1/sensors", `{"name":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		apiErr := decodeError(t, rec)
		assert.Equal(t, errors.ErrorTypeValidation, apiErr.Type)
		assert.True(t, strings.HasPrefix(apiErr.RequestID, "req"))
	})

	t.Run("missing name", func(t *testing.T) {
		rec := do(t, r, http.MethodPost, "/api/v1/sensors", `{"latitude":1}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	cases := []struct {
		name string
		body string
		msg  string
	}{
		{"name only", `{"name":"x"}`, "longitude is required"},
		{"missing latitude", `{"name":"x","longitude":1,"type":"temperature","mac_address":"aa"}`, "latitude is required"},
		{"missing type", `{"name":"x","longitude":1,"latitude":2,"mac_address":"aa"}`, "type is required"},
		{"missing mac address", `{"name":"x","longitude":1,"latitude":2,"type":"humidity"}`, "mac_address is required"},
		{"latitude out of range", `{"name":"x","longitude":1,"latitude":95,"type":"humidity","mac_address":"aa"}`, "latitude must be within [-90, 90]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeService{}
			rec := do(t, newTestRouter(svc, nil), http.MethodPost, "/api/v1/sensors", tc.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tc.msg, decodeError(t, rec).Message)
			assert.Empty(t, svc.created.Name, "service is not called")
		})
	}

	t.Run("zero coordinates are accepted", func(t *testing.T) {
		svc := &fakeService{}
		rec := do(t, newTestRouter(svc, nil), http.MethodPost, "/api/v1/sensors",
			`{"name":"origin","longitude":0,"latitude":0,"type":"multi","mac_address":"aa"}`)
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "origin", svc.created.Name)
	})
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		typ  errors.ErrorType
	}{
		{"not found", errors.NewNotFoundError("sensor not found", nil), http.StatusNotFound, errors.ErrorTypeNotFound},
		{"inconsistent", errors.NewInconsistencyError("no document", nil), http.StatusInternalServerError, errors.ErrorTypeInconsistent},
		{"untyped", stderrors.New("boom"), http.StatusInternalServerError, errors.ErrorTypeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, newTestRouter(&fakeService{err: tc.err}, nil), http.MethodGet, "/api/v1/sensors/7/data", "")
			assert.Equal(t, tc.code, rec.Code)
			assert.Equal(t, tc.typ, decodeError(t, rec).Type)
		})
	}
}

func TestRecordData(t *testing.T) {
	svc := &fakeService{}
	rec := do(t, newTestRouter(svc, nil), http.MethodPost, "/api/v1/sensors/3/data",
		`{"temperature":21.5,"battery_level":90,"last_seen":"2024-01-01T00:00:00"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.recorded.Temperature)
	assert.Equal(t, 21.5, *svc.recorded.Temperature)
	assert.Nil(t, svc.recorded.Humidity)

	var view models.SensorView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	assert.Equal(t, int64(3), view.ID)
}

func TestRecordDataRequiresBatteryLevel(t *testing.T) {
	svc := &fakeService{}
	rec := do(t, newTestRouter(svc, nil), http.MethodPost, "/api/v1/sensors/3/data", `{"last_seen":"t"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	apiErr := decodeError(t, rec)
	assert.Equal(t, errors.ErrorTypeValidation, apiErr.Type)
	assert.Equal(t, "battery_level is required", apiErr.Message)
	assert.Equal(t, models.SensorData{}, svc.recorded, "service is not called")
}

func TestRecordDataMissingBatteryLevelWritesNothing(t *testing.T) {
	calls := &testutil.Calls{}
	telemetry := testutil.NewTelemetry(calls)
	hub := hubservice.New(testutil.NewSensors(calls), telemetry, testutil.NewDocuments(calls))
	r := NewRouter(resources.NewResources(hub, nil, nil), nil, config.ServerConfig{AllowedOrigins: []string{"*"}})

	rec := do(t, r, http.MethodPost, "/api/v1/sensors",
		`{"name":"s1","longitude":10,"latitude":20,"type":"temperature","mac_address":"aa:bb"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, r, http.MethodPost, "/api/v1/sensors/1/data", `{"last_seen":"t"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, telemetry.Has(1, models.FieldBatteryLevel))

	rec = do(t, r, http.MethodPost, "/api/v1/sensors/1/data", `{"battery_level":0,"last_seen":"t"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var view models.SensorView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	require.NotNil(t, view.BatteryLevel)
	assert.Equal(t, 0.0, *view.BatteryLevel)
	assert.True(t, telemetry.Has(1, models.FieldBatteryLevel))
}

func TestRecordDataRequiresLastSeen(t *testing.T) {
	rec := do(t, newTestRouter(&fakeService{}, nil), http.MethodPost, "/api/v1/sensors/3/data", `{"battery_level":90}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteSensor(t *testing.T) {
	svc := &fakeService{}
	rec := do(t, newTestRouter(svc, nil), http.MethodDelete, "/api/v1/sensors/42", "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(42), svc.deleted)
}

func TestDeleteSensorPartialWrite(t *testing.T) {
	svc := &fakeService{err: errors.NewPartialWriteError("sensor deletion incomplete", []string{"relational_delete"}, nil)}
	rec := do(t, newTestRouter(svc, nil), http.MethodDelete, "/api/v1/sensors/42", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	apiErr := decodeError(t, rec)
	assert.Equal(t, errors.ErrorTypePartialWrite, apiErr.Type)
	assert.NotNil(t, apiErr.Details)
}

func TestListSensorsDecodesPaging(t *testing.T) {
	svc := &fakeService{}
	r := newTestRouter(svc, nil)

	rec := do(t, r, http.MethodGet, "/api/v1/sensors?skip=5&limit=10", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.SensorFilters{Skip: 5, Limit: 10}, svc.filters)

	do(t, r, http.MethodGet, "/api/v1/sensors", "")
	assert.Equal(t, models.SensorFilters{Skip: 0, Limit: models.DefaultListLimit}, svc.filters)

	rec = do(t, r, http.MethodGet, "/api/v1/sensors?limit=many", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFindNear(t *testing.T) {
	svc := &fakeService{}
	r := newTestRouter(svc, nil)

	rec := do(t, r, http.MethodGet, "/api/v1/sensors/near?latitude=20&longitude=10&radius=0", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
	assert.Equal(t, models.NearQuery{Latitude: 20, Longitude: 10, Radius: 0}, svc.near)

	t.Run("missing radius", func(t *testing.T) {
		rec := do(t, r, http.MethodGet, "/api/v1/sensors/near?latitude=20&longitude=10", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("negative radius", func(t *testing.T) {
		rec := do(t, r, http.MethodGet, "/api/v1/sensors/near?latitude=20&longitude=10&radius=-1", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestNonNumericIDIsNotRouted(t *testing.T) {
	rec := do(t, newTestRouter(&fakeService{}, nil), http.MethodGet, "/api/v1/sensors/abc", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthCheck(t *testing.T) {
	t.Run("all up", func(t *testing.T) {
		checks := map[string]resources.Checker{"postgres": func(context.Context) error { return nil }}
		rec := do(t, newTestRouter(&fakeService{}, checks), http.MethodGet, "/api/v1/health", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		var body resources.HealthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "ok", body.Status)
		assert.Equal(t, "up", body.Stores["postgres"])
	})

	t.Run("store down", func(t *testing.T) {
		checks := map[string]resources.Checker{"redis": func(context.Context) error { return stderrors.New("refused") }}
		rec := do(t, newTestRouter(&fakeService{}, checks), http.MethodGet, "/api/v1/health", "")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		var body resources.HealthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "degraded", body.Status)
		assert.Equal(t, "down", body.Stores["redis"])
	})
}

func TestSwaggerDoc(t *testing.T) {
	rec := do(t, newTestRouter(&fakeService{}, nil), http.MethodGet, "/api/v1/swagger/doc.json", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "/api/v1", doc["basePath"])
	assert.Contains(t, doc["paths"], "/sensors/near")
}

func TestMetrics(t *testing.T) {
	mon := monitoring.NewService(monitoring.Config{})
	mon.RecordEvent("sensor.created", nil)
	res := resources.NewResources(&fakeService{}, mon, nil)
	r := NewRouter(res, nil, config.ServerConfig{AllowedOrigins: []string{"*"}})

	rec := do(t, r, http.MethodGet, "/api/v1/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sensor.created":{"total":1,"window":1}}`, rec.Body.String())

	rec = do(t, r, http.MethodGet, "/api/v1/metrics?window=15m", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sensor.created":{"total":1,"window":1}}`, rec.Body.String())

	rec = do(t, r, http.MethodGet, "/api/v1/metrics?window=soon", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
