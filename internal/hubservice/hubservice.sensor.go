package hubservice

import (
	"context"

	"github.com/itsatony/w4b_v3/server/geosensor/internal/errors"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/events"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// SensorService is the sensor surface used by the HTTP layer
type SensorService interface {
	CreateSensor(ctx context.Context, in models.SensorCreate) (*models.Sensor, error)
	GetSensor(ctx context.Context, id int64) (*models.Sensor, error)
	ListSensors(ctx context.Context, filters models.SensorFilters) ([]*models.Sensor, error)
	RecordData(ctx context.Context, id int64, data models.SensorData) (*models.SensorView, error)
	GetData(ctx context.Context, id int64) (*models.SensorView, error)
	DeleteSensor(ctx context.Context, id int64) error
	FindNear(ctx context.Context, q models.NearQuery) ([]*models.SensorView, error)
}

var _ SensorService = (*HubService)(nil)

// CreateSensor inserts the identity row and then the attribute document.
// The row is kept when the document insert fails.
func (s *HubService) CreateSensor(ctx context.Context, in models.SensorCreate) (*models.Sensor, error) {
	sensor, err := s.Sensors.Create(ctx, in.Name)
	if err != nil {
		return nil, err
	}

	if err := s.Documents.Insert(ctx, in.Document()); err != nil {
		nuts.L.Errorf("[SensorService] Sensor %d (%s) has no document: %v", sensor.ID, sensor.Name, err)
		return nil, errors.NewPartialWriteError("sensor created without document", []string{"relational_insert"}, err)
	}

	nuts.L.Infof("[SensorService] Created sensor %s (%d)", sensor.Name, sensor.ID)
	s.emit(events.New(events.SensorCreated, sensor.ID, sensor.Name))
	return sensor, nil
}

func (s *HubService) GetSensor(ctx context.Context, id int64) (*models.Sensor, error) {
	return s.Sensors.Get(ctx, id)
}

func (s *HubService) ListSensors(ctx context.Context, filters models.SensorFilters) ([]*models.Sensor, error) {
	return s.Sensors.List(ctx, filters)
}

// RecordData stores a telemetry submission, then assembles the sensor view.
// Temperature, humidity and velocity in the result are the submitted values,
// not a re-read of the cache.
func (s *HubService) RecordData(ctx context.Context, id int64, data models.SensorData) (*models.SensorView, error) {
	if err := s.Telemetry.Record(ctx, id, data); err != nil {
		return nil, err
	}

	sensor, err := s.Sensors.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	doc, err := s.document(ctx, sensor)
	if err != nil {
		return nil, err
	}

	telemetry, err := s.Telemetry.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	telemetry.Temperature = data.Temperature
	telemetry.Humidity = data.Humidity
	telemetry.Velocity = data.Velocity

	s.emit(events.New(events.TelemetryRecorded, sensor.ID, sensor.Name))
	return models.NewSensorView(sensor, doc, telemetry), nil
}

// GetData assembles the sensor view with every telemetry field read from the cache.
func (s *HubService) GetData(ctx context.Context, id int64) (*models.SensorView, error) {
	sensor, err := s.Sensors.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	telemetry, err := s.Telemetry.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	doc, err := s.document(ctx, sensor)
	if err != nil {
		return nil, err
	}

	return models.NewSensorView(sensor, doc, telemetry), nil
}

// DeleteSensor removes the sensor from all stores, see CleanupService.DeleteSensor.
func (s *HubService) DeleteSensor(ctx context.Context, id int64) error {
	return s.Cleanup.DeleteSensor(ctx, id)
}

// document loads the attribute document of a sensor that is known to exist.
// A missing document means the stores disagree.
func (s *HubService) document(ctx context.Context, sensor *models.Sensor) (*models.SensorDocument, error) {
	doc, err := s.Documents.FindByName(ctx, sensor.Name)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewInconsistencyError("sensor "+sensor.Name+" has no document", err)
		}
		return nil, err
	}
	return doc, nil
}
