package cleanup

import (
	"context"

	"github.com/itsatony/w4b_v3/server/geosensor/internal/errors"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/events"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

// Deletion steps, in execution order.
const (
	StepRelational = "relational_delete"
	StepTelemetry  = "telemetry_delete"
	StepDocument   = "document_delete"
)

// CleanupService removes a sensor from all three stores
type CleanupService struct {
	sensors   repository.SensorRepository
	telemetry repository.TelemetryRepository
	documents repository.SensorDocumentRepository
	emit      func(events.Event)
}

// New creates a new CleanupService. emit may be nil.
func New(
	sensors repository.SensorRepository,
	telemetry repository.TelemetryRepository,
	documents repository.SensorDocumentRepository,
	emit func(events.Event),
) *CleanupService {
	if emit == nil {
		emit = func(events.Event) {}
	}
	return &CleanupService{
		sensors:   sensors,
		telemetry: telemetry,
		documents: documents,
		emit:      emit,
	}
}

// DeleteSensor deletes the relational row, then the cached telemetry, then the
// document. Steps already applied are not undone when a later one fails; the
// returned partial_write error lists them.
func (s *CleanupService) DeleteSensor(ctx context.Context, sensorID int64) error {
	sensor, err := s.sensors.Get(ctx, sensorID)
	if err != nil {
		return err
	}

	if err := s.sensors.Delete(ctx, sensorID); err != nil {
		return err
	}
	completed := []string{StepRelational}

	if err := s.telemetry.Delete(ctx, sensorID); err != nil {
		nuts.L.Errorf("[Cleanup] Sensor %d: telemetry delete failed after %v: %v", sensorID, completed, err)
		return errors.NewPartialWriteError("sensor deletion incomplete", completed, err)
	}
	completed = append(completed, StepTelemetry)

	if err := s.documents.DeleteByName(ctx, sensor.Name); err != nil {
		nuts.L.Errorf("[Cleanup] Sensor %d: document delete failed after %v: %v", sensorID, completed, err)
		return errors.NewPartialWriteError("sensor deletion incomplete", completed, err)
	}

	// Emit event after successful deletion
	s.emit(events.New(events.SensorDeleted, sensor.ID, sensor.Name))
	return nil
}
