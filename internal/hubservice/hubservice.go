package hubservice

import (
	"github.com/itsatony/w4b_v3/server/geosensor/internal/cleanup"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/errors"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/events"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

// HubService coordinates the relational, key-value and document stores that
// together describe a sensor. It holds no state of its own.
type HubService struct {
	Sensors   repository.SensorRepository
	Telemetry repository.TelemetryRepository
	Documents repository.SensorDocumentRepository
	Cleanup   *cleanup.CleanupService
	events    *nuts.EventEmitter
}

// New creates a new HubService instance
func New(
	sensors repository.SensorRepository,
	telemetry repository.TelemetryRepository,
	documents repository.SensorDocumentRepository,
) *HubService {
	svc := &HubService{
		Sensors:   sensors,
		Telemetry: telemetry,
		Documents: documents,
		events:    nuts.NewEventEmitter(),
	}
	svc.Cleanup = cleanup.New(sensors, telemetry, documents, svc.emit)
	return svc
}

// Validate checks if all required repositories are initialized
func (s *HubService) Validate() error {
	if s.Sensors == nil {
		return ErrMissingRepository("sensors")
	}
	if s.Telemetry == nil {
		return ErrMissingRepository("telemetry")
	}
	if s.Documents == nil {
		return ErrMissingRepository("documents")
	}
	return nil
}

// OnEvent registers handler for one of the events.* names. handlerID must be
// unique per event.
func (s *HubService) OnEvent(event, handlerID string, handler func(events.Event)) {
	s.events.On(event, handlerID, func(args ...interface{}) {
		if len(args) > 0 {
			if evt, ok := args[0].(events.Event); ok {
				handler(evt)
			}
		}
	})
}

func (s *HubService) emit(evt events.Event) {
	s.events.Emit(evt.Name, evt)
}

func ErrMissingRepository(name string) error {
	return errors.NewInternalError("missing repository: "+name, nil)
}
