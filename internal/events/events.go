// FilePath: internal/events/events.go
package events

import (
	"time"

	"github.com/google/uuid"
)

// Sensor lifecycle event names. They double as AMQP routing keys.
const (
	SensorCreated     = "sensor.created"
	SensorDeleted     = "sensor.deleted"
	TelemetryRecorded = "telemetry.recorded"
)

// All lists every event the service emits.
var All = []string{SensorCreated, SensorDeleted, TelemetryRecorded}

// Event describes a completed change to one sensor.
type Event struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	SensorID   int64     `json:"sensor_id"`
	SensorName string    `json:"sensor_name"`
	OccurredAt time.Time `json:"occurred_at"`
}

// New stamps an event with a fresh id and the current time.
func New(name string, sensorID int64, sensorName string) Event {
	return Event{
		ID:         uuid.NewString(),
		Name:       name,
		SensorID:   sensorID,
		SensorName: sensorName,
		OccurredAt: time.Now().UTC(),
	}
}
