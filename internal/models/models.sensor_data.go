// FilePath: internal/models/models.sensor_data.go
package models

// Telemetry field names, also used as the key suffix in the cache.
const (
	FieldTemperature  = "temperature"
	FieldHumidity     = "humidity"
	FieldBatteryLevel = "battery_level"
	FieldLastSeen     = "last_seen"
	FieldVelocity     = "velocity"
)

// TelemetryFields lists every cached field of a sensor.
var TelemetryFields = []string{
	FieldTemperature,
	FieldHumidity,
	FieldBatteryLevel,
	FieldLastSeen,
	FieldVelocity,
}

// SensorData is one telemetry submission. Nil optional fields are not written.
type SensorData struct {
	Temperature  *float64 `json:"temperature,omitempty"`
	Humidity     *float64 `json:"humidity,omitempty"`
	BatteryLevel float64  `json:"battery_level"`
	LastSeen     string   `json:"last_seen"`
	Velocity     *float64 `json:"velocity,omitempty"`
}

// Telemetry is the cached state of a sensor. A nil field was never recorded.
type Telemetry struct {
	Temperature  *float64
	Humidity     *float64
	BatteryLevel *float64
	LastSeen     *string
	Velocity     *float64
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
