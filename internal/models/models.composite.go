// FilePath: internal/models/models.composite.go
package models

import "time"

// SensorView merges the relational identity, the document attributes and the
// cached telemetry of one sensor.
type SensorView struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Latitude     float64    `json:"latitude"`
	Longitude    float64    `json:"longitude"`
	JoinedAt     time.Time  `json:"joined_at"`
	LastSeen     *string    `json:"last_seen"`
	Type         SensorType `json:"type"`
	MacAddress   string     `json:"mac_address"`
	BatteryLevel *float64   `json:"battery_level"`
	Temperature  *float64   `json:"temperature"`
	Humidity     *float64   `json:"humidity"`
	Velocity     *float64   `json:"velocity"`
}

// NewSensorView assembles a view. Telemetry is copied as given.
func NewSensorView(sensor *Sensor, doc *SensorDocument, telemetry Telemetry) *SensorView {
	return &SensorView{
		ID:           sensor.ID,
		Name:         sensor.Name,
		Latitude:     doc.Location.Latitude(),
		Longitude:    doc.Location.Longitude(),
		JoinedAt:     sensor.JoinedAt,
		LastSeen:     telemetry.LastSeen,
		Type:         doc.Type,
		MacAddress:   doc.MacAddress,
		BatteryLevel: telemetry.BatteryLevel,
		Temperature:  telemetry.Temperature,
		Humidity:     telemetry.Humidity,
		Velocity:     telemetry.Velocity,
	}
}
