// FilePath: internal/models/models.sensor.go
package models

import "time"

// SensorType is the free-form device class stored with the sensor document.
type SensorType string

const (
	Temperature SensorType = "temperature"
	Humidity    SensorType = "humidity"
	Velocity    SensorType = "velocity"
	Multi       SensorType = "multi"
	Other       SensorType = "other"
)

// Sensor is the relational identity row. It is created on registration,
// never mutated and removed on deletion.
type Sensor struct {
	ID       int64     `json:"id" db:"id"`
	Name     string    `json:"name" db:"name"`
	JoinedAt time.Time `json:"joined_at" db:"joined_at"`
}

// SensorCreate is the registration input.
type SensorCreate struct {
	Name            string     `json:"name"`
	Longitude       float64    `json:"longitude"`
	Latitude        float64    `json:"latitude"`
	Type            SensorType `json:"type"`
	MacAddress      string     `json:"mac_address"`
	Manufacturer    string     `json:"manufacturer"`
	Model           string     `json:"model"`
	SerieNumber     string     `json:"serie_number"`
	FirmwareVersion string     `json:"firmware_version"`
}

// Document builds the document-store record for a new sensor.
func (c SensorCreate) Document() *SensorDocument {
	return &SensorDocument{
		Name:            c.Name,
		Location:        NewGeoPoint(c.Longitude, c.Latitude),
		Type:            c.Type,
		MacAddress:      c.MacAddress,
		Manufacturer:    c.Manufacturer,
		Model:           c.Model,
		SerieNumber:     c.SerieNumber,
		FirmwareVersion: c.FirmwareVersion,
	}
}
