package models

import (
	"github.com/itsatony/w4b_v3/server/geosensor/internal/errors"
)

// SensorCreateRequest is the registration body as sent by a client. Pointer
// fields tell an omitted coordinate apart from 0.
type SensorCreateRequest struct {
	Name            string     `json:"name"`
	Longitude       *float64   `json:"longitude"`
	Latitude        *float64   `json:"latitude"`
	Type            SensorType `json:"type"`
	MacAddress      string     `json:"mac_address"`
	Manufacturer    string     `json:"manufacturer"`
	Model           string     `json:"model"`
	SerieNumber     string     `json:"serie_number"`
	FirmwareVersion string     `json:"firmware_version"`
}

// Validate checks required fields and coordinate ranges.
func (r SensorCreateRequest) Validate() *errors.APIError {
	switch {
	case r.Name == "":
		return errors.NewValidationError("name is required", nil)
	case r.Longitude == nil:
		return errors.NewValidationError("longitude is required", nil)
	case r.Latitude == nil:
		return errors.NewValidationError("latitude is required", nil)
	case *r.Longitude < -180 || *r.Longitude > 180:
		return errors.NewValidationError("longitude must be within [-180, 180]", nil)
	case *r.Latitude < -90 || *r.Latitude > 90:
		return errors.NewValidationError("latitude must be within [-90, 90]", nil)
	case r.Type == "":
		return errors.NewValidationError("type is required", nil)
	case r.MacAddress == "":
		return errors.NewValidationError("mac_address is required", nil)
	}
	return nil
}

// SensorCreate converts a validated request.
func (r SensorCreateRequest) SensorCreate() SensorCreate {
	return SensorCreate{
		Name:            r.Name,
		Longitude:       *r.Longitude,
		Latitude:        *r.Latitude,
		Type:            r.Type,
		MacAddress:      r.MacAddress,
		Manufacturer:    r.Manufacturer,
		Model:           r.Model,
		SerieNumber:     r.SerieNumber,
		FirmwareVersion: r.FirmwareVersion,
	}
}

// SensorDataRequest is a telemetry body as sent by a client.
type SensorDataRequest struct {
	Temperature  *float64 `json:"temperature"`
	Humidity     *float64 `json:"humidity"`
	BatteryLevel *float64 `json:"battery_level"`
	LastSeen     *string  `json:"last_seen"`
	Velocity     *float64 `json:"velocity"`
}

// Validate requires battery_level and a non-empty last_seen.
func (r SensorDataRequest) Validate() *errors.APIError {
	if r.BatteryLevel == nil {
		return errors.NewValidationError("battery_level is required", nil)
	}
	if r.LastSeen == nil || *r.LastSeen == "" {
		return errors.NewValidationError("last_seen is required", nil)
	}
	return nil
}

// SensorData converts a validated request.
func (r SensorDataRequest) SensorData() SensorData {
	return SensorData{
		Temperature:  r.Temperature,
		Humidity:     r.Humidity,
		BatteryLevel: *r.BatteryLevel,
		LastSeen:     *r.LastSeen,
		Velocity:     r.Velocity,
	}
}
