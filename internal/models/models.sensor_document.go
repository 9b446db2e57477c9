package models

// GeoJSONPoint is the only geometry type stored on sensor documents.
const GeoJSONPoint = "Point"

// GeoPoint is a GeoJSON Point. Coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string    `json:"type" bson:"type"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates"`
}

func NewGeoPoint(longitude, latitude float64) GeoPoint {
	return GeoPoint{Type: GeoJSONPoint, Coordinates: []float64{longitude, latitude}}
}

// Longitude returns coordinates[0], or 0 for a malformed point.
func (p GeoPoint) Longitude() float64 {
	if len(p.Coordinates) < 2 {
		return 0
	}
	return p.Coordinates[0]
}

// Latitude returns coordinates[1], or 0 for a malformed point.
func (p GeoPoint) Latitude() float64 {
	if len(p.Coordinates) < 2 {
		return 0
	}
	return p.Coordinates[1]
}

// SensorDocument holds the static attributes of a sensor in the document store.
// It references the relational row by Name only.
type SensorDocument struct {
	Name            string     `json:"name" bson:"name"`
	Location        GeoPoint   `json:"location" bson:"location"`
	Type            SensorType `json:"type" bson:"type"`
	MacAddress      string     `json:"mac_address" bson:"mac_address"`
	Manufacturer    string     `json:"manufacturer" bson:"manufacturer"`
	Model           string     `json:"model" bson:"model"`
	SerieNumber     string     `json:"serie_number" bson:"serie_number"`
	FirmwareVersion string     `json:"firmware_version" bson:"firmware_version"`
}
