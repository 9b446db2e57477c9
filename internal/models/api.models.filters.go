package models

// DefaultListLimit caps sensor listings when no limit is given.
const DefaultListLimit = 100

// SensorFilters defines the paging options for sensor listings
type SensorFilters struct {
	Skip  int `json:"skip" schema:"skip"`
	Limit int `json:"limit" schema:"limit"`
}

// Normalize applies the default limit and clamps negative offsets.
func (f SensorFilters) Normalize() SensorFilters {
	if f.Skip < 0 {
		f.Skip = 0
	}
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	return f
}

// NearQuery selects sensors within Radius metres of a point.
type NearQuery struct {
	Latitude  float64 `json:"latitude" schema:"latitude,required"`
	Longitude float64 `json:"longitude" schema:"longitude,required"`
	Radius    float64 `json:"radius" schema:"radius,required"`
}
