// FilePath: internal/repository/repository.go
package repository

import (
	"context"

	"github.com/itsatony/w4b_v3/server/geosensor/internal/models"
)

// SensorRepository is the relational store: source of truth for sensor identity.
// Lookups that miss return an errors.ErrorTypeNotFound error.
type SensorRepository interface {
	Create(ctx context.Context, name string) (*models.Sensor, error)
	Get(ctx context.Context, id int64) (*models.Sensor, error)
	GetByName(ctx context.Context, name string) (*models.Sensor, error)
	List(ctx context.Context, filters models.SensorFilters) ([]*models.Sensor, error)
	Delete(ctx context.Context, id int64) error
}

// TelemetryRepository is the key-value store holding the latest readings,
// one key per sensor and field.
type TelemetryRepository interface {
	// Record writes the required fields and every non-nil optional field.
	Record(ctx context.Context, sensorID int64, data models.SensorData) error
	// Get reads all fields; absent keys stay nil.
	Get(ctx context.Context, sensorID int64) (models.Telemetry, error)
	// Delete removes every field key of the sensor.
	Delete(ctx context.Context, sensorID int64) error
}

// SensorDocumentRepository is the document store holding static attributes
// and the GeoJSON location. FindByName returns an errors.ErrorTypeNotFound
// error when no document matches.
type SensorDocumentRepository interface {
	Insert(ctx context.Context, doc *models.SensorDocument) error
	FindByName(ctx context.Context, name string) (*models.SensorDocument, error)
	DeleteByName(ctx context.Context, name string) error
	EnsureGeoIndex(ctx context.Context) error
	// FindNear returns documents within radius metres, nearest first.
	FindNear(ctx context.Context, latitude, longitude, radius float64) ([]*models.SensorDocument, error)
}
