// FilePath: internal/repository/mongo/mongo.sensor_document.go
package mongo

import (
	"context"
	stderrors "errors"

	"github.com/itsatony/w4b_v3/server/geosensor/internal/errors"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/models"
	nuts "github.com/vaudience/go-nuts"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const locationField = "location"

type SensorDocumentRepo struct {
	collection *mongo.Collection
}

func NewSensorDocumentRepository(collection *mongo.Collection) *SensorDocumentRepo {
	return &SensorDocumentRepo{collection: collection}
}

func (r *SensorDocumentRepo) Insert(ctx context.Context, doc *models.SensorDocument) error {
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return errors.NewDocumentStoreError("failed to insert sensor document", err)
	}
	return nil
}

func (r *SensorDocumentRepo) FindByName(ctx context.Context, name string) (*models.SensorDocument, error) {
	doc := &models.SensorDocument{}
	err := r.collection.FindOne(ctx, nameFilter(name)).Decode(doc)
	if err != nil {
		if stderrors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.NewNotFoundError("sensor document not found", err)
		}
		return nil, errors.NewDocumentStoreError("failed to find sensor document", err)
	}
	return doc, nil
}

// DeleteByName removes at most one document. Deleting a missing document is not an error.
func (r *SensorDocumentRepo) DeleteByName(ctx context.Context, name string) error {
	result, err := r.collection.DeleteOne(ctx, nameFilter(name))
	if err != nil {
		return errors.NewDocumentStoreError("failed to delete sensor document", err)
	}
	if result.DeletedCount == 0 {
		nuts.L.Warnf("[SensorDocumentRepo] No document found for sensor %s", name)
	}
	return nil
}

// EnsureGeoIndex creates the 2dsphere index on location. Creating an
// identical index again is a no-op on the server.
func (r *SensorDocumentRepo) EnsureGeoIndex(ctx context.Context) error {
	if _, err := r.collection.Indexes().CreateOne(ctx, geoIndexModel()); err != nil {
		return errors.NewDocumentStoreError("failed to create geospatial index", err)
	}
	return nil
}

// FindNear relies on $near ordering (nearest first) and applies no limit.
func (r *SensorDocumentRepo) FindNear(ctx context.Context, latitude, longitude, radius float64) ([]*models.SensorDocument, error) {
	cursor, err := r.collection.Find(ctx, nearFilter(latitude, longitude, radius))
	if err != nil {
		return nil, errors.NewDocumentStoreError("failed to run proximity query", err)
	}

	docs := []*models.SensorDocument{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.NewDocumentStoreError("failed to decode proximity results", err)
	}
	return docs, nil
}

func nameFilter(name string) bson.D {
	return bson.D{{Key: "name", Value: name}}
}

func geoIndexModel() mongo.IndexModel {
	return mongo.IndexModel{Keys: bson.D{{Key: locationField, Value: "2dsphere"}}}
}

func nearFilter(latitude, longitude, radius float64) bson.D {
	return bson.D{{Key: locationField, Value: bson.D{
		{Key: "$near", Value: bson.D{
			{Key: "$geometry", Value: bson.D{
				{Key: "type", Value: models.GeoJSONPoint},
				{Key: "coordinates", Value: bson.A{longitude, latitude}},
			}},
			{Key: "$maxDistance", Value: radius},
		}},
	}}}
}
