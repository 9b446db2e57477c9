package mongo

import (
	"context"
	"testing"

	"github.com/itsatony/w4b_v3/server/geosensor/internal/errors"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func sensorDoc(name string, lon, lat float64) bson.D {
	return bson.D{
		{Key: "name", Value: name},
		{Key: "location", Value: bson.D{
			{Key: "type", Value: "Point"},
			{Key: "coordinates", Value: bson.A{lon, lat}},
		}},
		{Key: "type", Value: "temperature"},
		{Key: "mac_address", Value: "aa:bb"},
	}
}

func TestNearFilter(t *testing.T) {
	filter := nearFilter(20.0, 10.0, 500)

	require.Len(t, filter, 1)
	assert.Equal(t, "location", filter[0].Key)
	near := filter[0].Value.(bson.D)
	require.Len(t, near, 1)
	assert.Equal(t, "$near", near[0].Key)

	params := near[0].Value.(bson.D)
	require.Len(t, params, 2)
	assert.Equal(t, "$geometry", params[0].Key)
	assert.Equal(t, bson.D{
		{Key: "type", Value: "Point"},
		{Key: "coordinates", Value: bson.A{10.0, 20.0}},
	}, params[0].Value, "GeoJSON order is [lon, lat]")
	assert.Equal(t, bson.E{Key: "$maxDistance", Value: 500.0}, params[1])
}

func TestGeoIndexModel(t *testing.T) {
	assert.Equal(t, bson.D{{Key: "location", Value: "2dsphere"}}, geoIndexModel().Keys)
}

func TestSensorDocumentRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("insert", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewSensorDocumentRepository(mt.Coll)

		err := repo.Insert(ctx, models.SensorCreate{Name: "s1", Longitude: 10, Latitude: 20}.Document())
		assert.NoError(t, err)
	})

	mt.Run("find by name", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, sensorDoc("s1", 10, 20)))
		repo := NewSensorDocumentRepository(mt.Coll)

		doc, err := repo.FindByName(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, "s1", doc.Name)
		assert.Equal(t, 20.0, doc.Location.Latitude())
		assert.Equal(t, models.Temperature, doc.Type)
	})

	mt.Run("find by name missing", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		repo := NewSensorDocumentRepository(mt.Coll)

		_, err := repo.FindByName(ctx, "ghost")
		assert.True(t, errors.IsNotFound(err))
	})

	mt.Run("delete by name", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		repo := NewSensorDocumentRepository(mt.Coll)

		assert.NoError(t, repo.DeleteByName(ctx, "s1"))
	})

	mt.Run("find near keeps server order", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			sensorDoc("close", 10.0001, 20),
			sensorDoc("far", 10.01, 20),
		))
		repo := NewSensorDocumentRepository(mt.Coll)

		docs, err := repo.FindNear(ctx, 20, 10, 5000)
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "close", docs[0].Name)
		assert.Equal(t, "far", docs[1].Name)
	})

	mt.Run("server error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Message: "unable to find index for $geoNear query",
			Name:    "BadValue",
		}))
		repo := NewSensorDocumentRepository(mt.Coll)

		_, err := repo.FindNear(ctx, 20, 10, 5000)
		assert.True(t, errors.IsType(err, errors.ErrorTypeDocumentStore))
	})
}
