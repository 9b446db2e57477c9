package hubservice

import (
	"context"

	"github.com/itsatony/w4b_v3/server/geosensor/internal/errors"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/models"
)

// FindNear returns the full view of every sensor within q.Radius metres of the
// point, nearest first. Any document without a relational row aborts the call.
func (s *HubService) FindNear(ctx context.Context, q models.NearQuery) ([]*models.SensorView, error) {
	if err := s.Documents.EnsureGeoIndex(ctx); err != nil {
		return nil, err
	}

	docs, err := s.Documents.FindNear(ctx, q.Latitude, q.Longitude, q.Radius)
	if err != nil {
		return nil, err
	}

	views := make([]*models.SensorView, 0, len(docs))
	for _, doc := range docs {
		sensor, err := s.Sensors.GetByName(ctx, doc.Name)
		if err != nil {
			if errors.IsNotFound(err) {
				return nil, errors.NewInconsistencyError("document "+doc.Name+" has no sensor row", err)
			}
			return nil, err
		}

		view, err := s.GetData(ctx, sensor.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}
