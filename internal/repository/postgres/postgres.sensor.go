// FilePath: internal/repository/postgres/postgres.sensor.go
package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/itsatony/w4b_v3/server/geosensor/internal/database"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/errors"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

type SensorRepo struct {
	PostgresBaseRepo
}

func NewSensorRepository(db database.DB) *SensorRepo {
	return &SensorRepo{PostgresBaseRepo: PostgresBaseRepo{db: db}}
}

// Create inserts the identity row; id and joined_at are assigned by the store.
func (r *SensorRepo) Create(ctx context.Context, name string) (*models.Sensor, error) {
	sensor := &models.Sensor{}
	query := `
		INSERT INTO sensors (name)
		VALUES ($1)
		RETURNING id, name, joined_at`

	err := r.db.GetDB().GetContext(ctx, sensor, query, name)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to create sensor", err)
	}
	nuts.L.Debugf("[SensorRepo] Created sensor %d (%s)", sensor.ID, sensor.Name)
	return sensor, nil
}

func (r *SensorRepo) Get(ctx context.Context, id int64) (*models.Sensor, error) {
	sensor := &models.Sensor{}
	query := `SELECT id, name, joined_at FROM sensors WHERE id = $1`

	err := r.db.GetDB().GetContext(ctx, sensor, query, id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("sensor not found", err)
		}
		return nil, errors.NewDatabaseError("failed to get sensor", err)
	}
	return sensor, nil
}

func (r *SensorRepo) GetByName(ctx context.Context, name string) (*models.Sensor, error) {
	sensor := &models.Sensor{}
	query := `SELECT id, name, joined_at FROM sensors WHERE name = $1`

	err := r.db.GetDB().GetContext(ctx, sensor, query, name)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("sensor not found", err)
		}
		return nil, errors.NewDatabaseError("failed to get sensor by name", err)
	}
	return sensor, nil
}

func (r *SensorRepo) List(ctx context.Context, filters models.SensorFilters) ([]*models.Sensor, error) {
	filters = filters.Normalize()
	sensors := []*models.Sensor{}
	query := `SELECT id, name, joined_at FROM sensors ORDER BY id OFFSET $1 LIMIT $2`

	err := r.db.GetDB().SelectContext(ctx, &sensors, query, filters.Skip, filters.Limit)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list sensors", err)
	}
	return sensors, nil
}

func (r *SensorRepo) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM sensors WHERE id = $1`

	result, err := r.db.GetDB().ExecContext(ctx, query, id)
	if err != nil {
		return errors.NewDatabaseError("failed to delete sensor", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}

	if rows == 0 {
		return errors.NewNotFoundError("sensor not found", nil)
	}

	return nil
}
