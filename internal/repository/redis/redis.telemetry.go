// FilePath: internal/repository/redis/redis.telemetry.go
package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/itsatony/w4b_v3/server/geosensor/internal/errors"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/models"
	goredis "github.com/redis/go-redis/v9"
)

// TelemetryKey names the cache entry of one telemetry field: sensor-{id}:{field}.
func TelemetryKey(sensorID int64, field string) string {
	return fmt.Sprintf("sensor-%d:%s", sensorID, field)
}

type TelemetryRepo struct {
	client goredis.Cmdable
}

func NewTelemetryRepository(client goredis.Cmdable) *TelemetryRepo {
	return &TelemetryRepo{client: client}
}

// Record writes the submission in one pipeline. Optional fields that are nil
// keep whatever value the cache already holds. Keys carry no TTL.
func (r *TelemetryRepo) Record(ctx context.Context, sensorID int64, data models.SensorData) error {
	_, err := r.client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		if data.Temperature != nil {
			pipe.Set(ctx, TelemetryKey(sensorID, models.FieldTemperature), *data.Temperature, 0)
		}
		if data.Humidity != nil {
			pipe.Set(ctx, TelemetryKey(sensorID, models.FieldHumidity), *data.Humidity, 0)
		}
		pipe.Set(ctx, TelemetryKey(sensorID, models.FieldBatteryLevel), data.BatteryLevel, 0)
		pipe.Set(ctx, TelemetryKey(sensorID, models.FieldLastSeen), data.LastSeen, 0)
		if data.Velocity != nil {
			pipe.Set(ctx, TelemetryKey(sensorID, models.FieldVelocity), *data.Velocity, 0)
		}
		return nil
	})
	if err != nil {
		return errors.NewCacheError("failed to record telemetry", err)
	}
	return nil
}

func (r *TelemetryRepo) Get(ctx context.Context, sensorID int64) (models.Telemetry, error) {
	keys := telemetryKeys(sensorID)
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return models.Telemetry{}, errors.NewCacheError("failed to read telemetry", err)
	}

	var t models.Telemetry
	for i, field := range models.TelemetryFields {
		raw, ok := values[i].(string)
		if !ok {
			continue
		}
		if field == models.FieldLastSeen {
			lastSeen := raw
			t.LastSeen = &lastSeen
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return models.Telemetry{}, errors.NewCacheError(fmt.Sprintf("malformed %s value %q", field, raw), err)
		}
		switch field {
		case models.FieldTemperature:
			t.Temperature = &v
		case models.FieldHumidity:
			t.Humidity = &v
		case models.FieldBatteryLevel:
			t.BatteryLevel = &v
		case models.FieldVelocity:
			t.Velocity = &v
		}
	}
	return t, nil
}

func (r *TelemetryRepo) Delete(ctx context.Context, sensorID int64) error {
	if err := r.client.Del(ctx, telemetryKeys(sensorID)...).Err(); err != nil {
		return errors.NewCacheError("failed to delete telemetry", err)
	}
	return nil
}

func telemetryKeys(sensorID int64) []string {
	keys := make([]string, len(models.TelemetryFields))
	for i, field := range models.TelemetryFields {
		keys[i] = TelemetryKey(sensorID, field)
	}
	return keys
}
