// Package testutil provides in-memory stand-ins for the three sensor stores.
package testutil

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/itsatony/w4b_v3/server/geosensor/internal/errors"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/models"
)

// EarthRadiusMeters matches the sphere used by 2dsphere queries.
const EarthRadiusMeters = 6378100.0

// Calls records store operations in call order, shared by the three fakes.
type Calls struct {
	mu  sync.Mutex
	log []string
}

func (c *Calls) add(op string) {
	c.mu.Lock()
	c.log = append(c.log, op)
	c.mu.Unlock()
}

// Log returns a copy of the recorded operations.
func (c *Calls) Log() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.log...)
}

// Sensors is an in-memory relational store.
type Sensors struct {
	mu     sync.Mutex
	calls  *Calls
	nextID int64
	rows   map[int64]*models.Sensor
	Now    func() time.Time
	// Fail, keyed by operation name, makes that operation return the error.
	Fail map[string]error
}

func NewSensors(calls *Calls) *Sensors {
	return &Sensors{
		calls: calls,
		rows:  map[int64]*models.Sensor{},
		Now:   func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) },
		Fail:  map[string]error{},
	}
}

func (s *Sensors) Create(_ context.Context, name string) (*models.Sensor, error) {
	s.calls.add("sensors.create")
	if err := s.Fail["create"]; err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.Name == name {
			return nil, errors.NewDatabaseError("failed to create sensor", nil)
		}
	}
	s.nextID++
	row := &models.Sensor{ID: s.nextID, Name: name, JoinedAt: s.Now()}
	s.rows[row.ID] = row
	cp := *row
	return &cp, nil
}

func (s *Sensors) Get(_ context.Context, id int64) (*models.Sensor, error) {
	s.calls.add("sensors.get")
	if err := s.Fail["get"]; err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return nil, errors.NewNotFoundError("sensor not found", nil)
	}
	cp := *row
	return &cp, nil
}

func (s *Sensors) GetByName(_ context.Context, name string) (*models.Sensor, error) {
	s.calls.add("sensors.get_by_name")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.Name == name {
			cp := *row
			return &cp, nil
		}
	}
	return nil, errors.NewNotFoundError("sensor not found", nil)
}

func (s *Sensors) List(_ context.Context, filters models.SensorFilters) ([]*models.Sensor, error) {
	s.calls.add("sensors.list")
	filters = filters.Normalize()
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.rows))
	for id := range s.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := []*models.Sensor{}
	for i, id := range ids {
		if i < filters.Skip || len(out) >= filters.Limit {
			continue
		}
		cp := *s.rows[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *Sensors) Delete(_ context.Context, id int64) error {
	s.calls.add("sensors.delete")
	if err := s.Fail["delete"]; err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return errors.NewNotFoundError("sensor not found", nil)
	}
	delete(s.rows, id)
	return nil
}

// Telemetry is an in-memory key-value store holding raw values per sensor and field.
type Telemetry struct {
	mu     sync.Mutex
	calls  *Calls
	Values map[int64]map[string]any
	Fail   map[string]error
}

func NewTelemetry(calls *Calls) *Telemetry {
	return &Telemetry{calls: calls, Values: map[int64]map[string]any{}, Fail: map[string]error{}}
}

func (t *Telemetry) Record(_ context.Context, sensorID int64, data models.SensorData) error {
	t.calls.add("telemetry.record")
	if err := t.Fail["record"]; err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	fields := t.Values[sensorID]
	if fields == nil {
		fields = map[string]any{}
		t.Values[sensorID] = fields
	}
	if data.Temperature != nil {
		fields[models.FieldTemperature] = *data.Temperature
	}
	if data.Humidity != nil {
		fields[models.FieldHumidity] = *data.Humidity
	}
	fields[models.FieldBatteryLevel] = data.BatteryLevel
	fields[models.FieldLastSeen] = data.LastSeen
	if data.Velocity != nil {
		fields[models.FieldVelocity] = *data.Velocity
	}
	return nil
}

func (t *Telemetry) Get(_ context.Context, sensorID int64) (models.Telemetry, error) {
	t.calls.add("telemetry.get")
	if err := t.Fail["get"]; err != nil {
		return models.Telemetry{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	fields := t.Values[sensorID]
	var out models.Telemetry
	floatField := func(name string) *float64 {
		if v, ok := fields[name].(float64); ok {
			return &v
		}
		return nil
	}
	out.Temperature = floatField(models.FieldTemperature)
	out.Humidity = floatField(models.FieldHumidity)
	out.BatteryLevel = floatField(models.FieldBatteryLevel)
	out.Velocity = floatField(models.FieldVelocity)
	if v, ok := fields[models.FieldLastSeen].(string); ok {
		out.LastSeen = &v
	}
	return out, nil
}

func (t *Telemetry) Delete(_ context.Context, sensorID int64) error {
	t.calls.add("telemetry.delete")
	if err := t.Fail["delete"]; err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.Values, sensorID)
	return nil
}

// Has reports whether a field was ever written for the sensor.
func (t *Telemetry) Has(sensorID int64, field string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.Values[sensorID][field]
	return ok
}

// Documents is an in-memory document store with a spherical proximity search.
type Documents struct {
	mu           sync.Mutex
	calls        *Calls
	docs         []*models.SensorDocument
	IndexEnsured int
	Fail         map[string]error
}

func NewDocuments(calls *Calls) *Documents {
	return &Documents{calls: calls, Fail: map[string]error{}}
}

func (d *Documents) Insert(_ context.Context, doc *models.SensorDocument) error {
	d.calls.add("documents.insert")
	if err := d.Fail["insert"]; err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := *doc
	d.docs = append(d.docs, &cp)
	return nil
}

func (d *Documents) FindByName(_ context.Context, name string) (*models.SensorDocument, error) {
	d.calls.add("documents.find_by_name")
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, doc := range d.docs {
		if doc.Name == name {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, errors.NewNotFoundError("sensor document not found", nil)
}

func (d *Documents) DeleteByName(_ context.Context, name string) error {
	d.calls.add("documents.delete_by_name")
	if err := d.Fail["delete"]; err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, doc := range d.docs {
		if doc.Name == name {
			d.docs = append(d.docs[:i], d.docs[i+1:]...)
			return nil
		}
	}
	return nil
}

func (d *Documents) EnsureGeoIndex(_ context.Context) error {
	d.calls.add("documents.ensure_geo_index")
	if err := d.Fail["index"]; err != nil {
		return err
	}
	d.mu.Lock()
	d.IndexEnsured++
	d.mu.Unlock()
	return nil
}

func (d *Documents) FindNear(_ context.Context, latitude, longitude, radius float64) ([]*models.SensorDocument, error) {
	d.calls.add("documents.find_near")
	d.mu.Lock()
	defer d.mu.Unlock()

	type hit struct {
		doc  *models.SensorDocument
		dist float64
	}
	var hits []hit
	for _, doc := range d.docs {
		dist := Distance(latitude, longitude, doc.Location.Latitude(), doc.Location.Longitude())
		if dist <= radius {
			cp := *doc
			hits = append(hits, hit{doc: &cp, dist: dist})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })

	out := make([]*models.SensorDocument, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.doc)
	}
	return out, nil
}

// Count returns the number of stored documents.
func (d *Documents) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.docs)
}

// Distance is the great-circle distance in metres between two points.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	const rad = math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(a)))
}
