package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/itsatony/w4b_v3/server/geosensor/internal/config"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/events"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/hubservice"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/models"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/monitoring"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Name)
	}
	return out
}

func TestStartStop(t *testing.T) {
	cfg := &config.Config{Server: config.ServerConfig{Host: "127.0.0.1", Port: 0, ReadTimeout: time.Second, WriteTimeout: time.Second}}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	srv := New(cfg, handler)

	require.NoError(t, srv.Start(context.Background()))
	resp, err := http.Get(fmt.Sprintf("http://%s/", srv.Addr()))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))
}

func TestSetupEventHandlers(t *testing.T) {
	calls := &testutil.Calls{}
	svc := hubservice.New(testutil.NewSensors(calls), testutil.NewTelemetry(calls), testutil.NewDocuments(calls))
	mon := monitoring.NewService(monitoring.Config{})
	pub := &recordingPublisher{}
	SetupEventHandlers(svc, mon, pub)

	ctx := context.Background()
	sensor, err := svc.CreateSensor(ctx, models.SensorCreate{Name: "s1", Longitude: 10, Latitude: 20})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteSensor(ctx, sensor.ID))

	assert.Eventually(t, func() bool {
		return len(pub.names()) == 2
	}, time.Second, 10*time.Millisecond)
	assert.ElementsMatch(t, []string{events.SensorCreated, events.SensorDeleted}, pub.names())
	assert.Eventually(t, func() bool {
		return mon.Snapshot()[events.SensorDeleted] == 1
	}, time.Second, 10*time.Millisecond)
}
