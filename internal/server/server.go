// FilePath: internal/server/server.go
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/itsatony/w4b_v3/server/geosensor/internal/config"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/events"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/hubservice"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/monitoring"
	nuts "github.com/vaudience/go-nuts"
)

// EventPublisher forwards lifecycle events to a broker
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Server represents our HTTP server
type Server struct {
	config *config.Config
	srv    *http.Server
	addr   string
}

// New creates a new server instance
func New(cfg *config.Config, handler http.Handler) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Server{
		config: cfg,
		srv:    srv,
	}
}

// Start binds the listener and serves in the background. Bind errors are
// returned; later serve errors are logged.
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("error listening on %s: %w", s.srv.Addr, err)
	}
	s.addr = ln.Addr().String()

	go func() {
		nuts.L.Infof("[Server] Starting server on %s", s.addr)
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			nuts.L.Errorf("[Server] Error serving: %v", err)
		}
	}()
	return nil
}

// Addr is the bound listen address, valid after Start.
func (s *Server) Addr() string {
	return s.addr
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	nuts.L.Infof("[Server] Shutting down server...")

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}

	nuts.L.Infof("[Server] Server shut down successfully")
	return nil
}

// SetupEventHandlers counts every lifecycle event and, when pub is not nil,
// forwards it to the broker.
func SetupEventHandlers(svc *hubservice.HubService, mon *monitoring.Service, pub EventPublisher) {
	for _, name := range events.All {
		svc.OnEvent(name, "server_event_handler", func(evt events.Event) {
			nuts.L.Debugf("[Events] %s for sensor %s (%d)", evt.Name, evt.SensorName, evt.SensorID)
			mon.RecordEvent(evt.Name, map[string]string{
				"sensor_id":   strconv.FormatInt(evt.SensorID, 10),
				"sensor_name": evt.SensorName,
			})

			if pub == nil {
				return
			}
			if err := pub.Publish(context.Background(), evt); err != nil {
				nuts.L.Warnf("[Events] Failed to publish %s (%s): %v", evt.Name, evt.ID, err)
			}
		})
	}
}
